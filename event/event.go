// Package event defines the in-process event sink the protocol engine
// notifies as handshake and packet operations complete; there is no
// external message bus.
package event

import (
	sdkmath "cosmossdk.io/math"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

// Kind tags which concrete event a Sink receives.
type Kind string

const (
	KindChainAdded            Kind = "chain-added"
	KindConnectionEstablished Kind = "connection-established"
	KindChannelCreated        Kind = "channel-created"
	KindChannelClosed         Kind = "channel-closed"
	KindTokensMinted          Kind = "tokens-minted"
	KindTokensBurnt           Kind = "tokens-burnt"
	KindSignerUpdated         Kind = "signer-updated"
	KindPacketProcessFailed   Kind = "packet-process-failed"
	KindICAExecuted           Kind = "ica-executed"
)

// Event is a single tagged notification. Only the field(s) relevant to Kind
// are populated; the rest are zero values.
type Event struct {
	Kind         Kind
	ChainID      ibc.ChainID
	ConnectionID ibc.ConnectionID
	PortID       ibc.PortID
	ChannelID    ibc.ChannelID
	Denom        string
	Amount       sdkmath.Int
	Address      string
	Message      string
}

// Sink receives events as the engine emits them. Implementations must not
// block the caller for long; a buffered channel or async forwarder is the
// caller's responsibility, not the engine's.
type Sink interface {
	Notify(e Event)
}

// NopSink discards every event; used when no caller-supplied Sink is wired.
type NopSink struct{}

// Notify implements Sink.
func (NopSink) Notify(Event) {}

// ChanSink forwards every event onto a buffered channel, for callers that
// want to observe the event stream (e.g. the CLI's progress output or a
// test harness asserting on emitted events).
type ChanSink struct {
	C chan Event
}

// NewChanSink allocates a ChanSink with the given buffer size.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{C: make(chan Event, buffer)}
}

// Notify implements Sink. It drops the event rather than blocking if the
// channel buffer is full.
func (s *ChanSink) Notify(e Event) {
	select {
	case s.C <- e:
	default:
	}
}
