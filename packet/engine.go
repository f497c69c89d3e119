package packet

import (
	"cosmossdk.io/log"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// Engine bundles the collaborators the packet operations need, plus its own
// per-chain mutex registry serializing mint/burn/process-packets/ICA/
// update-signer calls against the same chain.
type Engine struct {
	RPC    rpcclient.Client
	Signer signing.Signer
	Store  store.TransactionProvider
	Events event.Sink
	Logger log.Logger
	locks  *chainLocks
}

// NewEngine constructs a packet Engine. Panics if any required collaborator
// is nil, matching handshake.NewEngine's nil-check convention.
func NewEngine(rpc rpcclient.Client, signer signing.Signer, st store.TransactionProvider, sink event.Sink, logger log.Logger) *Engine {
	if rpc == nil {
		panic("packet: rpc client must not be nil")
	}
	if signer == nil {
		panic("packet: signer must not be nil")
	}
	if st == nil {
		panic("packet: store must not be nil")
	}
	if sink == nil {
		sink = event.NopSink{}
	}
	return &Engine{RPC: rpc, Signer: signer, Store: st, Events: sink, Logger: logger, locks: newChainLocks()}
}

// transferChannel returns the stored ChannelDetails for the ICS-20 transfer
// port, failing with ErrNoChannel if the chain has not connected or the
// channel is missing.
func transferChannel(chainState *store.ChainState) (store.ChannelDetails, error) {
	return namedChannel(chainState, ibc.PortTransfer)
}

// namedChannel returns the stored ChannelDetails for portName, failing with
// ErrNoChannel if the chain has not connected or the channel is missing.
func namedChannel(chainState *store.ChainState, portName string) (store.ChannelDetails, error) {
	if chainState.ConnectionDetails == nil {
		return store.ChannelDetails{}, ErrNoChannel
	}
	portID, err := ibc.NewPortID(portName)
	if err != nil {
		return store.ChannelDetails{}, err
	}
	details, ok := chainState.ConnectionDetails.Channels[portID]
	if !ok {
		return store.ChannelDetails{}, ErrNoChannel
	}
	return details, nil
}
