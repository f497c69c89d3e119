package signing

import (
	"context"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

// MessageKind tags a byte slice handed to a Signer so implementations can
// apply type-specific handling (e.g. a hardware wallet prompting a different
// confirmation screen for a raw SignBytes proof versus a cosmos-sdk tx).
type MessageKind string

const (
	// KindSignBytes tags a solo-machine proof payload
	// (06-solomachine SignBytes, protobuf-encoded).
	KindSignBytes MessageKind = "sign-bytes"
	// KindSignDoc tags a cosmos-sdk transaction SignDoc payload.
	KindSignDoc MessageKind = "sign-doc"
)

// Message is the tagged byte slice passed to Signer.Sign.
type Message struct {
	Kind MessageKind
	Data []byte
}

// Bytes returns the underlying payload.
func (m Message) Bytes() []byte { return m.Data }

// GetPublicKey is implemented by every signer backend (mnemonic, hardware
// wallet, browser extension, ...).
type GetPublicKey interface {
	GetPublicKey(chainID ibc.ChainID) (PublicKey, error)
	AccountPrefix(chainID ibc.ChainID) (string, error)
	ToAccountAddress(chainID ibc.ChainID) (string, error)
}

// Signer is implemented by every transaction signer backend.
type Signer interface {
	GetPublicKey

	// Sign signs message on behalf of chainID. requestID, when non-nil, is
	// forwarded to the backend purely for tracing/audit purposes.
	Sign(ctx context.Context, requestID *string, chainID ibc.ChainID, message Message) ([]byte, error)
}
