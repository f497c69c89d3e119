// Package store defines the persistence contract the protocol engine
// consumes (Store) and the domain records it persists, plus one concrete
// in-memory implementation for tests and local operation.
package store

import (
	"time"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

// ErrInvalidTrustLevel is returned when a ChainConfig's trust level ratio
// falls outside the [1/3, 1] range.
var ErrInvalidTrustLevel = errorsmod.Register(codespace, 1, "trust level must satisfy 1/3 <= numerator/denominator <= 1")

// Fee is the gas fee the transaction builder attaches to every broadcast
// transaction for a chain.
type Fee struct {
	Amount   sdkmath.Int
	Denom    string
	GasLimit uint64
}

// ChainConfig holds the immutable registration parameters for a remote
// chain, matching the persisted JSON wire format.
type ChainConfig struct {
	GRPCAddr                  string
	RPCAddr                   string
	Fee                       Fee
	TrustLevelNumerator       uint64
	TrustLevelDenominator     uint64
	TrustingPeriod            time.Duration
	MaxClockDrift             time.Duration
	RPCTimeout                time.Duration
	Diversifier               string
	TrustedHeight             uint64
	TrustedHash               [32]byte
	PacketTimeoutHeightOffset uint64
}

// Validate checks a ChainConfig before it is persisted: the trust level
// ratio must satisfy
// 1/3 <= numerator/denominator <= 1 (cross-multiplied to stay in integer
// arithmetic: numerator*3 >= denominator and numerator <= denominator), and
// the denominator must be non-zero.
func (c ChainConfig) Validate() error {
	if c.TrustLevelDenominator == 0 {
		return errorsmod.Wrap(ErrInvalidTrustLevel, "denominator cannot be 0")
	}
	if c.TrustLevelNumerator*3 < c.TrustLevelDenominator || c.TrustLevelNumerator > c.TrustLevelDenominator {
		return errorsmod.Wrapf(ErrInvalidTrustLevel, "got %d/%d", c.TrustLevelNumerator, c.TrustLevelDenominator)
	}
	return nil
}

// ChannelDetails tracks one open channel's identifiers, its negotiated
// ordering and version, and its per-channel monotonic packet sequence
// counter (starts at 1). Ordering and Version are kept because the
// counterparty reconstructs the expected channel end from them when
// verifying a close-channel proof.
type ChannelDetails struct {
	PacketSequence       uint64
	Ordering             channeltypes.Order
	Version              string
	SoloMachinePortID    ibc.PortID
	TendermintPortID     ibc.PortID
	SoloMachineChannelID ibc.ChannelID
	TendermintChannelID  ibc.ChannelID
}

// ConnectionDetails records the result of a completed client+connection
// handshake and the channels opened over it, keyed by the solo-machine-side
// port id.
type ConnectionDetails struct {
	SoloMachineClientID     ibc.ClientID
	TendermintClientID      ibc.ClientID
	SoloMachineConnectionID ibc.ConnectionID
	TendermintConnectionID  ibc.ConnectionID
	Channels                map[ibc.PortID]ChannelDetails
}

// ChainState is the one persistent record per remote chain the engine
// mutates transactionally.
type ChainState struct {
	ID                 ibc.ChainID
	NodeID             string
	Config             ChainConfig
	ConsensusTimestamp time.Time
	Sequence           uint64
	ConnectionDetails  *ConnectionDetails
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsConnected reports whether the client+connection handshake has completed.
func (c *ChainState) IsConnected() bool {
	return c.ConnectionDetails != nil
}

// HasChannel reports whether a channel exists for portID.
func (c *ChainState) HasChannel(portID ibc.PortID) bool {
	if c.ConnectionDetails == nil {
		return false
	}
	_, ok := c.ConnectionDetails.Channels[portID]
	return ok
}

// OperationType enumerates the audit-log operation kinds.
type OperationType string

const (
	OperationMint             OperationType = "mint"
	OperationBurn             OperationType = "burn"
	OperationSend             OperationType = "send"
	OperationReceive          OperationType = "receive"
	OperationDelegateICA      OperationType = "delegate-ica"
	OperationUndelegateICA    OperationType = "undelegate-ica"
)

// Operation is an append-only audit record of a token/ICA operation.
type Operation struct {
	ID            uint64
	ChainID       ibc.ChainID
	RequestID     *string
	OperationType OperationType
	Address       string
	Denom         string
	Amount        sdkmath.Int
	CreatedAt     time.Time
}

// ChainKey is a named public key registered against a chain, preserving
// history across signer rotation.
type ChainKey struct {
	ChainID   ibc.ChainID
	PublicKey []byte
	Name      string
	CreatedAt time.Time
}

// ICAAddress is the persisted controller->host interchain account address
// mapping.
type ICAAddress struct {
	ChainID      ibc.ChainID
	ConnectionID ibc.ConnectionID
	PortID       ibc.PortID
	Address      string
}

// TendermintClientState and TendermintConsensusState are stored verbatim as
// protobuf-marshaled bytes of the real ibc-go 07-tendermint types; the store
// package does not need to know their structure, only to round-trip them.
type TendermintClientState struct {
	ClientID string
	Bytes    []byte
}

// TendermintConsensusState is keyed by (clientID, height).
type TendermintConsensusState struct {
	ClientID string
	Height   uint64
	Bytes    []byte
}
