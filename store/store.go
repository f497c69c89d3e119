package store

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

var (
	codespace = "store"

	// ErrChainNotFound is returned when no ChainState exists for a chain id.
	ErrChainNotFound = errorsmod.Register(codespace, 2, "chain state not found")
	// ErrChainAlreadyExists enforces storage uniqueness on chain id.
	ErrChainAlreadyExists = errorsmod.Register(codespace, 3, "chain state already exists")
	// ErrConnectionNotFound is returned when no connection is recorded for a chain id.
	ErrConnectionNotFound = errorsmod.Register(codespace, 4, "connection not found")
	// ErrChannelNotFound is returned when no channel exists for a port id.
	ErrChannelNotFound = errorsmod.Register(codespace, 5, "channel not found")
	// ErrClientStateNotFound is returned when no tendermint client state is stored for a client id.
	ErrClientStateNotFound = errorsmod.Register(codespace, 6, "tendermint client state not found")
	// ErrConsensusStateNotFound is returned when no tendermint consensus state is stored for a (client id, height) pair.
	ErrConsensusStateNotFound = errorsmod.Register(codespace, 7, "tendermint consensus state not found")
	// ErrICAAddressNotFound is returned when no interchain account address is registered.
	ErrICAAddressNotFound = errorsmod.Register(codespace, 8, "interchain account address not found")
)

// Tx is a storage transaction: every mutating Store method called through a
// Tx is visible only once Commit succeeds, and discarded entirely on
// Rollback. Callers perform the remote RPC broadcast BEFORE opening a Tx,
// and only write local state (via a Tx) once the broadcast succeeded.
type Tx interface {
	Store
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the persistence contract the protocol engine consumes. All
// methods are also exposed on Tx so callers can use either a Store directly
// or a scoped Tx with identical call sites.
type Store interface {
	AddChainState(ctx context.Context, cs *ChainState) error
	GetChainState(ctx context.Context, chainID ibc.ChainID) (*ChainState, error)
	UpdateChainState(ctx context.Context, cs *ChainState) error
	GetAllChainStates(ctx context.Context, limit, offset int) ([]*ChainState, error)

	AddChainKey(ctx context.Context, key ChainKey) error
	GetChainKeys(ctx context.Context, chainID ibc.ChainID) ([]ChainKey, error)

	AddOperation(ctx context.Context, op Operation) error
	GetOperations(ctx context.Context, chainID ibc.ChainID, limit, offset int) ([]Operation, error)

	AddTendermintClientState(ctx context.Context, cs TendermintClientState) error
	GetTendermintClientState(ctx context.Context, clientID string) (TendermintClientState, error)

	AddTendermintConsensusState(ctx context.Context, cs TendermintConsensusState) error
	GetTendermintConsensusState(ctx context.Context, clientID string, height uint64) (TendermintConsensusState, error)

	AddConnection(ctx context.Context, chainID ibc.ChainID, details ConnectionDetails) error
	GetConnection(ctx context.Context, chainID ibc.ChainID) (ConnectionDetails, error)
	UpdateConnection(ctx context.Context, chainID ibc.ChainID, details ConnectionDetails) error

	AddChannel(ctx context.Context, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error
	GetChannel(ctx context.Context, chainID ibc.ChainID, portID ibc.PortID) (ChannelDetails, error)
	UpdateChannel(ctx context.Context, chainID ibc.ChainID, portID ibc.PortID, details ChannelDetails) error

	AddICAAddress(ctx context.Context, addr ICAAddress) error
	GetICAAddress(ctx context.Context, chainID ibc.ChainID, connectionID ibc.ConnectionID, portID ibc.PortID) (ICAAddress, error)
	UpdateICAAddress(ctx context.Context, addr ICAAddress) error

	// Delete removes chainID's ChainState, chain keys, operations,
	// connection, channels and interchain account addresses; used by tests.
	// Tendermint client and consensus states, keyed by client id, are not
	// removed.
	Delete(ctx context.Context, chainID ibc.ChainID) error
}

// TransactionProvider is implemented by a Store capable of producing scoped
// transactions.
type TransactionProvider interface {
	Store
	Transaction(ctx context.Context) (Tx, error)
}
