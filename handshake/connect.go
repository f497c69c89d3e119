package handshake

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// Engine bundles the collaborators the handshake package's top-level
// entrypoint needs, plus a per-chain mutex registry serializing handshake
// calls against the same chain.
type Engine struct {
	RPC    rpcclient.Client
	Signer signing.Signer
	Store  store.TransactionProvider
	Events event.Sink
	Logger log.Logger
	locks  *chainLocks
}

// NewEngine constructs a handshake Engine. Panics if any required
// collaborator is nil.
func NewEngine(rpc rpcclient.Client, signer signing.Signer, st store.TransactionProvider, sink event.Sink, logger log.Logger) *Engine {
	if rpc == nil {
		panic("handshake: rpc client must not be nil")
	}
	if signer == nil {
		panic("handshake: signer must not be nil")
	}
	if st == nil {
		panic("handshake: store must not be nil")
	}
	if sink == nil {
		sink = event.NopSink{}
	}
	return &Engine{RPC: rpc, Signer: signer, Store: st, Events: sink, Logger: logger, locks: newChainLocks()}
}

// Connect drives the full client+connection+channel handshake for chainID.
// If force is false and the chain is already connected, it returns
// ErrAlreadyConnected without mutating state; if force is true, it resets
// sequence to 1 and produces a fresh ConnectionDetails, opening both the
// ICS-20 transfer channel and an ICS-27 ICA channel.
func (e *Engine) Connect(ctx context.Context, chainID ibc.ChainID, force bool, requestID *string) (*store.ChainState, error) {
	unlock := e.locks.lock(chainID)
	defer unlock()

	chainState, err := e.Store.GetChainState(ctx, chainID)
	if err != nil {
		return nil, err
	}

	if chainState.IsConnected() && !force {
		return nil, errorsmod.Wrapf(ErrAlreadyConnected, "chain %s is already connected", chainState.ID.String())
	}

	if force {
		chainState.Sequence = 1
		chainState.ConnectionDetails = nil
	}

	soloClientID, tmClientID, err := CreateClients(ctx, e.RPC, e.Signer, e.Store, chainState, requestID)
	if err != nil {
		return nil, err
	}

	details, err := OpenConnection(ctx, e.RPC, e.Signer, e.Store, chainState, soloClientID, tmClientID, requestID)
	if err != nil {
		return nil, err
	}

	transferDetails, err := openTransferChannel(ctx, e.RPC, e.Signer, chainState, details.TendermintConnectionID, requestID)
	if err != nil {
		return nil, err
	}
	details.Channels[transferDetails.SoloMachinePortID] = transferDetails

	icaResult, err := openICAChannel(ctx, e.RPC, e.Signer, chainState, details.TendermintConnectionID, details.SoloMachineConnectionID, requestID)
	if err != nil {
		return nil, err
	}
	details.Channels[icaResult.Details.SoloMachinePortID] = icaResult.Details

	chainState.ConnectionDetails = &details

	tx, err := e.Store.Transaction(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateChainState(ctx, chainState); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.AddConnection(ctx, chainState.ID, details); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	for portID, cd := range details.Channels {
		if err := tx.AddChannel(ctx, chainState.ID, portID, cd); err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
	}
	if icaResult.Address != "" {
		if err := tx.AddICAAddress(ctx, store.ICAAddress{
			ChainID:      chainState.ID,
			ConnectionID: details.TendermintConnectionID,
			PortID:       icaResult.Details.SoloMachinePortID,
			Address:      icaResult.Address,
		}); err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	e.Events.Notify(event.Event{Kind: event.KindConnectionEstablished, ChainID: chainState.ID, ConnectionID: details.TendermintConnectionID})
	return chainState, nil
}
