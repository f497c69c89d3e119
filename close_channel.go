package solomachine

import (
	"context"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/handshake"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/store"
)

// CloseChannel drives handshake.CloseChannel, then, on success, removes
// the entry from ConnectionDetails.Channels and persists the result in one
// storage transaction.
func (e *Engine) CloseChannel(ctx context.Context, chainID ibc.ChainID, portID ibc.PortID, requestID *string) error {
	unlock := e.lock(chainID)
	defer unlock()

	chainState, err := e.Store.GetChainState(ctx, chainID)
	if err != nil {
		return err
	}
	if chainState.ConnectionDetails == nil {
		return store.ErrConnectionNotFound
	}
	details, ok := chainState.ConnectionDetails.Channels[portID]
	if !ok {
		return store.ErrChannelNotFound
	}

	if err := handshake.CloseChannel(ctx, e.RPC, e.Signer, chainState, details, requestID); err != nil {
		return err
	}
	delete(chainState.ConnectionDetails.Channels, portID)

	tx, err := e.Store.Transaction(ctx)
	if err != nil {
		return err
	}
	if err := tx.UpdateChainState(ctx, chainState); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.UpdateConnection(ctx, chainID, *chainState.ConnectionDetails); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	e.Events.Notify(event.Event{Kind: event.KindChannelClosed, ChainID: chainID, PortID: portID, ChannelID: details.SoloMachineChannelID})
	return nil
}
