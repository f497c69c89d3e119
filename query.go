package solomachine

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/store"
)

// Balance queries the counterparty bank module for address's balance of
// denom.
func (e *Engine) Balance(ctx context.Context, address, denom string) (sdkmath.Int, error) {
	return e.RPC.Balance(ctx, address, denom)
}

// History returns chainID's operation audit log, newest first.
func (e *Engine) History(ctx context.Context, chainID ibc.ChainID, limit, offset int) ([]store.Operation, error) {
	return e.Store.GetOperations(ctx, chainID, limit, offset)
}

// ChainKeys returns every ChainKey ever registered against chainID,
// including ones superseded by signer rotation.
func (e *Engine) ChainKeys(ctx context.Context, chainID ibc.ChainID) ([]store.ChainKey, error) {
	return e.Store.GetChainKeys(ctx, chainID)
}

// Chain returns the persisted ChainState for chainID.
func (e *Engine) Chain(ctx context.Context, chainID ibc.ChainID) (*store.ChainState, error) {
	return e.Store.GetChainState(ctx, chainID)
}

// Chains returns one page of registered chains.
func (e *Engine) Chains(ctx context.Context, limit, offset int) ([]*store.ChainState, error) {
	return e.Store.GetAllChainStates(ctx, limit, offset)
}
