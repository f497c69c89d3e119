package solomachine

import (
	"context"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

// Mint makes tokens appear on the remote chain; see packet.Engine.Mint.
func (e *Engine) Mint(ctx context.Context, chainID ibc.ChainID, denom, receiver string, amount sdkmath.Int, requestID *string) error {
	return e.packet.Mint(ctx, chainID, denom, receiver, amount, requestID)
}

// Burn destroys previously minted tokens on the remote chain; see
// packet.Engine.Burn.
func (e *Engine) Burn(ctx context.Context, chainID ibc.ChainID, denom string, amount sdkmath.Int, requestID *string) error {
	return e.packet.Burn(ctx, chainID, denom, amount, requestID)
}

// ProcessPackets acknowledges packets addressed to the solo machine; see
// packet.Engine.ProcessPackets.
func (e *Engine) ProcessPackets(ctx context.Context, chainID ibc.ChainID, packets []channeltypes.Packet, requestID *string) error {
	return e.packet.ProcessPackets(ctx, chainID, packets, requestID)
}

// ICASend sends tokens from the interchain account; see packet.Engine.ICASend.
func (e *Engine) ICASend(ctx context.Context, chainID ibc.ChainID, toAddress string, coins sdktypes.Coins, requestID *string) error {
	return e.packet.ICASend(ctx, chainID, toAddress, coins, requestID)
}

// ICADelegate stakes from the interchain account; see packet.Engine.ICADelegate.
func (e *Engine) ICADelegate(ctx context.Context, chainID ibc.ChainID, validatorAddress string, amount sdktypes.Coin, requestID *string) error {
	return e.packet.ICADelegate(ctx, chainID, validatorAddress, amount, requestID)
}

// ICAUndelegate unstakes from the interchain account; see
// packet.Engine.ICAUndelegate.
func (e *Engine) ICAUndelegate(ctx context.Context, chainID ibc.ChainID, validatorAddress string, amount sdktypes.Coin, requestID *string) error {
	return e.packet.ICAUndelegate(ctx, chainID, validatorAddress, amount, requestID)
}

// UpdateSigner rotates the solo machine's signing key; see
// packet.Engine.UpdateSigner.
func (e *Engine) UpdateSigner(ctx context.Context, chainID ibc.ChainID, newDiversifier, keyName string, requestID *string) error {
	return e.packet.UpdateSigner(ctx, chainID, newDiversifier, keyName, requestID)
}
