package packet

import (
	"context"
	"time"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	solomachinesignbytes "github.com/cosmos/ibc-go/v8/modules/core/02-client/migrations/v7"
	solomachine "github.com/cosmos/ibc-go/v8/modules/light-clients/06-solomachine"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/store"
)

// UpdateSigner rotates the signing key: it broadcasts MsgUpdateClient
// carrying a SoloMachineHeader whose signature attests the new public key
// under the current sequence, then records the rotation as a new ChainKey
// row (not an overwrite) preserving signer history. keyName labels the
// rotated key for later lookup via GetChainKeys.
func (e *Engine) UpdateSigner(ctx context.Context, chainID ibc.ChainID, newDiversifier, keyName string, requestID *string) error {
	unlock := e.locks.lock(chainID)
	defer unlock()

	chainState, err := e.Store.GetChainState(ctx, chainID)
	if err != nil {
		return err
	}
	if chainState.ConnectionDetails == nil {
		return ErrNoChannel
	}

	newPubKey, err := e.Signer.GetPublicKey(chainID)
	if err != nil {
		return err
	}
	anyNewPubKey, err := codectypes.NewAnyWithValue(newPubKey.Key)
	if err != nil {
		return err
	}

	headerData := &solomachinesignbytes.HeaderData{
		NewPubKey:      anyNewPubKey,
		NewDiversifier: newDiversifier,
	}

	sequence := chainState.Sequence
	signBytes, err := proof.BuildSignBytes(proof.KindHeader, chainState, sequence, ibc.Path(""), headerData)
	if err != nil {
		return err
	}
	// Non-timestamped: the raw SignatureData bytes are the proof for the
	// header-update message.
	sig, err := proof.Sign(ctx, e.Signer, requestID, chainID, signBytes)
	if err != nil {
		return err
	}

	header := &solomachine.Header{
		Timestamp:      uint64(chainState.ConsensusTimestamp.Unix()), //nolint:gosec
		Signature:      sig,
		NewPublicKey:   anyNewPubKey,
		NewDiversifier: newDiversifier,
	}
	anyHeader, err := codectypes.NewAnyWithValue(header)
	if err != nil {
		return err
	}

	signerAddr, err := e.Signer.ToAccountAddress(chainID)
	if err != nil {
		return err
	}
	msg := &clienttypes.MsgUpdateClient{
		ClientId:      string(chainState.ConnectionDetails.SoloMachineClientID),
		ClientMessage: anyHeader,
		Signer:        signerAddr,
	}

	if _, err := broadcast(ctx, e.RPC, e.Signer, chainState, []proto.Message{msg}, "update signer", requestID); err != nil {
		return err
	}
	chainState.Sequence = sequence + 1
	chainState.Config.Diversifier = newDiversifier

	tx, err := e.Store.Transaction(ctx)
	if err != nil {
		return err
	}
	if err := tx.UpdateChainState(ctx, chainState); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.AddChainKey(ctx, store.ChainKey{
		ChainID:   chainID,
		PublicKey: newPubKey.Key.Bytes(),
		Name:      keyName,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	e.Events.Notify(event.Event{Kind: event.KindSignerUpdated, ChainID: chainID})
	return nil
}
