package packet

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	transfertypes "github.com/cosmos/ibc-go/v8/modules/apps/transfer/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/store"
)

// Mint makes tokens appear on the remote chain: the solo machine asserts,
// via a packet-commitment proof, that it originated a FungibleTokenPacket; the
// remote chain's transfer module mints the corresponding voucher denom to
// receiver. requestID is forwarded to the signer for tracing.
func (e *Engine) Mint(ctx context.Context, chainID ibc.ChainID, denom, receiver string, amount sdkmath.Int, requestID *string) error {
	unlock := e.locks.lock(chainID)
	defer unlock()

	chainState, err := e.Store.GetChainState(ctx, chainID)
	if err != nil {
		return err
	}
	channelDetails, err := transferChannel(chainState)
	if err != nil {
		return err
	}

	senderAddr, err := e.Signer.ToAccountAddress(chainID)
	if err != nil {
		return err
	}

	packetData := transfertypes.FungibleTokenPacketData{
		Denom:    denom,
		Amount:   amount.String(),
		Sender:   senderAddr,
		Receiver: receiver,
		Memo:     "",
	}

	status, err := e.RPC.Status(ctx)
	if err != nil {
		return err
	}
	timeoutHeight := clienttypes.NewHeight(
		chainState.ID.RevisionNumber(),
		uint64(status.SyncInfo.LatestBlockHeight)+chainState.Config.PacketTimeoutHeightOffset, //nolint:gosec
	)

	pkt := channeltypes.NewPacket(
		packetData.GetBytes(),
		channelDetails.PacketSequence,
		string(channelDetails.SoloMachinePortID), string(channelDetails.TendermintChannelID),
		string(channelDetails.TendermintPortID), string(channelDetails.SoloMachineChannelID),
		timeoutHeight, 0,
	)
	commitment := channeltypes.CommitPacket(nil, pkt)

	sequence := chainState.Sequence
	commitPath := ibc.PacketCommitmentPath(channelDetails.SoloMachinePortID, channelDetails.TendermintChannelID, channelDetails.PacketSequence)
	signBytes, err := proof.BuildSignBytes(proof.KindPacketCommitment, chainState, sequence, commitPath, proof.RawBytes(commitment))
	if err != nil {
		return err
	}
	proofCommitment, err := proof.TimestampedSign(ctx, e.Signer, requestID, chainState, signBytes)
	if err != nil {
		return err
	}

	signerAddr, err := e.Signer.ToAccountAddress(chainID)
	if err != nil {
		return err
	}
	msg := &channeltypes.MsgRecvPacket{
		Packet:          pkt,
		ProofCommitment: proofCommitment,
		ProofHeight:     clienttypes.NewHeight(chainState.ID.RevisionNumber(), sequence),
		Signer:          signerAddr,
	}

	result, err := broadcast(ctx, e.RPC, e.Signer, chainState, []proto.Message{msg}, "mint", requestID)
	if err != nil {
		return err
	}

	// The broadcast reached the remote chain regardless of the application
	// level acknowledgement, so the sequence and channel counter are
	// consumed either way; they are only withheld when the broadcast itself
	// never reached the remote.
	chainState.Sequence = sequence + 1
	channelDetails.PacketSequence++
	chainState.ConnectionDetails.Channels[channelDetails.SoloMachinePortID] = channelDetails

	success := result.attributeOptional(transferEventPacket, transferAttrSuccess) == "true"

	tx, err := e.Store.Transaction(ctx)
	if err != nil {
		return err
	}
	if err := tx.UpdateChainState(ctx, chainState); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.UpdateChannel(ctx, chainID, channelDetails.SoloMachinePortID, channelDetails); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if success {
		if err := tx.AddOperation(ctx, store.Operation{
			ChainID:       chainID,
			RequestID:     requestID,
			OperationType: store.OperationMint,
			Address:       receiver,
			Denom:         denom,
			Amount:        amount,
		}); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if !success {
		ackErr := result.attributeOptional(transferEventPacket, transferAttrError)
		return errorsmod.Wrapf(ErrAckFailure, "mint packet rejected: %s", ackErr)
	}

	e.Events.Notify(event.Event{Kind: event.KindTokensMinted, ChainID: chainID, Denom: denom, Amount: amount, Address: receiver})
	return nil
}

// transferEventPacket and its attribute keys mirror the real ICS-20 module's
// ack event, "fungible_token_packet" (modules/apps/transfer/types/events.go).
const (
	transferEventPacket = "fungible_token_packet"
	transferAttrSuccess = "success"
	transferAttrError   = "error"
)
