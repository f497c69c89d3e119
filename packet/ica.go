package packet

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	icatypes "github.com/cosmos/ibc-go/v8/modules/apps/27-interchain-accounts/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/store"
)

// ics27_packet is the real icatypes ack event (modules/apps/27-interchain-accounts/types/events.go);
// an "error" attribute present on it means the host rejected the packet.
const (
	icaEventPacket = "ics27_packet"
	icaAttrError   = "error"
)

// icaChannel locates the single ICS-27 controller channel recorded for
// chainState: the one whose TendermintPortID is the reserved "icahost"
// literal, since the controller port itself is randomly generated per
// connect() and has no fixed key to look up by.
func icaChannel(chainState *store.ChainState) (store.ChannelDetails, error) {
	if chainState.ConnectionDetails == nil {
		return store.ChannelDetails{}, ErrNoChannel
	}
	for _, cd := range chainState.ConnectionDetails.Channels {
		if string(cd.TendermintPortID) == ibc.PortICAHost {
			return cd, nil
		}
	}
	return store.ChannelDetails{}, ErrNoChannel
}

// ICASend submits a MsgSend from the registered interchain account to
// toAddress.
func (e *Engine) ICASend(ctx context.Context, chainID ibc.ChainID, toAddress string, coins sdktypes.Coins, requestID *string) error {
	return e.icaSubmit(ctx, chainID, requestID, store.OperationSend, toAddress, func(icaAddr string) (proto.Message, error) {
		return &banktypes.MsgSend{FromAddress: icaAddr, ToAddress: toAddress, Amount: coins}, nil
	})
}

// ICADelegate submits a MsgDelegate from the registered interchain account
// to validatorAddress.
func (e *Engine) ICADelegate(ctx context.Context, chainID ibc.ChainID, validatorAddress string, amount sdktypes.Coin, requestID *string) error {
	return e.icaSubmit(ctx, chainID, requestID, store.OperationDelegateICA, validatorAddress, func(icaAddr string) (proto.Message, error) {
		return &stakingtypes.MsgDelegate{DelegatorAddress: icaAddr, ValidatorAddress: validatorAddress, Amount: amount}, nil
	})
}

// ICAUndelegate submits a MsgUndelegate from the registered interchain
// account for validatorAddress.
func (e *Engine) ICAUndelegate(ctx context.Context, chainID ibc.ChainID, validatorAddress string, amount sdktypes.Coin, requestID *string) error {
	return e.icaSubmit(ctx, chainID, requestID, store.OperationUndelegateICA, validatorAddress, func(icaAddr string) (proto.Message, error) {
		return &stakingtypes.MsgUndelegate{DelegatorAddress: icaAddr, ValidatorAddress: validatorAddress, Amount: amount}, nil
	})
}

// icaSubmit is the shared ICA packet path: wrap build(icaAddr) as an Any
// inside an InterchainAccountPacketData, submit it as a packet over
// the controller channel (the same commitment-proof shape as Mint but
// addressed to the ICA channel), and record an Operation on success.
func (e *Engine) icaSubmit(ctx context.Context, chainID ibc.ChainID, requestID *string, opType store.OperationType, counterparty string, build func(icaAddr string) (proto.Message, error)) error {
	unlock := e.locks.lock(chainID)
	defer unlock()

	chainState, err := e.Store.GetChainState(ctx, chainID)
	if err != nil {
		return err
	}
	channelDetails, err := icaChannel(chainState)
	if err != nil {
		return err
	}
	icaAddr, err := e.Store.GetICAAddress(ctx, chainID, chainState.ConnectionDetails.TendermintConnectionID, channelDetails.SoloMachinePortID)
	if err != nil {
		return err
	}

	innerMsg, err := build(icaAddr.Address)
	if err != nil {
		return err
	}
	anyMsg, err := codectypes.NewAnyWithValue(innerMsg)
	if err != nil {
		return errorsmod.Wrap(err, "failed to pack interchain account message")
	}
	cosmosTxBytes, err := proto.Marshal(&icatypes.CosmosTx{Messages: []*codectypes.Any{anyMsg}})
	if err != nil {
		return errorsmod.Wrap(err, "failed to marshal interchain account cosmos tx")
	}
	packetData := icatypes.InterchainAccountPacketData{
		Type: icatypes.EXECUTE_TX,
		Data: cosmosTxBytes,
		Memo: "",
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

	result, err := broadcast(ctx, e.RPC, e.Signer, chainState, []proto.Message{msg}, "ica submit", requestID)
	if err != nil {
		return err
	}

	chainState.Sequence = sequence + 1
	channelDetails.PacketSequence++
	chainState.ConnectionDetails.Channels[channelDetails.SoloMachinePortID] = channelDetails

	ackErr := result.attributeOptional(icaEventPacket, icaAttrError)

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
	if ackErr == "" {
		if err := tx.AddOperation(ctx, store.Operation{
			ChainID:       chainID,
			RequestID:     requestID,
			OperationType: opType,
			Address:       counterparty,
		}); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if ackErr != "" {
		return errorsmod.Wrapf(ErrAckFailure, "interchain account packet rejected: %s", ackErr)
	}
	e.Events.Notify(event.Event{Kind: event.KindICAExecuted, ChainID: chainID, Address: icaAddr.Address, Message: string(opType)})
	return nil
}
