package packet

import (
	"context"
	"encoding/hex"
	"strconv"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	transfertypes "github.com/cosmos/ibc-go/v8/modules/apps/transfer/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/store"
)

// send_packet is the real channeltypes event emitted by the counterparty's
// channel keeper (modules/core/04-channel/types/events.go); its attribute
// keys identify the packet the solo machine must then acknowledge.
const (
	eventSendPacket         = "send_packet"
	attrPacketDataHex       = "packet_data_hex"
	attrPacketTimeoutHeight = "packet_timeout_height"
	attrPacketTimeoutTS     = "packet_timeout_timestamp"
	attrPacketSequence      = "packet_sequence"
	attrPacketSrcPort       = "packet_src_port"
	attrPacketSrcChannel    = "packet_src_channel"
	attrPacketDstPort       = "packet_dst_port"
	attrPacketDstChannel    = "packet_dst_channel"
)

// Burn destroys minted tokens on the remote chain: a standard MsgTransfer is
// sent from the signer's remote address back to itself on the solo machine
// side. The counterparty's send_packet events are parsed and acknowledged;
// packet-processing failures are surfaced as warnings, not errors, since the
// transfer is complete once the broadcast succeeded.
func (e *Engine) Burn(ctx context.Context, chainID ibc.ChainID, denom string, amount sdkmath.Int, requestID *string) error {
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

	signerAddr, err := e.Signer.ToAccountAddress(chainID)
	if err != nil {
		return err
	}

	msg := &transfertypes.MsgTransfer{
		SourcePort:       string(channelDetails.TendermintPortID),
		SourceChannel:    string(channelDetails.SoloMachineChannelID),
		Token:            sdktypes.Coin{Denom: denom, Amount: amount},
		Sender:           signerAddr,
		Receiver:         signerAddr,
		TimeoutHeight:    clienttypes.NewHeight(0, chainState.Sequence+1),
		TimeoutTimestamp: 0,
		Memo:             "",
	}

	result, err := broadcast(ctx, e.RPC, e.Signer, chainState, []proto.Message{msg}, "burn", requestID)
	if err != nil {
		return err
	}

	if err := e.recordOperation(ctx, store.Operation{
		ChainID:       chainID,
		RequestID:     requestID,
		OperationType: store.OperationBurn,
		Address:       signerAddr,
		Denom:         denom,
		Amount:        amount,
	}); err != nil {
		return err
	}
	e.Events.Notify(event.Event{Kind: event.KindTokensBurnt, ChainID: chainID, Denom: denom, Amount: amount, Address: signerAddr})

	packets, err := parseSendPackets(result)
	if err != nil {
		e.Logger.Warn("failed to parse send_packet events after burn", "chain_id", chainID.String(), "error", err)
		return nil
	}
	for _, pkt := range packets {
		if err := e.processPacketUnlocked(ctx, chainID, pkt, requestID); err != nil {
			e.Logger.Warn("packet processing failed after burn", "chain_id", chainID.String(), "sequence", pkt.Sequence, "error", err)
			e.Events.Notify(event.Event{Kind: event.KindPacketProcessFailed, ChainID: chainID, Message: err.Error()})
		}
	}
	return nil
}

// ProcessPackets acknowledges packets addressed to the solo machine's side
// of the named channel. It is the standalone entrypoint; Burn drives the
// same logic inline via processPacketUnlocked to avoid re-acquiring the
// chain lock it already holds.
func (e *Engine) ProcessPackets(ctx context.Context, chainID ibc.ChainID, packets []channeltypes.Packet, requestID *string) error {
	unlock := e.locks.lock(chainID)
	defer unlock()

	var firstErr error
	for _, pkt := range packets {
		if err := e.processPacketUnlocked(ctx, chainID, pkt, requestID); err != nil {
			e.Events.Notify(event.Event{Kind: event.KindPacketProcessFailed, ChainID: chainID, Message: err.Error()})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// processPacketUnlocked acknowledges a single packet; the caller must
// already hold the chain lock.
func (e *Engine) processPacketUnlocked(ctx context.Context, chainID ibc.ChainID, pkt channeltypes.Packet, requestID *string) error {
	chainState, err := e.Store.GetChainState(ctx, chainID)
	if err != nil {
		return err
	}
	channelDetails, err := namedChannel(chainState, pkt.DestinationPort)
	if err != nil {
		return err
	}
	if pkt.SourcePort != string(channelDetails.TendermintPortID) || pkt.SourceChannel != string(channelDetails.SoloMachineChannelID) ||
		pkt.DestinationChannel != string(channelDetails.TendermintChannelID) {
		return ErrChannelMismatch
	}

	signerAddr, err := e.Signer.ToAccountAddress(chainID)
	if err != nil {
		return err
	}

	ack := channeltypes.NewResultAcknowledgement([]byte{1})
	ackBytes := ack.Acknowledgement()
	ackCommitment := channeltypes.CommitAcknowledgement(ackBytes)

	sequence := chainState.Sequence
	ackPath := ibc.PacketAcknowledgementPath(channelDetails.SoloMachinePortID, channelDetails.TendermintChannelID, pkt.Sequence)
	signBytes, err := proof.BuildSignBytes(proof.KindPacketAcknowledgement, chainState, sequence, ackPath, proof.RawBytes(ackCommitment))
	if err != nil {
		return err
	}
	proofAcked, err := proof.TimestampedSign(ctx, e.Signer, requestID, chainState, signBytes)
	if err != nil {
		return err
	}

	msg := &channeltypes.MsgAcknowledgement{
		Packet:          pkt,
		Acknowledgement: ackBytes,
		ProofAcked:      proofAcked,
		ProofHeight:     clienttypes.NewHeight(chainState.ID.RevisionNumber(), sequence),
		Signer:          signerAddr,
	}
	if _, err := broadcast(ctx, e.RPC, e.Signer, chainState, []proto.Message{msg}, "process packet", requestID); err != nil {
		return err
	}
	chainState.Sequence = sequence + 1

	tx, err := e.Store.Transaction(ctx)
	if err != nil {
		return err
	}
	if err := tx.UpdateChainState(ctx, chainState); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// recordOperation appends op via its own short-lived storage transaction.
func (e *Engine) recordOperation(ctx context.Context, op store.Operation) error {
	tx, err := e.Store.Transaction(ctx)
	if err != nil {
		return err
	}
	if err := tx.AddOperation(ctx, op); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// parseSendPackets builds a channeltypes.Packet for every send_packet event
// in result.
func parseSendPackets(result *abciEvents) ([]channeltypes.Packet, error) {
	var packets []channeltypes.Packet
	for _, ev := range result.all(eventSendPacket) {
		dataHex := eventAttribute(ev, attrPacketDataHex)
		data, err := hex.DecodeString(dataHex)
		if err != nil {
			return nil, err
		}
		sequence, err := strconv.ParseUint(eventAttribute(ev, attrPacketSequence), 10, 64)
		if err != nil {
			return nil, err
		}
		timeoutHeight, err := clienttypes.ParseHeight(eventAttribute(ev, attrPacketTimeoutHeight))
		if err != nil {
			return nil, err
		}
		timeoutTimestamp, err := strconv.ParseUint(eventAttribute(ev, attrPacketTimeoutTS), 10, 64)
		if err != nil {
			return nil, err
		}
		packets = append(packets, channeltypes.NewPacket(
			data, sequence,
			eventAttribute(ev, attrPacketSrcPort), eventAttribute(ev, attrPacketSrcChannel),
			eventAttribute(ev, attrPacketDstPort), eventAttribute(ev, attrPacketDstChannel),
			timeoutHeight, timeoutTimestamp,
		))
	}
	return packets, nil
}
