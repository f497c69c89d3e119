package handshake

import (
	"context"

	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// CloseChannel flips only the solo-machine side of details to CLOSED, then
// sends MsgChannelCloseConfirm
// carrying a close-channel proof; on success the caller removes the entry
// from ConnectionDetails.Channels.
func CloseChannel(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, chainState *store.ChainState, details store.ChannelDetails, requestID *string) error {
	signerAddr, err := signer.ToAccountAddress(chainState.ID)
	if err != nil {
		return err
	}

	if chainState.ConnectionDetails == nil {
		return store.ErrConnectionNotFound
	}

	// Only State flips to CLOSED; the counterparty reconstructs the expected
	// channel end from the ordering and version negotiated at open time.
	closedChannel := &channeltypes.Channel{
		State:    channeltypes.CLOSED,
		Ordering: details.Ordering,
		Counterparty: channeltypes.Counterparty{
			PortId:    string(details.TendermintPortID),
			ChannelId: string(details.SoloMachineChannelID),
		},
		ConnectionHops: []string{string(chainState.ConnectionDetails.TendermintConnectionID)},
		Version:        details.Version,
	}

	sequence := chainState.Sequence
	closeProofBytes, err := proof.BuildSignBytes(proof.KindChannelState, chainState, sequence,
		ibc.ChannelPath(details.SoloMachinePortID, details.TendermintChannelID), closedChannel)
	if err != nil {
		return err
	}
	proofInit, err := proof.TimestampedSign(ctx, signer, requestID, chainState, closeProofBytes)
	if err != nil {
		return err
	}

	msg := &channeltypes.MsgChannelCloseConfirm{
		PortId:      string(details.TendermintPortID),
		ChannelId:   string(details.SoloMachineChannelID),
		ProofInit:   proofInit,
		ProofHeight: clienttypes.NewHeight(chainState.ID.RevisionNumber(), sequence),
		Signer:      signerAddr,
	}
	if _, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{msg}, "channel close confirm", requestID); err != nil {
		return err
	}
	chainState.Sequence = sequence + 1
	return nil
}
