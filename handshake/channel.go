package handshake

import (
	"context"

	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// openChannelRemoteInit drives the remote-initiated four-step channel
// handshake shape used by the ICS-20 transfer channel: Init and Ack
// are broadcast to the remote chain; Try and Confirm are purely local state
// flips, since the solo machine's own channel state needs no proof.
func openChannelRemoteInit(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, chainState *store.ChainState, portID ibc.PortID, ordering channeltypes.Order, version string, tmConnID ibc.ConnectionID, requestID *string) (store.ChannelDetails, error) {
	signerAddr, err := signer.ToAccountAddress(chainState.ID)
	if err != nil {
		return store.ChannelDetails{}, err
	}

	// Step 1: Init on remote.
	initMsg := &channeltypes.MsgChannelOpenInit{
		PortId: string(portID),
		Channel: channeltypes.Channel{
			State:    channeltypes.INIT,
			Ordering: ordering,
			Counterparty: channeltypes.Counterparty{
				PortId:    string(portID),
				ChannelId: "",
			},
			ConnectionHops: []string{string(tmConnID)},
			Version:        version,
		},
		Signer: signerAddr,
	}
	initResult, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{initMsg}, "channel open init", requestID)
	if err != nil {
		return store.ChannelDetails{}, err
	}
	remoteChannelIDStr, err := initResult.attribute("channel_open_init", "channel_id")
	if err != nil {
		return store.ChannelDetails{}, err
	}
	remoteChannelID, err := ibc.NewChannelID(remoteChannelIDStr)
	if err != nil {
		return store.ChannelDetails{}, err
	}

	// Step 2: Try on solo (local only).
	tmChannelID, err := ibc.GenerateChannelID()
	if err != nil {
		return store.ChannelDetails{}, err
	}
	soloChannel := &channeltypes.Channel{
		State:    channeltypes.TRYOPEN,
		Ordering: ordering,
		Counterparty: channeltypes.Counterparty{
			PortId:    string(portID),
			ChannelId: remoteChannelIDStr,
		},
		ConnectionHops: []string{string(tmConnID)},
		Version:        version,
	}

	// Step 3: Ack on remote, carrying one proof_try of the solo-side channel.
	sequence := chainState.Sequence
	tryProofBytes, err := proof.BuildSignBytes(proof.KindChannelState, chainState, sequence, ibc.ChannelPath(portID, tmChannelID), soloChannel)
	if err != nil {
		return store.ChannelDetails{}, err
	}
	proofTry, err := proof.TimestampedSign(ctx, signer, requestID, chainState, tryProofBytes)
	if err != nil {
		return store.ChannelDetails{}, err
	}

	ackMsg := &channeltypes.MsgChannelOpenAck{
		PortId:                string(portID),
		ChannelId:             remoteChannelIDStr,
		CounterpartyChannelId: string(tmChannelID),
		CounterpartyVersion:   version,
		ProofTry:              proofTry,
		ProofHeight:           clienttypes.NewHeight(chainState.ID.RevisionNumber(), sequence),
		Signer:                signerAddr,
	}
	if _, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{ackMsg}, "channel open ack", requestID); err != nil {
		return store.ChannelDetails{}, err
	}
	chainState.Sequence = sequence + 1

	// Step 4: Confirm on solo.
	soloChannel.State = channeltypes.OPEN

	return store.ChannelDetails{
		PacketSequence:       1,
		Ordering:             ordering,
		Version:              version,
		SoloMachinePortID:    portID,
		TendermintPortID:     portID,
		SoloMachineChannelID: remoteChannelID,
		TendermintChannelID:  tmChannelID,
	}, nil
}
