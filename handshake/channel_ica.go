package handshake

import (
	"context"
	"encoding/json"

	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	icatypes "github.com/cosmos/ibc-go/v8/modules/apps/27-interchain-accounts/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// icaChannelResult bundles the opened ICA channel plus the registered
// interchain account address the host returned.
type icaChannelResult struct {
	Details store.ChannelDetails
	Address string
}

// openICAChannel opens the ordered ICS-27 controller channel. Unlike the
// transfer channel, the solo machine (as controller) owns Init and Ack
// locally, and drives Try/Confirm against the host.
func openICAChannel(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, chainState *store.ChainState, tmConnID, hostConnID ibc.ConnectionID, requestID *string) (icaChannelResult, error) {
	controllerPortID, err := ibc.GenerateControllerPortID()
	if err != nil {
		return icaChannelResult{}, err
	}
	hostPortID, err := ibc.NewPortID(ibc.PortICAHost)
	if err != nil {
		return icaChannelResult{}, err
	}

	metadata := icatypes.Metadata{
		Version:                icatypes.Version,
		ControllerConnectionId: string(tmConnID),
		HostConnectionId:       string(hostConnID),
		Address:                "",
		Encoding:               icatypes.EncodingProtobuf,
		TxType:                 icatypes.TxTypeSDKMultiMsg,
	}
	versionBytes, err := json.Marshal(metadata)
	if err != nil {
		return icaChannelResult{}, err
	}
	version := string(versionBytes)

	signerAddr, err := signer.ToAccountAddress(chainState.ID)
	if err != nil {
		return icaChannelResult{}, err
	}

	// Step 1: Init locally; the controller channel's own id is assigned now.
	localChannelID, err := ibc.GenerateChannelID()
	if err != nil {
		return icaChannelResult{}, err
	}
	localChannel := &channeltypes.Channel{
		State:    channeltypes.INIT,
		Ordering: channeltypes.ORDERED,
		Counterparty: channeltypes.Counterparty{
			PortId:    string(hostPortID),
			ChannelId: "",
		},
		ConnectionHops: []string{string(tmConnID)},
		Version:        version,
	}

	// Step 2: Try on host, carrying a proof of the local INIT channel.
	sequence := chainState.Sequence
	initProofBytes, err := proof.BuildSignBytes(proof.KindChannelState, chainState, sequence, ibc.ChannelPath(controllerPortID, localChannelID), localChannel)
	if err != nil {
		return icaChannelResult{}, err
	}
	proofInit, err := proof.TimestampedSign(ctx, signer, requestID, chainState, initProofBytes)
	if err != nil {
		return icaChannelResult{}, err
	}

	tryMsg := &channeltypes.MsgChannelOpenTry{
		PortId:            string(hostPortID),
		PreviousChannelId: "",
		Channel: channeltypes.Channel{
			State:    channeltypes.TRYOPEN,
			Ordering: channeltypes.ORDERED,
			Counterparty: channeltypes.Counterparty{
				PortId:    string(controllerPortID),
				ChannelId: string(localChannelID),
			},
			ConnectionHops: []string{string(hostConnID)},
			Version:        version,
		},
		CounterpartyVersion: version,
		ProofInit:           proofInit,
		ProofHeight:         clienttypes.NewHeight(chainState.ID.RevisionNumber(), sequence),
		Signer:              signerAddr,
	}
	chainState.Sequence = sequence + 1

	tryResult, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{tryMsg}, "ica channel open try", requestID)
	if err != nil {
		return icaChannelResult{}, err
	}
	hostChannelIDStr, err := tryResult.attribute("channel_open_try", "channel_id")
	if err != nil {
		return icaChannelResult{}, err
	}
	hostChannelID, err := ibc.NewChannelID(hostChannelIDStr)
	if err != nil {
		return icaChannelResult{}, err
	}
	// The host's interchain-accounts keeper registers and returns the
	// derived account address as an event attribute on successful Try.
	icaAddress, _ := tryResult.attribute("channel_open_try", "address")

	// Step 3: Ack locally.
	localChannel.State = channeltypes.OPEN
	localChannel.Counterparty.ChannelId = hostChannelIDStr

	// Step 4: Confirm on host, carrying a proof of the local OPEN channel.
	confirmSequence := chainState.Sequence
	ackProofBytes, err := proof.BuildSignBytes(proof.KindChannelState, chainState, confirmSequence, ibc.ChannelPath(controllerPortID, localChannelID), localChannel)
	if err != nil {
		return icaChannelResult{}, err
	}
	proofAck, err := proof.TimestampedSign(ctx, signer, requestID, chainState, ackProofBytes)
	if err != nil {
		return icaChannelResult{}, err
	}

	confirmMsg := &channeltypes.MsgChannelOpenConfirm{
		PortId:      string(hostPortID),
		ChannelId:   hostChannelIDStr,
		ProofAck:    proofAck,
		ProofHeight: clienttypes.NewHeight(chainState.ID.RevisionNumber(), confirmSequence),
		Signer:      signerAddr,
	}
	if _, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{confirmMsg}, "ica channel open confirm", requestID); err != nil {
		return icaChannelResult{}, err
	}
	chainState.Sequence = confirmSequence + 1

	return icaChannelResult{
		Details: store.ChannelDetails{
			PacketSequence:       1,
			Ordering:             channeltypes.ORDERED,
			Version:              version,
			SoloMachinePortID:    controllerPortID,
			TendermintPortID:     hostPortID,
			SoloMachineChannelID: hostChannelID,
			TendermintChannelID:  localChannelID,
		},
		Address: icaAddress,
	}, nil
}
