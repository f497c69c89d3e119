package handshake

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	connectiontypes "github.com/cosmos/ibc-go/v8/modules/core/03-connection/types"
	commitmenttypes "github.com/cosmos/ibc-go/v8/modules/core/23-commitment/types"
	ibctm "github.com/cosmos/ibc-go/v8/modules/light-clients/07-tendermint"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/proof"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// OpenConnection drives the four-step ICS-3 connection handshake, given the
// client pair CreateClients already registered, and returns the completed
// ConnectionDetails.
func OpenConnection(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, st store.Store, chainState *store.ChainState, soloClientID, tmClientID ibc.ClientID, requestID *string) (store.ConnectionDetails, error) {
	signerAddr, err := signer.ToAccountAddress(chainState.ID)
	if err != nil {
		return store.ConnectionDetails{}, err
	}

	version := &connectiontypes.Version{
		Identifier: "1",
		Features:   []string{"ORDER_ORDERED", "ORDER_UNORDERED"},
	}
	counterpartyPrefix := commitmenttypes.NewMerklePrefix([]byte(proof.CommitmentPrefix))

	// Step 1: Init on remote.
	initMsg := &connectiontypes.MsgConnectionOpenInit{
		ClientId: string(soloClientID),
		Counterparty: connectiontypes.Counterparty{
			ClientId:     string(tmClientID),
			ConnectionId: "",
			Prefix:       counterpartyPrefix,
		},
		Version:     version,
		DelayPeriod: 0,
		Signer:      signerAddr,
	}
	initResult, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{initMsg}, "connection open init", requestID)
	if err != nil {
		return store.ConnectionDetails{}, err
	}
	soloConnIDStr, err := initResult.attribute("connection_open_init", "connection_id")
	if err != nil {
		return store.ConnectionDetails{}, err
	}
	soloConnID, err := ibc.NewConnectionID(soloConnIDStr)
	if err != nil {
		return store.ConnectionDetails{}, err
	}

	// Step 2: Try on solo (local only, a local ConnectionEnd record).
	tmConnID, err := ibc.GenerateConnectionID()
	if err != nil {
		return store.ConnectionDetails{}, err
	}
	soloConnEnd := &connectiontypes.ConnectionEnd{
		ClientId: string(tmClientID),
		Versions: []*connectiontypes.Version{version},
		State:    connectiontypes.TRYOPEN,
		Counterparty: connectiontypes.Counterparty{
			ClientId:     string(soloClientID),
			ConnectionId: soloConnIDStr,
			Prefix:       counterpartyPrefix,
		},
		DelayPeriod: 0,
	}

	// Step 3: Ack on remote. The three proofs share a single sequence
	// snapshot, bumped exactly once after all three are built; the
	// counterparty verifies them all against the same sequence.
	sequence := chainState.Sequence

	tmClientState, err := loadTendermintClientState(ctx, st, tmClientID)
	if err != nil {
		return store.ConnectionDetails{}, err
	}
	latestHeight := tmClientState.LatestHeight.RevisionHeight
	tmConsState, err := loadTendermintConsensusState(ctx, st, tmClientID, latestHeight)
	if err != nil {
		return store.ConnectionDetails{}, err
	}

	tryProofBytes, err := proof.BuildSignBytes(proof.KindConnectionState, chainState, sequence, ibc.ConnectionPath(soloConnID), soloConnEnd)
	if err != nil {
		return store.ConnectionDetails{}, err
	}
	proofTry, err := proof.TimestampedSign(ctx, signer, requestID, chainState, tryProofBytes)
	if err != nil {
		return store.ConnectionDetails{}, err
	}

	clientProofBytes, err := proof.BuildSignBytes(proof.KindClientState, chainState, sequence, ibc.ClientStatePath(tmClientID), tmClientState)
	if err != nil {
		return store.ConnectionDetails{}, err
	}
	proofClient, err := proof.TimestampedSign(ctx, signer, requestID, chainState, clientProofBytes)
	if err != nil {
		return store.ConnectionDetails{}, err
	}

	consProofBytes, err := proof.BuildSignBytes(proof.KindConsensusState, chainState, sequence,
		ibc.ConsensusStatePath(tmClientID, chainState.ID.RevisionNumber(), latestHeight), tmConsState)
	if err != nil {
		return store.ConnectionDetails{}, err
	}
	proofConsensus, err := proof.TimestampedSign(ctx, signer, requestID, chainState, consProofBytes)
	if err != nil {
		return store.ConnectionDetails{}, err
	}

	anyTMClientState, err := types.NewAnyWithValue(tmClientState)
	if err != nil {
		return store.ConnectionDetails{}, errorsmod.Wrap(err, "failed to pack tendermint client state")
	}

	ackMsg := &connectiontypes.MsgConnectionOpenAck{
		ConnectionId:             soloConnIDStr,
		CounterpartyConnectionId: string(tmConnID),
		Version:                  version,
		ClientState:              anyTMClientState,
		ProofTry:                 proofTry,
		ProofClient:              proofClient,
		ProofConsensus:           proofConsensus,
		ProofHeight:              clienttypes.NewHeight(chainState.ID.RevisionNumber(), sequence),
		ConsensusHeight:          clienttypes.NewHeight(chainState.ID.RevisionNumber(), latestHeight),
		Signer:                   signerAddr,
	}
	if _, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{ackMsg}, "connection open ack", requestID); err != nil {
		return store.ConnectionDetails{}, err
	}

	// Single sequence bump, after all three proofs above were built against
	// the same snapshot.
	chainState.Sequence = sequence + 1

	// Step 4: Confirm on solo: flip the local record to OPEN.
	soloConnEnd.State = connectiontypes.OPEN

	return store.ConnectionDetails{
		SoloMachineClientID:     soloClientID,
		TendermintClientID:      tmClientID,
		SoloMachineConnectionID: soloConnID,
		TendermintConnectionID:  tmConnID,
		Channels:                map[ibc.PortID]store.ChannelDetails{},
	}, nil
}

// loadTendermintClientState reads and decodes the stored 07-tendermint
// client state for tmClientID.
func loadTendermintClientState(ctx context.Context, st store.Store, tmClientID ibc.ClientID) (*ibctm.ClientState, error) {
	raw, err := st.GetTendermintClientState(ctx, string(tmClientID))
	if err != nil {
		return nil, err
	}
	var cs ibctm.ClientState
	if err := proto.Unmarshal(raw.Bytes, &cs); err != nil {
		return nil, errorsmod.Wrap(err, "failed to unmarshal tendermint client state")
	}
	return &cs, nil
}

// loadTendermintConsensusState reads and decodes the stored 07-tendermint
// consensus state for (tmClientID, height).
func loadTendermintConsensusState(ctx context.Context, st store.Store, tmClientID ibc.ClientID, height uint64) (*ibctm.ConsensusState, error) {
	raw, err := st.GetTendermintConsensusState(ctx, string(tmClientID), height)
	if err != nil {
		return nil, err
	}
	var cs ibctm.ConsensusState
	if err := proto.Unmarshal(raw.Bytes, &cs); err != nil {
		return nil, errorsmod.Wrap(err, "failed to unmarshal tendermint consensus state")
	}
	return &cs, nil
}
