package handshake

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec/types"
	clienttypes "github.com/cosmos/ibc-go/v8/modules/core/02-client/types"
	commitmenttypes "github.com/cosmos/ibc-go/v8/modules/core/23-commitment/types"
	solomachine "github.com/cosmos/ibc-go/v8/modules/light-clients/06-solomachine"
	ibctm "github.com/cosmos/ibc-go/v8/modules/light-clients/07-tendermint"
	"github.com/cosmos/gogoproto/proto"
	ics23 "github.com/cosmos/ics23/go"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/lightclient"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// CreateClients registers the solo-machine's own client on the remote
// chain, then spins up a local Tendermint light client and stores the
// corresponding client + consensus state for the remote chain.
func CreateClients(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, st store.Store, chainState *store.ChainState, requestID *string) (ibc.ClientID, ibc.ClientID, error) {
	soloClientID, err := createSoloMachineClient(ctx, rpc, signer, chainState, requestID)
	if err != nil {
		return "", "", err
	}

	tmClientID, err := createTendermintClient(ctx, rpc, st, chainState)
	if err != nil {
		return "", "", err
	}

	return soloClientID, tmClientID, nil
}

// createSoloMachineClient registers {ClientState, ConsensusState} derived
// from the solo machine's own signing key on the remote chain via
// MsgCreateClient, and returns the client id the remote chain assigned.
func createSoloMachineClient(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, chainState *store.ChainState, requestID *string) (ibc.ClientID, error) {
	pubKey, err := signer.GetPublicKey(chainState.ID)
	if err != nil {
		return "", err
	}
	anyPubKey, err := types.NewAnyWithValue(pubKey.Key)
	if err != nil {
		return "", errorsmod.Wrap(err, "failed to pack solo machine public key")
	}

	consState := &solomachine.ConsensusState{
		PublicKey:   anyPubKey,
		Diversifier: chainState.Config.Diversifier,
		Timestamp:   uint64(chainState.ConsensusTimestamp.Unix()), //nolint:gosec
	}
	clientState := &solomachine.ClientState{
		Sequence:       chainState.Sequence,
		IsFrozen:       false,
		ConsensusState: consState,
	}

	anyClientState, err := types.NewAnyWithValue(clientState)
	if err != nil {
		return "", errorsmod.Wrap(err, "failed to pack solo machine client state")
	}
	anyConsState, err := types.NewAnyWithValue(consState)
	if err != nil {
		return "", errorsmod.Wrap(err, "failed to pack solo machine consensus state")
	}

	signerAddr, err := signer.ToAccountAddress(chainState.ID)
	if err != nil {
		return "", err
	}

	msg := &clienttypes.MsgCreateClient{
		ClientState:    anyClientState,
		ConsensusState: anyConsState,
		Signer:         signerAddr,
	}

	result, err := broadcast(ctx, rpc, signer, chainState, []proto.Message{msg}, "create solo machine client", requestID)
	if err != nil {
		return "", err
	}

	clientIDStr, err := result.attribute("create_client", "client_id")
	if err != nil {
		return "", err
	}
	return ibc.NewClientID(clientIDStr)
}

// createTendermintClient fetches the remote chain's latest light block,
// composes TendermintClientState/ConsensusState from it, assigns a locally
// generated client id, and stores both.
func createTendermintClient(ctx context.Context, rpc rpcclient.Client, st store.Store, chainState *store.ChainState) (ibc.ClientID, error) {
	unbonding, err := rpc.UnbondingPeriod(ctx)
	if err != nil {
		return "", err
	}

	trustLevel := ibctm.Fraction{
		Numerator:   chainState.Config.TrustLevelNumerator,
		Denominator: chainState.Config.TrustLevelDenominator,
	}

	lcOpts := lightclient.Options{
		TrustingPeriod: chainState.Config.TrustingPeriod,
		MaxClockDrift:  chainState.Config.MaxClockDrift,
		TrustedHeight:  int64(chainState.Config.TrustedHeight), //nolint:gosec
		TrustedHash:    chainState.Config.TrustedHash[:],
	}
	lc, err := lightclient.New(ctx, rpc, chainState.ID.String(), lcOpts)
	if err != nil {
		return "", err
	}
	tip, err := lc.VerifyToHighest(ctx)
	if err != nil {
		return "", err
	}

	tmClientID, err := ibc.GenerateClientID("07-tendermint")
	if err != nil {
		return "", err
	}

	clientState := &ibctm.ClientState{
		ChainId:         chainState.ID.String(),
		TrustLevel:      trustLevel,
		TrustingPeriod:  chainState.Config.TrustingPeriod,
		UnbondingPeriod: unbonding,
		MaxClockDrift:   chainState.Config.MaxClockDrift,
		FrozenHeight:    clienttypes.ZeroHeight(),
		LatestHeight:    clienttypes.NewHeight(chainState.ID.RevisionNumber(), uint64(tip.Height)), //nolint:gosec
		ProofSpecs:      []*ics23.ProofSpec{ics23.IavlSpec, ics23.TendermintSpec},
		UpgradePath:     []string{"upgrade", "upgradedIBCState"},
	}
	consState := ibctm.NewConsensusState(
		tip.SignedHeader.Time,
		commitmenttypes.NewMerkleRoot(tip.SignedHeader.AppHash),
		tip.SignedHeader.NextValidatorsHash,
	)

	csBytes, err := proto.Marshal(clientState)
	if err != nil {
		return "", errorsmod.Wrap(err, "failed to marshal tendermint client state")
	}
	consBytes, err := proto.Marshal(consState)
	if err != nil {
		return "", errorsmod.Wrap(err, "failed to marshal tendermint consensus state")
	}

	if err := st.AddTendermintClientState(ctx, store.TendermintClientState{ClientID: string(tmClientID), Bytes: csBytes}); err != nil {
		return "", err
	}
	if err := st.AddTendermintConsensusState(ctx, store.TendermintConsensusState{
		ClientID: string(tmClientID),
		Height:   uint64(tip.Height), //nolint:gosec
		Bytes:    consBytes,
	}); err != nil {
		return "", err
	}

	return tmClientID, nil
}
