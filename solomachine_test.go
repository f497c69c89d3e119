package solomachine

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/p2p"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"
	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

type fakeRPC struct {
	nodeID string
	calls  int
}

func (f *fakeRPC) Status(context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{
		NodeInfo: p2p.DefaultNodeInfo{DefaultNodeID: p2p.ID(f.nodeID), Network: "mars-1"},
		SyncInfo: coretypes.SyncInfo{LatestBlockHeight: 100},
	}, nil
}

func (f *fakeRPC) Commit(context.Context, *int64) (*coretypes.ResultCommit, error) {
	return nil, nil
}

func (f *fakeRPC) Validators(context.Context, *int64, *int, *int) (*coretypes.ResultValidators, error) {
	return nil, nil
}

func (f *fakeRPC) LightBlock(context.Context, *int64) (*cmttypes.LightBlock, error) {
	return nil, nil
}

func (f *fakeRPC) BroadcastTxCommit(context.Context, cmttypes.Tx) (*coretypes.ResultBroadcastTxCommit, error) {
	f.calls++
	return &coretypes.ResultBroadcastTxCommit{TxResult: abci.ExecTxResult{}}, nil
}

func (f *fakeRPC) Account(context.Context, string) (*authtypes.BaseAccount, error) {
	return &authtypes.BaseAccount{AccountNumber: 1, Sequence: 0}, nil
}

func (f *fakeRPC) Balance(context.Context, string, string) (sdkmath.Int, error) {
	return sdkmath.NewInt(100), nil
}

func (f *fakeRPC) UnbondingPeriod(context.Context) (time.Duration, error) {
	return 21 * 24 * time.Hour, nil
}

func testMnemonicSigner(t *testing.T, chainID ibc.ChainID) *signing.MnemonicSigner {
	t.Helper()
	cfg, err := signing.NewMnemonicSignerConfig(
		"practice empty client sauce pistol work ticket casual romance appear army fault palace coyote fox super salute slim catch kite wrist three hedgehog sign",
		nil, nil, nil,
	)
	require.NoError(t, err)
	return signing.NewMnemonicSigner(map[ibc.ChainID]signing.MnemonicSignerConfig{chainID: cfg})
}

func testChainConfig() store.ChainConfig {
	return store.ChainConfig{
		GRPCAddr:              "localhost:9090",
		RPCAddr:               "localhost:26657",
		Fee:                   store.Fee{Amount: sdkmath.NewInt(1000), Denom: "stake", GasLimit: 300000},
		TrustLevelNumerator:   1,
		TrustLevelDenominator: 3,
		TrustingPeriod:        14 * 24 * time.Hour,
		MaxClockDrift:         3 * time.Second,
		RPCTimeout:            60 * time.Second,
		Diversifier:           "stag",
		TrustedHeight:         1,
	}
}

func newTestEngine(t *testing.T, chainID ibc.ChainID, rpc *fakeRPC, sink event.Sink) (*Engine, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	return New(st, testMnemonicSigner(t, chainID), rpc, sink, log.NewNopLogger()), st
}

func TestAddChainRegistersChainState(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)

	sink := event.NewChanSink(4)
	engine, st := newTestEngine(t, chainID, &fakeRPC{nodeID: "node-1"}, sink)

	cs, err := engine.AddChain(ctx, chainID, "node-1", testChainConfig(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, "mars-1", cs.ID.String())
	require.Equal(t, "node-1", cs.NodeID)
	require.Equal(t, uint64(1), cs.Sequence)
	require.False(t, cs.IsConnected())

	stored, err := st.GetChainState(ctx, chainID)
	require.NoError(t, err)
	require.Equal(t, cs.NodeID, stored.NodeID)

	ev := <-sink.C
	require.Equal(t, event.KindChainAdded, ev.Kind)
}

func TestAddChainDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)
	engine, _ := newTestEngine(t, chainID, &fakeRPC{nodeID: "node-1"}, nil)

	_, err = engine.AddChain(ctx, chainID, "node-1", testChainConfig(), time.Now().UTC())
	require.NoError(t, err)

	_, err = engine.AddChain(ctx, chainID, "node-1", testChainConfig(), time.Now().UTC())
	require.ErrorIs(t, err, store.ErrChainAlreadyExists)
}

func TestAddChainNodeIdentityMismatch(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)
	engine, st := newTestEngine(t, chainID, &fakeRPC{nodeID: "node-other"}, nil)

	_, err = engine.AddChain(ctx, chainID, "node-1", testChainConfig(), time.Now().UTC())
	require.ErrorIs(t, err, ErrNodeIdentityMismatch)

	_, err = st.GetChainState(ctx, chainID)
	require.ErrorIs(t, err, store.ErrChainNotFound)
}

func TestAddChainRejectsInvalidTrustLevel(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)
	engine, _ := newTestEngine(t, chainID, &fakeRPC{nodeID: "node-1"}, nil)

	cfg := testChainConfig()
	cfg.TrustLevelNumerator = 0
	cfg.TrustLevelDenominator = 1
	_, err = engine.AddChain(ctx, chainID, "node-1", cfg, time.Now().UTC())
	require.ErrorIs(t, err, store.ErrInvalidTrustLevel)

	cfg.TrustLevelNumerator = 2
	cfg.TrustLevelDenominator = 1
	_, err = engine.AddChain(ctx, chainID, "node-1", cfg, time.Now().UTC())
	require.ErrorIs(t, err, store.ErrInvalidTrustLevel)
}

func TestCloseChannelRemovesEntry(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)

	sink := event.NewChanSink(4)
	rpc := &fakeRPC{nodeID: "node-1"}
	engine, st := newTestEngine(t, chainID, rpc, sink)

	_, err = engine.AddChain(ctx, chainID, "node-1", testChainConfig(), time.Now().UTC())
	require.NoError(t, err)
	<-sink.C // drain the chain-added event

	transferPort, err := ibc.NewPortID(ibc.PortTransfer)
	require.NoError(t, err)
	details := store.ConnectionDetails{
		SoloMachineClientID:     "07-tendermint-0",
		TendermintClientID:      "07-tendermint-1",
		SoloMachineConnectionID: "connection-0",
		TendermintConnectionID:  "connection-1",
		Channels: map[ibc.PortID]store.ChannelDetails{
			transferPort: {
				PacketSequence:       1,
				Ordering:             channeltypes.UNORDERED,
				Version:              "ics20-1",
				SoloMachinePortID:    transferPort,
				TendermintPortID:     transferPort,
				SoloMachineChannelID: "channel-0",
				TendermintChannelID:  "channel-1",
			},
		},
	}
	cs, err := st.GetChainState(ctx, chainID)
	require.NoError(t, err)
	cs.ConnectionDetails = &details
	require.NoError(t, st.UpdateChainState(ctx, cs))
	require.NoError(t, st.AddConnection(ctx, chainID, details))

	require.NoError(t, engine.CloseChannel(ctx, chainID, transferPort, nil))
	require.Equal(t, 1, rpc.calls)

	stored, err := st.GetChainState(ctx, chainID)
	require.NoError(t, err)
	require.NotContains(t, stored.ConnectionDetails.Channels, transferPort)

	ev := <-sink.C
	require.Equal(t, event.KindChannelClosed, ev.Kind)
	require.Equal(t, ibc.ChannelID("channel-0"), ev.ChannelID)
}

func TestCloseChannelWithoutConnection(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)
	engine, _ := newTestEngine(t, chainID, &fakeRPC{nodeID: "node-1"}, nil)

	_, err = engine.AddChain(ctx, chainID, "node-1", testChainConfig(), time.Now().UTC())
	require.NoError(t, err)

	transferPort, err := ibc.NewPortID(ibc.PortTransfer)
	require.NoError(t, err)
	err = engine.CloseChannel(ctx, chainID, transferPort, nil)
	require.ErrorIs(t, err, store.ErrConnectionNotFound)
}

func TestNewPanicsOnNilCollaborators(t *testing.T) {
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)
	st := store.NewMemStore()
	signer := testMnemonicSigner(t, chainID)
	rpc := &fakeRPC{nodeID: "node-1"}
	logger := log.NewNopLogger()

	require.Panics(t, func() { New(nil, signer, rpc, nil, logger) })
	require.Panics(t, func() { New(st, nil, rpc, nil, logger) })
	require.Panics(t, func() { New(st, signer, nil, nil, logger) })
	require.NotPanics(t, func() { New(st, signer, rpc, nil, logger) })
}

func TestBalanceDelegatesToRPC(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)
	engine, _ := newTestEngine(t, chainID, &fakeRPC{nodeID: "node-1"}, nil)

	bal, err := engine.Balance(ctx, "cosmos1abc", "gld")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), bal)
}
