package handshake

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

// fakeRPC scripts one ABCI event set per expected broadcast, consumed in
// order. rejectAt, when non-zero, makes that broadcast (1-based) fail with a
// non-zero deliver code.
type fakeRPC struct {
	lightBlock *cmttypes.LightBlock
	broadcasts [][]abci.Event
	calls      int
	rejectAt   int
}

func (f *fakeRPC) Status(context.Context) (*coretypes.ResultStatus, error) {
	return &coretypes.ResultStatus{
		NodeInfo: p2p.DefaultNodeInfo{DefaultNodeID: "node-1", Network: "mars-1"},
		SyncInfo: coretypes.SyncInfo{LatestBlockHeight: f.lightBlock.Height},
	}, nil
}

func (f *fakeRPC) Commit(context.Context, *int64) (*coretypes.ResultCommit, error) {
	return nil, nil
}

func (f *fakeRPC) Validators(context.Context, *int64, *int, *int) (*coretypes.ResultValidators, error) {
	return nil, nil
}

func (f *fakeRPC) LightBlock(context.Context, *int64) (*cmttypes.LightBlock, error) {
	return f.lightBlock, nil
}

func (f *fakeRPC) BroadcastTxCommit(context.Context, cmttypes.Tx) (*coretypes.ResultBroadcastTxCommit, error) {
	f.calls++
	if f.rejectAt == f.calls {
		return &coretypes.ResultBroadcastTxCommit{
			TxResult: abci.ExecTxResult{Code: 5, Log: "out of gas"},
		}, nil
	}
	var events []abci.Event
	if len(f.broadcasts) > 0 {
		events = f.broadcasts[0]
		f.broadcasts = f.broadcasts[1:]
	}
	return &coretypes.ResultBroadcastTxCommit{TxResult: abci.ExecTxResult{Events: events}}, nil
}

func (f *fakeRPC) Account(context.Context, string) (*authtypes.BaseAccount, error) {
	return &authtypes.BaseAccount{AccountNumber: 1, Sequence: uint64(f.calls)}, nil
}

func (f *fakeRPC) Balance(context.Context, string, string) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), nil
}

func (f *fakeRPC) UnbondingPeriod(context.Context) (time.Duration, error) {
	return 21 * 24 * time.Hour, nil
}

// testLightBlock builds a self-consistent single-validator light block the
// light client accepts as its trusted seed.
func testLightBlock(t *testing.T, chainID string, height int64) *cmttypes.LightBlock {
	t.Helper()
	pv := cmttypes.NewMockPV()
	pub, err := pv.GetPubKey()
	require.NoError(t, err)
	val := cmttypes.NewValidator(pub, 10)
	valSet := cmttypes.NewValidatorSet([]*cmttypes.Validator{val})

	header := &cmttypes.Header{
		ChainID:            chainID,
		Height:             height,
		Time:               time.Now().Add(-time.Minute),
		ValidatorsHash:     valSet.Hash(),
		NextValidatorsHash: valSet.Hash(),
		ProposerAddress:    val.Address,
	}
	return &cmttypes.LightBlock{
		SignedHeader: &cmttypes.SignedHeader{Header: header, Commit: &cmttypes.Commit{}},
		ValidatorSet: valSet,
	}
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

func newTestChainState(t *testing.T, lb *cmttypes.LightBlock) *store.ChainState {
	t.Helper()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)

	var trustedHash [32]byte
	copy(trustedHash[:], lb.SignedHeader.Hash())

	return &store.ChainState{
		ID:     chainID,
		NodeID: "node-1",
		Config: store.ChainConfig{
			Fee:                       store.Fee{Amount: sdkmath.NewInt(1000), Denom: "stake", GasLimit: 300000},
			TrustLevelNumerator:       1,
			TrustLevelDenominator:     3,
			TrustingPeriod:            14 * 24 * time.Hour,
			MaxClockDrift:             3 * time.Second,
			RPCTimeout:                60 * time.Second,
			Diversifier:               "stag",
			TrustedHeight:             uint64(lb.Height),
			TrustedHash:               trustedHash,
			PacketTimeoutHeightOffset: 10,
		},
		ConsensusTimestamp: time.Now().UTC(),
		Sequence:           1,
	}
}

// connectScript is the event set Connect consumes, one entry per broadcast:
// create client, connection init, connection ack, transfer channel init,
// transfer channel ack, ica channel try, ica channel confirm.
func connectScript() [][]abci.Event {
	return [][]abci.Event{
		{{Type: "create_client", Attributes: []abci.EventAttribute{{Key: "client_id", Value: "07-tendermint-0"}}}},
		{{Type: "connection_open_init", Attributes: []abci.EventAttribute{{Key: "connection_id", Value: "connection-0"}}}},
		nil,
		{{Type: "channel_open_init", Attributes: []abci.EventAttribute{{Key: "channel_id", Value: "channel-0"}}}},
		nil,
		{{Type: "channel_open_try", Attributes: []abci.EventAttribute{
			{Key: "channel_id", Value: "channel-1"},
			{Key: "address", Value: "cosmos1icahostaddr"},
		}}},
		nil,
	}
}

func TestConnectEstablishesConnection(t *testing.T) {
	ctx := context.Background()
	lb := testLightBlock(t, "mars-1", 1)
	cs := newTestChainState(t, lb)

	st := store.NewMemStore()
	require.NoError(t, st.AddChainState(ctx, cs))

	rpc := &fakeRPC{lightBlock: lb, broadcasts: connectScript()}
	sink := event.NewChanSink(8)
	engine := NewEngine(rpc, testMnemonicSigner(t, cs.ID), st, sink, log.NewNopLogger())

	got, err := engine.Connect(ctx, cs.ID, false, nil)
	require.NoError(t, err)
	require.NotNil(t, got.ConnectionDetails)
	require.Equal(t, ibc.ClientID("07-tendermint-0"), got.ConnectionDetails.SoloMachineClientID)
	require.Equal(t, ibc.ConnectionID("connection-0"), got.ConnectionDetails.SoloMachineConnectionID)
	require.Len(t, got.ConnectionDetails.Channels, 2)

	// one proof sequence consumed per connection ack, transfer ack, ica try,
	// ica confirm
	require.Equal(t, uint64(5), got.Sequence)

	transferPort, err := ibc.NewPortID(ibc.PortTransfer)
	require.NoError(t, err)
	transfer, ok := got.ConnectionDetails.Channels[transferPort]
	require.True(t, ok)
	require.Equal(t, uint64(1), transfer.PacketSequence)
	require.Equal(t, channeltypes.UNORDERED, transfer.Ordering)
	require.Equal(t, "ics20-1", transfer.Version)
	require.NotEqual(t, transfer.SoloMachineChannelID, transfer.TendermintChannelID)

	var icaPort ibc.PortID
	for port, cd := range got.ConnectionDetails.Channels {
		if string(cd.TendermintPortID) == ibc.PortICAHost {
			icaPort = port
			require.Equal(t, channeltypes.ORDERED, cd.Ordering)
			require.Contains(t, cd.Version, "ics27-1")
		}
	}
	require.NotEmpty(t, icaPort)

	// the host-registered interchain account address was persisted
	icaAddr, err := st.GetICAAddress(ctx, cs.ID, got.ConnectionDetails.TendermintConnectionID, icaPort)
	require.NoError(t, err)
	require.Equal(t, "cosmos1icahostaddr", icaAddr.Address)

	// the committed chain state matches what Connect returned
	stored, err := st.GetChainState(ctx, cs.ID)
	require.NoError(t, err)
	require.True(t, stored.IsConnected())
	require.Equal(t, got.Sequence, stored.Sequence)

	ev := <-sink.C
	require.Equal(t, event.KindConnectionEstablished, ev.Kind)
}

func TestConnectAlreadyConnected(t *testing.T) {
	ctx := context.Background()
	lb := testLightBlock(t, "mars-1", 1)
	cs := newTestChainState(t, lb)
	cs.ConnectionDetails = &store.ConnectionDetails{
		SoloMachineClientID: "07-tendermint-0",
		Channels:            map[ibc.PortID]store.ChannelDetails{},
	}

	st := store.NewMemStore()
	require.NoError(t, st.AddChainState(ctx, cs))

	rpc := &fakeRPC{lightBlock: lb}
	engine := NewEngine(rpc, testMnemonicSigner(t, cs.ID), st, nil, log.NewNopLogger())

	_, err := engine.Connect(ctx, cs.ID, false, nil)
	require.ErrorIs(t, err, ErrAlreadyConnected)
	require.Contains(t, err.Error(), "chain mars-1 is already connected")
	require.Zero(t, rpc.calls)
}

func TestConnectForceResetsSequence(t *testing.T) {
	ctx := context.Background()
	lb := testLightBlock(t, "mars-1", 1)
	cs := newTestChainState(t, lb)
	cs.Sequence = 42
	cs.ConnectionDetails = &store.ConnectionDetails{
		SoloMachineClientID: "07-tendermint-old",
		Channels:            map[ibc.PortID]store.ChannelDetails{},
	}

	st := store.NewMemStore()
	require.NoError(t, st.AddChainState(ctx, cs))

	rpc := &fakeRPC{lightBlock: lb, broadcasts: connectScript()}
	engine := NewEngine(rpc, testMnemonicSigner(t, cs.ID), st, nil, log.NewNopLogger())

	got, err := engine.Connect(ctx, cs.ID, true, nil)
	require.NoError(t, err)
	require.Equal(t, ibc.ClientID("07-tendermint-0"), got.ConnectionDetails.SoloMachineClientID)
	require.Equal(t, uint64(5), got.Sequence)
}

func TestConnectRemoteRejectionAborts(t *testing.T) {
	ctx := context.Background()
	lb := testLightBlock(t, "mars-1", 1)
	cs := newTestChainState(t, lb)

	st := store.NewMemStore()
	require.NoError(t, st.AddChainState(ctx, cs))

	rpc := &fakeRPC{lightBlock: lb, broadcasts: connectScript(), rejectAt: 1}
	engine := NewEngine(rpc, testMnemonicSigner(t, cs.ID), st, nil, log.NewNopLogger())

	_, err := engine.Connect(ctx, cs.ID, false, nil)
	require.ErrorIs(t, err, ErrRemoteRejected)
	require.Contains(t, err.Error(), "out of gas")

	// nothing was committed
	stored, err := st.GetChainState(ctx, cs.ID)
	require.NoError(t, err)
	require.False(t, stored.IsConnected())
	require.Equal(t, uint64(1), stored.Sequence)
}
