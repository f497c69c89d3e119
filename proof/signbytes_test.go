package proof

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/store"
)

func testChainState(t *testing.T) *store.ChainState {
	t.Helper()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)
	return &store.ChainState{
		ID: chainID,
		Config: store.ChainConfig{
			Diversifier: "stag",
			Fee:         store.Fee{Amount: sdkmath.NewInt(1000), Denom: "stake", GasLimit: 300000},
		},
		ConsensusTimestamp: time.Unix(1700000000, 0).UTC(),
		Sequence:           1,
	}
}

func TestBuildSignBytesPacketCommitmentDeterministic(t *testing.T) {
	cs := testChainState(t)
	portID, err := ibc.NewPortID("transfer")
	require.NoError(t, err)
	chanID, err := ibc.NewChannelID("channel-0")
	require.NoError(t, err)
	path := ibc.PacketCommitmentPath(portID, chanID, 1)

	first, err := BuildSignBytes(KindPacketCommitment, cs, 1, path, RawBytes([]byte("commitment-hash")))
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := BuildSignBytes(KindPacketCommitment, cs, 1, path, RawBytes([]byte("commitment-hash")))
	require.NoError(t, err)
	require.Equal(t, first, second, "identical inputs must produce identical canonical bytes")
}

func TestBuildSignBytesDistinctSequenceDiffers(t *testing.T) {
	cs := testChainState(t)
	portID, err := ibc.NewPortID("transfer")
	require.NoError(t, err)
	chanID, err := ibc.NewChannelID("channel-0")
	require.NoError(t, err)
	path := ibc.PacketCommitmentPath(portID, chanID, 1)

	first, err := BuildSignBytes(KindPacketCommitment, cs, 1, path, RawBytes([]byte("commitment-hash")))
	require.NoError(t, err)

	second, err := BuildSignBytes(KindPacketCommitment, cs, 2, path, RawBytes([]byte("commitment-hash")))
	require.NoError(t, err)

	require.NotEqual(t, first, second, "distinct sequences must produce distinct sign bytes")
}

func TestBuildSignBytesRejectsWrongPayloadType(t *testing.T) {
	cs := testChainState(t)
	portID, err := ibc.NewPortID("transfer")
	require.NoError(t, err)
	chanID, err := ibc.NewChannelID("channel-0")
	require.NoError(t, err)
	path := ibc.PacketCommitmentPath(portID, chanID, 1)

	_, err = BuildSignBytes(KindPacketCommitment, cs, 1, path, nil)
	require.Error(t, err)
}
