package lightclient

import (
	"testing"
	"time"

	"github.com/cometbft/cometbft/types"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGetRoundTrip(t *testing.T) {
	s := NewStore()
	lb := &types.LightBlock{
		SignedHeader: &types.SignedHeader{Header: &types.Header{Height: 10, Time: time.Now()}},
	}

	require.NoError(t, s.Set(lb, StatusTrusted))
	got, status, err := s.Get(10)
	require.NoError(t, err)
	require.Equal(t, StatusTrusted, status)
	require.Equal(t, lb.Height, got.Height)
}

func TestStoreGetMissingHeight(t *testing.T) {
	s := NewStore()
	_, _, err := s.Get(99)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestStoreHighestTrustedOrVerified(t *testing.T) {
	s := NewStore()
	low := &types.LightBlock{SignedHeader: &types.SignedHeader{Header: &types.Header{Height: 5, Time: time.Now()}}}
	high := &types.LightBlock{SignedHeader: &types.SignedHeader{Header: &types.Header{Height: 15, Time: time.Now()}}}
	unverified := &types.LightBlock{SignedHeader: &types.SignedHeader{Header: &types.Header{Height: 20, Time: time.Now()}}}

	require.NoError(t, s.Set(low, StatusTrusted))
	require.NoError(t, s.Set(high, StatusVerified))
	require.NoError(t, s.Set(unverified, StatusUnverified))

	best, status, ok := s.HighestTrustedOrVerified()
	require.True(t, ok)
	require.Equal(t, int64(15), best.Height)
	require.Equal(t, StatusVerified, status)
}
