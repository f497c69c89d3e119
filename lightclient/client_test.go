package lightclient

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	cmtmath "github.com/cometbft/cometbft/libs/math"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/cometbft/cometbft/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/stretchr/testify/require"
)

// fakeRPC serves scripted light blocks by height; a nil height request
// returns the highest scripted block.
type fakeRPC struct {
	blocks map[int64]*types.LightBlock
}

func (f *fakeRPC) Status(context.Context) (*coretypes.ResultStatus, error) { return nil, nil }
func (f *fakeRPC) Commit(context.Context, *int64) (*coretypes.ResultCommit, error) {
	return nil, nil
}
func (f *fakeRPC) Validators(context.Context, *int64, *int, *int) (*coretypes.ResultValidators, error) {
	return nil, nil
}

func (f *fakeRPC) LightBlock(_ context.Context, height *int64) (*types.LightBlock, error) {
	if height == nil {
		var best *types.LightBlock
		for _, lb := range f.blocks {
			if best == nil || lb.Height > best.Height {
				best = lb
			}
		}
		return best, nil
	}
	lb, ok := f.blocks[*height]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return lb, nil
}

func (f *fakeRPC) BroadcastTxCommit(context.Context, types.Tx) (*coretypes.ResultBroadcastTxCommit, error) {
	return nil, nil
}
func (f *fakeRPC) Account(context.Context, string) (*authtypes.BaseAccount, error) {
	return nil, nil
}
func (f *fakeRPC) Balance(context.Context, string, string) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), nil
}
func (f *fakeRPC) UnbondingPeriod(context.Context) (time.Duration, error) { return 0, nil }

func testBlock(t *testing.T, height int64, blockTime time.Time) *types.LightBlock {
	t.Helper()
	pv := types.NewMockPV()
	pub, err := pv.GetPubKey()
	require.NoError(t, err)
	val := types.NewValidator(pub, 10)
	valSet := types.NewValidatorSet([]*types.Validator{val})

	header := &types.Header{
		ChainID:            "mars-1",
		Height:             height,
		Time:               blockTime,
		ValidatorsHash:     valSet.Hash(),
		NextValidatorsHash: valSet.Hash(),
		ProposerAddress:    val.Address,
	}
	return &types.LightBlock{
		SignedHeader: &types.SignedHeader{Header: header, Commit: &types.Commit{}},
		ValidatorSet: valSet,
	}
}

func testOptions(lb *types.LightBlock) Options {
	return Options{
		TrustingPeriod: 14 * 24 * time.Hour,
		MaxClockDrift:  3 * time.Second,
		TrustLevel:     cmtmath.Fraction{Numerator: 1, Denominator: 3},
		TrustedHeight:  lb.Height,
		TrustedHash:    lb.SignedHeader.Hash(),
	}
}

func TestNewSeedsTrustedBlock(t *testing.T) {
	ctx := context.Background()
	lb := testBlock(t, 1, time.Now().Add(-time.Minute))
	rpc := &fakeRPC{blocks: map[int64]*types.LightBlock{1: lb}}

	c, err := New(ctx, rpc, "mars-1", testOptions(lb))
	require.NoError(t, err)

	got, status, err := c.store.Get(1)
	require.NoError(t, err)
	require.Equal(t, StatusTrusted, status)
	require.Equal(t, lb.Height, got.Height)
}

func TestNewRejectsHashMismatch(t *testing.T) {
	ctx := context.Background()
	lb := testBlock(t, 1, time.Now().Add(-time.Minute))
	rpc := &fakeRPC{blocks: map[int64]*types.LightBlock{1: lb}}

	opts := testOptions(lb)
	opts.TrustedHash = make([]byte, 32)
	_, err := New(ctx, rpc, "mars-1", opts)
	require.ErrorIs(t, err, ErrTrustedHashMismatch)
}

func TestNewRejectsExpiredSeed(t *testing.T) {
	ctx := context.Background()
	lb := testBlock(t, 1, time.Now().Add(-15*24*time.Hour))
	rpc := &fakeRPC{blocks: map[int64]*types.LightBlock{1: lb}}

	_, err := New(ctx, rpc, "mars-1", testOptions(lb))
	require.ErrorIs(t, err, ErrTrustedStateExpired)
}

func TestNewRejectsInconsistentNextValidators(t *testing.T) {
	ctx := context.Background()
	lb := testBlock(t, 1, time.Now().Add(-time.Minute))
	lb.SignedHeader.NextValidatorsHash = make([]byte, 32)
	rpc := &fakeRPC{blocks: map[int64]*types.LightBlock{1: lb}}

	_, err := New(ctx, rpc, "mars-1", testOptions(lb))
	require.ErrorIs(t, err, ErrVerificationFailed)
}

func TestNewRejectsFutureSeed(t *testing.T) {
	ctx := context.Background()
	lb := testBlock(t, 1, time.Now().Add(time.Hour))
	rpc := &fakeRPC{blocks: map[int64]*types.LightBlock{1: lb}}

	_, err := New(ctx, rpc, "mars-1", testOptions(lb))
	require.ErrorIs(t, err, ErrVerificationFailed)
}

func TestVerifyToHighestReturnsTrustedTip(t *testing.T) {
	ctx := context.Background()
	lb := testBlock(t, 1, time.Now().Add(-time.Minute))
	rpc := &fakeRPC{blocks: map[int64]*types.LightBlock{1: lb}}

	c, err := New(ctx, rpc, "mars-1", testOptions(lb))
	require.NoError(t, err)

	// the chain has not advanced; the trusted seed is already the tip
	tip, err := c.VerifyToHighest(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), tip.Height)
}
