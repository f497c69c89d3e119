package txbuilder

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/cosmos/gogoproto/proto"
	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

type stubRPC struct {
	account *authtypes.BaseAccount
	accErr  error
}

func (s *stubRPC) Status(ctx context.Context) (*coretypes.ResultStatus, error) { return nil, nil }
func (s *stubRPC) Commit(ctx context.Context, height *int64) (*coretypes.ResultCommit, error) {
	return nil, nil
}
func (s *stubRPC) Validators(ctx context.Context, height *int64, page, perPage *int) (*coretypes.ResultValidators, error) {
	return nil, nil
}
func (s *stubRPC) LightBlock(ctx context.Context, height *int64) (*cmttypes.LightBlock, error) {
	return nil, nil
}
func (s *stubRPC) BroadcastTxCommit(ctx context.Context, tx cmttypes.Tx) (*coretypes.ResultBroadcastTxCommit, error) {
	return nil, nil
}
func (s *stubRPC) Account(ctx context.Context, address string) (*authtypes.BaseAccount, error) {
	if s.accErr != nil {
		return nil, s.accErr
	}
	return s.account, nil
}
func (s *stubRPC) Balance(ctx context.Context, address, denom string) (sdkmath.Int, error) {
	return sdkmath.ZeroInt(), nil
}
func (s *stubRPC) UnbondingPeriod(ctx context.Context) (time.Duration, error) { return 0, nil }

func testMnemonicSigner(t *testing.T, chainID ibc.ChainID) *signing.MnemonicSigner {
	t.Helper()
	cfg, err := signing.NewMnemonicSignerConfig(
		"practice empty client sauce pistol work ticket casual romance appear army fault palace coyote fox super salute slim catch kite wrist three hedgehog sign",
		nil, nil, nil,
	)
	require.NoError(t, err)
	return signing.NewMnemonicSigner(map[ibc.ChainID]signing.MnemonicSignerConfig{chainID: cfg})
}

func TestBuildProducesValidTxRaw(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)

	cs := &store.ChainState{
		ID: chainID,
		Config: store.ChainConfig{
			Fee: store.Fee{Amount: sdkmath.NewInt(1000), Denom: "stake", GasLimit: 300000},
		},
	}
	signer := testMnemonicSigner(t, chainID)
	rpc := &stubRPC{account: &authtypes.BaseAccount{AccountNumber: 7, Sequence: 3}}

	msg := &banktypes.MsgSend{FromAddress: "cosmos1abc", ToAddress: "cosmos1def"}
	raw, err := Build(ctx, rpc, signer, cs, []proto.Message{msg}, "memo", nil)
	require.NoError(t, err)
	require.NotEmpty(t, raw.BodyBytes)
	require.NotEmpty(t, raw.AuthInfoBytes)
	require.Len(t, raw.Signatures, 1)
	require.NotEmpty(t, raw.Signatures[0])
}

func TestBuildPropagatesAccountLookupFailure(t *testing.T) {
	ctx := context.Background()
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)

	cs := &store.ChainState{
		ID:     chainID,
		Config: store.ChainConfig{Fee: store.Fee{Amount: sdkmath.NewInt(1000), Denom: "stake", GasLimit: 300000}},
	}
	signer := testMnemonicSigner(t, chainID)
	rpc := &stubRPC{accErr: errors.New("account lookup failed")}

	_, err = Build(ctx, rpc, signer, cs, nil, "", nil)
	require.ErrorIs(t, err, ErrAccountNotFound)
}
