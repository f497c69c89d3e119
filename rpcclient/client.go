// Package rpcclient defines the external Tendermint RPC collaborator the
// protocol engine consumes. The interface is shaped after
// github.com/cometbft/cometbft/rpc/client.Client so a concrete adapter is a
// thin wrapper; cmd/solod carries one.
package rpcclient

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// Client is the set of remote-chain queries and broadcasts the engine needs.
type Client interface {
	// Status returns node identity and sync info, used by add_chain to
	// confirm node identity via a live query.
	Status(ctx context.Context) (*coretypes.ResultStatus, error)

	// Commit returns the signed header at height (nil = latest).
	Commit(ctx context.Context, height *int64) (*coretypes.ResultCommit, error)

	// Validators returns one page of the validator set at height; callers
	// paginate at 30/page until ResultValidators.Total is reached.
	Validators(ctx context.Context, height *int64, page, perPage *int) (*coretypes.ResultValidators, error)

	// LightBlock returns the light-client-verifiable block at height.
	LightBlock(ctx context.Context, height *int64) (*cmttypes.LightBlock, error)

	// BroadcastTxCommit submits tx and blocks for both CheckTx and the
	// delivery result.
	BroadcastTxCommit(ctx context.Context, tx cmttypes.Tx) (*coretypes.ResultBroadcastTxCommit, error)

	// Account queries the counterparty auth module for the signer's base
	// account (account number + sequence), used by the transaction builder.
	Account(ctx context.Context, address string) (*authtypes.BaseAccount, error)

	// Balance queries the counterparty bank module for address's balance of
	// denom.
	Balance(ctx context.Context, address, denom string) (sdkmath.Int, error)

	// UnbondingPeriod queries the counterparty staking module's unbonding
	// period, used when composing the Tendermint client state.
	UnbondingPeriod(ctx context.Context) (time.Duration, error)
}
