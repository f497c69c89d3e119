package main

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	cmttypes "github.com/cometbft/cometbft/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	stakingtypes "github.com/cosmos/cosmos-sdk/x/staking/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/strangelove-ventures/solo-machine/rpcclient"
)

// tendermintClient is the thin concrete rpcclient.Client adapter. It is
// kept here, in the CLI entrypoint, rather than in the rpcclient package
// itself, so the library stays free of a live network dependency.
type tendermintClient struct {
	rpc  *rpchttp.HTTP
	conn *grpc.ClientConn
}

var _ rpcclient.Client = (*tendermintClient)(nil)

// newTendermintClient dials rpcAddr (CometBFT RPC, e.g. "http://localhost:26657")
// and grpcAddr (the counterparty chain's gRPC query endpoint, e.g.
// "localhost:9090") without blocking; failures surface on first use.
func newTendermintClient(rpcAddr, grpcAddr string) (*tendermintClient, error) {
	rpc, err := rpchttp.New(rpcAddr, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("dialing tendermint rpc %s: %w", rpcAddr, err)
	}
	conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing grpc %s: %w", grpcAddr, err)
	}
	return &tendermintClient{rpc: rpc, conn: conn}, nil
}

func (c *tendermintClient) Status(ctx context.Context) (*coretypes.ResultStatus, error) {
	return c.rpc.Status(ctx)
}

func (c *tendermintClient) Commit(ctx context.Context, height *int64) (*coretypes.ResultCommit, error) {
	return c.rpc.Commit(ctx, height)
}

func (c *tendermintClient) Validators(ctx context.Context, height *int64, page, perPage *int) (*coretypes.ResultValidators, error) {
	return c.rpc.Validators(ctx, height, page, perPage)
}

// LightBlock assembles a cmttypes.LightBlock from a signed header plus its
// full validator set, the same two RPC calls CometBFT's own
// light/provider/http.New-backed provider issues under the hood.
func (c *tendermintClient) LightBlock(ctx context.Context, height *int64) (*cmttypes.LightBlock, error) {
	commit, err := c.rpc.Commit(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("fetching commit: %w", err)
	}

	var vals []*cmttypes.Validator
	page := 1
	perPage := 30
	for {
		res, err := c.rpc.Validators(ctx, &commit.SignedHeader.Height, &page, &perPage)
		if err != nil {
			return nil, fmt.Errorf("fetching validators: %w", err)
		}
		vals = append(vals, res.Validators...)
		if len(vals) >= res.Total {
			break
		}
		page++
	}

	valSet := cmttypes.NewValidatorSet(vals)
	return &cmttypes.LightBlock{SignedHeader: &commit.SignedHeader, ValidatorSet: valSet}, nil
}

func (c *tendermintClient) BroadcastTxCommit(ctx context.Context, tx cmttypes.Tx) (*coretypes.ResultBroadcastTxCommit, error) {
	return c.rpc.BroadcastTxCommit(ctx, tx)
}

func (c *tendermintClient) Account(ctx context.Context, address string) (*authtypes.BaseAccount, error) {
	resp, err := authtypes.NewQueryClient(c.conn).Account(ctx, &authtypes.QueryAccountRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("querying account %s: %w", address, err)
	}
	var acct authtypes.BaseAccount
	if err := acct.Unmarshal(resp.Account.Value); err != nil {
		return nil, fmt.Errorf("unmarshaling base account: %w", err)
	}
	return &acct, nil
}

func (c *tendermintClient) Balance(ctx context.Context, address, denom string) (sdkmath.Int, error) {
	resp, err := banktypes.NewQueryClient(c.conn).Balance(ctx, &banktypes.QueryBalanceRequest{Address: address, Denom: denom})
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("querying balance: %w", err)
	}
	return resp.Balance.Amount, nil
}

func (c *tendermintClient) UnbondingPeriod(ctx context.Context) (time.Duration, error) {
	resp, err := stakingtypes.NewQueryClient(c.conn).Params(ctx, &stakingtypes.QueryParamsRequest{})
	if err != nil {
		return 0, fmt.Errorf("querying staking params: %w", err)
	}
	return resp.Params.UnbondingTime, nil
}
