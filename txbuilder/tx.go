// Package txbuilder assembles cosmos-sdk transactions: it produces a
// TxRaw ready for RPC broadcast, querying the counterparty's auth
// module for account number/sequence and invoking the signer for the
// SignDoc.
package txbuilder

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec/types"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	txtypes "github.com/cosmos/cosmos-sdk/types/tx"
	signingtypes "github.com/cosmos/cosmos-sdk/types/tx/signing"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

var codespace = "txbuilder"

var (
	// ErrAccountNotFound is returned when the signer's account does not
	// exist on the counterparty chain.
	ErrAccountNotFound = errorsmod.Register(codespace, 2, "signer account not found on counterparty chain")
	// ErrEncoding wraps protobuf marshal failures.
	ErrEncoding = errorsmod.Register(codespace, 3, "protobuf encoding failure")
)

// Build assembles a signed TxRaw from msgs. It never retries on broadcast
// failure (callers decide) and always produces a single-signer signature;
// multisig is unsupported.
func Build(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, chainState *store.ChainState, msgs []proto.Message, memo string, requestID *string) (*txtypes.TxRaw, error) {
	anyMsgs := make([]*types.Any, 0, len(msgs))
	for _, msg := range msgs {
		anyMsg, err := types.NewAnyWithValue(msg)
		if err != nil {
			return nil, errorsmod.Wrap(ErrEncoding, err.Error())
		}
		anyMsgs = append(anyMsgs, anyMsg)
	}

	body := &txtypes.TxBody{
		Messages:                    anyMsgs,
		Memo:                        memo,
		TimeoutHeight:               0,
		ExtensionOptions:            nil,
		NonCriticalExtensionOptions: nil,
	}
	bodyBytes, err := proto.Marshal(body)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}

	address, err := signer.ToAccountAddress(chainState.ID)
	if err != nil {
		return nil, err
	}
	account, err := rpc.Account(ctx, address)
	if err != nil {
		return nil, errorsmod.Wrap(ErrAccountNotFound, err.Error())
	}

	pubKey, err := signer.GetPublicKey(chainState.ID)
	if err != nil {
		return nil, err
	}
	anyPubKey, err := types.NewAnyWithValue(pubKey.Key)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}

	fee := sdktypes.NewCoins(sdktypes.NewCoin(chainState.Config.Fee.Denom, chainState.Config.Fee.Amount))

	authInfo := &txtypes.AuthInfo{
		SignerInfos: []*txtypes.SignerInfo{
			{
				PublicKey: anyPubKey,
				ModeInfo: &txtypes.ModeInfo{
					Sum: &txtypes.ModeInfo_Single_{
						Single: &txtypes.ModeInfo_Single{Mode: signingtypes.SignMode_SIGN_MODE_DIRECT},
					},
				},
				Sequence: account.Sequence,
			},
		},
		Fee: &txtypes.Fee{
			Amount:   fee,
			GasLimit: chainState.Config.Fee.GasLimit,
			Payer:    "",
			Granter:  "",
		},
	}
	authInfoBytes, err := proto.Marshal(authInfo)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}

	signDoc := &txtypes.SignDoc{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		ChainId:       chainState.ID.String(),
		AccountNumber: account.AccountNumber,
	}
	signDocBytes, err := proto.Marshal(signDoc)
	if err != nil {
		return nil, errorsmod.Wrap(ErrEncoding, err.Error())
	}

	sig, err := signer.Sign(ctx, requestID, chainState.ID, signing.Message{Kind: signing.KindSignDoc, Data: signDocBytes})
	if err != nil {
		return nil, err
	}

	return &txtypes.TxRaw{
		BodyBytes:     bodyBytes,
		AuthInfoBytes: authInfoBytes,
		Signatures:    [][]byte{sig},
	}, nil
}
