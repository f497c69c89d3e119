package handshake

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/cosmos/gogoproto/proto"

	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
	"github.com/strangelove-ventures/solo-machine/txbuilder"
)

var codespace = "handshake"

var (
	// ErrRemoteRejected is returned when check_tx or deliver_tx reports a
	// non-zero code.
	ErrRemoteRejected = errorsmod.Register(codespace, 2, "remote chain rejected transaction")
	// ErrAttributeMissing is returned when an expected event attribute is not
	// present in the broadcast result.
	ErrAttributeMissing = errorsmod.Register(codespace, 3, "expected event attribute missing")
	// ErrAlreadyConnected is returned by Connect when force=false and the
	// chain already has ConnectionDetails.
	ErrAlreadyConnected = errorsmod.Register(codespace, 4, "chain is already connected")
	// ErrChannelAlreadyOpen describes a channel that already exists for a
	// port on force=false. Connect does not return it: a connected chain is
	// rejected earlier with ErrAlreadyConnected.
	ErrChannelAlreadyOpen = errorsmod.Register(codespace, 5, "channel already open for port")
)

// broadcast builds a transaction from msgs and submits it, failing on any
// non-zero check_tx/deliver_tx code.
func broadcast(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, chainState *store.ChainState, msgs []proto.Message, memo string, requestID *string) (*abciEvents, error) {
	raw, err := txbuilder.Build(ctx, rpc, signer, chainState, msgs, memo, requestID)
	if err != nil {
		return nil, err
	}
	txBytes, err := proto.Marshal(raw)
	if err != nil {
		return nil, errorsmod.Wrap(err, "failed to marshal TxRaw")
	}

	result, err := rpc.BroadcastTxCommit(ctx, cmttypes.Tx(txBytes))
	if err != nil {
		return nil, err
	}
	if result.CheckTx.Code != 0 {
		return nil, errorsmod.Wrapf(ErrRemoteRejected, "check_tx code %d: %s", result.CheckTx.Code, result.CheckTx.Log)
	}
	if result.TxResult.Code != 0 {
		return nil, errorsmod.Wrapf(ErrRemoteRejected, "deliver_tx code %d: %s", result.TxResult.Code, result.TxResult.Log)
	}

	events := make([]abci.Event, 0, len(result.CheckTx.Events)+len(result.TxResult.Events))
	events = append(events, result.CheckTx.Events...)
	events = append(events, result.TxResult.Events...)
	return &abciEvents{events: events}, nil
}

// abciEvents is a small lookup helper over a broadcast result's events.
type abciEvents struct {
	events []abci.Event
}

// attribute returns the value of attrKey within the first event of type
// eventType that carries attrKey, or ErrAttributeMissing.
func (e *abciEvents) attribute(eventType, attrKey string) (string, error) {
	for _, ev := range e.events {
		if ev.Type != eventType {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Key == attrKey {
				return attr.Value, nil
			}
		}
	}
	return "", errorsmod.Wrapf(ErrAttributeMissing, "%s.%s", eventType, attrKey)
}

// has reports whether any event of eventType is present.
func (e *abciEvents) has(eventType string) bool {
	for _, ev := range e.events {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}
