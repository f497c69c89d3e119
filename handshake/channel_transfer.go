package handshake

import (
	"context"

	channeltypes "github.com/cosmos/ibc-go/v8/modules/core/04-channel/types"

	"github.com/strangelove-ventures/solo-machine/ibc"
	"github.com/strangelove-ventures/solo-machine/rpcclient"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// openTransferChannel opens the unordered ICS-20 channel over port
// "transfer" on both sides.
func openTransferChannel(ctx context.Context, rpc rpcclient.Client, signer signing.Signer, chainState *store.ChainState, tmConnID ibc.ConnectionID, requestID *string) (store.ChannelDetails, error) {
	portID, err := ibc.NewPortID(ibc.PortTransfer)
	if err != nil {
		return store.ChannelDetails{}, err
	}
	return openChannelRemoteInit(ctx, rpc, signer, chainState, portID, channeltypes.UNORDERED, "ics20-1", tmConnID, requestID)
}
