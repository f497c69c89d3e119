package ibc

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DenomTrace derives the ibc-prefixed voucher denom for a token that
// traversed <port>/<channel>/<baseDenom>:
// "ibc/" + upper(hex(sha256("<port>/<channel>/<denom>"))).
func DenomTrace(portID PortID, channelID ChannelID, baseDenom string) string {
	trace := string(DenomTracePath(portID, channelID, baseDenom))
	sum := sha256.Sum256([]byte(trace))
	return "ibc/" + strings.ToUpper(hex.EncodeToString(sum[:]))
}
