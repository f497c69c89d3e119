package ibc

import (
	"fmt"
	"net/url"
)

// Path is a slash-joined IBC key path, e.g. "clients/07-tendermint-0001/clientState".
type Path string

// ApplyPrefix yields "/<urlencode(prefix)>/<urlencode(path)>", the form used
// as proof key material once a commitment prefix (always "ibc" for these
// chains) is known.
func (p Path) ApplyPrefix(prefix string) string {
	return fmt.Sprintf("/%s/%s", url.QueryEscape(prefix), url.QueryEscape(string(p)))
}

// String returns the unprefixed path.
func (p Path) String() string { return string(p) }

// ClientStatePath returns "clients/<clientId>/clientState".
func ClientStatePath(clientID ClientID) Path {
	return Path(fmt.Sprintf("clients/%s/clientState", clientID))
}

// ConsensusStatePath returns "clients/<clientId>/consensusStates/<revision>-<height>".
func ConsensusStatePath(clientID ClientID, revisionNumber, revisionHeight uint64) Path {
	return Path(fmt.Sprintf("clients/%s/consensusStates/%d-%d", clientID, revisionNumber, revisionHeight))
}

// ConnectionPath returns "connections/<connectionId>".
func ConnectionPath(connectionID ConnectionID) Path {
	return Path(fmt.Sprintf("connections/%s", connectionID))
}

// ChannelPath returns "channelEnds/ports/<portId>/channels/<channelId>".
func ChannelPath(portID PortID, channelID ChannelID) Path {
	return Path(fmt.Sprintf("channelEnds/ports/%s/channels/%s", portID, channelID))
}

// PacketCommitmentPath returns "commitments/ports/<portId>/channels/<channelId>/sequences/<n>".
func PacketCommitmentPath(portID PortID, channelID ChannelID, sequence uint64) Path {
	return Path(fmt.Sprintf("commitments/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence))
}

// PacketAcknowledgementPath returns "acks/ports/<portId>/channels/<channelId>/sequences/<n>".
func PacketAcknowledgementPath(portID PortID, channelID ChannelID, sequence uint64) Path {
	return Path(fmt.Sprintf("acks/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence))
}

// PacketReceiptPath returns "receipts/ports/<portId>/channels/<channelId>/sequences/<n>".
func PacketReceiptPath(portID PortID, channelID ChannelID, sequence uint64) Path {
	return Path(fmt.Sprintf("receipts/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence))
}

// NextSequenceRecvPath returns "nextSequenceRecv/ports/<portId>/channels/<channelId>".
func NextSequenceRecvPath(portID PortID, channelID ChannelID) Path {
	return Path(fmt.Sprintf("nextSequenceRecv/ports/%s/channels/%s", portID, channelID))
}

// ICAAddressPath returns "owner/<connectionId>/<portId>".
func ICAAddressPath(connectionID ConnectionID, portID PortID) Path {
	return Path(fmt.Sprintf("owner/%s/%s", connectionID, portID))
}

// DenomTracePath returns "<portId>/<channelId>/<denom>", the un-hashed trace
// used as input to the IBC denom hash (see DenomTrace in denom.go).
func DenomTracePath(portID PortID, channelID ChannelID, denom string) Path {
	return Path(fmt.Sprintf("%s/%s/%s", portID, channelID, denom))
}
