// Package ibc implements the typed identifier and canonical path model used
// throughout the solo-machine's IBC protocol engine (client, connection,
// channel and port identifiers, and the key paths proofs are constructed
// over).
package ibc

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
)

const (
	// MinIdentifierLength is the minimum length of a generic Identifier.
	MinIdentifierLength = 1
	// MaxIdentifierLength is the maximum length of a generic Identifier.
	MaxIdentifierLength = 64

	minClientIDLength     = 9
	minConnectionIDLength = 10
	minChannelIDLength    = 8
	minPortIDLength       = 2

	randSuffixLength   = 4
	randSuffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// PortTransfer and PortICAHost are the two reserved port literals; all
	// other ports (e.g. controller ports) are generated.
	PortTransfer = "transfer"
	PortICAHost  = "icahost"
)

var (
	codespace = "ibc"

	// ErrInvalidIdentifier is returned when an identifier fails validation.
	ErrInvalidIdentifier = errorsmod.Register(codespace, 2, "invalid identifier")
	// ErrInvalidChainID is returned when a chain id fails validation.
	ErrInvalidChainID = errorsmod.Register(codespace, 3, "invalid chain id")

	validIDPattern      = regexp.MustCompile(`^[A-Za-z0-9._+\-#\[\]<>]+$`)
	validChainIDPattern = regexp.MustCompile(`^.*[^-]-[1-9][0-9]*$`)
)

// Identifier is a generic, validated IBC identifier: a non-empty string of
// 1..=64 characters drawn from [A-Za-z0-9._+\-#\[\]<>], never containing a
// slash.
type Identifier string

// NewIdentifier validates s and returns it as an Identifier.
func NewIdentifier(s string) (Identifier, error) {
	if err := validateIdentifier(s, MinIdentifierLength); err != nil {
		return "", err
	}
	return Identifier(s), nil
}

func validateIdentifier(s string, minLen int) error {
	if strings.Contains(s, "/") {
		return errorsmod.Wrapf(ErrInvalidIdentifier, "identifier %q must not contain '/'", s)
	}
	if len(s) < minLen || len(s) > MaxIdentifierLength {
		return errorsmod.Wrapf(ErrInvalidIdentifier, "identifier %q must be between %d and %d characters, got %d", s, minLen, MaxIdentifierLength, len(s))
	}
	if !validIDPattern.MatchString(s) {
		return errorsmod.Wrapf(ErrInvalidIdentifier, "identifier %q contains invalid characters", s)
	}
	return nil
}

// generateSuffix draws randSuffixLength characters from crypto/rand; the
// suffixes end up in on-chain identifiers, so a weak source is not enough.
func generateSuffix() (string, error) {
	b := make([]byte, randSuffixLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(randSuffixAlphabet))))
		if err != nil {
			return "", errorsmod.Wrap(err, "failed to generate random suffix")
		}
		b[i] = randSuffixAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ChainID is the textual chain identifier "<name>-<revision>".
type ChainID struct {
	raw            string
	name           string
	revisionNumber uint64
}

// NewChainID parses and validates s as a ChainID.
func NewChainID(s string) (ChainID, error) {
	if err := validateIdentifier(s, MinIdentifierLength); err != nil {
		return ChainID{}, errorsmod.Wrap(ErrInvalidChainID, err.Error())
	}

	name := s
	var revision uint64
	if validChainIDPattern.MatchString(s) {
		idx := strings.LastIndex(s, "-")
		name = s[:idx]
		n, err := strconv.ParseUint(s[idx+1:], 10, 64)
		if err != nil {
			return ChainID{}, errorsmod.Wrapf(ErrInvalidChainID, "invalid revision suffix in chain id %q", s)
		}
		revision = n
	}

	return ChainID{raw: s, name: name, revisionNumber: revision}, nil
}

// String renders the ChainID back to its wire form.
func (c ChainID) String() string { return c.raw }

// Name returns the chain name portion (without the revision suffix).
func (c ChainID) Name() string { return c.name }

// RevisionNumber returns the parsed revision number, or 0 if the chain id
// carries no "-<positive-integer>" suffix.
func (c ChainID) RevisionNumber() uint64 { return c.revisionNumber }

// ClientID is a validated client identifier (min length 9).
type ClientID string

// NewClientID validates s as a ClientID.
func NewClientID(s string) (ClientID, error) {
	if err := validateIdentifier(s, minClientIDLength); err != nil {
		return "", err
	}
	return ClientID(s), nil
}

// GenerateClientID produces "<clientType>-<rand4>", e.g. "07-tendermint-a1B2".
func GenerateClientID(clientType string) (ClientID, error) {
	suffix, err := generateSuffix()
	if err != nil {
		return "", err
	}
	return NewClientID(fmt.Sprintf("%s-%s", clientType, suffix))
}

// ConnectionID is a validated connection identifier (min length 10).
type ConnectionID string

// NewConnectionID validates s as a ConnectionID.
func NewConnectionID(s string) (ConnectionID, error) {
	if err := validateIdentifier(s, minConnectionIDLength); err != nil {
		return "", err
	}
	return ConnectionID(s), nil
}

// GenerateConnectionID produces "connection-<rand4>".
func GenerateConnectionID() (ConnectionID, error) {
	suffix, err := generateSuffix()
	if err != nil {
		return "", err
	}
	return NewConnectionID(fmt.Sprintf("connection-%s", suffix))
}

// ChannelID is a validated channel identifier (min length 8).
type ChannelID string

// NewChannelID validates s as a ChannelID.
func NewChannelID(s string) (ChannelID, error) {
	if err := validateIdentifier(s, minChannelIDLength); err != nil {
		return "", err
	}
	return ChannelID(s), nil
}

// GenerateChannelID produces "channel-<rand4>".
func GenerateChannelID() (ChannelID, error) {
	suffix, err := generateSuffix()
	if err != nil {
		return "", err
	}
	return NewChannelID(fmt.Sprintf("channel-%s", suffix))
}

// PortID is a validated port identifier (min length 2). PortTransfer and
// PortICAHost are the two reserved literals; controller ports are generated.
type PortID string

// NewPortID validates s as a PortID.
func NewPortID(s string) (PortID, error) {
	if err := validateIdentifier(s, minPortIDLength); err != nil {
		return "", err
	}
	return PortID(s), nil
}

// GenerateControllerPortID produces "icacontroller-<rand4>".
func GenerateControllerPortID() (PortID, error) {
	suffix, err := generateSuffix()
	if err != nil {
		return "", err
	}
	return NewPortID(fmt.Sprintf("icacontroller-%s", suffix))
}
