package signing

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	errorsmod "cosmossdk.io/errors"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"golang.org/x/crypto/sha3"
)

// Algo names the key algorithm a PublicKey was derived under.
type Algo string

const (
	// AlgoSecp256k1 is the default address/signing algorithm.
	AlgoSecp256k1 Algo = "secp256k1"
	// AlgoEthSecp256k1 is the ethermint-style variant using Keccak256
	// addressing.
	AlgoEthSecp256k1 Algo = "eth-secp256k1"
)

var (
	codespace = "signing"

	// ErrUnknownAlgo is returned when a chain config names an algorithm this
	// package does not implement.
	ErrUnknownAlgo = errorsmod.Register(codespace, 2, "unknown public key algorithm")
)

// ParseAlgo validates and normalizes an algorithm name from chain config.
func ParseAlgo(s string) (Algo, error) {
	switch strings.ToLower(s) {
	case "", string(AlgoSecp256k1):
		return AlgoSecp256k1, nil
	case string(AlgoEthSecp256k1):
		return AlgoEthSecp256k1, nil
	default:
		return "", errorsmod.Wrapf(ErrUnknownAlgo, "algo %q", s)
	}
}

// PublicKey wraps a derived public key together with the algorithm used to
// derive its on-chain address.
type PublicKey struct {
	Algo Algo
	Key  cryptotypes.PubKey
}

// AddressBytes returns the raw account address bytes for this public key,
// per algorithm: RIPEMD160(SHA256(pubkey)) for secp256k1 (delegated to the
// underlying cryptotypes.PubKey.Address(), which cosmos-sdk already computes
// this way), or the last 20 bytes of Keccak256(uncompressed-point[1:]) for
// eth-secp256k1.
func (p PublicKey) AddressBytes() ([]byte, error) {
	switch p.Algo {
	case AlgoSecp256k1:
		return p.Key.Address().Bytes(), nil
	case AlgoEthSecp256k1:
		pubKey, err := btcec.ParsePubKey(p.Key.Bytes())
		if err != nil {
			return nil, errorsmod.Wrap(err, "failed to parse eth-secp256k1 public key")
		}
		uncompressed := pubKey.SerializeUncompressed()
		hash := sha3.NewLegacyKeccak256()
		hash.Write(uncompressed[1:])
		sum := hash.Sum(nil)
		return sum[len(sum)-20:], nil
	default:
		return nil, errorsmod.Wrapf(ErrUnknownAlgo, "algo %q", p.Algo)
	}
}

// AccountAddress bech32-encodes the address bytes under prefix (e.g.
// "cosmos").
func (p PublicKey) AccountAddress(prefix string) (string, error) {
	addrBytes, err := p.AddressBytes()
	if err != nil {
		return "", err
	}
	return bech32.ConvertAndEncode(prefix, addrBytes)
}

// CompressedHex renders the compressed public key point as uppercase hex.
func (p PublicKey) CompressedHex() string {
	return strings.ToUpper(hex.EncodeToString(p.Key.Bytes()))
}
