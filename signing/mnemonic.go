package signing

import (
	"context"
	"sync"

	errorsmod "cosmossdk.io/errors"
	bip39 "github.com/cosmos/go-bip39"

	"github.com/cosmos/cosmos-sdk/crypto/hd"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	cryptotypes "github.com/cosmos/cosmos-sdk/crypto/types"
	"golang.org/x/crypto/sha3"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

const (
	// DefaultHDPath is the BIP44 path cosmos-sdk chains use by default.
	DefaultHDPath = "m/44'/118'/0'/0/0"
	// DefaultAccountPrefix is the bech32 human-readable part used when no
	// chain-specific prefix is configured.
	DefaultAccountPrefix = "cosmos"
)

var (
	// ErrNoSignerConfig is returned when Sign/GetPublicKey is called for a
	// chain id this signer was not configured with.
	ErrNoSignerConfig = errorsmod.Register(codespace, 3, "no signer config for chain id")
	// ErrInvalidMnemonic is returned when a configured mnemonic fails BIP-39
	// validation.
	ErrInvalidMnemonic = errorsmod.Register(codespace, 4, "invalid mnemonic")
)

// MnemonicSignerConfig is the per-chain configuration backing a single
// derived key.
type MnemonicSignerConfig struct {
	Mnemonic      string
	HDPath        string
	AccountPrefix string
	Algo          Algo
}

// NewMnemonicSignerConfig validates mnemonic and fills in defaults for any
// of hdPath/accountPrefix/algo left unset.
func NewMnemonicSignerConfig(mnemonic string, hdPath, accountPrefix *string, algo *Algo) (MnemonicSignerConfig, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return MnemonicSignerConfig{}, ErrInvalidMnemonic
	}

	cfg := MnemonicSignerConfig{
		Mnemonic:      mnemonic,
		HDPath:        DefaultHDPath,
		AccountPrefix: DefaultAccountPrefix,
		Algo:          AlgoSecp256k1,
	}
	if hdPath != nil {
		cfg.HDPath = *hdPath
	}
	if accountPrefix != nil {
		cfg.AccountPrefix = *accountPrefix
	}
	if algo != nil {
		cfg.Algo = *algo
	}
	return cfg, nil
}

func (c MnemonicSignerConfig) privKey() (cryptotypes.PrivKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(c.Mnemonic, "")
	if err != nil {
		return nil, errorsmod.Wrap(err, "failed to derive seed from mnemonic")
	}

	master, ch := hd.ComputeMastersFromSeed(seed)
	derivedKey, err := hd.DerivePrivateKeyForPath(master, ch, c.HDPath)
	if err != nil {
		return nil, errorsmod.Wrapf(err, "failed to derive key for HD path %q", c.HDPath)
	}

	// Both the secp256k1 and eth-secp256k1 variants derive from the same
	// BIP32 secp256k1 curve; they diverge only in how the address is hashed
	// from the resulting public key (see PublicKey.AddressBytes).
	return &secp256k1.PrivKey{Key: derivedKey}, nil
}

func (c MnemonicSignerConfig) publicKey() (PublicKey, error) {
	priv, err := c.privKey()
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{Algo: c.Algo, Key: priv.PubKey()}, nil
}

// MnemonicSigner implements Signer over a per-chain map of mnemonic-derived
// keys.
type MnemonicSigner struct {
	mu     sync.RWMutex
	config map[ibc.ChainID]MnemonicSignerConfig
}

// NewMnemonicSigner constructs a signer from a chain-id-to-config map.
func NewMnemonicSigner(config map[ibc.ChainID]MnemonicSignerConfig) *MnemonicSigner {
	cp := make(map[ibc.ChainID]MnemonicSignerConfig, len(config))
	for k, v := range config {
		cp[k] = v
	}
	return &MnemonicSigner{config: cp}
}

// AddChain registers (or replaces) the signing config for chainID.
func (s *MnemonicSigner) AddChain(chainID ibc.ChainID, cfg MnemonicSignerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config[chainID] = cfg
}

func (s *MnemonicSigner) get(chainID ibc.ChainID) (MnemonicSignerConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.config[chainID]
	if !ok {
		return MnemonicSignerConfig{}, errorsmod.Wrapf(ErrNoSignerConfig, "chain id: %s", chainID)
	}
	return cfg, nil
}

// GetPublicKey implements Signer.
func (s *MnemonicSigner) GetPublicKey(chainID ibc.ChainID) (PublicKey, error) {
	cfg, err := s.get(chainID)
	if err != nil {
		return PublicKey{}, err
	}
	return cfg.publicKey()
}

// AccountPrefix implements Signer.
func (s *MnemonicSigner) AccountPrefix(chainID ibc.ChainID) (string, error) {
	cfg, err := s.get(chainID)
	if err != nil {
		return "", err
	}
	return cfg.AccountPrefix, nil
}

// ToAccountAddress implements Signer.
func (s *MnemonicSigner) ToAccountAddress(chainID ibc.ChainID) (string, error) {
	cfg, err := s.get(chainID)
	if err != nil {
		return "", err
	}
	pub, err := cfg.publicKey()
	if err != nil {
		return "", err
	}
	return pub.AccountAddress(cfg.AccountPrefix)
}

// Sign implements Signer. The digest algorithm follows the chain's
// configured key algorithm: SHA-256 for secp256k1 (delegated to
// cryptotypes.PrivKey.Sign, which hashes internally) and Keccak256 for
// eth-secp256k1.
func (s *MnemonicSigner) Sign(_ context.Context, _ *string, chainID ibc.ChainID, message Message) ([]byte, error) {
	cfg, err := s.get(chainID)
	if err != nil {
		return nil, err
	}

	priv, err := cfg.privKey()
	if err != nil {
		return nil, err
	}

	switch cfg.Algo {
	case AlgoSecp256k1:
		sig, err := priv.Sign(message.Bytes())
		if err != nil {
			return nil, errorsmod.Wrap(err, "failed to sign message")
		}
		return sig, nil
	case AlgoEthSecp256k1:
		hash := sha3.NewLegacyKeccak256()
		hash.Write(message.Bytes())
		digest := hash.Sum(nil)
		sig, err := priv.Sign(digest)
		if err != nil {
			return nil, errorsmod.Wrap(err, "failed to sign message")
		}
		return sig, nil
	default:
		return nil, errorsmod.Wrapf(ErrUnknownAlgo, "algo %q", cfg.Algo)
	}
}
