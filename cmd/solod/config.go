package main

import (
	"encoding/hex"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/viper"

	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

// chainEntry is the on-disk shape of one chains.<id> config block.
type chainEntry struct {
	GRPCAddr                  string `mapstructure:"grpc_addr"`
	RPCAddr                   string `mapstructure:"rpc_addr"`
	FeeAmount                 string `mapstructure:"fee_amount"`
	FeeDenom                  string `mapstructure:"fee_denom"`
	FeeGasLimit               uint64 `mapstructure:"fee_gas_limit"`
	TrustLevelNumerator       uint64 `mapstructure:"trust_level_numerator"`
	TrustLevelDenominator     uint64 `mapstructure:"trust_level_denominator"`
	TrustingPeriod            string `mapstructure:"trusting_period"`
	MaxClockDrift             string `mapstructure:"max_clock_drift"`
	RPCTimeout                string `mapstructure:"rpc_timeout"`
	Diversifier               string `mapstructure:"diversifier"`
	PacketTimeoutHeightOffset uint64 `mapstructure:"packet_timeout_height_offset"`
	TrustedHeight             uint64 `mapstructure:"trusted_height"`
	TrustedHash               string `mapstructure:"trusted_hash"`

	Mnemonic      string `mapstructure:"mnemonic"`
	HDPath        string `mapstructure:"hd_path"`
	AccountPrefix string `mapstructure:"account_prefix"`
	Algo          string `mapstructure:"algo"`
}

// cliConfig is the root of $HOME/.solod/config.yaml, loaded by viper;
// "chains" keys on the chain id string.
type cliConfig struct {
	Chains map[string]chainEntry `mapstructure:"chains"`
}

func loadConfig(v *viper.Viper) (cliConfig, error) {
	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// chainConfig converts the raw config block into store.ChainConfig.
func (e chainEntry) chainConfig() (store.ChainConfig, error) {
	trustingPeriod, err := time.ParseDuration(e.TrustingPeriod)
	if err != nil {
		return store.ChainConfig{}, fmt.Errorf("trusting_period: %w", err)
	}
	maxClockDrift, err := time.ParseDuration(e.MaxClockDrift)
	if err != nil {
		return store.ChainConfig{}, fmt.Errorf("max_clock_drift: %w", err)
	}
	rpcTimeout, err := time.ParseDuration(e.RPCTimeout)
	if err != nil {
		return store.ChainConfig{}, fmt.Errorf("rpc_timeout: %w", err)
	}
	feeAmount, ok := sdkmath.NewIntFromString(e.FeeAmount)
	if !ok {
		return store.ChainConfig{}, fmt.Errorf("fee_amount: invalid integer %q", e.FeeAmount)
	}

	var trustedHash [32]byte
	if e.TrustedHash != "" {
		raw, err := hex.DecodeString(e.TrustedHash)
		if err != nil {
			return store.ChainConfig{}, fmt.Errorf("trusted_hash: %w", err)
		}
		if len(raw) != 32 {
			return store.ChainConfig{}, fmt.Errorf("trusted_hash: want 32 bytes, got %d", len(raw))
		}
		copy(trustedHash[:], raw)
	}

	cfg := store.ChainConfig{
		GRPCAddr:                  e.GRPCAddr,
		RPCAddr:                   e.RPCAddr,
		Fee:                       store.Fee{Amount: feeAmount, Denom: e.FeeDenom, GasLimit: e.FeeGasLimit},
		TrustLevelNumerator:       e.TrustLevelNumerator,
		TrustLevelDenominator:     e.TrustLevelDenominator,
		TrustingPeriod:            trustingPeriod,
		MaxClockDrift:             maxClockDrift,
		RPCTimeout:                rpcTimeout,
		Diversifier:               e.Diversifier,
		TrustedHeight:             e.TrustedHeight,
		TrustedHash:               trustedHash,
		PacketTimeoutHeightOffset: e.PacketTimeoutHeightOffset,
	}
	if err := cfg.Validate(); err != nil {
		return store.ChainConfig{}, fmt.Errorf("trust_level: %w", err)
	}
	return cfg, nil
}

// signerConfig converts the raw config block into a signing.MnemonicSignerConfig.
func (e chainEntry) signerConfig() (signing.MnemonicSignerConfig, error) {
	algo, err := signing.ParseAlgo(e.Algo)
	if err != nil {
		return signing.MnemonicSignerConfig{}, fmt.Errorf("algo: %w", err)
	}

	var hdPath, accountPrefix *string
	if e.HDPath != "" {
		hdPath = &e.HDPath
	}
	if e.AccountPrefix != "" {
		accountPrefix = &e.AccountPrefix
	}
	return signing.NewMnemonicSignerConfig(e.Mnemonic, hdPath, accountPrefix, &algo)
}
