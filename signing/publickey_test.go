package signing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

func TestParseAlgo(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    Algo
		expPass bool
	}{
		{"empty defaults to secp256k1", "", AlgoSecp256k1, true},
		{"secp256k1", "secp256k1", AlgoSecp256k1, true},
		{"eth-secp256k1", "eth-secp256k1", AlgoEthSecp256k1, true},
		{"uppercase normalized", "SECP256K1", AlgoSecp256k1, true},
		{"unknown rejected", "ed25519", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAlgo(tc.input)
			if tc.expPass {
				require.NoError(t, err)
				require.Equal(t, tc.want, got)
			} else {
				require.ErrorIs(t, err, ErrUnknownAlgo)
			}
		})
	}
}

func TestEthSecp256k1AddressDiffersFromSecp256k1(t *testing.T) {
	chainID, err := ibc.NewChainID("evmos-1")
	require.NoError(t, err)

	ethAlgo := AlgoEthSecp256k1
	ethCfg, err := NewMnemonicSignerConfig(testMnemonic, nil, nil, &ethAlgo)
	require.NoError(t, err)
	defaultCfg, err := NewMnemonicSignerConfig(testMnemonic, nil, nil, nil)
	require.NoError(t, err)

	ethSigner := NewMnemonicSigner(map[ibc.ChainID]MnemonicSignerConfig{chainID: ethCfg})
	defaultSigner := NewMnemonicSigner(map[ibc.ChainID]MnemonicSignerConfig{chainID: defaultCfg})

	ethPub, err := ethSigner.GetPublicKey(chainID)
	require.NoError(t, err)
	defaultPub, err := defaultSigner.GetPublicKey(chainID)
	require.NoError(t, err)

	// same curve point, different address hashing
	require.Equal(t, defaultPub.Key.Bytes(), ethPub.Key.Bytes())

	ethAddr, err := ethPub.AddressBytes()
	require.NoError(t, err)
	defaultAddr, err := defaultPub.AddressBytes()
	require.NoError(t, err)
	require.Len(t, ethAddr, 20)
	require.Len(t, defaultAddr, 20)
	require.NotEqual(t, defaultAddr, ethAddr)
}

func TestAddressBytesUnknownAlgo(t *testing.T) {
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)

	cfg, err := NewMnemonicSignerConfig(testMnemonic, nil, nil, nil)
	require.NoError(t, err)
	signer := NewMnemonicSigner(map[ibc.ChainID]MnemonicSignerConfig{chainID: cfg})

	pub, err := signer.GetPublicKey(chainID)
	require.NoError(t, err)
	pub.Algo = "ed25519"

	_, err = pub.AddressBytes()
	require.ErrorIs(t, err, ErrUnknownAlgo)
}
