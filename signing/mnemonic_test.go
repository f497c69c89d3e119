package signing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/solo-machine/ibc"
)

const testMnemonic = "practice empty client sauce pistol work ticket casual romance appear army fault palace coyote fox super salute slim catch kite wrist three hedgehog sign"

func TestMnemonicSignerDerivesLiteralTestVector(t *testing.T) {
	chainID, err := ibc.NewChainID("mars-1")
	require.NoError(t, err)

	cfg, err := NewMnemonicSignerConfig(testMnemonic, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultHDPath, cfg.HDPath)
	require.Equal(t, DefaultAccountPrefix, cfg.AccountPrefix)
	require.Equal(t, AlgoSecp256k1, cfg.Algo)

	signer := NewMnemonicSigner(map[ibc.ChainID]MnemonicSignerConfig{chainID: cfg})

	pub, err := signer.GetPublicKey(chainID)
	require.NoError(t, err)
	require.Equal(t, "02A94B5772665ECD0A38BC26ECE57A3D15674A12597E223604345C49FB2EFDFD72", pub.CompressedHex())

	addr, err := signer.ToAccountAddress(chainID)
	require.NoError(t, err)
	require.Equal(t, "cosmos1j2qpprh2xke7qjqzehfqgjdkfgddf9dm06dugw", addr)
}

func TestMnemonicSignerRejectsInvalidMnemonic(t *testing.T) {
	_, err := NewMnemonicSignerConfig("not a valid mnemonic at all", nil, nil, nil)
	require.Error(t, err)
}

func TestMnemonicSignerUnknownChainErrors(t *testing.T) {
	signer := NewMnemonicSigner(nil)
	unknown, err := ibc.NewChainID("venus-1")
	require.NoError(t, err)

	_, err = signer.GetPublicKey(unknown)
	require.Error(t, err)
}
