// Command solod is a minimal CLI entrypoint wiring
// add-chain/connect/mint/burn/history against an in-memory store and
// mnemonic signer.
//
// The store (store.NewMemStore) lives only for the lifetime of the process:
// this is a reference entrypoint for a single scripted session, not a
// long-lived daemon with durable state across invocations.
package main

import (
	"fmt"
	"os"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cosmossdk.io/log"

	"github.com/strangelove-ventures/solo-machine/event"
	"github.com/strangelove-ventures/solo-machine/ibc"
	solomachine "github.com/strangelove-ventures/solo-machine"
	"github.com/strangelove-ventures/solo-machine/signing"
	"github.com/strangelove-ventures/solo-machine/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "solod",
		Short: "IBC solo-machine light client CLI",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.solod/config.yaml)")
	cobra.OnInitialize(func() {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			home, err := os.UserHomeDir()
			if err == nil {
				v.AddConfigPath(home + "/.solod")
			}
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
		v.SetEnvPrefix("SOLOD")
		v.AutomaticEnv()
		_ = v.ReadInConfig()
	})

	root.AddCommand(
		newAddChainCmd(v),
		newConnectCmd(v),
		newMintCmd(v),
		newBurnCmd(v),
		newHistoryCmd(v),
	)
	return root
}

// buildEngine constructs a fresh solomachine.Engine for chainID from the
// loaded config's chains.<chainID> block.
func buildEngine(v *viper.Viper, chainIDStr string) (*solomachine.Engine, ibc.ChainID, chainEntry, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, ibc.ChainID{}, chainEntry{}, err
	}
	entry, ok := cfg.Chains[chainIDStr]
	if !ok {
		return nil, ibc.ChainID{}, chainEntry{}, fmt.Errorf("no chains.%s block in config", chainIDStr)
	}

	chainID, err := ibc.NewChainID(chainIDStr)
	if err != nil {
		return nil, ibc.ChainID{}, chainEntry{}, fmt.Errorf("invalid chain id: %w", err)
	}

	signerCfg, err := entry.signerConfig()
	if err != nil {
		return nil, ibc.ChainID{}, chainEntry{}, err
	}
	signer := signing.NewMnemonicSigner(map[ibc.ChainID]signing.MnemonicSignerConfig{chainID: signerCfg})

	rpc, err := newTendermintClient(entry.RPCAddr, entry.GRPCAddr)
	if err != nil {
		return nil, ibc.ChainID{}, chainEntry{}, err
	}

	logger := log.NewLogger(os.Stderr)
	engine := solomachine.New(store.NewMemStore(), signer, rpc, event.NopSink{}, logger)
	return engine, chainID, entry, nil
}

func newAddChainCmd(v *viper.Viper) *cobra.Command {
	var expectedNodeID string
	cmd := &cobra.Command{
		Use:   "add-chain <chain-id>",
		Short: "Register a remote chain and confirm its node identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, chainID, entry, err := buildEngine(v, args[0])
			if err != nil {
				return err
			}
			chainCfg, err := entry.chainConfig()
			if err != nil {
				return err
			}

			cs, err := engine.AddChain(cmd.Context(), chainID, expectedNodeID, chainCfg, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chain %s registered, node id %s\n", cs.ID, cs.NodeID)
			return nil
		},
	}
	cmd.Flags().StringVar(&expectedNodeID, "node-id", "", "expected node id; empty skips the check")
	return cmd
}

func newConnectCmd(v *viper.Viper) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "connect <chain-id>",
		Short: "Run the client/connection/channel handshake against chain-id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, chainID, _, err := buildEngine(v, args[0])
			if err != nil {
				return err
			}
			cs, err := engine.Connect(cmd.Context(), chainID, force, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chain %s connected, client %s\n", cs.ID, cs.ConnectionDetails.SoloMachineClientID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-run the handshake even if a connection already exists")
	return cmd
}

func newMintCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint <chain-id> <denom> <receiver> <amount>",
		Short: "Relay a MsgRecvPacket minting denom to receiver",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, chainID, _, err := buildEngine(v, args[0])
			if err != nil {
				return err
			}
			amount, ok := sdkmath.NewIntFromString(args[3])
			if !ok {
				return fmt.Errorf("invalid amount %q", args[3])
			}
			if err := engine.Mint(cmd.Context(), chainID, args[1], args[2], amount, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "minted %s%s to %s\n", amount, args[1], args[2])
			return nil
		},
	}
	return cmd
}

func newBurnCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn <chain-id> <denom> <amount>",
		Short: "Send a MsgTransfer burning denom back to the counterparty chain",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, chainID, _, err := buildEngine(v, args[0])
			if err != nil {
				return err
			}
			amount, ok := sdkmath.NewIntFromString(args[2])
			if !ok {
				return fmt.Errorf("invalid amount %q", args[2])
			}
			if err := engine.Burn(cmd.Context(), chainID, args[1], amount, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "burnt %s%s\n", amount, args[1])
			return nil
		},
	}
	return cmd
}

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "history <chain-id>",
		Short: "List chain-id's operation audit log, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, chainID, _, err := buildEngine(v, args[0])
			if err != nil {
				return err
			}
			ops, err := engine.History(cmd.Context(), chainID, limit, offset)
			if err != nil {
				return err
			}
			for _, op := range ops {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s%s\t%s\n", op.CreatedAt.Format(time.RFC3339), op.OperationType, op.Amount, op.Denom, op.Address)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}
