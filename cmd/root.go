package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/allowctl/internal/config"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/allowctl/cmd.Version=1.2.3" .
var Version = "1.0.0"

var (
	cfgDir  string
	cfg     *config.Config
	rpcFlag string
	verbose bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "allowctl",
	Short: "ERC-20 allowance inspector",
	Long: `allowctl — Inspect and manage ERC-20 token allowances from the terminal.

  See exactly what each spender contract can pull from your wallet,
  classified by risk, and approve or revoke with one command.

The spender under inspection is chosen from a catalog of well-known
contracts (Uniswap, Permit2, Seaport, 1inch) or set to any custom
address with: allowctl spender set <address>`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if rpcFlag != "" {
			cfg.RPCURL = rpcFlag
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// ALLOWCTL_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv("ALLOWCTL_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.allowctl)")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "RPC endpoint override for this invocation")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Register all sub-commands.
	rootCmd.AddCommand(
		initCmd,
		walletCmd,
		tokenCmd,
		spenderCmd,
		checkCmd,
		refreshCmd,
		approveCmd,
		revokeCmd,
		dashboardCmd,
		checksumCmd,
	)
}
