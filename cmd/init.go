package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/allowctl/internal/ui"
	"github.com/Mohsinsiddi/allowctl/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive first-run setup",
	Long:  "Configure the RPC endpoint and a first wallet in one pass.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.StyleTitle.Render("allowctl setup"))

		rpc := ui.PromptInput(fmt.Sprintf("RPC endpoint [%s]", cfg.RPCURL))
		if rpc != "" {
			cfg.RPCURL = rpc
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		// First wallet (optional, watch-only).
		address := ui.PromptInput("Wallet address to watch (blank to skip)")
		if address != "" {
			if !common.IsHexAddress(address) {
				return fmt.Errorf("invalid address: %q", address)
			}
			name := ui.PromptInput("Wallet name [main]")
			if name == "" {
				name = "main"
			}
			mgr := newWalletManager()
			if err := mgr.Add(name, &wallet.Wallet{
				Name:      name,
				Address:   common.HexToAddress(address).Hex(),
				Type:      wallet.TypeWatchOnly,
				IsDefault: true,
			}); err != nil {
				fmt.Println(ui.Warn(fmt.Sprintf("Could not add wallet: %v", err)))
			} else {
				cfg.DefaultWallet = name
				cfg.Save() //nolint:errcheck
			}
		}

		fmt.Println(ui.Success("allowctl configured!"))
		fmt.Println(ui.Hint("See what your spenders can move: allowctl refresh"))
		return nil
	},
}
