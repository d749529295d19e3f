package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/allowctl/internal/chain"
	"github.com/Mohsinsiddi/allowctl/internal/ui"
	"github.com/spf13/cobra"
)

var tokenLabelFlag string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage tracked tokens",
}

var tokenAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Track a custom ERC-20 token",
	Long: `Add a custom token to the tracked set.

The contract must answer a decimals() call to prove it is a live ERC-20.
Symbol and name are read from the contract when available; --label
overrides the symbol.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)
		client := chain.NewEVMClient(cfg.RPCURL)

		sp := ui.NewSpinner("Validating token contract...")
		sp.Start()
		tok, err := reg.AddCustom(args[0], tokenLabelFlag, client)
		sp.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Tracking %s (%s)", tok.Symbol, tok.Name)))
		fmt.Println(ui.Meta("  " + tok.Address))
		fmt.Println(ui.Hint(fmt.Sprintf("Check its allowance with: allowctl check %s", tok.Symbol)))
		return nil
	},
}

var tokenRemoveCmd = &cobra.Command{
	Use:   "remove <symbol|address>",
	Short: "Stop tracking a custom token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)
		tok, err := resolveToken(reg, args[0])
		if err != nil {
			return err
		}

		removed, err := reg.RemoveCustom(tok.Address)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println(ui.Info(fmt.Sprintf("%s is a built-in token and stays tracked.", tok.Symbol)))
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Stopped tracking %s.", tok.Symbol)))
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)

		t := ui.NewTable([]ui.Column{
			{Title: "Symbol", Width: 12},
			{Title: "Name", Width: 24},
			{Title: "Address", Width: 44},
			{Title: "Custom", Width: 8},
		})
		for _, tok := range reg.Tokens() {
			custom := ""
			if tok.Custom {
				custom = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.Val(tok.Symbol),
				ui.Meta(tok.Name),
				ui.Addr(tok.Address),
				custom,
			})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	tokenAddCmd.Flags().StringVar(&tokenLabelFlag, "label", "", "symbol override for the tracked token")
	tokenCmd.AddCommand(tokenAddCmd, tokenRemoveCmd, tokenListCmd)
}
