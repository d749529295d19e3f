package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/allowctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	checkWalletFlag   string
	refreshWalletFlag string
	refreshSortRisk   bool
)

var checkCmd = &cobra.Command{
	Use:   "check <symbol|address>",
	Short: "Read one token's allowance for the active spender",
	Long: `Read the current allowance the wallet has granted to the active spender
on a single token, and classify it by risk.

Examples:
  allowctl check USDC
  allowctl check 0x6B175474E89094C44Da98b954EedeAC495271d0F --wallet alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newReadSession(checkWalletFlag)
		if err != nil {
			return err
		}
		_, spenderLabel, err := requireSpender(s.reg)
		if err != nil {
			return err
		}
		tok, err := resolveToken(s.reg, args[0])
		if err != nil {
			return err
		}

		sp := ui.NewSpinner(fmt.Sprintf("Reading %s allowance...", tok.Symbol))
		sp.Start()
		snap, err := s.runner.Check(tok)
		sp.Stop()
		if err != nil {
			return err
		}

		printSnapshot(tok, spenderLabel, snap)
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Read allowances for every tracked token",
	Long: `Read the active spender's allowance on every tracked token and print a
classified table. One token failing never aborts the rest.

Sort by risk (highest first) with --sort-risk; the preference persists
for the dashboard too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newReadSession(refreshWalletFlag)
		if err != nil {
			return err
		}
		_, spenderLabel, err := requireSpender(s.reg)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("sort-risk") {
			cfg.SortByRisk = refreshSortRisk
			cfg.Save() //nolint:errcheck
		}

		sp := ui.NewSpinner(fmt.Sprintf("Reading %d token allowances...", len(s.reg.Tokens())))
		sp.Start()
		report, err := s.runner.RefreshAll()
		sp.Stop()
		if err != nil {
			return err
		}

		fmt.Println(ui.Meta(fmt.Sprintf("Owner %s · Spender %s",
			ui.TruncateAddr(s.wallet.Address), spenderLabel)))
		fmt.Println()

		t := ui.NewTable([]ui.Column{
			{Title: "Token", Width: 12},
			{Title: "Allowance", Width: 28},
			{Title: "Risk", Width: 10},
		})
		for _, tok := range s.book.Ordered(s.reg.Tokens(), cfg.SortByRisk) {
			snap, ok := s.book.Get(tok.Address)
			if !ok {
				t.AddRow(ui.Row{ui.Val(tok.Symbol), ui.Meta("read failed"), ui.RiskBadge("")})
				continue
			}
			amount := snap.Formatted
			if snap.Class.UnlimitedExact || snap.Class.UnlimitedLike {
				amount = "∞ unlimited"
			}
			t.AddRow(ui.Row{
				ui.Val(tok.Symbol),
				ui.Val(amount),
				ui.RiskBadge(snap.Class.Tier.String()),
			})
		}
		fmt.Println(t.Render())

		fmt.Println(ui.Meta(fmt.Sprintf("%d token(s) read, %d failed", report.Updated, len(report.Failures))))
		for _, f := range report.Failures {
			fmt.Println(ui.Err(fmt.Sprintf("  %s: %v", f.Token.Symbol, f.Err)))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkWalletFlag, "wallet", "", "wallet to act as (default: the default wallet)")
	refreshCmd.Flags().StringVar(&refreshWalletFlag, "wallet", "", "wallet to act as (default: the default wallet)")
	refreshCmd.Flags().BoolVar(&refreshSortRisk, "sort-risk", false, "sort the table by descending risk")
}
