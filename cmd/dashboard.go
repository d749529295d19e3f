package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/allowctl/internal/ui"
	"github.com/spf13/cobra"
)

var dashboardWalletFlag string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live allowance dashboard",
	Long: `Full-screen dashboard showing every tracked token's allowance for the
active spender, classified by risk.

Keys: r refresh · s toggle risk sorting · q quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newReadSession(dashboardWalletFlag)
		if err != nil {
			return err
		}
		spenderAddr, _, err := requireSpender(s.reg)
		if err != nil {
			return err
		}

		fetcher := func(sortByRisk bool) ([]ui.AllowanceRow, error) {
			if _, err := s.runner.RefreshAll(); err != nil {
				return nil, err
			}
			rows := make([]ui.AllowanceRow, 0, len(s.reg.Tokens()))
			for _, tok := range s.book.Ordered(s.reg.Tokens(), sortByRisk) {
				row := ui.AllowanceRow{
					Symbol:  tok.Symbol,
					Address: tok.Address,
					Amount:  "—",
				}
				if snap, ok := s.book.Get(tok.Address); ok {
					row.Amount = snap.Formatted
					row.Tier = snap.Class.Tier.String()
					row.Unlimited = snap.Class.UnlimitedExact || snap.Class.UnlimitedLike
				}
				rows = append(rows, row)
			}
			return rows, nil
		}

		p := ui.NewDashboard(s.wallet.Address, spenderAddr, cfg.SortByRisk, fetcher)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardWalletFlag, "wallet", "", "wallet to act as (default: the default wallet)")
}
