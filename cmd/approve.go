package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/allowctl/internal/action"
	"github.com/Mohsinsiddi/allowctl/internal/registry"
	"github.com/Mohsinsiddi/allowctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	approveWalletFlag string
	approveAmountFlag string
	approveUnlimited  bool
	approveYes        bool

	revokeWalletFlag string
	revokeYes        bool
)

var approveCmd = &cobra.Command{
	Use:   "approve <symbol|address>",
	Short: "Grant the active spender an allowance",
	Long: `Sign and broadcast approve(spender, amount) on the token contract.

Examples:
  allowctl approve USDC --amount 250.5
  allowctl approve WETH --unlimited
  allowctl approve DAI --amount 100 --wallet alice

--unlimited grants the maximum representable allowance — the spender can
move your entire balance, forever, until revoked. You will be asked to
confirm unless --yes is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !approveUnlimited && approveAmountFlag == "" {
			return fmt.Errorf("either --amount or --unlimited is required")
		}

		s, err := newWriteSession(approveWalletFlag, confirmWrite(approveYes))
		if err != nil {
			return err
		}
		if _, _, err := requireSpender(s.reg); err != nil {
			return err
		}
		tok, err := resolveToken(s.reg, args[0])
		if err != nil {
			return err
		}

		var result action.WriteResult
		if approveUnlimited {
			result, err = s.runner.ApproveUnlimited(tok)
		} else {
			result, err = s.runner.Approve(tok, approveAmountFlag)
		}
		return reportWrite(s, tok, result, err)
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <symbol|address>",
	Short: "Set the active spender's allowance to zero",
	Long: `Sign and broadcast approve(spender, 0), removing the spender's ability
to move the token.

Example:
  allowctl revoke USDT`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newWriteSession(revokeWalletFlag, confirmWrite(revokeYes))
		if err != nil {
			return err
		}
		if _, _, err := requireSpender(s.reg); err != nil {
			return err
		}
		tok, err := resolveToken(s.reg, args[0])
		if err != nil {
			return err
		}

		result, err := s.runner.Revoke(tok)
		return reportWrite(s, tok, result, err)
	},
}

// confirmWrite builds the signing prompt for a write session. yes skips it.
func confirmWrite(yes bool) func(action.WriteRequest) bool {
	return func(req action.WriteRequest) bool {
		if yes {
			return true
		}
		switch req.Op {
		case "approve-unlimited":
			return ui.ConfirmDanger(fmt.Sprintf(
				"Grant %s an UNLIMITED %s allowance?", ui.TruncateAddr(req.Spender), req.Token.Symbol))
		case "revoke":
			return ui.Confirm(fmt.Sprintf(
				"Revoke %s's %s allowance?", ui.TruncateAddr(req.Spender), req.Token.Symbol))
		default:
			return ui.Confirm(fmt.Sprintf(
				"Approve %s to spend %s %s?", ui.TruncateAddr(req.Spender), req.Amount, req.Token.Symbol))
		}
	}
}

// reportWrite prints the outcome of an approve/revoke, including the refreshed
// snapshot when the post-write read succeeded.
func reportWrite(s *session, tok registry.Token, result action.WriteResult, err error) error {
	if err != nil {
		if result.Hash != "" {
			// Broadcast but not confirmed: surface the hash so the user can track it.
			fmt.Println(ui.Warn("Transaction broadcast but not confirmed."))
			fmt.Println(ui.Meta("  " + result.Hash))
		}
		if errors.Is(err, action.ErrUserCancelled) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		return err
	}

	fmt.Println(ui.Success("Transaction confirmed."))
	fmt.Println(ui.Meta("  " + result.Hash))
	if result.Snapshot != nil {
		fmt.Println()
		_, label, _ := s.reg.ActiveSpender()
		printSnapshot(tok, label, *result.Snapshot)
	}
	return nil
}

func init() {
	approveCmd.Flags().StringVar(&approveWalletFlag, "wallet", "", "signing wallet to use (default: the default wallet)")
	approveCmd.Flags().StringVar(&approveAmountFlag, "amount", "", "allowance in token units, e.g. 250.5")
	approveCmd.Flags().BoolVar(&approveUnlimited, "unlimited", false, "grant the maximum representable allowance")
	approveCmd.Flags().BoolVarP(&approveYes, "yes", "y", false, "skip the confirmation prompt")
	approveCmd.MarkFlagsMutuallyExclusive("amount", "unlimited")

	revokeCmd.Flags().StringVar(&revokeWalletFlag, "wallet", "", "signing wallet to use (default: the default wallet)")
	revokeCmd.Flags().BoolVarP(&revokeYes, "yes", "y", false, "skip the confirmation prompt")
}
