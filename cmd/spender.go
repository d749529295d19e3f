package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/allowctl/internal/registry"
	"github.com/Mohsinsiddi/allowctl/internal/ui"
	"github.com/spf13/cobra"
)

var spenderCmd = &cobra.Command{
	Use:   "spender",
	Short: "Choose the spender contract under inspection",
	Long: `Every allowance read and write targets one spender contract at a time.

Pick from the catalog of well-known contracts with 'spender use', or
inspect an arbitrary contract with 'spender set <address>'. Switching
spenders discards snapshots read against the previous one.`,
}

var spenderListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"presets"},
	Short:   "List the spender preset catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)
		activeAddr, _, _ := reg.ActiveSpender()

		t := ui.NewTable([]ui.Column{
			{Title: "ID", Width: 12},
			{Title: "Label", Width: 22},
			{Title: "Address", Width: 44},
			{Title: "Active", Width: 8},
		})
		for _, p := range registry.Presets() {
			active := ""
			if p.Address == activeAddr {
				active = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.Val(p.ID),
				ui.SpenderName(p.Label),
				ui.Addr(p.Address),
				active,
			})
		}
		fmt.Println(t.Render())

		for _, p := range registry.Presets() {
			if p.Note != "" {
				fmt.Println(ui.Meta(fmt.Sprintf("  %s: %s", p.ID, p.Note)))
			}
		}
		return nil
	},
}

var spenderUseCmd = &cobra.Command{
	Use:   "use <preset-id>",
	Short: "Switch to a catalog spender",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		p, ok := registry.PresetByID(id)
		if !ok {
			return fmt.Errorf("unknown preset %q — see `allowctl spender list`", id)
		}

		reg := newRegistry(nil)
		if err := reg.SelectPreset(id); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Spender set to %s", p.Label)))
		fmt.Println(ui.Meta("  " + p.Address))
		return nil
	},
}

var spenderSetCmd = &cobra.Command{
	Use:   "set <address>",
	Short: "Inspect a custom spender contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)
		applied, err := reg.ApplyCustomSpender(args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.Success("Custom spender applied"))
		fmt.Println(ui.Meta("  " + applied))
		fmt.Println(ui.Hint("Read allowances against it with: allowctl refresh"))
		return nil
	},
}

var spenderClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Un-apply the custom spender",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)
		if err := reg.ClearCustomSpender(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Custom spender cleared."))
		fmt.Println(ui.Hint("Pick a preset with: allowctl spender use <id>"))
		return nil
	},
}

var spenderShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active spender",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)
		st := reg.Spender()

		pairs := [][2]string{
			{"Mode", ui.Val(st.Mode)},
		}
		if addr, label, ok := reg.ActiveSpender(); ok {
			pairs = append(pairs,
				[2]string{"Spender", ui.SpenderName(label)},
				[2]string{"Address", ui.Addr(addr)},
			)
		} else {
			pairs = append(pairs, [2]string{"Spender", ui.Warn("none applied")})
		}
		if st.CustomDraft != "" && st.CustomDraft != st.CustomApplied {
			pairs = append(pairs, [2]string{"Draft", ui.Meta(st.CustomDraft)})
		}
		fmt.Println(ui.KeyValueBlock("Spender", pairs))
		return nil
	},
}

var spenderDraftCmd = &cobra.Command{
	Use:   "draft <address>",
	Short: "Save a custom spender address without applying it",
	Long: `Record a custom spender address as a draft. Drafts never change the
active spender and never invalidate snapshots; apply later with
'spender set'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(nil)
		if err := reg.SetDraft(args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success("Draft saved."))
		fmt.Println(ui.Hint(fmt.Sprintf("Apply it with: allowctl spender set %s", args[0])))
		return nil
	},
}

func init() {
	spenderCmd.AddCommand(spenderListCmd, spenderUseCmd, spenderSetCmd,
		spenderClearCmd, spenderShowCmd, spenderDraftCmd)
}
