package cmd

import (
	"fmt"
	"sort"

	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:     "address",
	Aliases: []string{"addr"},
	Short:   "Manage saved addresses",
	Long: `Saved addresses are labels usable wherever a command takes an address.

Example:
  icon config address add treasury hx1234...
  icon tx send treasury 10`,
}

var addressListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := book().List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return ui.PrintJSON(out, saved)
		}
		if len(saved) == 0 {
			fmt.Fprintln(out, ui.Info("No saved addresses."))
			return nil
		}
		labels := make([]string, 0, len(saved))
		for l := range saved {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		t := ui.NewTable([]ui.Column{{Title: "Label", Width: 16}, {Title: "Address", Width: 44}})
		for _, l := range labels {
			t.AddRow(ui.Row{ui.Val(l), ui.Addr(saved[l])})
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

var addressAddCmd = &cobra.Command{
	Use:   "add <label> <address>",
	Short: "Save an address under a label (replaces an existing label)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, err := book().Save(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Saved %q → %s", label, ui.Addr(args[1]))))
		return nil
	},
}

var addressRemoveCmd = &cobra.Command{
	Use:     "remove <label>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved address",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := book().Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Label %q deleted.", args[0])))
		return nil
	},
}

func init() {
	addressCmd.AddCommand(addressListCmd, addressAddCmd, addressRemoveCmd)
}
