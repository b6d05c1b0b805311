package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/rpc"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:     "network",
	Aliases: []string{"net"},
	Short:   "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List built-in and custom networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := networks().List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return ui.PrintJSON(out, entries)
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name"},
			{Title: "NID", Right: true},
			{Title: "API Endpoint"},
			{Title: "Tracker"},
			{Title: "Kind"},
			{Title: "Default"},
		})
		for _, e := range entries {
			kind := "custom"
			if e.Builtin {
				kind = "built-in"
			}
			def := ""
			if e.Default {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{
				ui.NetworkName(e.Name),
				strconv.FormatInt(e.NID, 10),
				e.APIEndpoint,
				ui.Meta(e.TrackerEndpoint),
				ui.Meta(kind),
				def,
			})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d network(s)", len(entries))))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default network (pick interactively without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := networks()
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			entries, err := reg.List()
			if err != nil {
				return err
			}
			items := make([]ui.PickerItem, 0, len(entries))
			for _, e := range entries {
				items = append(items, ui.PickerItem{
					Label:    e.Name,
					SubLabel: fmt.Sprintf("nid %d  %s", e.NID, e.APIEndpoint),
					Value:    e.Name,
					Current:  e.Default,
				})
			}
			if name, err = ui.PickItem("Select the default network", items); err != nil {
				return err
			}
			if name == "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
		}
		if err := reg.SetDefault(name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %s.", ui.NetworkName(config.NormalizeName(name)))))
		return nil
	},
}

var networkAddCmd = &cobra.Command{
	Use:   "add <name> <api-endpoint> <nid> <tracker-endpoint>",
	Short: "Register a custom network",
	Long: `Register a network that is not built in, e.g. a local node.

Examples:
  icon config network add local http://localhost:9082 3 http://localhost:8080
  icon config network add devnet https://dev.example.io 0x53 https://tracker.dev.example.io`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		nid, err := parseInt(args[2])
		if err != nil || !nid.IsInt64() {
			return fmt.Errorf("invalid nid %q", args[2])
		}
		desc := config.NetworkDescriptor{
			Name:            args[0],
			APIEndpoint:     args[1],
			NID:             nid.Int64(),
			TrackerEndpoint: args[3],
		}
		n, err := networks().AddCustom(desc)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Network %s added (nid %d).", ui.NetworkName(n.Name), n.NID)))
		fmt.Fprintln(out, ui.Hint("Use it with: icon -n "+n.Name+" ... or icon config network use "+n.Name))
		return nil
	},
}

var networkRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a custom network",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := networks().RemoveCustom(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Network %q removed.", config.NormalizeName(args[0]))))
		return nil
	},
}

var networkPingCmd = &cobra.Command{
	Use:   "ping [name...]",
	Short: "Check that network endpoints answer and are in sync",
	Long: `Fetch the last block from each network's API endpoint in parallel and
report latency and height. Networks sharing a nid are compared, and one more
than 3 blocks behind the others is reported as stale.

Without arguments every built-in and custom network is checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := networks()
		var targets []config.NetworkDescriptor
		if len(args) == 0 {
			entries, err := reg.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				targets = append(targets, e.NetworkDescriptor)
			}
		} else {
			for _, name := range args {
				n, err := reg.Resolve(name)
				if err != nil {
					return err
				}
				targets = append(targets, n)
			}
		}

		results, _ := withSpinner("Pinging endpoints...", func() ([]rpc.Endpoint, error) {
			return rpc.Benchmark(cmdContext(cmd), targets, func(n config.NetworkDescriptor) rpc.Pinger {
				return newClient(n)
			}), nil
		})
		out := cmd.OutOrStdout()
		if err := printResult(out, results, func() error {
			t := ui.NewTable([]ui.Column{
				{Title: "Name"},
				{Title: "NID", Right: true},
				{Title: "Height", Right: true},
				{Title: "Latency", Right: true},
				{Title: "Status"},
			})
			for _, r := range results {
				status := ui.StyleSuccess.Render(r.Status)
				switch r.Status {
				case rpc.StatusStale:
					status = ui.StyleWarning.Render(r.Status)
				case rpc.StatusDown:
					status = ui.StyleError.Render(r.Status) + " " + ui.Meta(r.Error)
				}
				height := "—"
				if r.Height > 0 {
					height = strconv.FormatInt(r.Height, 10)
				}
				t.AddRow(ui.Row{
					ui.NetworkName(r.Network.Name),
					strconv.FormatInt(r.Network.NID, 10),
					height,
					r.Latency.Round(time.Millisecond).String(),
					status,
				})
			}
			fmt.Fprintln(out, t.Render())
			if best, err := rpc.Fastest(results); err == nil {
				fmt.Fprintln(out, ui.Meta(fmt.Sprintf("Fastest: %s (%s)", best.Network.Name, best.Latency.Round(time.Millisecond))))
			}
			return nil
		}); err != nil {
			return err
		}
		if _, err := rpc.Fastest(results); err != nil {
			return fmt.Errorf("%w: %w", icx.ErrRPC, err)
		}
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkAddCmd, networkRemoveCmd, networkPingCmd)
}
