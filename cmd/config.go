package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration, keystores, networks and saved addresses",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := store.Inspect()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return ui.PrintJSON(out, cfg)
		}
		data, err := config.Encode(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Config directory: "+store.Dir()))
		return nil
	},
}

var configResetYes bool

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the configuration with defaults",
	Long: `Discard config.yml and write the default document.

Keystore files stay in the keystore directory but are no longer registered;
import them again with: icon config keystore add <path>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !configResetYes && !prompter.ConfirmDanger("Reset the configuration to defaults?") {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		if err := store.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Configuration reset to defaults."))
		return nil
	},
}

var configPurgeYes bool

var configPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Permanently delete replaced and removed keystores from the trash",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg := keystores()
		files, err := reg.TrashContents()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(out, ui.Info("Trash is empty."))
			return nil
		}
		for _, f := range files {
			fmt.Fprintln(out, "  "+ui.Meta(f))
		}
		if !configPurgeYes && !prompter.ConfirmDanger(fmt.Sprintf("Delete %d file(s) forever?", len(files))) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		if err := reg.PurgeTrash(); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Purged %d file(s).", len(files))))
		return nil
	},
}

var configModeCmd = &cobra.Command{
	Use:   "mode [r|rw]",
	Short: "Show or set the read-only mode",
	Long: `Without an argument, print the current mode.

  r   read-only: transaction commands are refused
  rw  read/write (default)`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(config.ModeRead), string(config.ModeReadWrite)},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			cfg, err := store.Read()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(cfg.Mode))
			return nil
		}
		mode := config.Mode(args[0])
		if !mode.Valid() {
			return fmt.Errorf("invalid mode %q: expected r or rw", args[0])
		}
		if err := store.Update(func(cfg *config.AppConfig) error {
			cfg.Mode = mode
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Mode set to %q.", mode)))
		return nil
	},
}

func init() {
	configResetCmd.Flags().BoolVarP(&configResetYes, "yes", "y", false, "skip confirmation")
	configPurgeCmd.Flags().BoolVarP(&configPurgeYes, "yes", "y", false, "skip confirmation")
	configCmd.AddCommand(
		configViewCmd,
		configResetCmd,
		configPurgeCmd,
		configModeCmd,
		keystoreCmd,
		networkCmd,
		addressCmd,
	)
}
