package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/keystore"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	keystoreName    string
	keystoreReplace bool
	keystoreDefault bool
	keystoreLight   bool
	keystoreYes     bool
	keystoreQRPNG   string
)

var keystoreCmd = &cobra.Command{
	Use:     "keystore",
	Aliases: []string{"ks"},
	Short:   "Manage imported keystores",
}

var keystoreAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Import a keystore file",
	Long: `Copy an ICON keystore file into the managed keystore directory.

The source file is never modified. When the nickname is already taken you are
asked whether to replace it; the replaced file moves to the trash. Without
--default you are asked whether the first import becomes the default.

Examples:
  icon config keystore add ~/Downloads/UTC--2024... --name alice --default
  icon config keystore add ./bob.json --name bob --replace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		name := keystoreName
		if name == "" {
			def := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			var err error
			if name, err = prompter.Input("Nickname", def); err != nil {
				return err
			}
		}

		isDefault := keystoreDefault
		e, err := keystores().Import(path, name, keystore.ImportOptions{
			Replace:        keystoreReplace,
			SetDefault:     keystoreDefault,
			ConfirmReplace: confirmReplace,
			ConfirmDefault: func(e config.KeystoreEntry) (bool, error) {
				isDefault = prompter.Confirm(fmt.Sprintf("No default keystore yet. Use %q as the default?", e.Name))
				return isDefault, nil
			},
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Keystore %q imported: %s", e.Name, ui.Addr(e.Address))))
		if !isDefault {
			fmt.Fprintln(out, ui.Hint("Set as default with: icon config keystore use "+e.Name))
		}
		return nil
	},
}

func confirmReplace(existing config.KeystoreEntry) (bool, error) {
	return prompter.ConfirmDanger(fmt.Sprintf("Keystore %q (%s) exists. Replace it?", existing.Name, existing.Address)), nil
}

var keystoreCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Generate a new key and store it as a keystore",
	Long: `Generate a new key pair, encrypt it with a passphrase and register it.

There is no recovery phrase: back up the keystore file and its passphrase.
The file lives in the keystore directory, see: icon config keystore inspect <name>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pass, err := prompter.NewPassword("New passphrase")
		if err != nil {
			return err
		}
		opts := keystore.CreateOptions{
			ImportOptions: keystore.ImportOptions{
				Replace:        keystoreReplace,
				SetDefault:     keystoreDefault,
				ConfirmReplace: confirmReplace,
			},
		}
		if keystoreLight {
			opts.ScryptN, opts.ScryptP = wallet.LightScryptN, wallet.LightScryptP
		}

		e, _, err := withSpinner2("Encrypting key...", func() (config.KeystoreEntry, *wallet.Wallet, error) {
			return keystores().Create(args[0], pass, opts)
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s  %s\n", ui.Meta("Keystore:"), ui.Val(e.Name))
		fmt.Fprintf(out, "  %s  %s\n\n", ui.Meta("Address: "), ui.Addr(e.Address))
		fmt.Fprintln(out, ui.DangerBox(
			ui.Warn("Back up this file and remember the passphrase.")+"\n\n"+
				ui.Val(keystores().Path(e))+"\n\n"+
				ui.Hint("Lose either and the funds are gone."),
		))
		return nil
	},
}

// withSpinner2 is withSpinner for functions with two results.
func withSpinner2[A, B any](msg string, fn func() (A, B, error)) (A, B, error) {
	spin := ui.NewSpinner(msg)
	spin.Start()
	defer spin.Stop()
	return fn()
}

var keystoreListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List imported keystores",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := store.Read()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return ui.PrintJSON(out, cfg.Keystores)
		}
		if len(cfg.Keystores) == 0 {
			fmt.Fprintln(out, ui.Info("No keystores imported yet."))
			fmt.Fprintln(out, ui.Hint("Import one with: icon config keystore add <path> --name <nickname>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Default", Width: 8},
		})
		for _, e := range cfg.Keystores {
			def := ""
			if e.Name == cfg.DefaultKeystore {
				def = ui.StyleSuccess.Render("✓")
			}
			t.AddRow(ui.Row{ui.Val(e.Name), ui.Addr(e.Address), def})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d keystore(s) imported", len(cfg.Keystores))))
		return nil
	},
}

var keystoreInspectCmd = &cobra.Command{
	Use:   "inspect [name]",
	Short: "Show a keystore's details (default keystore without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		reg := keystores()
		e, f, _, err := reg.Load(name)
		if err != nil {
			return err
		}
		cfg, err := store.Read()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return ui.PrintJSON(out, map[string]any{
				"keystore": e,
				"path":     reg.Path(e),
				"default":  e.Name == cfg.DefaultKeystore,
				"file":     f,
			})
		}
		cached := "no"
		if _, err := keychain().Retrieve(e.Name); err == nil {
			cached = "yes"
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Keystore "+e.Name, [][2]string{
			{"Address", ui.Addr(e.Address)},
			{"File", reg.Path(e)},
			{"Default", fmt.Sprintf("%t", e.Name == cfg.DefaultKeystore)},
			{"Version", fmt.Sprintf("%d", f.Version)},
			{"ID", f.ID},
			{"Coin Type", f.CoinType},
			{"Cipher", f.Crypto.Cipher},
			{"KDF", f.Crypto.KDF},
			{"Unlocked", cached},
			{"Password Env", config.PasswordEnvVar(e.Name)},
		}))
		return nil
	},
}

var keystoreUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default keystore (pick interactively without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := keystores()
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			cfg, err := store.Read()
			if err != nil {
				return err
			}
			items := make([]ui.PickerItem, 0, len(cfg.Keystores))
			for _, e := range cfg.Keystores {
				items = append(items, ui.PickerItem{
					Label:    e.Name,
					SubLabel: e.Address,
					Value:    e.Name,
					Current:  e.Name == cfg.DefaultKeystore,
				})
			}
			if name, err = ui.PickItem("Select the default keystore", items); err != nil {
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
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default keystore set to %q.", config.NormalizeName(name))))
		return nil
	},
}

var keystoreRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a keystore (the file moves to the trash)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg := keystores()
		e, err := reg.Resolve(args[0])
		if err != nil {
			return err
		}
		if !keystoreYes && !prompter.ConfirmDanger(fmt.Sprintf("Remove keystore %q (%s)?", e.Name, e.Address)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		if _, err := reg.Remove(e.Name); err != nil {
			return err
		}
		if err := keychain().Delete(e.Name); err != nil {
			fmt.Fprintln(out, ui.Warn(err.Error()))
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Keystore %q removed.", e.Name)))
		fmt.Fprintln(out, ui.Hint("The file is in the trash until: icon config purge"))
		return nil
	},
}

var keystoreUnlockCmd = &cobra.Command{
	Use:   "unlock <name>",
	Short: "Cache a keystore passphrase in the OS keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := keychain()
		if !cache.Available() {
			return fmt.Errorf("no OS keychain available; set %s instead", config.PasswordEnvVar(args[0]))
		}
		reg := keystores()
		e, err := reg.Resolve(args[0])
		if err != nil {
			return err
		}
		pass, err := prompter.Password(fmt.Sprintf("Passphrase for %q", e.Name))
		if err != nil {
			return err
		}
		if _, err := withSpinner("Checking passphrase...", func() (*wallet.Wallet, error) {
			return wallet.Load(reg.Path(e), pass)
		}); err != nil {
			return err
		}
		if err := cache.Store(e.Name, pass); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Keystore %q unlocked.", e.Name)))
		return nil
	},
}

var keystoreLockCmd = &cobra.Command{
	Use:   "lock <name>",
	Short: "Forget a cached keystore passphrase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := keystores().Resolve(args[0])
		if err != nil {
			return err
		}
		if err := keychain().Delete(e.Name); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Keystore %q locked.", e.Name)))
		return nil
	},
}

var keystoreQRCmd = &cobra.Command{
	Use:   "qr [name]",
	Short: "Show a keystore address as a QR code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		e, err := keystores().ResolveOrDefault(name)
		if err != nil {
			return err
		}
		return printQR(cmd, e.Address)
	},
}

func printQR(cmd *cobra.Command, address string) error {
	out := cmd.OutOrStdout()
	if keystoreQRPNG != "" {
		if err := ui.WriteQRPNG(address, keystoreQRPNG, 256); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success("QR code written to "+keystoreQRPNG))
		return nil
	}
	qr, err := ui.QR(address)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, qr)
	fmt.Fprintln(out, "  "+ui.Addr(address))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{keystoreAddCmd, keystoreCreateCmd} {
		c.Flags().BoolVar(&keystoreReplace, "replace", false, "replace a keystore with the same nickname without asking")
		c.Flags().BoolVar(&keystoreDefault, "default", false, "make it the default keystore")
	}
	keystoreAddCmd.Flags().StringVar(&keystoreName, "name", "", "nickname (prompted when omitted)")
	keystoreCreateCmd.Flags().BoolVar(&keystoreLight, "light", false, "use light scrypt parameters (faster, weaker)")
	keystoreRemoveCmd.Flags().BoolVarP(&keystoreYes, "yes", "y", false, "skip confirmation")
	keystoreQRCmd.Flags().StringVar(&keystoreQRPNG, "png", "", "write a PNG to this path instead of printing")

	keystoreCmd.AddCommand(
		keystoreAddCmd,
		keystoreCreateCmd,
		keystoreListCmd,
		keystoreInspectCmd,
		keystoreUseCmd,
		keystoreRemoveCmd,
		keystoreUnlockCmd,
		keystoreLockCmd,
		keystoreQRCmd,
	)
}
