package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/log"
	"github.com/Mohsinsiddi/icon-cli/internal/ui"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/icon-cli/cmd.Version=1.2.3" .
var Version = "0.3.0"

var (
	cfgDir      string
	networkFlag string
	verbose     bool
	jsonOutput  bool

	env   *config.Env
	store *config.Store
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "icon",
	Short: "ICON wallet and protocol CLI",
	Long: `icon is a terminal wallet for the ICON blockchain.

  Import keystores, switch networks, query balances, blocks and contracts,
  and sign transactions for Balanced, CPS and OMM.

The configuration lives in ~/.icon-cli unless --config or ICON_CLI_CONFIG_DIR
points elsewhere. Keystore passphrases are read from ICON_CLI_PASSWORD_<NAME>,
the OS keychain (see: icon config keystore unlock) or an interactive prompt.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		if env, err = config.LoadEnv(); err != nil {
			return err
		}
		level := env.LogLevel
		if verbose {
			level = "debug"
		}
		log.Init(level, env.LogJSON)

		dir, err := config.ResolveDir(cfgDir, env)
		if err != nil {
			return err
		}
		store = config.NewStore(dir)
		return store.EnsureLayout()
	},
}

// Execute runs the root command and exits with the code for the error
// kind, if any.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, ui.Hint(hint))
		}
		stop()
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.SetVersionTemplate("icon {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $ICON_CLI_CONFIG_DIR or ~/.icon-cli)")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use (default: config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		configCmd,
		queryCmd,
		txCmd,
	)
}
