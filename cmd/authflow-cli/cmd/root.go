package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/authflow/internal/app"
	"github.com/nfrund/authflow/internal/cli"
	"github.com/nfrund/authflow/internal/config"
	"github.com/nfrund/authflow/internal/logging"
)

var (
	apiURL   string
	stateDir string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "authflow-cli",
	Short: "Sign in, sign up and recover accounts from the terminal",
	Long: `authflow-cli runs the account flows of the web front end interactively.

Available commands:
  login      Sign in and store the session
  signup     Create an account and confirm its email
  recover    Reset a forgotten password

Use "authflow-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "base URL of the authentication API (overrides AUTH_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory the session is stored in (overrides AUTHFLOW_STATE_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stdout")
}

// newRunner loads the configuration, applies the flags and builds a runner
// bound to the command's input and output.
func newRunner(cmd *cobra.Command) (*cli.Runner, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.Discard()
	if verbose {
		logger = logging.New(cfg.Log.Format, "debug")
	}

	deps := app.NewDependencies(cfg, logger)
	ctrl := deps.NewController("", deps.SessionStore(""), authflowScheduler())
	return cli.NewRunner(ctrl, cmd.InOrStdin(), cmd.OutOrStdout()), nil
}

// runFlow wraps a runner method as a cobra RunE.
func runFlow(flow func(*cli.Runner, *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		r, err := newRunner(cmd)
		if err != nil {
			return fmt.Errorf("setup: %w", err)
		}
		return flow(r, cmd)
	}
}
