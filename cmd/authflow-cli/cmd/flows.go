package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nfrund/authflow/internal/authflow"
	"github.com/nfrund/authflow/internal/cli"
)

func authflowScheduler() authflow.Option {
	return authflow.WithScheduler(cli.Immediate)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE: runFlow(func(r *cli.Runner, cmd *cobra.Command) error {
		return r.Login(cmd.Context())
	}),
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and confirm its email",
	RunE: runFlow(func(r *cli.Runner, cmd *cobra.Command) error {
		return r.Signup(cmd.Context())
	}),
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Reset a forgotten password with an emailed recovery code",
	RunE: runFlow(func(r *cli.Runner, cmd *cobra.Command) error {
		return r.Recover(cmd.Context())
	}),
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, recoverCmd)
}
