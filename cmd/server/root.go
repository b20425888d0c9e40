package main

import (
	"github.com/spf13/cobra"
)

// envFile is the optional .env file shared by all subcommands.
var envFile string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statsboard",
		Short: "Authenticated player and team statistics dashboard",
		Long: `statsboard serves the login-protected statistics pages and
manages the database schema they depend on.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file to load")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}
