package main

import (
	"github.com/aussiebroadwan/realmauth/internal/auth/app"
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the account service CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realmauth",
		Short: "Account service for an AzerothCore realm",
		Long: `realmauth registers game accounts, signs players in and handles
password recovery and email confirmation. Credentials are stored as
SRP6 salt/verifier pairs the game auth server can check.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().AddFlagSet(app.Flags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAccountCmd())
	cmd.AddCommand(NewVerifierCmd())

	return cmd
}

// loadConfig reads the config file, environment and flags of cmd.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	return app.LoadConfig(configFile, cmd.Flags())
}
