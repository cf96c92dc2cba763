package main

import (
	"github.com/aussiebroadwan/realmauth/internal/auth/app"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the account HTTP API and block until SIGINT or SIGTERM.
Pending mail is flushed before exit.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return oops.Code("STARTUP_FAILED").Wrap(err)
	}

	return application.Run()
}
