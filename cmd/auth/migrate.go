package main

import (
	"github.com/aussiebroadwan/realmauth/internal/auth/app"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply pending migrations to the token database. The AzerothCore
auth database is owned by the game server and is never migrated.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cmd.Printf("Migrating token database %s...\n", cfg.Tokens.File)
	st, err := app.OpenTokenStore(cfg.Tokens.File)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if cfg.Accounts.Driver == "mysql" {
		cmd.Println("Skipping account database (managed by the game server)")
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
