package main

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/realmauth/internal/auth/app"
	"github.com/aussiebroadwan/realmauth/internal/auth/service"
	"github.com/aussiebroadwan/realmauth/internal/auth/store"
	"github.com/aussiebroadwan/realmauth/pkg/cryptox"
	"github.com/aussiebroadwan/realmauth/pkg/srp6"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// ErrCredentialsMismatch is returned by "account verify" when the password
// does not match the stored verifier.
var ErrCredentialsMismatch = errors.New("credentials do not match")

// NewAccountCmd creates the account subcommand group.
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage game accounts",
	}

	cmd.AddCommand(newAccountCreateCmd())
	cmd.AddCommand(newAccountVerifyCmd())
	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "create <username> <email>",
		Short: "Create an account without an invite code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// Registration is gated by the invite code; the CLI mints a
			// one-off code so operators can create accounts regardless.
			code, err := cryptox.GenerateToken(cryptox.TokenSize256)
			if err != nil {
				return err
			}
			cfg.Auth.InviteCode = code

			application, err := app.New(cfg)
			if err != nil {
				return oops.Code("STARTUP_FAILED").Wrap(err)
			}
			defer func() { _ = application.Close() }()

			res, err := application.AccountService().Register(context.Background(), service.RegisterInput{
				InviteCode: code,
				Username:   args[0],
				Password:   password,
				Email:      args[1],
			})
			if err != nil {
				return oops.Code("ACCOUNT_CREATE_FAILED").With("username", args[0]).Wrap(err)
			}

			cmd.Printf("Created account %s with id %d\n", service.Normalize(args[0]), res.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAccountVerifyCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "verify <username>",
		Short: "Check a password against the stored verifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return oops.Code("STARTUP_FAILED").Wrap(err)
			}
			defer func() { _ = application.Close() }()

			username := service.Normalize(args[0])
			acc, err := application.Accounts().FindAccountByUsername(context.Background(), username)
			if errors.Is(err, store.ErrNotFound) {
				return oops.Code("ACCOUNT_NOT_FOUND").With("username", username).Wrap(err)
			}
			if err != nil {
				return err
			}

			if !srp6.Verify(username, service.Normalize(password), acc.Salt, acc.Verifier) {
				return oops.Code("CREDENTIALS_MISMATCH").With("username", username).Wrap(ErrCredentialsMismatch)
			}

			cmd.Printf("Password matches account %s (id %d)\n", acc.Username, acc.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to check")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
