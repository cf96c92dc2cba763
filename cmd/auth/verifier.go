package main

import (
	"encoding/hex"

	"github.com/aussiebroadwan/realmauth/pkg/srp6"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewVerifierCmd creates the verifier subcommand.
func NewVerifierCmd() *cobra.Command {
	var saltHex string

	cmd := &cobra.Command{
		Use:   "verifier <username> <password>",
		Short: "Print the SRP6 salt and verifier for a credential pair",
		Long: `Print the salt and verifier the game server expects for username and
password, hex encoded in database byte order. A fresh salt is drawn unless
--salt is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				creds srp6.Credentials
				err   error
			)

			if saltHex != "" {
				salt, decodeErr := hex.DecodeString(saltHex)
				if decodeErr != nil {
					return oops.Code("INVALID_SALT").Wrap(decodeErr)
				}
				creds.Salt = salt
				creds.Verifier, err = srp6.DeriveVerifier(args[0], args[1], salt)
			} else {
				creds, err = srp6.GenerateCredentials(args[0], args[1])
			}
			if err != nil {
				return oops.Code("INVALID_SALT").Wrap(err)
			}

			cmd.Printf("salt:     %s\n", hex.EncodeToString(creds.Salt))
			cmd.Printf("verifier: %s\n", hex.EncodeToString(creds.Verifier))
			return nil
		},
	}

	cmd.Flags().StringVar(&saltHex, "salt", "", "hex-encoded 32-byte salt")
	return cmd
}
