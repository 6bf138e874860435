package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narvanalabs/vaulty/internal/secrets"
)

func (c *cli) newKeygenCmd() *cobra.Command {
	var useAge bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an encryption key",
		Long: `Prints a random passphrase suitable for AES_SECRET, or with --age an
age X25519 identity for AGE_IDENTITY. The age recipient is written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if useAge {
				identity, recipient, err := secrets.GenerateAgeIdentity()
				if err != nil {
					return fmt.Errorf("generating age identity: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "# public key:", recipient)
				fmt.Fprintln(cmd.OutOrStdout(), identity)
				return nil
			}

			passphrase, err := secrets.GeneratePassphrase()
			if err != nil {
				return fmt.Errorf("generating passphrase: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), passphrase)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useAge, "age", false, "generate an age identity instead of a passphrase")
	return cmd
}
