package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/narvanalabs/vaulty/internal/bootstrap"
)

func (c *cli) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Opens the configured database (DATABASE_DRIVER) and applies every pending migration.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			st, err := bootstrap.OpenStore(cfg, c.log.Logger)
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return fmt.Errorf("closing store: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.DatabaseDriver)
			return nil
		},
	}
}
