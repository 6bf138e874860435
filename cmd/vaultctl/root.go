package main

import (
	"github.com/spf13/cobra"

	"github.com/narvanalabs/vaulty/pkg/config"
	"github.com/narvanalabs/vaulty/pkg/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	debug bool
	log   *logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "vaultctl",
		Short: "Operator tooling for the vault server",
		Long: `vaultctl mints bearer tokens, generates encryption keys and applies
database migrations using the same configuration as the server.

Configuration is read from the environment (and CONFIG_FILE if set).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if c.debug {
				level = "debug"
			}
			c.log = logger.NewWithWriter(cmd.ErrOrStderr(), logger.ParseLevel(level), false)
		},
	}

	root.PersistentFlags().BoolVarP(&c.debug, "debug", "d", false, "enable debug output")

	root.AddCommand(c.newTokenCmd())
	root.AddCommand(c.newKeygenCmd())
	root.AddCommand(c.newMigrateCmd())

	return root
}

// loadConfig reads and validates the server configuration.
func (c *cli) loadConfig() (*config.Config, error) {
	return config.Load()
}
