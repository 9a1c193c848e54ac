package main

import (
	"github.com/spf13/cobra"

	"operation-list/internal/bootstrap"
	"operation-list/internal/config"
	"operation-list/internal/logger"
)

// cli carries what every subcommand needs. rt is opened before a subcommand
// runs and closed after it.
type cli struct {
	configPath string
	lggr       logger.Logger
	rt         *bootstrap.Runtime
}

func newRootCmd() *cobra.Command {
	return newCLI(nil).rootCmd()
}

func newCLI(lggr logger.Logger) *cli {
	return &cli{lggr: lggr}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "oplist",
		Short: "Manage the operating-room booking archive",
		Long: `Manage the operating-room booking archive from the command line.

Available subcommands:
  book   - Book a slot
  list   - List upcoming (or archived) operations
  cancel - Cancel a booking, freeing its slot
  delete - Remove a booking from the archive
  pull   - Overwrite the local archive with the remote copy
  push   - Upload the local archive to the remote copy`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.rt == nil {
				return nil
			}
			return c.rt.Close()
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "oplist.yaml", "path to the YAML config file")

	root.AddCommand(
		c.bookCmd(),
		c.listCmd(),
		c.cancelCmd(),
		c.deleteCmd(),
		c.pullCmd(),
		c.pushCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.lggr == nil {
		if c.lggr, err = logger.New(cfg.Log.Level); err != nil {
			return err
		}
	}
	c.rt, err = bootstrap.Open(cmd.Context(), cfg, c.lggr)
	return err
}
