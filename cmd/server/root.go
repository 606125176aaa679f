package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"parker/internal/config"
)

// cli carries state shared by every subcommand once the root pre-run has loaded config.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "parker",
		Short:         "PARKER INTELLIGENT SYSTEMS web site",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv(c.configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(cfg.Logger(os.Stderr))
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", os.Getenv("PARKER_CONFIG"), "path to a YAML config file")

	root.AddCommand(c.serveCmd(), c.initDBCmd(), c.hashPasswordCmd())
	return root
}
