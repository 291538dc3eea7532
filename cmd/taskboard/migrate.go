package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-taskboard/logging"
	"github.com/goliatone/go-taskboard/repository"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the storage schema",
		Long:  `Creates the users and tasks tables (or mongo indexes) of the configured backend. Running it twice is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logs := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			p := cfg.Persistence

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			m, err := repository.Open(ctx, repository.Config{
				Driver:         p.Driver,
				DSN:            p.DSN,
				Database:       p.Database,
				Debug:          p.Debug,
				ConnectTimeout: p.PingTimeout,
			}, logs.GetLogger("persistence"))
			if err != nil {
				return err
			}
			defer m.Close()

			applied, err := m.Migrate(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintf(out, "%s: nothing to migrate\n", m.Driver())
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "%s: %s\n", m.Driver(), name)
			}
			return nil
		},
	}
}
