package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goliatone/go-taskboard/app"
	"github.com/goliatone/go-taskboard/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskboard",
		Short: "Task management API server",
		Long: `taskboard serves a JSON API for personal task lists.

Configuration is read from defaults, an optional YAML file, TASKBOARD_*
environment variables and command line flags, in that order.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("addr", "", "HTTP listen address (e.g. :5000)")
	flags.String("driver", "", "Persistence driver: sqlite, postgres, mongo or memory")
	flags.String("dsn", "", "Persistence connection string")
	flags.String("log-level", "", "Log level: debug, info, warn, error or disabled")
	flags.Bool("debug", false, "Enable debug mode")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUsersCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(config.Options{
		File:  file,
		Flags: cmd.Flags(),
	})
}

// withApp builds the application for one off administrative commands
func withApp(cmd *cobra.Command, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
