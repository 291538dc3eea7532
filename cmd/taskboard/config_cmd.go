package main

import (
	"github.com/goliatone/go-taskboard/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cfg.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the merged configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return config.Print(cmd.OutOrStdout(), *c)
		},
	})
	return cfg
}
