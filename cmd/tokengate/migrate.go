package main

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/tokengate/users"
	"github.com/spf13/cobra"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply user database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cfg.Database.Type != "postgres" || cfg.Database.DSN == "" {
				return errors.New("migrate requires database.type=postgres and database.dsn")
			}
			if err := users.Migrate(cmd.Context(), cfg.Database.DSN); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
