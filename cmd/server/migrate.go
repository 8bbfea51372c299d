package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(s *sqlstore.Store) error {
				if err := s.Migrate(); err != nil {
					return err
				}
				return printVersion(cmd, s)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(s *sqlstore.Store) error {
				if err := s.MigrateDown(steps); err != nil {
					return err
				}
				return printVersion(cmd, s)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(s *sqlstore.Store) error {
				return printVersion(cmd, s)
			})
		},
	})

	return cmd
}

func withStore(ctx context.Context, opts *rootOptions, fn func(*sqlstore.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := sqlstore.Open(ctx, opts.cfg.DatabaseURL, sqlstore.WithoutMigrations())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func printVersion(cmd *cobra.Command, s *sqlstore.Store) error {
	version, dirty, err := s.MigrationVersion()
	if err != nil {
		return err
	}
	slog.Debug("Read schema version", "driver", s.DriverName())
	fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
	return nil
}
