package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"doctor-appointments-api/internal/config"
	"doctor-appointments-api/internal/platform/db"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	withMigrator := func(fn func(*db.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			m, err := db.NewMigrator(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()
			return fn(m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withMigrator(func(m *db.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			fmt.Println("migrations complete")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: withMigrator(func(m *db.Migrator) error {
			return m.Down()
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: withMigrator(func(m *db.Migrator) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty: %t)\n", v, dirty)
			return nil
		}),
	})

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the migration version without running it",
		Args:  cobra.ExactArgs(1),
	}
	force.RunE = func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		return withMigrator(func(m *db.Migrator) error { return m.Force(v) })(cmd, args)
	}
	cmd.AddCommand(force)

	return cmd
}
