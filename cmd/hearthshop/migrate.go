// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hearthshop Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hearthshop/hearthshop/internal/config"
	"github.com/hearthshop/hearthshop/internal/store"
)

// NewMigrateCmd creates the migrate subcommand with up, down, status, and
// force.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long:  `Apply, roll back, or inspect schema migrations against the PostgreSQL database.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := cmd.Flags().GetInt("steps")
			if err != nil {
				return err
			}
			return withMigrator(func(m *store.Migrator) error {
				if steps > 0 {
					cmd.Printf("Applying %d migration step(s)...\n", steps)
					if err := m.Steps(steps); err != nil {
						return err
					}
				} else {
					cmd.Println("Running migrations...")
					if err := m.Up(); err != nil {
						return err
					}
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}
	up.Flags().Int("steps", 0, "apply only the next N migrations")
	cmd.AddCommand(up)

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (destructive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, err := cmd.Flags().GetInt("steps")
			if err != nil {
				return err
			}
			return withMigrator(func(m *store.Migrator) error {
				if steps > 0 {
					cmd.Printf("Rolling back %d migration step(s)...\n", steps)
					if err := m.Steps(-steps); err != nil {
						return err
					}
				} else {
					cmd.Println("Rolling back all migrations...")
					if err := m.Down(); err != nil {
						return err
					}
				}
				cmd.Println("Rollback completed")
				return nil
			})
		},
	}
	down.Flags().Int("steps", 0, "roll back only the last N migrations")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					cmd.Println("No migrations applied")
				} else {
					name, err := store.MigrationName(version)
					if err != nil {
						return err
					}
					cmd.Printf("Current version: %d (%s), dirty: %v\n", version, name, dirty)
				}

				applied, err := m.AppliedMigrations()
				if err != nil {
					return err
				}
				for _, v := range applied {
					name, err := store.MigrationName(v)
					if err != nil {
						return err
					}
					cmd.Printf("Applied: %d (%s)\n", v, name)
				}

				pending, err := m.PendingMigrations()
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					cmd.Println("No pending migrations")
					return nil
				}
				for _, v := range pending {
					name, err := store.MigrationName(v)
					if err != nil {
						return err
					}
					cmd.Printf("Pending: %d (%s)\n", v, name)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Force the schema version without running migrations (repair)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(func(m *store.Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Schema version forced to %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

// parseForceVersion parses a migration version argument. Sscanf stops at the
// first non-digit, so "3abc" parses as 3.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").
			With("input", s).
			Errorf("version must be an integer")
	}
	return version, nil
}

// withMigrator resolves the database URL from config, runs fn with a
// Migrator, and closes it afterwards.
func withMigrator(fn func(*store.Migrator) error) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	m, err := store.NewMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	return fn(m)
}
