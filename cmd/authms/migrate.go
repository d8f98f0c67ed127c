// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authms/authms/internal/store"
)

// newMigrateCmd creates the migrate command. Without a subcommand it applies
// all pending migrations.
func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE:  a.run(a.migrateUp),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  a.run(a.migrateUp),
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long:  `Roll back the last --steps migrations, or every migration with --all.`,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return oops.Wrap(err)
			}
			return a.migrateDown(cmd, steps, all)
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	down.Flags().Bool("all", false, "roll back every migration, dropping the account table")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version and pending migrations",
		RunE:  a.run(a.migrateStatus),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it",
		Long: `Mark VERSION as applied and clear the dirty flag without running any
migration. Use it to recover after a migration failed midway.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return a.withMigrator(cmd, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", v)
				return nil
			})
		}),
	})

	return cmd
}

// parseForceVersion reads the leading integer of s.
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrapf(err, "version must be an integer")
	}
	return v, nil
}

func (a *app) withMigrator(cmd *cobra.Command, fn func(Migrator) error) (err error) {
	databaseURL, err := a.cfg.RequireDatabaseURL()
	if err != nil {
		return err
	}
	m, err := a.deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			a.logger.WarnContext(cmd.Context(), "failed to close migrator", "error", closeErr)
		}
	}()
	return fn(m)
}

func (a *app) migrateUp(cmd *cobra.Command, _ []string) error {
	return a.withMigrator(cmd, func(m Migrator) error {
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
		version, _, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("Migrations completed successfully (version %d)\n", version)
		return nil
	})
}

func (a *app) migrateDown(cmd *cobra.Command, steps int, all bool) error {
	if !all && steps < 1 {
		return oops.Code("INVALID_ARGUMENT").With("steps", steps).Errorf("--steps must be at least 1")
	}
	return a.withMigrator(cmd, func(m Migrator) error {
		var err error
		if all {
			err = m.Down()
		} else {
			err = m.Steps(-steps)
		}
		if err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").Wrap(err)
		}
		version, _, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("Rolled back to version %d\n", version)
		return nil
	})
}

func (a *app) migrateStatus(cmd *cobra.Command, _ []string) error {
	return a.withMigrator(cmd, func(m Migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		pending, err := m.Pending()
		if err != nil {
			return err
		}

		state := "clean"
		if dirty {
			state = "dirty"
		}
		cmd.Printf("Schema version: %d (%s)\n", version, state)
		if len(pending) == 0 {
			cmd.Println("No pending migrations")
			return nil
		}

		names := make([]string, 0, len(pending))
		for _, v := range pending {
			name, err := store.MigrationName(v)
			if err != nil {
				return err
			}
			if name == "" {
				name = fmt.Sprintf("%06d", v)
			}
			names = append(names, name)
		}
		cmd.Printf("Pending migrations:\n  %s\n", strings.Join(names, "\n  "))
		return nil
	})
}
