package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labelbridge/backend/internal/bootstrap"
	"github.com/labelbridge/backend/internal/infrastructure/auth"
	"github.com/labelbridge/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  "Applies the schema migrations embedded in this binary to the configured database.",
	}

	run := func(fn func(m *migration.Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := bootstrap.OpenMigrator(&c.cfg.Database, c.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					c.log.Warn("Failed to close migrator", zap.Error(err))
				}
			}()
			return fn(m)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(func(m *migration.Migrator) error { return m.Up() }),
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE:  run(func(m *migration.Migrator) error { return m.Down() }),
	}
	version := &cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
	}
	version.RunE = run(func(m *migration.Migrator) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			fmt.Fprintln(version.OutOrStdout(), "no migrations applied")
			return nil
		}
		fmt.Fprintf(version.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
		return nil
	})

	cmd.AddCommand(up, down, version)
	return cmd
}

func newCleanupCmd(c *cli) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stored label files older than a given age",
		Example: `  # Remove labels older than two weeks
  labelctl cleanup --older-than 336h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age := olderThan
			if age == 0 {
				age = time.Duration(c.cfg.Storage.RetentionDays) * 24 * time.Hour
			}
			if age <= 0 {
				return errors.New("--older-than is required when storage.retention_days is not set")
			}
			return c.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				deleted, err := app.Store.CleanupOlderThan(ctx, age)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d label files deleted\n", deleted)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "minimum age of deleted files (default: storage.retention_days)")
	return cmd
}

func newTokenCmd(c *cli) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an API bearer token",
		Long: `Signs a bearer token for the HTTP API with auth.secret. The subject names
the caller in logs and traces, e.g. a workstation or a script.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := auth.NewJWTService(c.cfg.Auth)
			token, expiresAt, err := tokens.GenerateToken(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Local().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: auth.token_ttl)")
	return cmd
}
