package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/vitaliisemenov/moldctl/internal/archive/postgres"
	"github.com/vitaliisemenov/moldctl/internal/archive/schema"
	"github.com/vitaliisemenov/moldctl/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the archive store's goose migrations for the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg)
		},
	}
	return cmd
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.Archive.Backend {
	case config.ArchiveBackendSQLite:
		db, err := sql.Open("sqlite", cfg.Archive.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer db.Close()
		return schema.MigrateSQLite(db)
	case config.ArchiveBackendPostgres:
		pc := postgres.DefaultConfig()
		pc.Host = cfg.Archive.Postgres.Host
		pc.Port = cfg.Archive.Postgres.Port
		pc.Database = cfg.Archive.Postgres.Database
		pc.User = cfg.Archive.Postgres.Username
		pc.Password = cfg.Archive.Postgres.Password
		pc.SSLMode = cfg.Archive.Postgres.SSLMode
		if cfg.Archive.Postgres.MaxConnections > 0 {
			pc.MaxConns = cfg.Archive.Postgres.MaxConnections
		}
		if cfg.Archive.Postgres.MinConnections > 0 {
			pc.MinConns = cfg.Archive.Postgres.MinConnections
		}
		if cfg.Archive.Postgres.ConnectTimeout > 0 {
			pc.ConnectTimeout = cfg.Archive.Postgres.ConnectTimeout
		}

		db, err := sql.Open("pgx", pc.DSN())
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		return schema.MigratePostgres(db)
	default:
		return fmt.Errorf("migrate: unknown archive backend %q", cfg.Archive.Backend)
	}
}
