package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/vitaliisemenov/moldctl/internal/archive"
	"github.com/vitaliisemenov/moldctl/internal/archive/postgres"
	"github.com/vitaliisemenov/moldctl/internal/archive/sqlite"
	"github.com/vitaliisemenov/moldctl/internal/config"
	"github.com/vitaliisemenov/moldctl/internal/httpapi"
	"github.com/vitaliisemenov/moldctl/internal/plugin/jsonplugin"
	"github.com/vitaliisemenov/moldctl/pkg/moldcache"
	"github.com/vitaliisemenov/moldctl/pkg/moldmetrics"
)

// newServeCmd starts moldserve, adapted from the teacher's
// cmd/server/main.go: connect storage, run migrations, serve HTTP,
// and shut down gracefully on SIGINT/SIGTERM.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run moldserve, the HTTP API over the core operation surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := buildLogger(cfg)
	log.Info("starting moldserve", "profile", cfg.Profile)

	store, closeStore, err := openArchive(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.IsStandardProfile() && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:            cfg.Redis.Addr,
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			PoolSize:        cfg.Redis.PoolSize,
			DialTimeout:     cfg.Redis.DialTimeout,
			ReadTimeout:     cfg.Redis.ReadTimeout,
			WriteTimeout:    cfg.Redis.WriteTimeout,
			MaxRetries:      cfg.Redis.MaxRetries,
			MinRetryBackoff: cfg.Redis.MinRetryBackoff,
			MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		})
		defer redisClient.Close()
	}

	cache, err := moldcache.New(moldcache.Config{L1Size: cfg.Cache.L1Size, TTL: cfg.Cache.TTL}, redisClient, log)
	if err != nil {
		return fmt.Errorf("build resolution cache: %w", err)
	}

	plugin := jsonplugin.New(log)
	metrics := moldmetrics.New()
	reg := prometheus.NewRegistry()
	server := httpapi.New(plugin, store, cache, metrics, reg, log)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down moldserve")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func openArchive(ctx context.Context, cfg *config.Config, log *slog.Logger) (archive.Store, func(), error) {
	switch cfg.Archive.Backend {
	case config.ArchiveBackendSQLite:
		store, err := sqlite.Open(cfg.Archive.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
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
		store, err := postgres.Open(ctx, pc, cfg.Archive.WriteRPS, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}
