// Package postgres is the "standard profile" archive.Store backend,
// adapted from the teacher's internal/database/postgres/pool.go
// (PostgresPool) down to the archive.Store contract: instead of a
// general-purpose Exec/Query/QueryRow/Begin surface this keeps only the
// pgxpool lifecycle (Connect/Health/Close) and implements the four
// archive operations directly against the archive_entries table managed
// by internal/archive/schema.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/time/rate"

	"github.com/vitaliisemenov/moldctl/internal/archive"
	"github.com/vitaliisemenov/moldctl/internal/archive/schema"
)

// Store is the Postgres-backed archive.Store.
type Store struct {
	pool     *pgxpool.Pool
	config   Config
	log      *slog.Logger
	retry    retryExecutor
	limiter  *rate.Limiter
	isClosed atomic.Bool
}

// Open connects to Postgres, runs pending goose migrations, and returns a
// ready Store. writeRPS bounds how fast Put may accept new archive
// entries (spec.md Part C.9's "throttle write bursts").
func Open(ctx context.Context, cfg Config, writeRPS float64, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	start := time.Now()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	log.Info("archive/postgres: connected", "host", cfg.Host, "database", cfg.Database,
		"connect_time", time.Since(start))

	if writeRPS <= 0 {
		writeRPS = 50
	}

	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive/postgres: open migration handle: %w", err)
	}
	defer db.Close()
	if err := schema.MigratePostgres(db); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		pool:    pool,
		config:  cfg,
		log:     log,
		retry:   newRetryExecutor(),
		limiter: rate.NewLimiter(rate.Limit(writeRPS), int(writeRPS)),
	}, nil
}

func (s *Store) Put(ctx context.Context, e archive.Entry) error {
	if s.isClosed.Load() {
		return ErrConnectionClosed
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	id := uuid.New()
	return s.retry.Execute(ctx, func() error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO archive_entries (entry_uuid, group_name, entry_id, version, blob)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (group_name, entry_id, version) DO NOTHING`,
			id, e.Group, e.EntryID, e.Version, e.Blob)
		if err != nil {
			s.log.Error("archive/postgres: put failed", "group", e.Group, "entry_id", e.EntryID, "error", err)
		}
		return err
	})
}

func (s *Store) Get(ctx context.Context, group, entryID, version string) (archive.Entry, error) {
	if s.isClosed.Load() {
		return archive.Entry{}, ErrConnectionClosed
	}
	row := s.pool.QueryRow(ctx,
		`SELECT blob, stored_at FROM archive_entries
		 WHERE group_name = $1 AND entry_id = $2 AND version = $3`,
		group, entryID, version)
	return scanEntry(row, group, entryID, version)
}

func (s *Store) Latest(ctx context.Context, group, entryID string) (archive.Entry, error) {
	if s.isClosed.Load() {
		return archive.Entry{}, ErrConnectionClosed
	}
	row := s.pool.QueryRow(ctx,
		`SELECT version, blob, stored_at FROM archive_entries
		 WHERE group_name = $1 AND entry_id = $2
		 ORDER BY stored_at DESC LIMIT 1`,
		group, entryID)
	var e archive.Entry
	e.Group, e.EntryID = group, entryID
	if err := row.Scan(&e.Version, &e.Blob, &e.StoredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return archive.Entry{}, archive.ErrNotFound
		}
		return archive.Entry{}, err
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, group, entryID string) ([]archive.Entry, error) {
	if s.isClosed.Load() {
		return nil, ErrConnectionClosed
	}
	rows, err := s.pool.Query(ctx,
		`SELECT version, blob, stored_at FROM archive_entries
		 WHERE group_name = $1 AND entry_id = $2
		 ORDER BY stored_at ASC`,
		group, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []archive.Entry
	for rows.Next() {
		e := archive.Entry{Group: group, EntryID: entryID}
		if err := rows.Scan(&e.Version, &e.Blob, &e.StoredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Health(ctx context.Context) error {
	if s.isClosed.Load() {
		return ErrConnectionClosed
	}
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	if s.isClosed.CompareAndSwap(false, true) {
		s.pool.Close()
	}
	return nil
}

func scanEntry(row pgx.Row, group, entryID, version string) (archive.Entry, error) {
	e := archive.Entry{Group: group, EntryID: entryID, Version: version}
	if err := row.Scan(&e.Blob, &e.StoredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return archive.Entry{}, archive.ErrNotFound
		}
		return archive.Entry{}, err
	}
	return e, nil
}
