// Package sqlite is the "lite profile" archive.Store backend (mirroring
// the teacher's ProfileLite concept), backed by a local modernc.org/sqlite
// database file instead of a Postgres cluster. Schema is the same
// archive_entries table internal/archive/postgres uses, migrated through
// internal/archive/schema's sqlite migration set.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vitaliisemenov/moldctl/internal/archive"
	"github.com/vitaliisemenov/moldctl/internal/archive/schema"
)

// Store is the SQLite-backed archive.Store. Writes are serialized behind
// a mutex: SQLite allows only one writer at a time, and modernc.org/sqlite
// surfaces that as a SQLITE_BUSY error rather than queuing for us.
type Store struct {
	db     *sql.DB
	log    *slog.Logger
	mu     sync.Mutex
	closed bool
}

// Open opens (creating if necessary) the SQLite database at path and runs
// pending goose migrations. path may be ":memory:" for ephemeral use in
// tests.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive/sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // mirrors the single-writer constraint above

	if err := schema.MigrateSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("archive/sqlite: opened", "path", path)
	return &Store{db: db, log: log}, nil
}

func (s *Store) Put(ctx context.Context, e archive.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sql.ErrConnDone
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO archive_entries (entry_uuid, group_name, entry_id, version, blob, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), e.Group, e.EntryID, e.Version, e.Blob, time.Now().UTC())
	if err != nil {
		s.log.Error("archive/sqlite: put failed", "group", e.Group, "entry_id", e.EntryID, "error", err)
	}
	return err
}

func (s *Store) Get(ctx context.Context, group, entryID, version string) (archive.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT blob, stored_at FROM archive_entries
		 WHERE group_name = ? AND entry_id = ? AND version = ?`,
		group, entryID, version)
	e := archive.Entry{Group: group, EntryID: entryID, Version: version}
	if err := row.Scan(&e.Blob, &e.StoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return archive.Entry{}, archive.ErrNotFound
		}
		return archive.Entry{}, err
	}
	return e, nil
}

func (s *Store) Latest(ctx context.Context, group, entryID string) (archive.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT version, blob, stored_at FROM archive_entries
		 WHERE group_name = ? AND entry_id = ?
		 ORDER BY stored_at DESC LIMIT 1`,
		group, entryID)
	e := archive.Entry{Group: group, EntryID: entryID}
	if err := row.Scan(&e.Version, &e.Blob, &e.StoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return archive.Entry{}, archive.ErrNotFound
		}
		return archive.Entry{}, err
	}
	return e, nil
}

func (s *Store) List(ctx context.Context, group, entryID string) ([]archive.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, blob, stored_at FROM archive_entries
		 WHERE group_name = ? AND entry_id = ?
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
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
