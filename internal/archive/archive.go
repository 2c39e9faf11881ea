// Package archive defines the storage contract shared by the archive
// backends (internal/archive/sqlite, internal/archive/postgres): a history
// of serialized Mold/Config documents keyed by (group, entry, version),
// the triple spec.md's Part D supplements from test/public_api/disir_archive.
package archive

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no entry matches the requested key.
var ErrNotFound = errors.New("archive: entry not found")

// Entry is one archived document version. Blob is whatever a plugin
// (jsonplugin, k8sconfigmap) produced for the Mold/Config it serialized;
// the archive backend itself never interprets it.
type Entry struct {
	Group    string
	EntryID  string
	Version  string
	Blob     []byte
	StoredAt time.Time
}

// Store is the backend-independent archive contract. sqlite.Store and
// postgres.Store both implement it over the same schema (internal/archive/schema).
type Store interface {
	// Put archives a new version of (group, entryID). Entries are
	// append-only: Put never overwrites an existing (group, entryID, version).
	Put(ctx context.Context, e Entry) error

	// Get returns the exact (group, entryID, version) triple.
	Get(ctx context.Context, group, entryID, version string) (Entry, error)

	// Latest returns the most recently stored entry for (group, entryID).
	Latest(ctx context.Context, group, entryID string) (Entry, error)

	// List returns every version of (group, entryID), oldest first.
	List(ctx context.Context, group, entryID string) ([]Entry, error)

	Health(ctx context.Context) error
	Close() error
}
