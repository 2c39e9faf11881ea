//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/vitaliisemenov/moldctl/internal/archive"
)

// TestStore_PutGetLatest_RoundTrips exercises the real goose migration and
// archive_entries queries against a disposable Postgres container, the
// backend spec.md Part C.3 names testcontainers-go/modules/postgres for.
func TestStore_PutGetLatest_RoundTrips(t *testing.T) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("moldctl"),
		tcpostgres.WithUsername("moldctl"),
		tcpostgres.WithPassword("moldctl"),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = port.Int()
	cfg.Password = "moldctl"

	store, err := Open(ctx, cfg, 100, nil)
	require.NoError(t, err)
	defer store.Close()

	entry := archive.Entry{Group: "configs", EntryID: "network", Version: "1.0", Blob: []byte(`{"port":443}`)}
	require.NoError(t, store.Put(ctx, entry))
	require.NoError(t, store.Put(ctx, entry)) // append-only, second Put is a no-op

	got, err := store.Latest(ctx, "configs", "network")
	require.NoError(t, err)
	require.Equal(t, entry.Blob, got.Blob)

	list, err := store.List(ctx, "configs", "network")
	require.NoError(t, err)
	require.Len(t, list, 1)
}
