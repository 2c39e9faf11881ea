package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/moldctl/internal/archive"
	"github.com/vitaliisemenov/moldctl/internal/plugin/jsonplugin"
	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

// fakeStore is an in-memory archive.Store stand-in, grounded on the
// same (group, entryID, version) contract the sqlite/postgres backends
// implement, used so this package's tests don't need a real database.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]archive.Entry
}

func newFakeStore() *fakeStore { return &fakeStore{entries: map[string][]archive.Entry{}} }

func (f *fakeStore) key(group, entryID string) string { return group + "/" + entryID }

func (f *fakeStore) Put(_ context.Context, e archive.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(e.Group, e.EntryID)
	for _, existing := range f.entries[k] {
		if existing.Version == e.Version {
			return nil
		}
	}
	f.entries[k] = append(f.entries[k], e)
	return nil
}

func (f *fakeStore) Get(_ context.Context, group, entryID, version string) (archive.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries[f.key(group, entryID)] {
		if e.Version == version {
			return e, nil
		}
	}
	return archive.Entry{}, archive.ErrNotFound
}

func (f *fakeStore) Latest(ctx context.Context, group, entryID string) (archive.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.entries[f.key(group, entryID)]
	if len(entries) == 0 {
		return archive.Entry{}, archive.ErrNotFound
	}
	return entries[len(entries)-1], nil
}

func (f *fakeStore) List(_ context.Context, group, entryID string) ([]archive.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]archive.Entry(nil), f.entries[f.key(group, entryID)]...), nil
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

func buildSampleMold(t *testing.T) *moldapi.Context {
	t.Helper()
	mold, err := moldapi.MoldBegin()
	require.NoError(t, err)
	sec, err := moldapi.Begin(mold, moldapi.KindSection)
	require.NoError(t, err)
	require.NoError(t, moldapi.SetName(sec, "network"))
	_, err = moldapi.AddKeyvalInteger(sec, "port", 443, "listener port", moldapi.Version1_0)
	require.NoError(t, err)
	require.NoError(t, moldapi.Finalize(sec))
	require.NoError(t, moldapi.MoldFinalize(mold))
	return mold
}

func writeSampleDocs(t *testing.T, plugin *jsonplugin.Plugin) (moldPath, configPath string) {
	t.Helper()
	mold := buildSampleMold(t)
	dir := t.TempDir()
	moldPath = filepath.Join(dir, "mold.json")
	require.NoError(t, plugin.MoldWrite(mold, moldPath))

	cfg, err := moldapi.ConfigBegin(mold)
	require.NoError(t, err)
	sec, err := moldapi.Begin(cfg, moldapi.KindSection)
	require.NoError(t, err)
	require.NoError(t, moldapi.SetName(sec, "network"))
	kv, err := moldapi.Begin(sec, moldapi.KindKeyval)
	require.NoError(t, err)
	require.NoError(t, moldapi.SetName(kv, "port"))
	v, err := kv.Value()
	require.NoError(t, err)
	require.NoError(t, v.SetInteger(8443))
	require.NoError(t, moldapi.Finalize(kv))
	require.NoError(t, moldapi.Finalize(sec))
	require.NoError(t, moldapi.ConfigFinalize(cfg))

	configPath = filepath.Join(dir, "config.json")
	require.NoError(t, plugin.ConfigWrite(cfg, configPath))
	return moldPath, configPath
}

func TestServer_Validate(t *testing.T) {
	plugin := jsonplugin.New(nil)
	moldPath, configPath := writeSampleDocs(t, plugin)
	srv := New(plugin, nil, nil, nil, nil, nil)

	body, _ := json.Marshal(map[string]string{"mold_path": moldPath, "config_path": configPath})
	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "OK", resp["status"])
}

func TestServer_Diff_NoDifferences(t *testing.T) {
	plugin := jsonplugin.New(nil)
	moldPath, configPath := writeSampleDocs(t, plugin)
	srv := New(plugin, nil, nil, nil, nil, nil)

	body, _ := json.Marshal(map[string]string{"mold_path": moldPath, "left_path": configPath, "right_path": configPath})
	req := httptest.NewRequest(http.MethodPost, "/diff", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["equal"])
}

func TestServer_Elements_ResolvesValue(t *testing.T) {
	plugin := jsonplugin.New(nil)
	moldPath, configPath := writeSampleDocs(t, plugin)
	srv := New(plugin, nil, nil, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/elements/network.port?mold="+moldPath+"&config="+configPath, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "port", resp["name"])
}

func TestServer_Archive_PutGetLatestList(t *testing.T) {
	store := newFakeStore()
	srv := New(jsonplugin.New(nil), store, nil, nil, nil, nil)

	put := func(version, blob string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"version": version, "blob": blob})
		req := httptest.NewRequest(http.MethodPost, "/archive/prod/db-config", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, put("1.0", "first").Code)
	require.Equal(t, http.StatusCreated, put("2.0", "second").Code)

	latestReq := httptest.NewRequest(http.MethodGet, "/archive/prod/db-config/latest", nil)
	latestRec := httptest.NewRecorder()
	srv.ServeHTTP(latestRec, latestReq)
	require.Equal(t, http.StatusOK, latestRec.Code)
	var latest map[string]interface{}
	require.NoError(t, json.Unmarshal(latestRec.Body.Bytes(), &latest))
	require.Equal(t, "second", latest["blob"])

	versionsReq := httptest.NewRequest(http.MethodGet, "/archive/prod/db-config/versions", nil)
	versionsRec := httptest.NewRecorder()
	srv.ServeHTTP(versionsRec, versionsReq)
	require.Equal(t, http.StatusOK, versionsRec.Code)
	var listed map[string][]string
	require.NoError(t, json.Unmarshal(versionsRec.Body.Bytes(), &listed))
	require.Equal(t, []string{"1.0", "2.0"}, listed["versions"])
}

func TestServer_Archive_DisabledWithoutStore(t *testing.T) {
	srv := New(jsonplugin.New(nil), nil, nil, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/archive/prod/db-config/latest", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Metrics_Exposed(t *testing.T) {
	srv := New(jsonplugin.New(nil), nil, nil, nil, nil, nil)
	srv.metrics.RecordValidationStatus("OK")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "moldctl_")
}
