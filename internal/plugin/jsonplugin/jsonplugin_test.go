package jsonplugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/moldctl/pkg/moldapi"
)

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

func TestMoldWriteRead_RoundTrips(t *testing.T) {
	mold := buildSampleMold(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "mold.json")

	p := New(nil)
	require.NoError(t, p.MoldWrite(mold, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "network")

	reread, err := p.MoldRead(path)
	require.NoError(t, err)

	names, err := p.MoldEntries(reread)
	require.NoError(t, err)
	assert.Equal(t, []string{"network"}, names)
}

func TestConfigWriteRead_RoundTrips(t *testing.T) {
	mold := buildSampleMold(t)
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

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	p := New(nil)
	require.NoError(t, p.ConfigWrite(cfg, path))

	reread, err := p.ConfigRead(path, mold)
	require.NoError(t, err)

	found, err := p.ConfigQuery(reread, "network.port")
	require.NoError(t, err)
	fv, err := found.Value()
	require.NoError(t, err)
	i, err := fv.GetInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(8443), i)
}
