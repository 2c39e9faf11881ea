package corectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMoldWithSection(t *testing.T) *Context {
	t.Helper()
	mold, err := BeginMold()
	require.NoError(t, err)

	sec, err := Begin(mold, KindSection)
	require.NoError(t, err)
	require.NoError(t, sec.SetName("network"))

	kv, err := Begin(sec, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, kv.SetName("port"))
	require.NoError(t, kv.SetValueType(ValueTypeInteger))
	def, err := Begin(kv, KindDefault)
	require.NoError(t, err)
	dv, _ := def.Value()
	require.NoError(t, dv.SetInteger(443))
	require.NoError(t, def.Finalize())
	require.NoError(t, kv.Finalize())
	require.NoError(t, sec.Finalize())
	require.NoError(t, mold.Finalize())
	return mold
}

func buildConfigWithPort(t *testing.T, mold *Context, port int64) *Context {
	t.Helper()
	cfg, err := BeginConfig(mold)
	require.NoError(t, err)
	sec, err := Begin(cfg, KindSection)
	require.NoError(t, err)
	require.NoError(t, sec.SetName("network"))
	kv, err := Begin(sec, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, kv.SetName("port"))
	v, _ := kv.Value()
	require.NoError(t, v.SetInteger(port))
	require.NoError(t, kv.Finalize())
	require.NoError(t, sec.Finalize())
	require.NoError(t, cfg.Finalize())
	return cfg
}

func TestDiff_DetectsValueChange(t *testing.T) {
	mold := buildMoldWithSection(t)
	a := buildConfigWithPort(t, mold, 443)
	b := buildConfigWithPort(t, mold, 8443)

	diffs, err := Diff(a, b)
	require.NoError(t, err)
	require.NotEmpty(t, diffs)
	assert.Contains(t, diffs[0], "network.port")
}

func TestDiff_NoDifference(t *testing.T) {
	mold := buildMoldWithSection(t)
	a := buildConfigWithPort(t, mold, 443)
	b := buildConfigWithPort(t, mold, 443)

	diffs, err := Diff(a, b)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestResolveQuery_SimplePath(t *testing.T) {
	mold := buildMoldWithSection(t)
	cfg := buildConfigWithPort(t, mold, 443)

	found, err := ResolveQuery(cfg, "network.port")
	require.NoError(t, err)
	assert.Equal(t, KindKeyval, found.Kind())
	v, err := found.Value()
	require.NoError(t, err)
	i, err := v.GetInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(443), i)
}

func TestResolveQuery_NotFound(t *testing.T) {
	mold := buildMoldWithSection(t)
	cfg := buildConfigWithPort(t, mold, 443)

	_, err := ResolveQuery(cfg, "network.missing")
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusNotExist, coreErr.Status)
}
