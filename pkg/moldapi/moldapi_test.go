package moldapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleMold(t *testing.T) *Context {
	t.Helper()
	mold, err := MoldBegin()
	require.NoError(t, err)

	sec, err := Begin(mold, KindSection)
	require.NoError(t, err)
	require.NoError(t, SetName(sec, "server"))

	kv, err := AddKeyvalInteger(sec, "port", 8080, "listening port", Version1_0)
	require.NoError(t, err)
	require.Equal(t, KindKeyval, kv.Kind())

	require.NoError(t, Finalize(sec))
	require.NoError(t, MoldFinalize(mold))
	return mold
}

func TestAddKeyvalInteger_BuildsDefaultAndDoc(t *testing.T) {
	mold := buildSampleMold(t)
	col, err := FindElements(mold, "server")
	require.NoError(t, err)
	defer col.Finished()
	sec, err := col.Next()
	require.NoError(t, err)

	kvCol, err := FindElements(sec, "port")
	require.NoError(t, err)
	defer kvCol.Finished()
	kv, err := kvCol.Next()
	require.NoError(t, err)

	def, err := GetDefault(kv, Version1_0)
	require.NoError(t, err)
	assert.Equal(t, "8080", def)

	doc, _, err := GetDocumentation(kv, Version1_0)
	require.NoError(t, err)
	assert.Equal(t, "listening port", doc)
}

func TestQueryResolveContext(t *testing.T) {
	mold := buildSampleMold(t)
	cfg, err := ConfigBegin(mold)
	require.NoError(t, err)
	sec, err := Begin(cfg, KindSection)
	require.NoError(t, err)
	require.NoError(t, SetName(sec, "server"))
	kv, err := Begin(sec, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, SetName(kv, "port"))
	v, err := kv.Value()
	require.NoError(t, err)
	require.NoError(t, v.SetInteger(9090))
	require.NoError(t, Finalize(kv))
	require.NoError(t, Finalize(sec))
	require.NoError(t, ConfigFinalize(cfg))

	found, err := QueryResolveContext(cfg, "server.port")
	require.NoError(t, err)
	fv, err := found.Value()
	require.NoError(t, err)
	i, err := fv.GetInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(9090), i)
}

func TestCompare_ReportsConflictOnDifference(t *testing.T) {
	mold := buildSampleMold(t)

	cfgA, err := ConfigBegin(mold)
	require.NoError(t, err)
	secA, err := Begin(cfgA, KindSection)
	require.NoError(t, err)
	require.NoError(t, SetName(secA, "server"))
	kvA, err := Begin(secA, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, SetName(kvA, "port"))
	va, _ := kvA.Value()
	require.NoError(t, va.SetInteger(80))
	require.NoError(t, Finalize(kvA))
	require.NoError(t, Finalize(secA))
	require.NoError(t, ConfigFinalize(cfgA))

	cfgB, err := ConfigBegin(mold)
	require.NoError(t, err)
	secB, err := Begin(cfgB, KindSection)
	require.NoError(t, err)
	require.NoError(t, SetName(secB, "server"))
	kvB, err := Begin(secB, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, SetName(kvB, "port"))
	vb, _ := kvB.Value()
	require.NoError(t, vb.SetInteger(81))
	require.NoError(t, Finalize(kvB))
	require.NoError(t, Finalize(secB))
	require.NoError(t, ConfigFinalize(cfgB))

	status, report, err := Compare(cfgA, cfgB)
	require.NoError(t, err)
	assert.Equal(t, StatusConflict, status)
	assert.NotEmpty(t, report)
}
