package corectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildVersionedMold(t *testing.T) *Context {
	t.Helper()
	mold, err := BeginMold()
	require.NoError(t, err)

	kv, err := Begin(mold, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, kv.SetName("log_level"))
	require.NoError(t, kv.SetValueType(ValueTypeString))

	def1, err := Begin(kv, KindDefault)
	require.NoError(t, err)
	require.NoError(t, def1.SetIntroduced(Version1_0))
	v1, _ := def1.Value()
	require.NoError(t, v1.SetString("info"))
	require.NoError(t, def1.Finalize())

	def2, err := Begin(kv, KindDefault)
	require.NoError(t, err)
	require.NoError(t, def2.SetIntroduced(Version{Major: 2, Minor: 0}))
	v2, _ := def2.Value()
	require.NoError(t, v2.SetString("warn"))
	require.NoError(t, def2.Finalize())

	restr, err := Begin(kv, KindRestriction)
	require.NoError(t, err)
	require.NoError(t, restr.SetRestrictionValueEnum("info"))
	require.NoError(t, restr.Finalize())

	require.NoError(t, kv.Finalize())
	require.NoError(t, mold.Finalize())
	return mold
}

func TestResolveDefault_PicksGreatestApplicable(t *testing.T) {
	mold := buildVersionedMold(t)
	col, err := mold.GetElements("log_level")
	require.NoError(t, err)
	defer col.Finished()
	kv, err := col.Next()
	require.NoError(t, err)

	v, err := ResolveDefault(kv, Version1_0)
	require.NoError(t, err)
	s, _ := v.GetString()
	assert.Equal(t, "info", s)

	v, err = ResolveDefault(kv, Version{Major: 3, Minor: 0})
	require.NoError(t, err)
	s, _ = v.GetString()
	assert.Equal(t, "warn", s)
}

func TestResolveDefault_MissingBelowFirstIntroduced(t *testing.T) {
	mold, err := BeginMold()
	require.NoError(t, err)
	kv, err := Begin(mold, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, kv.SetName("x"))
	require.NoError(t, kv.SetValueType(ValueTypeString))
	def, err := Begin(kv, KindDefault)
	require.NoError(t, err)
	require.NoError(t, def.SetIntroduced(Version{Major: 2, Minor: 0}))
	dv, _ := def.Value()
	require.NoError(t, dv.SetString("y"))
	require.NoError(t, def.Finalize())
	require.NoError(t, kv.Finalize())

	_, err = ResolveDefault(kv, Version1_0)
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusDefaultMissing, coreErr.Status)
}
