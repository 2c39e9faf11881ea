package corectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSimpleMold(t *testing.T) *Context {
	t.Helper()
	mold, err := BeginMold()
	require.NoError(t, err)

	kv, err := Begin(mold, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, kv.SetName("listen_port"))
	require.NoError(t, kv.SetValueType(ValueTypeInteger))

	def, err := Begin(kv, KindDefault)
	require.NoError(t, err)
	dv, err := def.Value()
	require.NoError(t, err)
	require.NoError(t, dv.SetInteger(8080))
	require.NoError(t, def.Finalize())

	require.NoError(t, kv.Finalize())
	require.NoError(t, mold.Finalize())
	return mold
}

func TestBeginMold_RootSelfReference(t *testing.T) {
	mold, err := BeginMold()
	require.NoError(t, err)
	assert.Equal(t, mold, mold.Root())
	assert.Equal(t, KindMold, mold.Kind())
	assert.Equal(t, StateConstructing, mold.State())
}

func TestBegin_IllegalChildKind(t *testing.T) {
	mold, err := BeginMold()
	require.NoError(t, err)

	_, err = Begin(mold, KindRestriction)
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusWrongContext, coreErr.Status)
}

func TestKeyval_SetNameAndValueType(t *testing.T) {
	mold := buildSimpleMold(t)
	col, err := mold.GetElements("listen_port")
	require.NoError(t, err)
	defer col.Finished()
	kv, err := col.Next()
	require.NoError(t, err)
	assert.Equal(t, KindKeyval, kv.Kind())
	assert.Equal(t, StateFinalized, kv.State())
}

func TestConfig_SetNameResolvesMoldEquivalent(t *testing.T) {
	mold := buildSimpleMold(t)
	cfg, err := BeginConfig(mold)
	require.NoError(t, err)

	kv, err := Begin(cfg, KindKeyval)
	require.NoError(t, err)
	require.NoError(t, kv.SetName("listen_port"))
	assert.Equal(t, ValueTypeInteger, kv.keyval.value.Type())

	v, err := kv.Value()
	require.NoError(t, err)
	require.NoError(t, v.SetInteger(9090))
	require.NoError(t, kv.Finalize())
	require.NoError(t, cfg.Finalize())
}

func TestConfig_SetNameUnknownIsNotExist(t *testing.T) {
	mold := buildSimpleMold(t)
	cfg, err := BeginConfig(mold)
	require.NoError(t, err)

	kv, err := Begin(cfg, KindKeyval)
	require.NoError(t, err)
	err = kv.SetName("does_not_exist")
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusNotExist, coreErr.Status)
	assert.False(t, kv.Valid())
}

func TestFinalize_InvalidUnderConstructingParentIsGeneric(t *testing.T) {
	mold, err := BeginMold()
	require.NoError(t, err)
	sec, err := Begin(mold, KindSection)
	require.NoError(t, err)
	require.Error(t, sec.SetName("bad name with spaces"))
	err = sec.Finalize()
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusInvalidContext, coreErr.Status)
}

func TestPut_DestroysAtZeroRefcount(t *testing.T) {
	mold := buildSimpleMold(t)
	col, err := mold.GetElements("listen_port")
	require.NoError(t, err)
	kv, err := col.Next()
	require.NoError(t, err)
	col.Finished()

	require.NoError(t, kv.Put())
	assert.True(t, kv.hasFlag(FlagDestroyed))
}

func TestDestroy_CascadesToChildren(t *testing.T) {
	mold := buildSimpleMold(t)
	col, err := mold.GetElements("listen_port")
	require.NoError(t, err)
	kv, err := col.Next()
	require.NoError(t, err)
	def := kv.keyval.defaults[0]

	require.NoError(t, kv.Destroy())
	assert.True(t, kv.hasFlag(FlagDestroyed))
	assert.True(t, def.hasFlag(FlagDestroyed))
	col.Finished()
}

func TestPut_OnAlreadyDestroyedNeverErrors(t *testing.T) {
	mold := buildSimpleMold(t)
	col, err := mold.GetElements("listen_port")
	require.NoError(t, err)
	kv, err := col.Next()
	require.NoError(t, err)
	require.NoError(t, kv.Destroy())
	assert.NoError(t, kv.Put())
	assert.NoError(t, kv.Put())
	col.Finished()
}

func TestOperationOnDestroyedContextErrors(t *testing.T) {
	mold := buildSimpleMold(t)
	col, err := mold.GetElements("listen_port")
	require.NoError(t, err)
	kv, err := col.Next()
	require.NoError(t, err)
	require.NoError(t, kv.Destroy())

	_, err = kv.Value()
	// Value itself does not check liveness (read-only struct access), but
	// SetName does since it mutates.
	err = kv.SetName("x")
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusDestroyedContext, coreErr.Status)
	col.Finished()
}

func TestSetVersion_ConfigCannotExceedMold(t *testing.T) {
	mold := buildSimpleMold(t)
	cfg, err := BeginConfig(mold)
	require.NoError(t, err)
	err = cfg.SetVersion(Version{Major: 99, Minor: 0})
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusConflictingVersion, coreErr.Status)
}

func TestFatalError_StickyAcrossFinalize(t *testing.T) {
	mold, err := BeginMold()
	require.NoError(t, err)
	sec, err := Begin(mold, KindSection)
	require.NoError(t, err)
	require.NoError(t, sec.SetName("net"))
	require.NoError(t, sec.FatalError("upstream corruption detected"))

	err = sec.Finalize()
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusFatalContext, coreErr.Status)
}
