package corectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMoldWithRepeatableSection(t *testing.T, max int) *Context {
	t.Helper()
	mold, err := BeginMold()
	require.NoError(t, err)

	sec, err := Begin(mold, KindSection)
	require.NoError(t, err)
	require.NoError(t, sec.SetName("listener"))

	restr, err := Begin(sec, KindRestriction)
	require.NoError(t, err)
	require.NoError(t, restr.SetRestrictionEntriesBound(RestrictionEntriesMax, max))
	require.NoError(t, restr.Finalize())
	require.NoError(t, sec.Finalize())
	require.NoError(t, mold.Finalize())
	return mold
}

func TestResolveEntriesBounds_MaxEnforced(t *testing.T) {
	mold := buildMoldWithRepeatableSection(t, 2)
	min, max, err := ResolveEntriesBounds(mold, "listener", Version1_0)
	require.NoError(t, err)
	assert.Equal(t, -1, min)
	assert.Equal(t, 2, max)
}

func TestConfig_TooManyRepeatedSectionsViolatesRestriction(t *testing.T) {
	mold := buildMoldWithRepeatableSection(t, 1)
	cfg, err := BeginConfig(mold)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		sec, err := Begin(cfg, KindSection)
		require.NoError(t, err)
		require.NoError(t, sec.SetName("listener"))
		err = sec.Finalize()
		if i == 1 {
			require.Error(t, err)
			var coreErr *Error
			require.ErrorAs(t, err, &coreErr)
			assert.Equal(t, StatusInvalidContext, coreErr.Status)
			assert.Equal(t, StatusRestrictionViolated, sec.invalidStatus)
		} else {
			require.NoError(t, err)
		}
	}
}

func TestResolveQuery_IndexDisambiguation(t *testing.T) {
	mold := buildMoldWithRepeatableSection(t, 5)
	cfg, err := BeginConfig(mold)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		sec, err := Begin(cfg, KindSection)
		require.NoError(t, err)
		require.NoError(t, sec.SetName("listener"))
		require.NoError(t, sec.Finalize())
	}
	require.NoError(t, cfg.Finalize())

	_, err = ResolveQuery(cfg, "listener")
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusExists, coreErr.Status)

	found, err := ResolveQuery(cfg, "listener@1")
	require.NoError(t, err)
	assert.Equal(t, KindSection, found.Kind())
}
