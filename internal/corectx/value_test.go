package corectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_StringNullOnEmpty(t *testing.T) {
	v := NewTypedValue(ValueTypeString)
	require.NoError(t, v.SetString(""))
	assert.True(t, v.IsNull())

	require.NoError(t, v.SetString("hello"))
	assert.False(t, v.IsNull())
	s, err := v.GetString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestValue_WrongTypeSetterErrors(t *testing.T) {
	v := NewTypedValue(ValueTypeInteger)
	err := v.SetString("x")
	require.Error(t, err)
	var coreErr *Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, StatusWrongValueType, coreErr.Status)
}

func TestValue_EqualAcrossTypes(t *testing.T) {
	a := NewIntegerValue(5)
	b := NewFloatValue(5)
	assert.False(t, a.Equal(b))

	c := NewIntegerValue(5)
	assert.True(t, a.Equal(c))
}

func TestValue_CompareOrdersNumerically(t *testing.T) {
	a := NewIntegerValue(3)
	b := NewIntegerValue(7)
	cmp, err := a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)
}

func TestValue_CompareMismatchedTypesErrors(t *testing.T) {
	a := NewIntegerValue(1)
	b := NewStringValue("x")
	_, err := a.Compare(b)
	require.Error(t, err)
}

func TestValue_Bounded(t *testing.T) {
	v := NewStringValue("abcdefghij")
	assert.Equal(t, "abcde", v.Bounded(5))
	assert.Equal(t, "abcdefghij", v.Bounded(0))
}

func TestVersion_ParseAndCompare(t *testing.T) {
	v1, err := ParseVersion("1")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 0}, v1)

	v2, err := ParseVersion("1.5")
	require.NoError(t, err)
	assert.True(t, v1.LessThan(v2))
	assert.True(t, v2.GreaterThan(v1))

	_, err = ParseVersion("-1")
	require.Error(t, err)
}
