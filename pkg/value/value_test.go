package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueAsBoolean(t *testing.T) {
	require.False(t, Null.AsBoolean())
	require.False(t, Long(0).AsBoolean())
	require.True(t, Long(-1).AsBoolean())
	require.True(t, Str("x").AsBoolean())
	require.False(t, Str("").AsBoolean())
}

func TestValueCoercions(t *testing.T) {
	v := Str("42")
	l, err := v.AsLong()
	require.NoError(t, err)
	require.Equal(t, int32(42), l)

	d, err := v.AsDouble()
	require.NoError(t, err)
	require.Equal(t, 42.0, d)
}

func TestValueNullHasNoNumericRepresentation(t *testing.T) {
	_, err := Null.AsLong()
	require.Error(t, err)
}

func TestBoolValueIsVBAEncoded(t *testing.T) {
	require.Equal(t, int32(-1), mustLong(t, Bool(true)))
	require.Equal(t, int32(0), mustLong(t, Bool(false)))
}

func mustLong(t *testing.T, v Value) int32 {
	t.Helper()
	l, err := v.AsLong()
	require.NoError(t, err)
	return l
}
