package calc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetdb/jetdb/pkg/value"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	var prefix [16]byte
	payload := []byte("hello calculated value")

	wrapped := Wrap(prefix, payload)
	require.Len(t, wrapped, len(payload)+extraLen)

	gotPrefix, gotPayload, err := Unwrap(wrapped)
	require.NoError(t, err)
	require.Equal(t, prefix, gotPrefix)
	require.Equal(t, payload, gotPayload)
}

func TestUnwrapRejectsTruncated(t *testing.T) {
	_, _, err := Unwrap([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestBooleanWrapper(t *testing.T) {
	require.Equal(t, byte(0xFF), WrapBoolean(true))
	require.Equal(t, byte(0x00), WrapBoolean(false))
	require.True(t, UnwrapBoolean(0xFF))
	require.False(t, UnwrapBoolean(0x00))
}

func TestNumericCodecRoundTrip(t *testing.T) {
	cases := []string{
		"0",
		"1",
		"-1",
		"33.3333333333333333333333333333",
		"-56505085819.424791296572280180",
		"0.0001",
	}
	for _, c := range cases {
		dec, err := value.ParseBigDec(c)
		require.NoError(t, err)

		encoded, err := WriteCalcNumericValue(dec)
		require.NoError(t, err)
		require.Len(t, encoded, numericDataLen)

		decoded, err := ReadCalcNumericValue(encoded)
		require.NoError(t, err)
		require.Equal(t, dec.String(), decoded.String())
	}
}

func TestNumericCodecRejectsWrongLength(t *testing.T) {
	_, err := ReadCalcNumericValue([]byte{1, 2, 3})
	require.Error(t, err)
}

// TestNumericCodecWireBytes pins the exact wire bytes spec.md §4.5
// describes, since a round-trip test alone can't catch a byte-swap
// applied symmetrically on both write and read.
func TestNumericCodecWireBytes(t *testing.T) {
	dec, err := value.ParseBigDec("-1")
	require.NoError(t, err)

	encoded, err := WriteCalcNumericValue(dec)
	require.NoError(t, err)

	require.Equal(t, byte(numericDataLen-2), encoded[0]) // totalLen, little-endian
	require.Equal(t, byte(0), encoded[1])
	require.Equal(t, byte(0), encoded[2])                  // scale
	require.Equal(t, byte(signByteNegative), encoded[3])   // sign byte, 0x80 not 1

	mantissa := encoded[4:]
	require.Equal(t, byte(1), mantissa[8])
	for i, b := range mantissa {
		if i == 8 {
			continue
		}
		require.Zerof(t, b, "byte %d should be zero, got %#x", i, b)
	}
}
