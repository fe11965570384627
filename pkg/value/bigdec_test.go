package value

import "testing"

import "github.com/stretchr/testify/require"

func TestBigDecDivRoundGolden(t *testing.T) {
	one := NewFromInt64(1)
	divisor, err := ParseBigDec("0.03")
	require.NoError(t, err)
	got, err := one.DivRound(divisor, MaxNumericScale)
	require.NoError(t, err)
	require.Equal(t, "33.3333333333333333333333333333", got.String())
}

func TestBigDecRoundHalfEven(t *testing.T) {
	twoAndHalf, err := ParseBigDec("2.5")
	require.NoError(t, err)
	require.Equal(t, "2", twoAndHalf.Round(0).String())

	threeAndHalf, err := ParseBigDec("3.5")
	require.NoError(t, err)
	require.Equal(t, "4", threeAndHalf.Round(0).String())
}

func TestBigDecNormalizeStripsTrailingZeros(t *testing.T) {
	d, err := ParseBigDec("1.500")
	require.NoError(t, err)
	require.Equal(t, "1.5", d.Normalize().String())

	zero, err := ParseBigDec("0.000")
	require.NoError(t, err)
	require.Equal(t, "0", zero.Normalize().String())
}

func TestBigDecAddSubMul(t *testing.T) {
	a, _ := ParseBigDec("10.5")
	b, _ := ParseBigDec("2.25")
	require.Equal(t, "12.75", a.Add(b).String())
	require.Equal(t, "8.25", a.Sub(b).String())
	require.Equal(t, "23.6250", a.Mul(b).String())
}

func TestBigDecPrecisionGolden(t *testing.T) {
	d, err := ParseBigDec("56505085819.424791296572280180")
	require.NoError(t, err)
	require.Equal(t, 29, d.Precision())
}
