package expr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jetdb/jetdb/pkg/value"
)

// TestConcatExpressionGolden mirrors spec.md §8's end-to-end scenario:
// [id] & "_" & [data] with id=1, data="foo" evaluates to "1_foo".
func TestConcatExpressionGolden(t *testing.T) {
	ctx := NewEvalContext()
	ctx.Bindings["id"] = value.Long(1)
	ctx.Bindings["data"] = value.Str("foo")

	id, err := ctx.Lookup("id")
	require.NoError(t, err)
	data, err := ctx.Lookup("data")
	require.NoError(t, err)

	step1, err := Concat(id, value.Str("_"))
	require.NoError(t, err)
	result, err := Concat(step1, data)
	require.NoError(t, err)

	require.Equal(t, "1_foo", result.AsString())
}

// TestDivisionExpressionGolden mirrors [id]/0.03 with id=1, which must
// produce the exact 28-scale BIG_DEC result from spec.md §8.
func TestDivisionExpressionGolden(t *testing.T) {
	ctx := NewEvalContext()
	ctx.Bindings["id"] = value.Long(1)

	id, err := ctx.Lookup("id")
	require.NoError(t, err)
	divisor, err := value.ParseBigDec("0.03")
	require.NoError(t, err)

	result, err := Div(id, value.BigDecVal(divisor))
	require.NoError(t, err)
	require.Equal(t, value.TypeBigDec, result.Type())
	require.Equal(t, "33.3333333333333333333333333333", result.AsString())
}

func TestRoundHalfEvenGolden(t *testing.T) {
	ctx := NewEvalContext()
	r1, err := ctx.Call("ROUND", []value.Value{value.Double(2.5)})
	require.NoError(t, err)
	require.Equal(t, "2", r1.AsString())

	r2, err := ctx.Call("ROUND", []value.Value{value.Double(3.5)})
	require.NoError(t, err)
	require.Equal(t, "4", r2.AsString())
}

func TestDivisionByZeroIsArithmeticError(t *testing.T) {
	_, err := Div(value.Long(1), value.Long(0))
	require.Error(t, err)
}

func TestNullPropagationInArithmetic(t *testing.T) {
	r, err := Add(value.Null, value.Long(5))
	require.NoError(t, err)
	require.True(t, r.IsNull())
}

func TestAndOrShortCircuitNullPropagation(t *testing.T) {
	// FALSE AND NULL == FALSE, not NULL.
	r, err := And(value.Bool(false), value.Null)
	require.NoError(t, err)
	require.False(t, r.IsNull())
	require.False(t, r.AsBoolean())

	// TRUE OR NULL == TRUE, not NULL.
	r2, err := Or(value.Bool(true), value.Null)
	require.NoError(t, err)
	require.False(t, r2.IsNull())
	require.True(t, r2.AsBoolean())

	// NULL AND NULL == NULL.
	r3, err := And(value.Null, value.Null)
	require.NoError(t, err)
	require.True(t, r3.IsNull())
}

func TestConcatCoercesNullToEmptyString(t *testing.T) {
	r, err := Concat(value.Null, value.Str("x"))
	require.NoError(t, err)
	require.Equal(t, "x", r.AsString())
}

func TestIIfAndNz(t *testing.T) {
	ctx := NewEvalContext()
	r, err := ctx.Call("IIF", []value.Value{value.Bool(true), value.Str("yes"), value.Str("no")})
	require.NoError(t, err)
	require.Equal(t, "yes", r.AsString())

	r2, err := ctx.Call("NZ", []value.Value{value.Null})
	require.NoError(t, err)
	require.Equal(t, value.TypeLong, r2.Type())

	r3, err := ctx.Call("NZ", []value.Value{value.Null, value.Str("fallback")})
	require.NoError(t, err)
	require.Equal(t, "fallback", r3.AsString())
}

func TestLikeWildcards(t *testing.T) {
	require.True(t, Like("hello", "h*o"))
	require.True(t, Like("hello", "h?llo"))
	require.False(t, Like("hello", "world"))
}

func TestBetweenAndIn(t *testing.T) {
	r, err := Between(value.Long(5), value.Long(1), value.Long(10))
	require.NoError(t, err)
	require.True(t, r.AsBoolean())

	r2, err := In(value.Long(5), []value.Value{value.Long(1), value.Long(5), value.Long(9)})
	require.NoError(t, err)
	require.True(t, r2.AsBoolean())
}

func TestRandomContextRepeatability(t *testing.T) {
	r1 := &RandomContext{}
	r2 := &RandomContext{}
	a := r1.Rnd(1)
	b := r2.Rnd(1)
	require.Equal(t, a, b)

	// Rnd(0) returns the last generated value without advancing.
	c := r1.Rnd(0)
	require.Equal(t, a, c)
}

func TestHexOct(t *testing.T) {
	ctx := NewEvalContext()
	h, err := ctx.Call("HEX", []value.Value{value.Long(255)})
	require.NoError(t, err)
	require.Equal(t, "FF", h.AsString())

	o, err := ctx.Call("OCT", []value.Value{value.Long(8)})
	require.NoError(t, err)
	require.Equal(t, "10", o.AsString())
}
