package expr

import (
	"math"
	"strings"

	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/value"
)

// arith dispatches a SIMPLE/GENERAL binary arithmetic operator after
// promoting both operands to a common numeric type, propagating NULL
// unconditionally (every arithmetic operator does; only the logical
// trio AND/OR/IMP and the & concatenation operator deviate, see below).
func arith(a, b value.Value, mode CoercionType,
	longOp func(x, y int64) (int64, bool),
	doubleOp func(x, y float64) float64,
	decOp func(x, y *value.BigDec) (*value.BigDec, error),
) (value.Value, error) {
	if a.IsNull() || b.IsNull() {
		return value.Null, nil
	}
	a, b, t, err := promoteNumeric(a, b, mode)
	if err != nil {
		return value.Null, err
	}
	switch t {
	case value.TypeLong:
		la, _ := a.AsLong()
		lb, _ := b.AsLong()
		r, ok := longOp(int64(la), int64(lb))
		if ok && r >= math.MinInt32 && r <= math.MaxInt32 {
			return value.Long(int32(r)), nil
		}
		return value.Double(doubleOp(float64(la), float64(lb))), nil
	case value.TypeDouble:
		da, _ := a.AsDouble()
		db, _ := b.AsDouble()
		return value.Double(doubleOp(da, db)), nil
	case value.TypeBigDec:
		da, err := a.AsBigDec()
		if err != nil {
			return value.Null, err
		}
		db, err := b.AsBigDec()
		if err != nil {
			return value.Null, err
		}
		r, err := decOp(da, db)
		if err != nil {
			return value.Null, err
		}
		return value.BigDecVal(r.Normalize()), nil
	default:
		return value.Null, jeterr.New(jeterr.TypeError, "arith", "unsupported promoted type %s", t)
	}
}

func Add(a, b value.Value) (value.Value, error) {
	return arith(a, b, Simple,
		func(x, y int64) (int64, bool) { return x + y, true },
		func(x, y float64) float64 { return x + y },
		func(x, y *value.BigDec) (*value.BigDec, error) { return x.Add(y), nil },
	)
}

func Sub(a, b value.Value) (value.Value, error) {
	return arith(a, b, Simple,
		func(x, y int64) (int64, bool) { return x - y, true },
		func(x, y float64) float64 { return x - y },
		func(x, y *value.BigDec) (*value.BigDec, error) { return x.Sub(y), nil },
	)
}

func Mul(a, b value.Value) (value.Value, error) {
	return arith(a, b, General,
		func(x, y int64) (int64, bool) { return x * y, true },
		func(x, y float64) float64 { return x * y },
		func(x, y *value.BigDec) (*value.BigDec, error) { return x.Mul(y), nil },
	)
}

// Div implements "/" : true division, always producing at least a
// DOUBLE, or a BIG_DEC rounded to MaxNumericScale when either operand is
// BIG_DEC (BuiltinOperators.divide(BigDecimal,BigDecimal)).
func Div(a, b value.Value) (value.Value, error) {
	if a.IsNull() || b.IsNull() {
		return value.Null, nil
	}
	a, b, t, err := promoteNumeric(a, b, General)
	if err != nil {
		return value.Null, err
	}
	if t == value.TypeBigDec {
		da, _ := a.AsBigDec()
		db, _ := b.AsBigDec()
		r, err := da.DivRound(db, value.MaxNumericScale)
		if err != nil {
			return value.Null, err
		}
		return value.BigDecVal(r.Normalize()), nil
	}
	da, _ := a.AsDouble()
	db, _ := b.AsDouble()
	if db == 0 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "expr.Div", "division by zero")
	}
	return value.Double(da / db), nil
}

// IntDiv implements "\": integer division, truncating both operands to
// LONG first.
func IntDiv(a, b value.Value) (value.Value, error) {
	if a.IsNull() || b.IsNull() {
		return value.Null, nil
	}
	la, err := a.AsLong()
	if err != nil {
		return value.Null, err
	}
	lb, err := b.AsLong()
	if err != nil {
		return value.Null, err
	}
	if lb == 0 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "expr.IntDiv", "division by zero")
	}
	return value.Long(la / lb), nil
}

// Mod implements "Mod": remainder after integer division.
func Mod(a, b value.Value) (value.Value, error) {
	if a.IsNull() || b.IsNull() {
		return value.Null, nil
	}
	la, err := a.AsLong()
	if err != nil {
		return value.Null, err
	}
	lb, err := b.AsLong()
	if err != nil {
		return value.Null, err
	}
	if lb == 0 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "expr.Mod", "division by zero")
	}
	return value.Long(la % lb), nil
}

// Exp implements "^".
func Exp(a, b value.Value) (value.Value, error) {
	if a.IsNull() || b.IsNull() {
		return value.Null, nil
	}
	da, err := a.AsDouble()
	if err != nil {
		return value.Null, err
	}
	db, err := b.AsDouble()
	if err != nil {
		return value.Null, err
	}
	return value.Double(math.Pow(da, db)), nil
}

// Concat implements "&": unlike every arithmetic operator, NULL operands
// coerce to the empty string instead of propagating.
func Concat(a, b value.Value) (value.Value, error) {
	as, bs := a.AsString(), b.AsString()
	return value.Str(as + bs), nil
}

// Neg implements unary "-".
func Neg(a value.Value) (value.Value, error) {
	if a.IsNull() {
		return value.Null, nil
	}
	switch a.Type() {
	case value.TypeLong:
		l, _ := a.AsLong()
		if l == math.MinInt32 {
			return value.Double(-float64(l)), nil
		}
		return value.Long(-l), nil
	case value.TypeBigDec:
		d, _ := a.AsBigDec()
		return value.BigDecVal(d.Neg()), nil
	default:
		d, err := a.AsDouble()
		if err != nil {
			return value.Null, err
		}
		return value.Double(-d), nil
	}
}

// Not implements unary "Not": three-valued (NULL stays NULL), otherwise
// a bitwise complement of the VBA boolean encoding.
func Not(a value.Value) (value.Value, error) {
	if a.IsNull() {
		return value.Null, nil
	}
	return value.Bool(!a.AsBoolean()), nil
}

// compare produces a three-way ordering (-1/0/1) for the COMPARE
// coercion mode, or an error if the operands aren't comparable. Two
// strings always compare in lexicographic order, whether or not they
// look numeric; a string compared to a non-string is a TypeError.
func compare(a, b value.Value) (int, bool, error) {
	if a.IsNull() || b.IsNull() {
		return 0, false, nil
	}
	if a.Type() == value.TypeString && b.Type() == value.TypeString {
		return strings.Compare(a.AsString(), b.AsString()), true, nil
	}
	if a.Type() == value.TypeString || b.Type() == value.TypeString {
		return 0, false, jeterr.New(jeterr.TypeError, "expr.compare", "cannot compare %s to %s", a.Type(), b.Type())
	}
	a2, b2, t, err := promoteNumeric(a, b, Compare)
	if err != nil {
		return 0, false, err
	}
	switch t {
	case value.TypeBigDec:
		da, _ := a2.AsBigDec()
		db, _ := b2.AsBigDec()
		return da.Cmp(db), true, nil
	default:
		da, _ := a2.AsDouble()
		db, _ := b2.AsDouble()
		switch {
		case da < db:
			return -1, true, nil
		case da > db:
			return 1, true, nil
		default:
			return 0, true, nil
		}
	}
}

func cmpOp(a, b value.Value, pred func(int) bool) (value.Value, error) {
	c, ok, err := compare(a, b)
	if err != nil {
		return value.Null, err
	}
	if !ok {
		return value.Null, nil
	}
	return value.Bool(pred(c)), nil
}

func LessThan(a, b value.Value) (value.Value, error) {
	return cmpOp(a, b, func(c int) bool { return c < 0 })
}
func LessOrEqual(a, b value.Value) (value.Value, error) {
	return cmpOp(a, b, func(c int) bool { return c <= 0 })
}
func GreaterThan(a, b value.Value) (value.Value, error) {
	return cmpOp(a, b, func(c int) bool { return c > 0 })
}
func GreaterOrEqual(a, b value.Value) (value.Value, error) {
	return cmpOp(a, b, func(c int) bool { return c >= 0 })
}
func Equal(a, b value.Value) (value.Value, error) {
	return cmpOp(a, b, func(c int) bool { return c == 0 })
}
func NotEqual(a, b value.Value) (value.Value, error) {
	return cmpOp(a, b, func(c int) bool { return c != 0 })
}

// threeValued implements the AND/OR/IMP truth tables, the exception to
// unconditional null propagation: a NULL operand only yields NULL when
// the other operand doesn't already pin down the result (e.g.
// FALSE AND NULL is FALSE, not NULL).
func threeValued(a, b value.Value, table func(a, b *bool) *bool) (value.Value, error) {
	var ap, bp *bool
	if !a.IsNull() {
		v := a.AsBoolean()
		ap = &v
	}
	if !b.IsNull() {
		v := b.AsBoolean()
		bp = &v
	}
	r := table(ap, bp)
	if r == nil {
		return value.Null, nil
	}
	return value.Bool(*r), nil
}

func And(a, b value.Value) (value.Value, error) {
	return threeValued(a, b, func(a, b *bool) *bool {
		if (a != nil && !*a) || (b != nil && !*b) {
			f := false
			return &f
		}
		if a != nil && b != nil {
			r := *a && *b
			return &r
		}
		return nil
	})
}

func Or(a, b value.Value) (value.Value, error) {
	return threeValued(a, b, func(a, b *bool) *bool {
		if (a != nil && *a) || (b != nil && *b) {
			t := true
			return &t
		}
		if a != nil && b != nil {
			r := *a || *b
			return &r
		}
		return nil
	})
}

func Xor(a, b value.Value) (value.Value, error) {
	if a.IsNull() || b.IsNull() {
		return value.Null, nil
	}
	return value.Bool(a.AsBoolean() != b.AsBoolean()), nil
}

func Eqv(a, b value.Value) (value.Value, error) {
	if a.IsNull() || b.IsNull() {
		return value.Null, nil
	}
	return value.Bool(a.AsBoolean() == b.AsBoolean()), nil
}

// Imp implements logical implication: anything IMP TRUE == TRUE and
// FALSE IMP anything == TRUE, even when the other operand is NULL;
// otherwise a NULL operand yields NULL.
func Imp(a, b value.Value) (value.Value, error) {
	return threeValued(a, b, func(a, b *bool) *bool {
		if b != nil && *b {
			t := true
			return &t
		}
		if a != nil && !*a {
			t := true
			return &t
		}
		if a != nil && b != nil {
			r := !*a || *b
			return &r
		}
		return nil
	})
}

func IsNullOp(a value.Value) value.Value {
	return value.Bool(a.IsNull())
}

// Like implements a simple SQL/VBA-style wildcard match: "*" matches any
// run of characters, "?" matches exactly one.
func Like(s, pattern string) bool {
	return likeMatch(s, pattern)
}

func likeMatch(s, pattern string) bool {
	if pattern == "" {
		return s == ""
	}
	switch pattern[0] {
	case '*':
		if likeMatch(s, pattern[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatch(s[i+1:], pattern[1:]) {
				return true
			}
		}
		return false
	case '?':
		if s == "" {
			return false
		}
		return likeMatch(s[1:], pattern[1:])
	default:
		if s == "" || s[0] != pattern[0] {
			return false
		}
		return likeMatch(s[1:], pattern[1:])
	}
}

// Between implements "x Between lo And hi" inclusively.
func Between(v, lo, hi value.Value) (value.Value, error) {
	low, err := GreaterOrEqual(v, lo)
	if err != nil {
		return value.Null, err
	}
	high, err := LessOrEqual(v, hi)
	if err != nil {
		return value.Null, err
	}
	return And(low, high)
}

// In implements "x In (a, b, c)".
func In(v value.Value, list []value.Value) (value.Value, error) {
	sawNull := v.IsNull()
	for _, item := range list {
		eq, err := Equal(v, item)
		if err != nil {
			return value.Null, err
		}
		if eq.IsNull() {
			sawNull = true
			continue
		}
		if eq.AsBoolean() {
			return value.Bool(true), nil
		}
	}
	if sawNull {
		return value.Null, nil
	}
	return value.Bool(false), nil
}
