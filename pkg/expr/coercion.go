// Package expr implements the operator kernel and built-in function
// library used to evaluate VBA-style expressions: null propagation,
// numeric type promotion, and the full set of built-in functions.
// Grounded on original_source's impl/expr/BuiltinOperators.java and
// DefaultFunctions.java/DefaultNumberFunctions.java.
package expr

import (
	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/value"
)

// CoercionType selects which numeric promotion rules apply to a binary
// operator: SIMPLE for +/-, GENERAL for the rest of arithmetic, COMPARE
// for the relational operators, which additionally prefer temporal
// comparison and are pickier about coercing strings.
type CoercionType int

const (
	Simple CoercionType = iota
	General
	Compare
)

func (c CoercionType) preferTemporal() bool      { return c == Compare }
func (c CoercionType) allowCoerceStringToNum() bool { return c != Compare }

// mathTypePrecedence ranks the numeric types for promotion: whichever
// operand has the higher rank decides the result type, following
// BuiltinOperators.getMathTypePrecedence. Temporal types rank as DOUBLE
// in every CoercionType: date-doubles take part in arithmetic and
// comparison as plain floats, so no operator returns a temporal result.
func mathTypePrecedence(t value.Type) int {
	switch t {
	case value.TypeNull:
		return 0
	case value.TypeLong:
		return 1
	case value.TypeDouble, value.TypeDate, value.TypeTime, value.TypeDateTime:
		return 2
	case value.TypeBigDec:
		return 3
	default:
		return 1
	}
}

// promotedType returns the numeric type two operands should be promoted
// to before a SIMPLE/GENERAL arithmetic operator runs.
func promotedType(a, b value.Value) value.Type {
	pa, pb := mathTypePrecedence(a.Type()), mathTypePrecedence(b.Type())
	if pa >= pb {
		if pa == 0 {
			return value.TypeLong
		}
		return rankToType(pa)
	}
	return rankToType(pb)
}

func rankToType(rank int) value.Type {
	switch rank {
	case 1:
		return value.TypeLong
	case 2:
		return value.TypeDouble
	case 3:
		return value.TypeBigDec
	default:
		return value.TypeLong
	}
}

// coerceStringToNumeric parses a STRING operand as a number when the
// coercion mode allows it (GENERAL/SIMPLE do, COMPARE does not: "1" < 2
// stays a string/number mismatch rather than silently becoming 1 < 2).
func coerceStringToNumeric(v value.Value, mode CoercionType) (value.Value, error) {
	if v.Type() != value.TypeString {
		return v, nil
	}
	if !mode.allowCoerceStringToNum() {
		return v, nil
	}
	d, err := v.AsBigDec()
	if err != nil {
		return value.Null, jeterr.Wrap(jeterr.TypeError, "coerceStringToNumeric", err, "not numeric")
	}
	return value.BigDecVal(d), nil
}

// promoteNumeric promotes both operands to a common numeric type per
// promotedType, after coercing strings if the mode allows it.
func promoteNumeric(a, b value.Value, mode CoercionType) (value.Value, value.Value, value.Type, error) {
	var err error
	a, err = coerceStringToNumeric(a, mode)
	if err != nil {
		return a, b, value.TypeNull, err
	}
	b, err = coerceStringToNumeric(b, mode)
	if err != nil {
		return a, b, value.TypeNull, err
	}
	t := promotedType(a, b)
	return a, b, t, nil
}
