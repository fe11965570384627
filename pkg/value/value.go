// Package value implements the VBA-style type lattice the expression
// evaluator operates over: a tagged union of NULL, LONG, DOUBLE, BIG_DEC,
// STRING, DATE, TIME and DATE_TIME, plus the coercions between them.
package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jetdb/jetdb/pkg/jeterr"
)

// Type is the discriminant of Value, ordered the way jackcess's
// getMathTypePrecedence ranks numeric widening (LONG < DOUBLE < BIG_DEC);
// STRING/DATE/TIME/DATE_TIME sit outside that ordering.
type Type int

const (
	TypeNull Type = iota
	TypeLong
	TypeDouble
	TypeBigDec
	TypeString
	TypeDate
	TypeTime
	TypeDateTime
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "NULL"
	case TypeLong:
		return "LONG"
	case TypeDouble:
		return "DOUBLE"
	case TypeBigDec:
		return "BIG_DEC"
	case TypeString:
		return "STRING"
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeDateTime:
		return "DATE_TIME"
	default:
		return "UNKNOWN"
	}
}

// IsTemporal reports whether t is one of DATE/TIME/DATE_TIME.
func (t Type) IsTemporal() bool {
	return t == TypeDate || t == TypeTime || t == TypeDateTime
}

// Value is an immutable tagged union. The zero Value is NULL.
type Value struct {
	typ Type
	s   string
	i   int32
	f   float64
	dec *BigDec
	// dd is the "date-double" representation for temporal values: the
	// integer part counts days since the Jet epoch (1899-12-30), the
	// fractional part is time-of-day as a fraction of 24h.
	dd float64
}

// Null is the single NULL value.
var Null = Value{typ: TypeNull}

func Long(v int32) Value           { return Value{typ: TypeLong, i: v} }
func Double(v float64) Value       { return Value{typ: TypeDouble, f: v} }
func BigDecVal(v *BigDec) Value    { return Value{typ: TypeBigDec, dec: v} }
func Str(v string) Value           { return Value{typ: TypeString, s: v} }
func DateVal(dd float64) Value     { return Value{typ: TypeDate, dd: dd} }
func TimeVal(dd float64) Value     { return Value{typ: TypeTime, dd: dd} }
func DateTimeVal(dd float64) Value { return Value{typ: TypeDateTime, dd: dd} }

// Bool maps to the LONG encoding VBA uses for booleans: -1 true, 0 false.
func Bool(b bool) Value {
	if b {
		return Long(-1)
	}
	return Long(0)
}

func (v Value) Type() Type   { return v.typ }
func (v Value) IsNull() bool { return v.typ == TypeNull }

// AsBoolean follows jackcess's BaseValue.getAsBoolean: numeric zero (or a
// zero-valued date-double) is false, a STRING is true exactly when it is
// non-empty, and NULL is false.
func (v Value) AsBoolean() bool {
	switch v.typ {
	case TypeNull:
		return false
	case TypeLong:
		return v.i != 0
	case TypeDouble:
		return v.f != 0
	case TypeBigDec:
		return v.dec.Signum() != 0
	case TypeString:
		return v.s != ""
	case TypeDate, TypeTime, TypeDateTime:
		return v.dd != 0
	default:
		return false
	}
}

// AsLong truncates toward zero, the way jackcess's getAsLong does for
// DOUBLE/BIG_DEC, and parses STRING via Go's numeric grammar.
func (v Value) AsLong() (int32, error) {
	switch v.typ {
	case TypeLong:
		return v.i, nil
	case TypeDouble:
		return int32(v.f), nil
	case TypeBigDec:
		return int32(v.dec.Int64()), nil
	case TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, jeterr.Wrap(jeterr.TypeError, "Value.AsLong", err, "cannot convert %q to LONG", v.s)
		}
		return int32(f), nil
	case TypeDate, TypeTime, TypeDateTime:
		return int32(v.dd), nil
	default:
		return 0, jeterr.New(jeterr.TypeError, "Value.AsLong", "NULL has no LONG representation")
	}
}

func (v Value) AsDouble() (float64, error) {
	switch v.typ {
	case TypeLong:
		return float64(v.i), nil
	case TypeDouble:
		return v.f, nil
	case TypeBigDec:
		return v.dec.Float64(), nil
	case TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, jeterr.Wrap(jeterr.TypeError, "Value.AsDouble", err, "cannot convert %q to DOUBLE", v.s)
		}
		return f, nil
	case TypeDate, TypeTime, TypeDateTime:
		return v.dd, nil
	default:
		return 0, jeterr.New(jeterr.TypeError, "Value.AsDouble", "NULL has no DOUBLE representation")
	}
}

func (v Value) AsBigDec() (*BigDec, error) {
	switch v.typ {
	case TypeLong:
		return NewFromInt64(int64(v.i)), nil
	case TypeDouble:
		return NewFromFloat64(v.f)
	case TypeBigDec:
		return v.dec, nil
	case TypeString:
		return ParseBigDec(strings.TrimSpace(v.s))
	case TypeDate, TypeTime, TypeDateTime:
		return NewFromFloat64(v.dd)
	default:
		return nil, jeterr.New(jeterr.TypeError, "Value.AsBigDec", "NULL has no BIG_DEC representation")
	}
}

// AsString matches jackcess's per-type default formatting. It is not
// TemporalConfig-aware; callers that need locale-formatted date/time
// output convert through TemporalConfig's format strings themselves.
func (v Value) AsString() string {
	switch v.typ {
	case TypeNull:
		return ""
	case TypeLong:
		return strconv.FormatInt(int64(v.i), 10)
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeBigDec:
		return v.dec.String()
	case TypeString:
		return v.s
	case TypeDate, TypeTime, TypeDateTime:
		return fmt.Sprintf("%v", v.dd)
	default:
		return ""
	}
}

// AsDateDouble returns the date-double representation; only valid for
// temporal types.
func (v Value) AsDateDouble() (float64, error) {
	if !v.typ.IsTemporal() {
		return 0, jeterr.New(jeterr.TypeError, "Value.AsDateDouble", "%s is not temporal", v.typ)
	}
	return v.dd, nil
}

// AsTime converts the date-double to a time.Time anchored at the Jet
// epoch (jetEpoch, see temporal.go).
func (v Value) AsTime() (time.Time, error) {
	dd, err := v.AsDateDouble()
	if err != nil {
		return time.Time{}, err
	}
	return FromDateDouble(dd), nil
}
