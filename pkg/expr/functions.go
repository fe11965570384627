package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/value"
)

func argErr(op string, want, got int) error {
	return jeterr.New(jeterr.EvalArgument, op, "expected %d argument(s), got %d", want, got)
}

func registerBuiltins(fl *FunctionLookup) {
	// Control flow / null-coalescing.
	fl.Register("IIF", fnIIf)
	fl.Register("NZ", fnNz)
	fl.Register("CHOOSE", fnChoose)
	fl.Register("SWITCH", fnSwitch)

	// Type tests.
	fl.Register("ISNULL", fnIsNull)
	fl.Register("ISDATE", fnIsDate)
	fl.Register("ISNUMERIC", fnIsNumeric)
	fl.Register("VARTYPE", fnVarType)
	fl.Register("TYPENAME", fnTypeName)

	// Converters.
	fl.Register("CBOOL", fnCBool)
	fl.Register("CBYTE", fnCByte)
	fl.Register("CINT", fnCInt)
	fl.Register("CLNG", fnCLng)
	fl.Register("CSNG", fnCSng)
	fl.Register("CDBL", fnCDbl)
	fl.Register("CDEC", fnCDec)
	fl.Register("CCUR", fnCCur)
	fl.Register("CSTR", fnCStr)
	fl.Register("CVAR", fnCVar)
	fl.Register("CDATE", fnCDate)

	// Numeric.
	fl.Register("ABS", fn1Double(math.Abs))
	fl.Register("ATN", fn1Double(math.Atan))
	fl.Register("COS", fn1Double(math.Cos))
	fl.Register("EXP", fn1Double(math.Exp))
	fl.Register("SIN", fn1Double(math.Sin))
	fl.Register("TAN", fn1Double(math.Tan))
	fl.Register("SQR", fnSqr)
	fl.Register("LOG", fnLog)
	fl.Register("FIX", fnFix)
	fl.Register("INT", fnInt)
	fl.Register("SGN", fnSgn)
	fl.Register("ROUND", fnRound)
	fl.Register("RND", fnRnd)

	// Hex/Oct.
	fl.Register("HEX", fnHex)
	fl.Register("OCT", fnOct)

	// Text.
	fl.Register("LEN", fnLen)
	fl.Register("LEFT", fnLeft)
	fl.Register("RIGHT", fnRight)
	fl.Register("MID", fnMid)
	fl.Register("UCASE", fnUCase)
	fl.Register("LCASE", fnLCase)
	fl.Register("TRIM", fnTrim)
	fl.Register("LTRIM", fnLTrim)
	fl.Register("RTRIM", fnRTrim)
}

// --- control flow / null-coalescing ---

func fnIIf(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Null, argErr("IIF", 3, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	if args[0].AsBoolean() {
		return args[1], nil
	}
	return args[2], nil
}

// fnNz implements NZ(value [, valueIfNull]): with a second argument,
// returns it when the first is null; with one argument, falls back to
// LONG zero when the first is null and has no static type to infer a
// more specific default from (see DESIGN.md's Open Question resolution).
func fnNz(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) == 0 || len(args) > 2 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "NZ", "expected 1 or 2 arguments, got %d", len(args))
	}
	if !args[0].IsNull() {
		return args[0], nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return value.Long(0), nil
}

func fnChoose(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Null, argErr("CHOOSE", 2, len(args))
	}
	idx, err := args[0].AsLong()
	if err != nil {
		return value.Null, err
	}
	if idx < 1 || int(idx) >= len(args) {
		return value.Null, nil
	}
	return args[idx], nil
}

func fnSwitch(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args)%2 != 0 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "SWITCH", "expected an even number of arguments, got %d", len(args))
	}
	for i := 0; i < len(args); i += 2 {
		if !args[i].IsNull() && args[i].AsBoolean() {
			return args[i+1], nil
		}
	}
	return value.Null, nil
}

// --- type tests ---

func fnIsNull(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("ISNULL", 1, len(args))
	}
	return IsNullOp(args[0]), nil
}

func fnIsDate(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("ISDATE", 1, len(args))
	}
	return value.Bool(args[0].Type().IsTemporal()), nil
}

func fnIsNumeric(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("ISNUMERIC", 1, len(args))
	}
	v := args[0]
	switch v.Type() {
	case value.TypeLong, value.TypeDouble, value.TypeBigDec:
		return value.Bool(true), nil
	case value.TypeString:
		_, err := value.ParseBigDec(strings.TrimSpace(v.AsString()))
		return value.Bool(err == nil), nil
	default:
		return value.Bool(false), nil
	}
}

// VarType codes match jackcess's DefaultFunctions.VARTYPE mapping.
const (
	varTypeNull     = 1
	varTypeLong     = 3
	varTypeDouble   = 5
	varTypeDate     = 7
	varTypeString   = 8
	varTypeBigDec   = 14
)

func fnVarType(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("VARTYPE", 1, len(args))
	}
	switch args[0].Type() {
	case value.TypeNull:
		return value.Long(varTypeNull), nil
	case value.TypeLong:
		return value.Long(varTypeLong), nil
	case value.TypeDouble:
		return value.Long(varTypeDouble), nil
	case value.TypeDate, value.TypeTime, value.TypeDateTime:
		return value.Long(varTypeDate), nil
	case value.TypeString:
		return value.Long(varTypeString), nil
	case value.TypeBigDec:
		return value.Long(varTypeBigDec), nil
	default:
		return value.Long(varTypeNull), nil
	}
}

func fnTypeName(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("TYPENAME", 1, len(args))
	}
	switch args[0].Type() {
	case value.TypeNull:
		return value.Str("Null"), nil
	case value.TypeLong:
		return value.Str("Long"), nil
	case value.TypeDouble:
		return value.Str("Double"), nil
	case value.TypeBigDec:
		return value.Str("Decimal"), nil
	case value.TypeString:
		return value.Str("String"), nil
	case value.TypeDate, value.TypeTime, value.TypeDateTime:
		return value.Str("Date"), nil
	default:
		return value.Str("Empty"), nil
	}
}

// --- converters ---

func fnCBool(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CBOOL", 1, len(args))
	}
	return value.Bool(args[0].AsBoolean()), nil
}

func fnCByte(ctx *EvalContext, args []value.Value) (value.Value, error) {
	l, err := requireLong(args, "CBYTE")
	if err != nil {
		return value.Null, err
	}
	if l < 0 || l > 255 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "CBYTE", "%d out of byte range", l)
	}
	return value.Long(l), nil
}

func fnCInt(ctx *EvalContext, args []value.Value) (value.Value, error) {
	l, err := requireLong(args, "CINT")
	if err != nil {
		return value.Null, err
	}
	if l < math.MinInt16 || l > math.MaxInt16 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "CINT", "%d out of Integer range", l)
	}
	return value.Long(l), nil
}

func fnCLng(ctx *EvalContext, args []value.Value) (value.Value, error) {
	l, err := requireLong(args, "CLNG")
	if err != nil {
		return value.Null, err
	}
	return value.Long(l), nil
}

func fnCSng(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CSNG", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	if math.Abs(d) > math.MaxFloat32 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "CSNG", "%v out of Single range", d)
	}
	return value.Double(float64(float32(d))), nil
}

func fnCDbl(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CDBL", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	return value.Double(d), nil
}

func fnCDec(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CDEC", 1, len(args))
	}
	d, err := args[0].AsBigDec()
	if err != nil {
		return value.Null, err
	}
	return value.BigDecVal(d), nil
}

func fnCCur(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CCUR", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	r, err := value.RoundCurrency(d)
	if err != nil {
		return value.Null, err
	}
	return value.BigDecVal(r), nil
}

func fnCStr(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CSTR", 1, len(args))
	}
	return value.Str(args[0].AsString()), nil
}

func fnCVar(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CVAR", 1, len(args))
	}
	return args[0], nil
}

func fnCDate(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("CDATE", 1, len(args))
	}
	dd, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	return value.DateTimeVal(dd), nil
}

func requireLong(args []value.Value, op string) (int32, error) {
	if len(args) != 1 {
		return 0, argErr(op, 1, len(args))
	}
	return args[0].AsLong()
}

// --- numeric ---

func fn1Double(f func(float64) float64) Function {
	return func(ctx *EvalContext, args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Null, argErr("numeric function", 1, len(args))
		}
		d, err := args[0].AsDouble()
		if err != nil {
			return value.Null, err
		}
		return value.Double(f(d)), nil
	}
}

func fnSqr(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("SQR", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	if d < 0 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "SQR", "negative argument %v", d)
	}
	return value.Double(math.Sqrt(d)), nil
}

func fnLog(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("LOG", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	if d <= 0 {
		return value.Null, jeterr.New(jeterr.Arithmetic, "LOG", "non-positive argument %v", d)
	}
	return value.Double(math.Log(d)), nil
}

// fnFix truncates toward zero.
func fnFix(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("FIX", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	return value.Double(math.Trunc(d)), nil
}

// fnInt floors (rounds toward negative infinity).
func fnInt(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("INT", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	return value.Double(math.Floor(d)), nil
}

func fnSgn(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("SGN", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	switch {
	case d > 0:
		return value.Long(1), nil
	case d < 0:
		return value.Long(-1), nil
	default:
		return value.Long(0), nil
	}
}

// fnRound implements ROUND(number [, scale]): HALF_EVEN, default scale 0.
func fnRound(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "ROUND", "expected 1 or 2 arguments, got %d", len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	scale := int32(0)
	if len(args) == 2 {
		s, err := args[1].AsLong()
		if err != nil {
			return value.Null, err
		}
		scale = s
	}
	d, err := args[0].AsBigDec()
	if err != nil {
		return value.Null, err
	}
	return value.BigDecVal(d.Round(scale).Normalize()), nil
}

// fnRnd implements RND([number]), delegating to the context's
// RandomContext per spec.md §9.
func fnRnd(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Double(ctx.Random.RndNoArg()), nil
	}
	if len(args) != 1 {
		return value.Null, argErr("RND", 1, len(args))
	}
	d, err := args[0].AsDouble()
	if err != nil {
		return value.Null, err
	}
	return value.Double(ctx.Random.Rnd(d)), nil
}

// --- hex/oct ---

func fnHex(ctx *EvalContext, args []value.Value) (value.Value, error) {
	l, err := requireLong(args, "HEX")
	if err != nil {
		return value.Null, err
	}
	return value.Str(strings.ToUpper(strconv.FormatInt(int64(uint32(l)), 16))), nil
}

func fnOct(ctx *EvalContext, args []value.Value) (value.Value, error) {
	l, err := requireLong(args, "OCT")
	if err != nil {
		return value.Null, err
	}
	return value.Str(strconv.FormatInt(int64(uint32(l)), 8)), nil
}

// --- text ---

func fnLen(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("LEN", 1, len(args))
	}
	if args[0].IsNull() {
		return value.Null, nil
	}
	return value.Long(int32(len(args[0].AsString()))), nil
}

func fnLeft(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, argErr("LEFT", 2, len(args))
	}
	s := args[0].AsString()
	n, err := args[1].AsLong()
	if err != nil {
		return value.Null, err
	}
	if n < 0 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "LEFT", "negative length %d", n)
	}
	if int(n) > len(s) {
		n = int32(len(s))
	}
	return value.Str(s[:n]), nil
}

func fnRight(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, argErr("RIGHT", 2, len(args))
	}
	s := args[0].AsString()
	n, err := args[1].AsLong()
	if err != nil {
		return value.Null, err
	}
	if n < 0 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "RIGHT", "negative length %d", n)
	}
	if int(n) > len(s) {
		n = int32(len(s))
	}
	return value.Str(s[len(s)-int(n):]), nil
}

func fnMid(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "MID", "expected 2 or 3 arguments, got %d", len(args))
	}
	s := args[0].AsString()
	start, err := args[1].AsLong()
	if err != nil {
		return value.Null, err
	}
	if start < 1 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "MID", "start must be >= 1, got %d", start)
	}
	if int(start) > len(s) {
		return value.Str(""), nil
	}
	rest := s[start-1:]
	if len(args) == 2 {
		return value.Str(rest), nil
	}
	length, err := args[2].AsLong()
	if err != nil {
		return value.Null, err
	}
	if length < 0 {
		return value.Null, jeterr.New(jeterr.EvalArgument, "MID", "negative length %d", length)
	}
	if int(length) > len(rest) {
		length = int32(len(rest))
	}
	return value.Str(rest[:length]), nil
}

func fnUCase(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("UCASE", 1, len(args))
	}
	return value.Str(strings.ToUpper(args[0].AsString())), nil
}

func fnLCase(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("LCASE", 1, len(args))
	}
	return value.Str(strings.ToLower(args[0].AsString())), nil
}

func fnTrim(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("TRIM", 1, len(args))
	}
	return value.Str(strings.TrimSpace(args[0].AsString())), nil
}

func fnLTrim(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("LTRIM", 1, len(args))
	}
	return value.Str(strings.TrimLeft(args[0].AsString(), " ")), nil
}

func fnRTrim(ctx *EvalContext, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, argErr("RTRIM", 1, len(args))
	}
	return value.Str(strings.TrimRight(args[0].AsString(), " ")), nil
}
