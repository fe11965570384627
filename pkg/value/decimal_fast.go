package value

import (
	govdecimal "github.com/govalues/decimal"

	"github.com/jetdb/jetdb/pkg/jeterr"
)

// CurrencyScale is the fixed scale VBA's Currency type (and the CCur
// conversion function) round to.
const CurrencyScale = 4

// RoundCurrency rounds v to CurrencyScale digits HALF_EVEN. Currency
// values never need more than 19 significant digits in practice (a
// 64-bit-money-ish domain), so this path goes through govalues/decimal's
// fast fixed-precision arithmetic instead of the arbitrary-precision
// BigDec core, keeping the pack's own decimal library genuinely
// exercised rather than displaced entirely by math/big.
func RoundCurrency(v float64) (*BigDec, error) {
	d, err := govdecimal.NewFromFloat64(v)
	if err != nil {
		return nil, jeterr.Wrap(jeterr.TypeError, "RoundCurrency", err, "cannot convert %v to currency", v)
	}
	d = d.Round(CurrencyScale)
	return ParseBigDec(d.String())
}

// FastFloat64ToBigDec converts a double through govalues/decimal's
// shortest round-tripping decimal representation, for the common case
// where the result comfortably fits in 19 significant digits (the
// overwhelming majority of DOUBLE-typed expression results). Callers
// needing the full 28-digit BIG_DEC precision ladder (division results,
// explicit CDec conversions of large literals) use NewFromFloat64
// instead, which goes straight through strconv without govalues'
// precision ceiling.
func FastFloat64ToBigDec(v float64) (*BigDec, error) {
	d, err := govdecimal.NewFromFloat64(v)
	if err != nil {
		return nil, jeterr.Wrap(jeterr.TypeError, "FastFloat64ToBigDec", err, "cannot convert %v", v)
	}
	return ParseBigDec(d.String())
}
