package calc

import (
	"encoding/binary"
	"math/big"

	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/value"
)

// mantissaWidth is the fixed width of the big-endian magnitude, wide
// enough for the 28-digit precision ceiling the evaluator allows
// (10^28 needs 94 bits; 16 bytes gives 128 bits of headroom).
const mantissaWidth = 16

// numericDataLen is the total size of a wrapped NUMERIC payload: int16
// totalLen + byte scale + byte signByte + the mantissa.
const numericDataLen = 2 + 1 + 1 + mantissaWidth

// signByteNegative is the wrapper's sign flag for a negative NUMERIC;
// positive values carry 0x00.
const signByteNegative = 0x80

// WriteCalcNumericValue encodes a BigDec the way
// CalculatedColumnUtil.CalcNumericColImpl.writeCalcNumericValue does:
// int16 total length (little-endian, bytes remaining in this field minus
// 2), scale byte, sign byte, big-endian mantissa, then the non-standard
// fixNumericByteOrder swap applied to the mantissa only.
func WriteCalcNumericValue(dec *value.BigDec) ([]byte, error) {
	mag := dec.UnscaledMagnitude().Bytes()
	if len(mag) > mantissaWidth {
		return nil, jeterr.New(jeterr.Arithmetic, "calc.WriteCalcNumericValue", "magnitude too wide: %d bytes", len(mag))
	}
	buf := make([]byte, numericDataLen)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(numericDataLen-2))
	buf[2] = byte(dec.Scale())
	if dec.Signum() < 0 {
		buf[3] = signByteNegative
	}
	copy(buf[4+mantissaWidth-len(mag):], mag)
	fixNumericByteOrder(buf[4:])
	return buf, nil
}

// ReadCalcNumericValue decodes bytes written by WriteCalcNumericValue.
func ReadCalcNumericValue(data []byte) (*value.BigDec, error) {
	if len(data) != numericDataLen {
		return nil, jeterr.New(jeterr.CorruptState, "calc.ReadCalcNumericValue", "expected %d bytes, got %d", numericDataLen, len(data))
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	fixNumericByteOrder(buf[4:])

	scale := int32(buf[2])
	neg := buf[3] != 0
	mag := new(big.Int).SetBytes(buf[4:])
	return value.FromParts(neg, mag, scale), nil
}

// fixNumericByteOrder applies the wrapper's non-standard byte-swap to the
// mantissa bytes only (totalLen/scale/signByte are untouched): if the
// mantissa's length isn't a multiple of 8, its first 4 bytes are
// reversed as a group, then every following 8-byte group is reversed.
// The operation is its own inverse given the same buffer length, which
// is what lets ReadCalcNumericValue reuse it unchanged to undo
// WriteCalcNumericValue's swap.
func fixNumericByteOrder(buf []byte) {
	idx := 0
	if len(buf)%8 != 0 {
		reverse(buf[idx : idx+4])
		idx += 4
	}
	for idx+8 <= len(buf) {
		reverse(buf[idx : idx+8])
		idx += 8
	}
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
