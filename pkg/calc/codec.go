// Package calc implements the on-disk wrapper format for calculated
// column values: a fixed 20-byte header, the actual column bytes, and
// padding out to 23 bytes of total overhead. Grounded on
// original_source's CalculatedColumnUtil.java in full.
package calc

import (
	"encoding/binary"

	"github.com/jetdb/jetdb/pkg/jeterr"
)

const (
	// headerLen is the size of the opaque prefix the wrapper never
	// interprets (CALC_DATA_LEN_OFFSET in the Java source).
	headerLen = 16
	// dataLenOffset is where the little-endian uint32 payload length
	// sits, immediately after the opaque prefix.
	dataLenOffset = 16
	// dataOffset is where the wrapped payload begins (CALC_DATA_OFFSET).
	dataOffset = 20
	// extraLen is the total wrapper overhead: header + length field +
	// trailing padding (CALC_EXTRA_DATA_LEN).
	extraLen = 23
)

// Wrap builds the on-disk bytes for a calculated value: prefix (caller
// supplied, typically zero on fresh construction per DESIGN.md's Open
// Question resolution), the little-endian payload length, the payload
// itself, and zero padding so the total overhead is exactly extraLen
// bytes regardless of payload length.
func Wrap(prefix [headerLen]byte, payload []byte) []byte {
	out := make([]byte, dataOffset+len(payload)+(extraLen-headerLen-4))
	copy(out, prefix[:])
	binary.LittleEndian.PutUint32(out[dataLenOffset:], uint32(len(payload)))
	copy(out[dataOffset:], payload)
	return out
}

// Unwrap extracts the payload and the opaque prefix from wrapped bytes.
func Unwrap(wrapped []byte) (prefix [headerLen]byte, payload []byte, err error) {
	if len(wrapped) < dataOffset {
		return prefix, nil, jeterr.New(jeterr.CorruptState, "calc.Unwrap", "wrapped value too short: %d bytes", len(wrapped))
	}
	copy(prefix[:], wrapped[:headerLen])
	dataLen := binary.LittleEndian.Uint32(wrapped[dataLenOffset:])
	end := dataOffset + int(dataLen)
	if end > len(wrapped) {
		return prefix, nil, jeterr.New(jeterr.CorruptState, "calc.Unwrap", "declared data length %d exceeds wrapped size %d", dataLen, len(wrapped))
	}
	payload = make([]byte, dataLen)
	copy(payload, wrapped[dataOffset:end])
	return prefix, payload, nil
}

// WrapBoolean encodes a calculated BOOLEAN: per jackcess's
// CalcBooleanColImpl, booleans are not stored in the row's null mask at
// all, so the wrapper byte itself (0xFF true, 0x00 false) is the entire
// signal, with no length-prefixed payload section used.
func WrapBoolean(b bool) byte {
	if b {
		return 0xFF
	}
	return 0x00
}

func UnwrapBoolean(b byte) bool {
	return b != 0x00
}
