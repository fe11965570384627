// Package storage implements the on-disk page-usage bitmap (UsageMap)
// and the small set of format/channel primitives it needs.
package storage

// PageNumber identifies a page within a database file. InvalidPage marks
// an unset/sentinel slot, matching jackcess's PageChannel.INVALID_PAGE.
type PageNumber uint32

const InvalidPage PageNumber = 0xFFFFFFFF

// JetFormat carries the layout constants that are specific to a given Jet
// file format version. The usage map and calculated-value codec both
// read format-dependent offsets out of it. Field names and values follow
// jackcess's impl.JetFormat.
type JetFormat struct {
	Name string

	PageSize int

	// UsageMapTableByteLength is the inline bitmap's byte capacity (L),
	// e.g. 512 for the historical Jet formats.
	UsageMapTableByteLength int

	// OffsetUsageMapStart is the byte offset, relative to a usage map's
	// declaration row, where the inline bitmap payload begins: past the
	// 1-byte map type tag and the 4-byte little-endian startPage field.
	OffsetUsageMapStart int
	// OffsetReferenceMapPageNumbers is the byte offset, relative to a
	// usage map's declaration row, where the reference map's pointer
	// table begins: past the 1-byte map type tag and a 4-byte
	// format-private field occupying the same position as inline's
	// startPage.
	OffsetReferenceMapPageNumbers int
	// OffsetUsageMapPageData is the byte offset, within a referenced
	// USAGE_MAP chunk page, where its bitmap payload begins: past that
	// page's own small header (type marker plus reserved bytes).
	OffsetUsageMapPageData int

	MaxNumericPrecision int
	MaxNumericScale     int

	calculatedTypes map[byte]bool
}

// SupportsCalculatedType reports whether a column of the given type code
// may be a calculated column under this format.
func (f *JetFormat) SupportsCalculatedType(typeCode byte) bool {
	return f.calculatedTypes[typeCode]
}

// Version3 through Version16 mirror jackcess's JetFormat.VERSION_3 .. 16
// constants closely enough for this module's purposes: usage-map inline
// capacity and numeric precision/scale ceilings. Byte-level column type
// codes are an external-collaborator concern (table/column marshalling
// is out of scope, see SPEC_FULL.md §1) so calculatedTypes here lists
// the type codes the evaluator itself cares about (numeric/text/temporal
// families), not the full column type catalogue.
var (
	numericAndText = map[byte]bool{
		0x04: true, // LONG
		0x07: true, // DOUBLE
		0x0F: true, // NUMERIC (BIG_DEC)
		0x0A: true, // TEXT
		0x0B: true, // MEMO
		0x08: true, // DATETIME
	}

	// Row-header and page-header layouts are structurally the same
	// across every historical version (only PageSize and
	// UsageMapTableByteLength vary): 1-byte type tag + 4-byte field
	// before the inline payload/pointer table, and a 4-byte chunk-page
	// header before its payload.
	Version3 = &JetFormat{Name: "VERSION_3", PageSize: 2048, UsageMapTableByteLength: 128, OffsetUsageMapStart: 5, OffsetReferenceMapPageNumbers: 5, OffsetUsageMapPageData: 4, MaxNumericPrecision: 28, MaxNumericScale: 28, calculatedTypes: nil}
	Version4 = &JetFormat{Name: "VERSION_4", PageSize: 4096, UsageMapTableByteLength: 512, OffsetUsageMapStart: 5, OffsetReferenceMapPageNumbers: 5, OffsetUsageMapPageData: 4, MaxNumericPrecision: 28, MaxNumericScale: 28, calculatedTypes: nil}

	Version12 = &JetFormat{Name: "VERSION_12", PageSize: 4096, UsageMapTableByteLength: 512, OffsetUsageMapStart: 5, OffsetReferenceMapPageNumbers: 5, OffsetUsageMapPageData: 4, MaxNumericPrecision: 28, MaxNumericScale: 28, calculatedTypes: numericAndText}
	Version14 = &JetFormat{Name: "VERSION_14", PageSize: 4096, UsageMapTableByteLength: 512, OffsetUsageMapStart: 5, OffsetReferenceMapPageNumbers: 5, OffsetUsageMapPageData: 4, MaxNumericPrecision: 28, MaxNumericScale: 28, calculatedTypes: numericAndText}
	Version16 = &JetFormat{Name: "VERSION_16", PageSize: 4096, UsageMapTableByteLength: 512, OffsetUsageMapStart: 5, OffsetReferenceMapPageNumbers: 5, OffsetUsageMapPageData: 4, MaxNumericPrecision: 28, MaxNumericScale: 28, calculatedTypes: numericAndText}
)
