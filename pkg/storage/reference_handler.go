package storage

import (
	"encoding/binary"

	"github.com/jetdb/jetdb/pkg/jeterr"
)

// referenceHandler is the paged representation: a fixed declaration row
// of N = L/4+1 pointer slots (one little-endian page number each, 0
// meaning "no chunk allocated yet"), every slot covering a fixed run of
// M = (PageSize - OffsetUsageMapPageData) * 8 table pages. Total
// capacity is N*M pages; a page number past that raises OutOfRange, the
// same way a page number past a table's declared extent would.
// Grounded on original_source's UsageMap.ReferenceHandler.
type referenceHandler struct {
	format  *JetFormat
	channel PageChannel

	pagesPerChunk int             // M
	slots         []PageNumber    // len N; InvalidPage = unallocated
	chunks        map[int]*Bitset // loaded/created bitmap per slot index
}

func referenceSlotCount(format *JetFormat) int {
	return format.UsageMapTableByteLength/4 + 1
}

func referencePagesPerChunk(format *JetFormat) int {
	return (format.PageSize - format.OffsetUsageMapPageData) * 8
}

func newReferenceHandler(format *JetFormat, channel PageChannel) *referenceHandler {
	n := referenceSlotCount(format)
	slots := make([]PageNumber, n)
	for i := range slots {
		slots[i] = InvalidPage
	}
	return &referenceHandler{
		format:        format,
		channel:       channel,
		pagesPerChunk: referencePagesPerChunk(format),
		slots:         slots,
		chunks:        make(map[int]*Bitset),
	}
}

func (h *referenceHandler) mapTypeByte() mapType { return mapTypeReference }

// locate maps an absolute page number to its pointer slot and the bit
// offset within that slot's chunk, or OutOfRange if pn falls past the
// map's total declared capacity (N*M).
func (h *referenceHandler) locate(pn PageNumber) (slot, off int, err error) {
	slot = int(pn) / h.pagesPerChunk
	if slot < 0 || slot >= len(h.slots) {
		return 0, 0, jeterr.New(jeterr.OutOfRange, "referenceHandler", "page %d outside reference map capacity (%d slots of %d pages)", pn, len(h.slots), h.pagesPerChunk)
	}
	return slot, int(pn) % h.pagesPerChunk, nil
}

func (h *referenceHandler) containsPageNumber(pn PageNumber) bool {
	slot, off, err := h.locate(pn)
	if err != nil {
		return false
	}
	bits := h.chunks[slot]
	if bits == nil {
		return false
	}
	return bits.Get(off)
}

// chunkBits returns the bit set backing slot, allocating a fresh chunk
// page through the channel the first time the slot is used.
func (h *referenceHandler) chunkBits(slot int) (*Bitset, error) {
	if bits, ok := h.chunks[slot]; ok {
		return bits, nil
	}
	if h.slots[slot] == InvalidPage {
		pageNum, err := h.channel.AllocateNewPage()
		if err != nil {
			return nil, err
		}
		buf := h.channel.CreatePageBuffer()
		buf[0] = pageTypeUsageMap
		if err := h.channel.WritePage(buf, pageNum); err != nil {
			return nil, err
		}
		h.slots[slot] = pageNum
	}
	bits := NewBitset(h.pagesPerChunk)
	h.chunks[slot] = bits
	return bits, nil
}

func (h *referenceHandler) flushChunk(slot int) error {
	buf := h.channel.CreatePageBuffer()
	buf[0] = pageTypeUsageMap
	copy(buf[h.format.OffsetUsageMapPageData:], h.chunks[slot].Bytes())
	return h.channel.WritePage(buf, h.slots[slot])
}

func (h *referenceHandler) add(pn PageNumber) error {
	slot, off, err := h.locate(pn)
	if err != nil {
		return err
	}
	bits, err := h.chunkBits(slot)
	if err != nil {
		return err
	}
	if bits.Get(off) {
		return jeterr.New(jeterr.CorruptState, "referenceHandler.add", "page %d already added to usage map", pn)
	}
	bits.Set(off, true)
	return h.flushChunk(slot)
}

func (h *referenceHandler) remove(pn PageNumber) error {
	slot, off, err := h.locate(pn)
	if err != nil {
		return err
	}
	bits := h.chunks[slot]
	if bits == nil || !bits.Get(off) {
		return jeterr.New(jeterr.CorruptState, "referenceHandler.remove", "page %d already removed from usage map", pn)
	}
	bits.Set(off, false)
	return h.flushChunk(slot)
}

// writeRow serializes the map type tag and the pointer slot table into
// buf at rowStart. Unallocated slots write 0, not InvalidPage's sentinel
// value, matching the on-disk "no chunk yet" marker.
func (h *referenceHandler) writeRow(format *JetFormat, buf []byte, rowStart int) {
	buf[rowStart] = byte(mapTypeReference)
	off := rowStart + format.OffsetReferenceMapPageNumbers
	for _, pn := range h.slots {
		v := uint32(pn)
		if pn == InvalidPage {
			v = 0
		}
		binary.LittleEndian.PutUint32(buf[off:off+4], v)
		off += 4
	}
}

func (h *referenceHandler) firstSet() PageNumber {
	for slot := 0; slot < len(h.slots); slot++ {
		bits := h.chunks[slot]
		if bits == nil {
			continue
		}
		if i := bits.NextSet(0); i >= 0 {
			return PageNumber(slot*h.pagesPerChunk + i)
		}
	}
	return InvalidPage
}

func (h *referenceHandler) lastSet() PageNumber {
	for slot := len(h.slots) - 1; slot >= 0; slot-- {
		bits := h.chunks[slot]
		if bits == nil {
			continue
		}
		if i := bits.PrevSet(bits.Len() - 1); i >= 0 {
			return PageNumber(slot*h.pagesPerChunk + i)
		}
	}
	return InvalidPage
}

func (h *referenceHandler) nextSetAfter(after PageNumber) PageNumber {
	startSlot, startOff := 0, 0
	if after != InvalidPage {
		startSlot = int(after) / h.pagesPerChunk
		startOff = int(after)%h.pagesPerChunk + 1
	}
	for slot := startSlot; slot < len(h.slots); slot++ {
		bits := h.chunks[slot]
		if bits == nil {
			startOff = 0
			continue
		}
		from := 0
		if slot == startSlot {
			from = startOff
		}
		if i := bits.NextSet(from); i >= 0 {
			return PageNumber(slot*h.pagesPerChunk + i)
		}
		startOff = 0
	}
	return InvalidPage
}

func (h *referenceHandler) prevSetBefore(before PageNumber) PageNumber {
	bSlot := int(before) / h.pagesPerChunk
	bOff := int(before) % h.pagesPerChunk
	if bSlot >= len(h.slots) {
		bSlot = len(h.slots) - 1
		bOff = h.pagesPerChunk
	}
	for slot := bSlot; slot >= 0; slot-- {
		bits := h.chunks[slot]
		if bits == nil {
			continue
		}
		to := h.pagesPerChunk - 1
		if slot == bSlot {
			to = bOff - 1
		}
		if to < 0 {
			continue
		}
		if i := bits.PrevSet(to); i >= 0 {
			return PageNumber(slot*h.pagesPerChunk + i)
		}
	}
	return InvalidPage
}

// promoteToReference converts an inlineHandler's bits into a
// referenceHandler, preserving every currently-set page. Grounded on
// original_source's promoteInlineHandlerToReferenceHandler.
func promoteToReference(format *JetFormat, channel PageChannel, ih *inlineHandler) (*referenceHandler, error) {
	rh := newReferenceHandler(format, channel)
	for i := 0; i < ih.capacity; i++ {
		if !ih.bits.Get(i) {
			continue
		}
		if err := rh.add(ih.start + PageNumber(i)); err != nil {
			return nil, err
		}
	}
	return rh, nil
}
