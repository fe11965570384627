package storage

import (
	"encoding/binary"

	"github.com/jetdb/jetdb/pkg/jeterr"
)

// inlineHandler stores bits directly in the map's own page: bit i means
// page (start + PageNumber(i)) is used. Capacity is fixed at
// format.UsageMapTableByteLength * 8 bits; a page outside [start,
// start+capacity) requires either shifting the window (if no bit that
// would be dropped is set) or promoting to a referenceHandler (if the
// shift would lose information).
//
// assumeOutOfRangeBitsOn is the free-space-map mode: a page outside the
// window is treated as already-in-the-map rather than not-in-the-map,
// which changes both the contains query and the add/remove out-of-range
// branches below. Grounded on original_source's UsageMap.InlineHandler,
// in particular addOrRemovePageNumber, moveToNewStartPage and
// moveToNewStartPageForRemove.
type inlineHandler struct {
	start    PageNumber
	capacity int
	bits     *Bitset

	assumeOutOfRangeBitsOn bool
}

func newInlineHandler(format *JetFormat, start PageNumber, assumeOutOfRangeBitsOn bool) *inlineHandler {
	capacity := format.UsageMapTableByteLength * 8
	return &inlineHandler{start: start, capacity: capacity, bits: NewBitset(capacity), assumeOutOfRangeBitsOn: assumeOutOfRangeBitsOn}
}

func (h *inlineHandler) mapTypeByte() mapType { return mapTypeInline }

func (h *inlineHandler) inWindow(pn PageNumber) (int, bool) {
	if pn < h.start {
		return 0, false
	}
	off := int(pn - h.start)
	if off >= h.capacity {
		return 0, false
	}
	return off, true
}

func (h *inlineHandler) containsPageNumber(pn PageNumber) bool {
	off, ok := h.inWindow(pn)
	if !ok {
		return h.assumeOutOfRangeBitsOn
	}
	return h.bits.Get(off)
}

// add sets the bit for pn. Within the window this is a direct bit flip
// (double-add is a CorruptState error, mirroring updateMap's isOn==add
// check). Outside the window: if assumeOutOfRangeBitsOn, the page is
// already implicitly on, so the add is a no-op that leaves a small hole
// rather than shifting; otherwise add tries a lossless window shift
// before giving up and asking the caller to promote. The shift decision
// only looks at the width of the tentative [min,max] range, so it is
// symmetric for pages before or after the current window.
func (h *inlineHandler) add(pn PageNumber) error {
	if off, ok := h.inWindow(pn); ok {
		if h.bits.Get(off) {
			return jeterr.New(jeterr.CorruptState, "inlineHandler.add", "page %d already added to usage map", pn)
		}
		h.bits.Set(off, true)
		return nil
	}
	if h.assumeOutOfRangeBitsOn {
		return nil
	}
	first, last := h.firstSet(), h.lastSet()
	switch {
	case first == InvalidPage:
		first, last = pn, pn
	case pn > last:
		last = pn
	default:
		first = pn
	}
	if int(last-first)+1 < h.capacity {
		h.moveToNewStartPage(first, pn)
		return nil
	}
	return &needsPromotionError{}
}

// remove clears the bit for pn. Outside the window, the only legal case
// is assumeOutOfRangeBitsOn: a page at or before the last tracked page
// is silently ignored (we don't go back for it), a page past it shifts
// the window forward, filling every newly-covered page in as "on" before
// removing the one actually being asked for.
func (h *inlineHandler) remove(pn PageNumber) error {
	if off, ok := h.inWindow(pn); ok {
		if !h.bits.Get(off) {
			return jeterr.New(jeterr.CorruptState, "inlineHandler.remove", "page %d already removed from usage map", pn)
		}
		h.bits.Set(off, false)
		return nil
	}
	if !h.assumeOutOfRangeBitsOn {
		return jeterr.New(jeterr.CorruptState, "inlineHandler.remove", "page %d already removed from usage map", pn)
	}
	first, last := h.firstSet(), h.lastSet()
	if first == InvalidPage || pn > last {
		h.moveToNewStartPageForRemove(first, last, pn)
	}
	return nil
}

// moveToNewStartPage shifts the window to start at newStart, preserving
// every currently-set page that still fits and optionally setting
// newPageNumber (pass InvalidPage to skip).
func (h *inlineHandler) moveToNewStartPage(newStart, newPageNumber PageNumber) {
	oldStart, oldBits := h.start, h.bits
	h.start = newStart
	h.bits = NewBitset(h.capacity)
	for i := 0; i < oldBits.Len(); i++ {
		if !oldBits.Get(i) {
			continue
		}
		if off, ok := h.inWindow(oldStart + PageNumber(i)); ok {
			h.bits.Set(off, true)
		}
	}
	if newPageNumber != InvalidPage {
		if off, ok := h.inWindow(newPageNumber); ok {
			h.bits.Set(off, true)
		}
	}
}

// moveToNewStartPageForRemove shifts the window so it can hold
// newPageNumber, filling every page between the old tracked range and
// the new window in as "on" (since assumeOutOfRangeBitsOn means anything
// not explicitly tracked yet is assumed used), then removes
// newPageNumber itself.
func (h *inlineHandler) moveToNewStartPageForRemove(firstPage, lastPage, newPageNumber PageNumber) {
	newStart := firstPage
	if firstPage == InvalidPage {
		newStart = newPageNumber
	} else if int(newPageNumber-newStart)+1 >= h.capacity {
		newStart += PageNumber(int(newPageNumber) - h.capacity + 1)
	}
	h.moveToNewStartPage(newStart, InvalidPage)

	if firstPage == InvalidPage {
		// common case: nothing was tracked before, so the whole new
		// window is implicitly on.
		for i := 0; i < h.capacity; i++ {
			h.bits.Set(i, true)
		}
	} else {
		for pn := lastPage + 1; pn < h.start+PageNumber(h.capacity); pn++ {
			if off, ok := h.inWindow(pn); ok {
				h.bits.Set(off, true)
			}
		}
	}
	if off, ok := h.inWindow(newPageNumber); ok {
		h.bits.Set(off, false)
	}
}

// writeRow serializes the map type tag, startPage and inline payload
// into buf at rowStart, per the host row layout described in
// spec.md/SPEC_FULL.md §6.
func (h *inlineHandler) writeRow(format *JetFormat, buf []byte, rowStart int) {
	buf[rowStart] = byte(mapTypeInline)
	binary.LittleEndian.PutUint32(buf[rowStart+1:rowStart+5], uint32(h.start))
	payloadOff := rowStart + format.OffsetUsageMapStart
	copy(buf[payloadOff:payloadOff+format.UsageMapTableByteLength], h.bits.Bytes())
}

func (h *inlineHandler) firstSet() PageNumber {
	i := h.bits.NextSet(0)
	if i < 0 {
		return InvalidPage
	}
	return h.start + PageNumber(i)
}

func (h *inlineHandler) lastSet() PageNumber {
	i := h.bits.PrevSet(h.capacity - 1)
	if i < 0 {
		return InvalidPage
	}
	return h.start + PageNumber(i)
}

func (h *inlineHandler) nextSetAfter(after PageNumber) PageNumber {
	off, ok := h.inWindow(after)
	from := 0
	if ok {
		from = off + 1
	} else if after >= h.start {
		return InvalidPage
	}
	i := h.bits.NextSet(from)
	if i < 0 {
		return InvalidPage
	}
	return h.start + PageNumber(i)
}

func (h *inlineHandler) prevSetBefore(before PageNumber) PageNumber {
	off, ok := h.inWindow(before)
	from := h.capacity - 1
	if ok {
		from = off - 1
	} else if before < h.start {
		return InvalidPage
	}
	if from < 0 {
		return InvalidPage
	}
	i := h.bits.PrevSet(from)
	if i < 0 {
		return InvalidPage
	}
	return h.start + PageNumber(i)
}
