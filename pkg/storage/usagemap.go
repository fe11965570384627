package storage

import (
	"encoding/binary"

	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/jetlog"
	"github.com/jetdb/jetdb/pkg/util"
	"go.uber.org/zap"
)

// mapType is the on-disk discriminant byte of a usage map page, per
// original_source's UsageMap.java.
type mapType byte

const (
	mapTypeInline    mapType = 0x0
	mapTypeReference mapType = 0x1
)

// pageTypeUsageMap marks the first byte of an allocated reference-map
// chunk page. Checked on read so a pointer slot aimed at a page of the
// wrong type surfaces as CorruptState instead of silently misreading
// bitmap bytes as something else.
const pageTypeUsageMap byte = 0x02

// handler implements the representation-specific half of UsageMap: the
// inline bitmap stored on the map's own page, or the paged reference
// bitmap spread across separate chunk pages. UsageMap dispatches to
// whichever handler is currently active and swaps it out on promotion.
type handler interface {
	mapTypeByte() mapType
	containsPageNumber(pn PageNumber) bool
	add(pn PageNumber) error
	remove(pn PageNumber) error
	firstSet() PageNumber
	lastSet() PageNumber
	nextSetAfter(after PageNumber) PageNumber
	prevSetBefore(before PageNumber) PageNumber
	writeRow(format *JetFormat, buf []byte, rowStart int)
}

// UsageMap is a per-table page-usage bitmap: bit i set means page
// (startPage + i) belongs to this map. It transparently migrates between
// a compact inline representation (bits held directly in the map's own
// page, capacity bounded by the format's UsageMapTableByteLength) and a
// reference representation (bits spread across dedicated chunk pages,
// bounded by the declaration row's fixed pointer-slot count) the moment
// the inline window can no longer cover a requested page without losing
// already-set bits. Every mutation is a full read-modify-write of its
// declaration row through the owning PageChannel. Grounded on
// original_source's UsageMap.java in full.
type UsageMap struct {
	format  *JetFormat
	channel PageChannel
	ownPage PageNumber
	rowStart int

	h        handler
	modCount int

	owner util.OwnerAssert
}

// NewInlineUsageMap creates a fresh map in the inline representation,
// with its window starting at startPage, and writes its declaration row
// to ownPage. assumeOutOfRangeBitsOn selects free-space-map semantics
// (pages outside the window read as already present).
func NewInlineUsageMap(format *JetFormat, channel PageChannel, ownPage PageNumber, rowStart int, startPage PageNumber, assumeOutOfRangeBitsOn bool) (*UsageMap, error) {
	m := &UsageMap{
		format:   format,
		channel:  channel,
		ownPage:  ownPage,
		rowStart: rowStart,
		h:        newInlineHandler(format, startPage, assumeOutOfRangeBitsOn),
	}
	if err := m.persist(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadUsageMap constructs a UsageMap by reading its host page through
// channel, locating the declaration row at rowStart, reading the 1-byte
// type tag, and building the matching handler from the on-disk bytes:
// an inline map's startPage and payload bytes, or a reference map's
// pointer slot table plus every allocated chunk page it points to.
// Grounded on original_source's UsageMap.read()/initHandler()/
// InlineHandler constructor/ReferenceHandler constructor.
func ReadUsageMap(format *JetFormat, channel PageChannel, ownPage PageNumber, rowStart int, assumeOutOfRangeBitsOn bool) (*UsageMap, error) {
	buf := channel.CreatePageBuffer()
	if err := channel.ReadPage(buf, ownPage); err != nil {
		return nil, jeterr.Wrap(jeterr.IOFailure, "ReadUsageMap", err, "page %d", ownPage)
	}
	m := &UsageMap{format: format, channel: channel, ownPage: ownPage, rowStart: rowStart}

	switch mapType(buf[rowStart]) {
	case mapTypeInline:
		start := PageNumber(binary.LittleEndian.Uint32(buf[rowStart+1 : rowStart+5]))
		ih := newInlineHandler(format, start, assumeOutOfRangeBitsOn)
		payloadOff := rowStart + format.OffsetUsageMapStart
		ih.bits.SetBytes(buf[payloadOff : payloadOff+format.UsageMapTableByteLength])
		m.h = ih

	case mapTypeReference:
		rh := newReferenceHandler(format, channel)
		off := rowStart + format.OffsetReferenceMapPageNumbers
		for slot := range rh.slots {
			pn := PageNumber(binary.LittleEndian.Uint32(buf[off : off+4]))
			off += 4
			if pn == 0 {
				continue
			}
			rh.slots[slot] = pn
			cbuf := channel.CreatePageBuffer()
			if err := channel.ReadPage(cbuf, pn); err != nil {
				return nil, jeterr.Wrap(jeterr.IOFailure, "ReadUsageMap", err, "chunk page %d", pn)
			}
			if cbuf[0] != pageTypeUsageMap {
				return nil, jeterr.New(jeterr.CorruptState, "ReadUsageMap", "chunk page %d has wrong page type marker 0x%02x", pn, cbuf[0])
			}
			bits := NewBitset(rh.pagesPerChunk)
			bits.SetBytes(cbuf[format.OffsetUsageMapPageData:])
			rh.chunks[slot] = bits
		}
		m.h = rh

	default:
		return nil, jeterr.New(jeterr.CorruptState, "ReadUsageMap", "unknown map type byte 0x%02x at page %d row %d", buf[rowStart], ownPage, rowStart)
	}
	return m, nil
}

// persist flushes the declaration row's current bytes back through the
// owning channel: read the host page, rewrite the row, write it back.
func (m *UsageMap) persist() error {
	buf := m.channel.CreatePageBuffer()
	if err := m.channel.ReadPage(buf, m.ownPage); err != nil {
		return jeterr.Wrap(jeterr.IOFailure, "UsageMap.persist", err, "page %d", m.ownPage)
	}
	m.h.writeRow(m.format, buf, m.rowStart)
	if err := m.channel.WritePage(buf, m.ownPage); err != nil {
		return jeterr.Wrap(jeterr.IOFailure, "UsageMap.persist", err, "page %d", m.ownPage)
	}
	return nil
}

func (m *UsageMap) MapType() byte { return byte(m.h.mapTypeByte()) }

func (m *UsageMap) ModCount() int { return m.modCount }

func (m *UsageMap) ContainsPageNumber(pn PageNumber) bool {
	m.owner.Touch()
	return m.h.containsPageNumber(pn)
}

// AddPageNumber marks pn as used. Adding an already-set page is a
// CorruptState error (jackcess's double-add detection in updateMap).
func (m *UsageMap) AddPageNumber(pn PageNumber) error {
	m.owner.Touch()
	if err := m.h.add(pn); err != nil {
		if ih, ok := m.h.(*inlineHandler); ok && isNeedsPromotion(err) {
			rh, perr := promoteToReference(m.format, m.channel, ih)
			if perr != nil {
				jetlog.Error("usage map promotion failed", zap.Uint32("page", uint32(pn)), zap.Error(perr))
				return handlerErr("UsageMap.AddPageNumber", pn, perr)
			}
			if err2 := rh.add(pn); err2 != nil {
				jetlog.Error("usage map add failed after promotion", zap.Uint32("page", uint32(pn)), zap.Error(err2))
				return handlerErr("UsageMap.AddPageNumber", pn, err2)
			}
			m.h = rh
			m.modCount++
			return m.persist()
		}
		jetlog.Error("usage map add failed", zap.Uint32("page", uint32(pn)), zap.Error(err))
		return handlerErr("UsageMap.AddPageNumber", pn, err)
	}
	m.modCount++
	return m.persist()
}

// RemovePageNumber unmarks pn. Removing a not-set page is a CorruptState
// error (jackcess's double-remove detection).
func (m *UsageMap) RemovePageNumber(pn PageNumber) error {
	m.owner.Touch()
	if err := m.h.remove(pn); err != nil {
		jetlog.Error("usage map remove failed", zap.Uint32("page", uint32(pn)), zap.Error(err))
		return handlerErr("UsageMap.RemovePageNumber", pn, err)
	}
	m.modCount++
	return m.persist()
}

// handlerErr passes a handler's own *jeterr.Error through unchanged
// (CorruptState, OutOfRange) and only wraps anything else (a raw
// PageChannel I/O error) as IOFailure.
func handlerErr(op string, pn PageNumber, err error) error {
	if je, ok := err.(*jeterr.Error); ok {
		return je
	}
	return jeterr.Wrap(jeterr.IOFailure, op, err, "page %d", pn)
}

type needsPromotionError struct{ cause error }

func (e *needsPromotionError) Error() string { return "inline window cannot cover page without data loss" }
func (e *needsPromotionError) Unwrap() error { return e.cause }

func isNeedsPromotion(err error) bool {
	_, ok := err.(*needsPromotionError)
	return ok
}

// PageIterator walks a UsageMap's set bits in one direction. It is stable
// under concurrent mutation of the map because it always re-derives the
// next result from the last page number it actually returned, rather
// than a cached index into the bit set — so a shift, promotion, add or
// remove between calls can neither skip nor repeat a page, it can only
// change what the *next* search finds. Grounded on original_source's
// ForwardPageIterator/ReversePageIterator, which key off
// _nextPageNumber/_prevPageNumber and _lastModCount rather than a raw
// array index for the same reason.
type PageIterator struct {
	m       *UsageMap
	forward bool

	started  bool
	lastPage PageNumber
}

func (m *UsageMap) Forward() *PageIterator { return &PageIterator{m: m, forward: true} }
func (m *UsageMap) Reverse() *PageIterator { return &PageIterator{m: m, forward: false} }

// Next returns the next page number in the iterator's direction, and
// false once the map is exhausted.
func (it *PageIterator) Next() (PageNumber, bool) {
	var pn PageNumber
	if !it.started {
		it.started = true
		if it.forward {
			pn = it.m.h.firstSet()
		} else {
			pn = it.m.h.lastSet()
		}
	} else {
		if it.forward {
			pn = it.m.h.nextSetAfter(it.lastPage)
		} else {
			pn = it.m.h.prevSetBefore(it.lastPage)
		}
	}
	if pn == InvalidPage {
		return InvalidPage, false
	}
	it.lastPage = pn
	return pn, true
}
