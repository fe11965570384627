package storage

import (
	"errors"
	"testing"

	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/util"
	"github.com/stretchr/testify/require"
)

func smallFormat() *JetFormat {
	// A tiny UsageMapTableByteLength (4 bytes = 32 bits) keeps the
	// boundary-crossing scenarios below exercisable without allocating
	// thousands of pages.
	f := *Version4
	f.UsageMapTableByteLength = 4
	return &f
}

// refFormat keeps Version4's real PageSize/OffsetUsageMapPageData (so a
// chunk page's payload capacity is the realistic ~32700 pages) but
// shrinks UsageMapTableByteLength to 8 bytes, giving a reference map
// only 3 pointer slots (8/4+1) and a small enough total capacity
// (3 * ~32736 pages) to exercise the OutOfRange boundary in a test.
func refFormat() *JetFormat {
	f := *Version4
	f.UsageMapTableByteLength = 8
	return &f
}

func mustInlineMap(t *testing.T, format *JetFormat, ch *MemPageChannel, startPage PageNumber, assumeOutOfRangeBitsOn bool) *UsageMap {
	t.Helper()
	ownPage, err := ch.AllocateNewPage()
	require.NoError(t, err)
	m, err := NewInlineUsageMap(format, ch, ownPage, 0, startPage, assumeOutOfRangeBitsOn)
	require.NoError(t, err)
	return m
}

func TestInlineAddAndContains(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, false)

	require.NoError(t, m.AddPageNumber(10))
	require.NoError(t, m.AddPageNumber(15))
	require.True(t, m.ContainsPageNumber(10))
	require.True(t, m.ContainsPageNumber(15))
	require.False(t, m.ContainsPageNumber(11))
	require.Equal(t, byte(mapTypeInline), m.MapType())
}

func TestInlineDoubleAddIsCorruptState(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, false)
	require.NoError(t, m.AddPageNumber(10))
	err := m.AddPageNumber(10)
	require.Error(t, err)
}

func TestInlineDoubleRemoveIsCorruptState(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, false)
	require.NoError(t, m.AddPageNumber(10))
	require.NoError(t, m.RemovePageNumber(10))
	err := m.RemovePageNumber(10)
	require.Error(t, err)
}

// TestInlineShiftsWindowWhenLossless covers the forward boundary-crossing
// case: capacity is 32 bits starting at page 10 (covers [10,42)); adding
// page 42 is past the window, but since no low bits are set yet, the
// window shifts forward losslessly instead of promoting.
func TestInlineShiftsWindowWhenLossless(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, false)

	require.NoError(t, m.AddPageNumber(42))
	require.Equal(t, byte(mapTypeInline), m.MapType())
	require.True(t, m.ContainsPageNumber(42))
}

// TestInlineBackwardAddShiftsInsteadOfPromoting mirrors the forward case
// but below the window: [10,42) with only page 10 set, adding page 5
// gives a tentative range [5,10] of width 6, well under capacity, so the
// window shifts backward instead of promoting.
func TestInlineBackwardAddShiftsInsteadOfPromoting(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, false)

	require.NoError(t, m.AddPageNumber(10))
	require.NoError(t, m.AddPageNumber(5))

	require.Equal(t, byte(mapTypeInline), m.MapType())
	require.True(t, m.ContainsPageNumber(5))
	require.True(t, m.ContainsPageNumber(10))
}

// TestInlinePromotesWhenShiftWouldLoseBits covers the promotion path:
// once a low bit is occupied, a page far enough outside the window
// cannot be reached by a lossless shift, so the map converts to the
// reference representation while preserving the already-set page.
func TestInlinePromotesWhenShiftWouldLoseBits(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, false)

	require.NoError(t, m.AddPageNumber(10)) // occupies the window's first bit
	require.NoError(t, m.AddPageNumber(1000))

	require.Equal(t, byte(mapTypeReference), m.MapType())
	require.True(t, m.ContainsPageNumber(10))
	require.True(t, m.ContainsPageNumber(1000))
}

// TestInlineAssumeOutOfRangeBitsOnContainsEverythingOutside covers the
// free-space-map mode's defining invariant: every page outside the
// window reads as present, only pages inside the window reflect the
// actual bit state.
func TestInlineAssumeOutOfRangeBitsOnContainsEverythingOutside(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, true)

	require.True(t, m.ContainsPageNumber(0))
	require.True(t, m.ContainsPageNumber(9))
	require.True(t, m.ContainsPageNumber(42))
	require.True(t, m.ContainsPageNumber(1000))
	require.False(t, m.ContainsPageNumber(10)) // in window, not yet added
}

func TestInlineAssumeOutOfRangeBitsOnAddOutsideIsNoOp(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, true)

	require.NoError(t, m.AddPageNumber(1000))
	require.Equal(t, byte(mapTypeInline), m.MapType())
	require.True(t, m.ContainsPageNumber(1000))
}

// TestInlineAssumeOutOfRangeBitsOnRemoveShiftsAndFills covers
// moveToNewStartPageForRemove: removing a page past the (empty) window
// shifts the window there and marks the rest of the new window "on",
// since anything not yet explicitly tracked is assumed used.
func TestInlineAssumeOutOfRangeBitsOnRemoveShiftsAndFills(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, true)

	require.NoError(t, m.RemovePageNumber(50))
	require.Equal(t, byte(mapTypeInline), m.MapType())
	require.False(t, m.ContainsPageNumber(50))
	require.True(t, m.ContainsPageNumber(51))
	require.True(t, m.ContainsPageNumber(81)) // last page of the new [50,82) window
	require.True(t, m.ContainsPageNumber(200))
}

func TestReferenceGrowsChunksAcrossSlots(t *testing.T) {
	format := refFormat()
	ch := NewMemPageChannel(format)
	rh := newReferenceHandler(format, ch)

	require.NoError(t, rh.add(0))
	require.NoError(t, rh.add(PageNumber(2*rh.pagesPerChunk+10)))
	require.NoError(t, rh.add(PageNumber(rh.pagesPerChunk+50)))

	require.True(t, rh.containsPageNumber(0))
	require.True(t, rh.containsPageNumber(PageNumber(rh.pagesPerChunk+50)))
	require.True(t, rh.containsPageNumber(PageNumber(2*rh.pagesPerChunk+10)))
	require.False(t, rh.containsPageNumber(1))

	require.NotEqual(t, InvalidPage, rh.slots[0])
	require.NotEqual(t, InvalidPage, rh.slots[1])
	require.NotEqual(t, InvalidPage, rh.slots[2])
}

func TestReferenceAddPastCapacityIsOutOfRange(t *testing.T) {
	format := refFormat()
	ch := NewMemPageChannel(format)
	rh := newReferenceHandler(format, ch)

	err := rh.add(PageNumber(len(rh.slots) * rh.pagesPerChunk))
	require.Error(t, err)
	var je *jeterr.Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, jeterr.OutOfRange, je.Kind)
}

// TestAddPastReferenceCapacityIsOutOfRange drives the same boundary
// through the public UsageMap surface: a page far enough out to force
// promotion, followed by one past the reference map's total capacity.
func TestAddPastReferenceCapacityIsOutOfRange(t *testing.T) {
	format := refFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 0, false)

	require.NoError(t, m.AddPageNumber(0))
	require.NoError(t, m.AddPageNumber(1000)) // forces promotion past the 64-page inline window
	require.Equal(t, byte(mapTypeReference), m.MapType())

	rh := m.h.(*referenceHandler)
	err := m.AddPageNumber(PageNumber(len(rh.slots) * rh.pagesPerChunk))
	require.Error(t, err)
	var je *jeterr.Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, jeterr.OutOfRange, je.Kind)
}

func TestReadUsageMapRoundTripsInlineBytes(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	ownPage, err := ch.AllocateNewPage()
	require.NoError(t, err)
	const rowStart = 8 // the row need not start at the top of the page

	m, err := NewInlineUsageMap(format, ch, ownPage, rowStart, 10, false)
	require.NoError(t, err)
	require.NoError(t, m.AddPageNumber(15))
	require.NoError(t, m.AddPageNumber(20))

	m2, err := ReadUsageMap(format, ch, ownPage, rowStart, false)
	require.NoError(t, err)
	require.Equal(t, byte(mapTypeInline), m2.MapType())
	require.True(t, m2.ContainsPageNumber(15))
	require.True(t, m2.ContainsPageNumber(20))
	require.False(t, m2.ContainsPageNumber(16))
}

func TestReadUsageMapRoundTripsReferenceBytes(t *testing.T) {
	format := refFormat()
	ch := NewMemPageChannel(format)
	ownPage, err := ch.AllocateNewPage()
	require.NoError(t, err)

	m, err := NewInlineUsageMap(format, ch, ownPage, 0, 0, false)
	require.NoError(t, err)
	require.NoError(t, m.AddPageNumber(0))
	require.NoError(t, m.AddPageNumber(1000)) // forces promotion

	m2, err := ReadUsageMap(format, ch, ownPage, 0, false)
	require.NoError(t, err)
	require.Equal(t, byte(mapTypeReference), m2.MapType())
	require.True(t, m2.ContainsPageNumber(0))
	require.True(t, m2.ContainsPageNumber(1000))
	require.False(t, m2.ContainsPageNumber(1))
}

func TestFaultInjectionSurfacesAsIOFailure(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 10, false)

	util.Open(util.ScopeUsageMap)
	defer util.Close(util.ScopeUsageMap)
	util.Register(util.ScopeUsageMap, "write", nil, func([]string) error {
		return errors.New("simulated disk full")
	})

	err := m.AddPageNumber(15)
	require.Error(t, err)
	var je *jeterr.Error
	require.ErrorAs(t, err, &je)
	require.Equal(t, jeterr.IOFailure, je.Kind)
}

func TestForwardIteratorOrder(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 0, false)
	for _, pn := range []PageNumber{5, 1, 3} {
		require.NoError(t, m.AddPageNumber(pn))
	}

	it := m.Forward()
	var got []PageNumber
	for {
		pn, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, pn)
	}
	require.Equal(t, []PageNumber{1, 3, 5}, got)
}

func TestReverseIteratorOrder(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 0, false)
	for _, pn := range []PageNumber{5, 1, 3} {
		require.NoError(t, m.AddPageNumber(pn))
	}

	it := m.Reverse()
	var got []PageNumber
	for {
		pn, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, pn)
	}
	require.Equal(t, []PageNumber{5, 3, 1}, got)
}

// TestIteratorStableUnderMutation mirrors the mod-count-stability
// property from spec.md §8: removing a not-yet-returned page and adding
// a new one past the cursor mid-iteration neither repeats nor skips entries,
// because the iterator always re-derives its next result from the last
// page it actually returned.
func TestIteratorStableUnderMutation(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 0, false)
	for _, pn := range []PageNumber{1, 2, 3, 4} {
		require.NoError(t, m.AddPageNumber(pn))
	}

	it := m.Forward()
	pn, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, PageNumber(1), pn)

	require.NoError(t, m.RemovePageNumber(3))
	require.NoError(t, m.AddPageNumber(10))

	var rest []PageNumber
	for {
		pn, ok := it.Next()
		if !ok {
			break
		}
		rest = append(rest, pn)
	}
	require.Equal(t, []PageNumber{2, 4, 10}, rest)
}

func TestDebugTreeDoesNotPanic(t *testing.T) {
	format := smallFormat()
	ch := NewMemPageChannel(format)
	m := mustInlineMap(t, format, ch, 0, false)
	require.NoError(t, m.AddPageNumber(0))
	require.NotEmpty(t, m.DebugTree())
}
