package storage

import (
	"github.com/jetdb/jetdb/pkg/jeterr"
	"github.com/jetdb/jetdb/pkg/util"
)

// PageChannel is the external collaborator that owns actual file I/O.
// UsageMap only ever reads/writes whole pages through it. A production
// implementation lives outside this module's scope (see SPEC_FULL.md
// §1); MemPageChannel below is a test-only in-memory stand-in.
type PageChannel interface {
	CreatePageBuffer() []byte
	ReadPage(buf []byte, pageNum PageNumber) error
	WritePage(buf []byte, pageNum PageNumber) error
	AllocateNewPage() (PageNumber, error)
}

// MemPageChannel is a fixed-page-size in-memory PageChannel, letting
// pkg/storage's tests exercise UsageMap's on-disk invariants without a
// real database file. Fault injection (ScopeUsageMap) lets tests
// simulate IOFailure on a chosen page without corrupting real bytes.
type MemPageChannel struct {
	format *JetFormat
	pages  map[PageNumber][]byte
	next   PageNumber
}

func NewMemPageChannel(format *JetFormat) *MemPageChannel {
	return &MemPageChannel{format: format, pages: make(map[PageNumber][]byte), next: 1}
}

func (m *MemPageChannel) CreatePageBuffer() []byte {
	return make([]byte, m.format.PageSize)
}

func (m *MemPageChannel) ReadPage(buf []byte, pageNum PageNumber) error {
	if fa := util.Check(util.ScopeUsageMap, "read"); fa != nil {
		if err := fa.Action(fa.Args); err != nil {
			return jeterr.Wrap(jeterr.IOFailure, "MemPageChannel.ReadPage", err, "page %d", pageNum)
		}
	}
	p, ok := m.pages[pageNum]
	if !ok {
		return jeterr.New(jeterr.IOFailure, "MemPageChannel.ReadPage", "no such page %d", pageNum)
	}
	copy(buf, p)
	return nil
}

func (m *MemPageChannel) WritePage(buf []byte, pageNum PageNumber) error {
	if fa := util.Check(util.ScopeUsageMap, "write"); fa != nil {
		if err := fa.Action(fa.Args); err != nil {
			return jeterr.Wrap(jeterr.IOFailure, "MemPageChannel.WritePage", err, "page %d", pageNum)
		}
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	m.pages[pageNum] = cp
	return nil
}

func (m *MemPageChannel) AllocateNewPage() (PageNumber, error) {
	pn := m.next
	m.next++
	m.pages[pn] = make([]byte, m.format.PageSize) // freshly allocated pages are zero-filled
	return pn, nil
}
