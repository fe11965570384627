package storage

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// DebugTree renders the map's current structure for interactive
// debugging: which representation is active, and (for the reference
// representation) which chunks exist and how many pages each covers.
// Wired from the teacher's go.mod treeprint dependency, which otherwise
// has no home in this domain (see DESIGN.md).
func (m *UsageMap) DebugTree() string {
	tree := treeprint.New()
	switch h := m.h.(type) {
	case *inlineHandler:
		tree.SetValue(fmt.Sprintf("UsageMap[inline] start=%d capacity=%d set=%d", h.start, h.capacity, h.bits.Cardinality()))
	case *referenceHandler:
		tree.SetValue(fmt.Sprintf("UsageMap[reference] slots=%d allocated=%d", len(h.slots), len(h.chunks)))
		for slot := 0; slot < len(h.slots); slot++ {
			bits, ok := h.chunks[slot]
			if !ok {
				continue
			}
			tree.AddNode(fmt.Sprintf("slot=%d page=%d set=%d/%d", slot, h.slots[slot], bits.Cardinality(), bits.Len()))
		}
	}
	return tree.String()
}
