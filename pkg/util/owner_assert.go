package util

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

// DebugSingleWriter toggles the goroutine-ownership assertion below. It is
// false by default so normal builds pay nothing for it; tests and
// debugging sessions that want to catch an accidental second writer can
// flip it on.
var DebugSingleWriter = false

// OwnerAssert records the goroutine that first touches a structure and
// panics if a later mutating call arrives from a different goroutine
// while DebugSingleWriter is on. It is not a lock: it never blocks, and
// it enforces nothing when DebugSingleWriter is false. Grounded on
// ReentryLock's use of goid for owner tracking, stripped down from a
// reentrant mutex to a single assertion since this module does no
// internal locking by design.
type OwnerAssert struct {
	owner atomic.Int64
}

// Touch claims ownership on first use and panics on a cross-goroutine
// call thereafter, when DebugSingleWriter is enabled.
func (o *OwnerAssert) Touch() {
	if !DebugSingleWriter {
		return
	}
	rid := goid.Get()
	if !o.owner.CompareAndSwap(0, rid) {
		if owner := o.owner.Load(); owner != rid {
			panic("concurrent access from a second goroutine detected")
		}
	}
}
