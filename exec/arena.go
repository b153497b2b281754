package exec

import (
	"fmt"

	"github.com/sbl8/sublation/looporder"
)

// Arena is a single pre-allocated byte buffer handed out to dispatched
// nodes as scratch space via a bump allocator, reset between dependency
// levels (spec.md §5.1 supplemental runtime).
//
// Adapted from the teacher's runtime.Arena (runtime/arena.go): that
// arena partitioned one buffer into model-payload/sublate-metadata/
// node-payload/streaming-input/free-tail regions for a compiled .subl
// model. None of those regions have an analog here — the scheduler has
// no model payload or per-node metadata struct — so this keeps only the
// bump-allocator-over-one-region mechanism, applied to a single scratch
// region sized by the caller.
type Arena struct {
	buf    []byte
	offset int
}

// NewArena allocates an Arena with size bytes of scratch space, rounded
// up to a cache-line multiple.
func NewArena(size int) *Arena {
	if size <= 0 {
		return &Arena{}
	}
	aligned := looporder.AlignSize(size, looporder.CacheLineSize)
	return &Arena{buf: make([]byte, aligned)}
}

// Allocate returns a zeroed, alignment-byte-aligned slice of size bytes
// from the arena's bump allocator. Not safe for concurrent use — callers
// serialize allocation per dependency level (see Executor.Run).
func (a *Arena) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}
	aligned := looporder.AlignSize(a.offset, looporder.CacheLineSize)
	if aligned+size > len(a.buf) {
		return nil, fmt.Errorf("exec: arena exhausted: requested %d at offset %d, capacity %d", size, aligned, len(a.buf))
	}
	region := a.buf[aligned : aligned+size]
	clear(region)
	a.offset = aligned + size
	return region, nil
}

// Reset rewinds the bump allocator, reusing the same backing buffer for
// the next dependency level's scratch allocations.
func (a *Arena) Reset() {
	a.offset = 0
}

// Cap returns the arena's total scratch capacity in bytes.
func (a *Arena) Cap() int { return len(a.buf) }

// Used returns the number of bytes currently allocated.
func (a *Arena) Used() int { return a.offset }
