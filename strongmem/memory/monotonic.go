package memory

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/memcore-io/lib-strongmem/strongmem/assert"
	"github.com/memcore-io/lib-strongmem/strongmem/safe"
)

// Monotonic is a bump allocator over a fixed buffer.
//
// Allocations advance a high-water mark; Deallocate only decrements the
// outstanding-allocation count and never returns storage for reuse. The whole
// buffer is reclaimed at once when the arena is garbage-collected after
// Release. This is the cheapest possible allocator for phase-oriented
// workloads: allocate everything, use it, tear it all down together.
//
// Release traps if allocations are still outstanding: dropping an arena that
// still backs live objects would leave them pointing into reclaimed storage.
type Monotonic struct {
	mu          sync.Mutex
	buf         []byte
	offset      uintptr
	outstanding int
	released    bool
}

var _ Resource = (*Monotonic)(nil)

// NewMonotonic creates an arena with the given capacity in bytes.
func NewMonotonic(capacity uintptr) (*Monotonic, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("arena capacity must be positive: %w", ErrBadSize)
	}

	return &Monotonic{buf: make([]byte, capacity)}, nil
}

// Allocate bumps the high-water mark, padding for alignment.
// Returns ErrOutOfMemory when the remaining capacity cannot fit the request.
func (m *Monotonic) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, ErrBadSize
	}

	if !safe.IsPowerOfTwo(align) {
		return nil, ErrBadAlignment
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		assert.Trap("memory", "Allocate", "allocate from released arena")
	}

	base := unsafe.Pointer(unsafe.SliceData(m.buf))

	// Align the absolute address of the next free byte, then translate back
	// to a buffer offset.
	addr, err := safe.AlignUp(uintptr(base)+m.offset, align)
	if err != nil {
		return nil, fmt.Errorf("align allocation: %w", err)
	}

	start := addr - uintptr(base)

	end, err := safe.Add(start, size)
	if err != nil {
		return nil, fmt.Errorf("size allocation: %w", err)
	}

	if end > uintptr(len(m.buf)) {
		return nil, fmt.Errorf("arena capacity %d, need %d: %w", len(m.buf), end, ErrOutOfMemory)
	}

	m.offset = end
	m.outstanding++

	return unsafe.Add(base, start), nil
}

// Deallocate notes that one allocation is no longer live. Storage is not
// reused until the whole arena is released.
func (m *Monotonic) Deallocate(_ unsafe.Pointer, _, _ uintptr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.outstanding == 0 {
		assert.Trap("memory", "Deallocate", "deallocate with no outstanding allocations")
	}

	m.outstanding--
}

// Outstanding returns the number of live allocations.
func (m *Monotonic) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.outstanding
}

// Remaining returns the bytes left before the arena is exhausted, ignoring
// alignment padding future allocations may need.
func (m *Monotonic) Remaining() uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()

	return uintptr(len(m.buf)) - m.offset
}

// Release marks the arena unusable. Traps if allocations are still
// outstanding.
func (m *Monotonic) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.outstanding != 0 {
		assert.Trap("memory", "Release", "arena released with live allocations",
			"outstanding", m.outstanding)
	}

	m.released = true
	m.buf = nil
	m.offset = 0
}
