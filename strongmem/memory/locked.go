package memory

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/awnumar/memguard"
	"github.com/memcore-io/lib-strongmem/strongmem/assert"
	"github.com/memcore-io/lib-strongmem/strongmem/safe"
)

// Locked serves allocations from memguard locked buffers: storage is
// mlock-ed out of swap, guarded against overflows, and wiped on deallocation.
// Use it for key material and other secrets that must not linger in memory
// after their owner is destroyed.
//
// Each allocation is backed by its own locked buffer, so Locked costs pages,
// not bytes. Keep it for genuinely sensitive payloads.
type Locked struct {
	mu   sync.Mutex
	bufs map[unsafe.Pointer]*memguard.LockedBuffer
}

var _ Resource = (*Locked)(nil)

// NewLocked creates a locked-memory resource.
func NewLocked() *Locked {
	return &Locked{bufs: make(map[unsafe.Pointer]*memguard.LockedBuffer)}
}

// Allocate returns wiped, locked storage of the requested size and alignment.
func (l *Locked) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, ErrBadSize
	}

	if !safe.IsPowerOfTwo(align) {
		return nil, ErrBadAlignment
	}

	// memguard only guarantees byte alignment; over-allocate and align
	// within the locked region.
	total, err := safe.Add(size, align-1)
	if err != nil {
		return nil, fmt.Errorf("size locked allocation: %w", err)
	}

	buf := memguard.NewBuffer(int(total))
	if !buf.IsAlive() {
		return nil, fmt.Errorf("locked buffer of %d bytes: %w", total, ErrOutOfMemory)
	}

	base := unsafe.Pointer(unsafe.SliceData(buf.Bytes()))

	p := base
	if misalign := uintptr(base) & (align - 1); misalign != 0 {
		p = unsafe.Add(base, align-misalign)
	}

	l.mu.Lock()
	l.bufs[p] = buf
	l.mu.Unlock()

	return p, nil
}

// Deallocate wipes and unlocks the buffer backing p. Traps on pointers that
// did not come from this resource.
func (l *Locked) Deallocate(p unsafe.Pointer, _, _ uintptr) {
	l.mu.Lock()
	buf, ok := l.bufs[p]
	delete(l.bufs, p)
	l.mu.Unlock()

	if !ok {
		assert.Trap("memory", "Deallocate", "pointer does not belong to this locked resource")
	}

	buf.Destroy()
}

// Live returns the number of locked allocations outstanding.
func (l *Locked) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.bufs)
}
