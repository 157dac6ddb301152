package memory

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/memcore-io/lib-strongmem/strongmem/assert"
	"github.com/memcore-io/lib-strongmem/strongmem/safe"
)

// Pool serves fixed-size blocks from a pre-allocated buffer using a free
// list. Unlike Monotonic, deallocated blocks become available again, so pools
// suit steady-state workloads with bounded object populations.
//
// Any request with size <= BlockSize and align <= the pool's block alignment
// is served from one block; requests beyond either limit fail.
type Pool struct {
	mu         sync.Mutex
	buf        []byte
	blockSize  uintptr
	blockAlign uintptr
	freeList   []unsafe.Pointer
	owned      map[unsafe.Pointer]bool
}

var _ Resource = (*Pool)(nil)

// NewPool creates a pool of count blocks of blockSize bytes, each aligned to
// blockAlign.
func NewPool(blockSize, blockAlign uintptr, count int) (*Pool, error) {
	if blockSize == 0 || count <= 0 {
		return nil, fmt.Errorf("pool needs a positive block size and count: %w", ErrBadSize)
	}

	if !safe.IsPowerOfTwo(blockAlign) {
		return nil, ErrBadAlignment
	}

	// Stride each block to the alignment so every block starts aligned.
	stride, err := safe.AlignUp(blockSize, blockAlign)
	if err != nil {
		return nil, fmt.Errorf("compute block stride: %w", err)
	}

	total, err := safe.Mul(stride, uintptr(count))
	if err != nil {
		return nil, fmt.Errorf("compute pool size: %w", err)
	}

	total, err = safe.Add(total, blockAlign-1)
	if err != nil {
		return nil, fmt.Errorf("compute pool size: %w", err)
	}

	pool := &Pool{
		buf:        make([]byte, total),
		blockSize:  blockSize,
		blockAlign: blockAlign,
		freeList:   make([]unsafe.Pointer, 0, count),
		owned:      make(map[unsafe.Pointer]bool, count),
	}

	base := unsafe.Pointer(unsafe.SliceData(pool.buf))

	firstAddr, err := safe.AlignUp(uintptr(base), blockAlign)
	if err != nil {
		return nil, fmt.Errorf("align pool base: %w", err)
	}

	first := firstAddr - uintptr(base)
	for i := range count {
		block := unsafe.Add(base, first+uintptr(i)*stride)
		pool.freeList = append(pool.freeList, block)
		pool.owned[block] = false
	}

	return pool, nil
}

// Allocate pops a block from the free list.
func (p *Pool) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	if size == 0 || size > p.blockSize {
		return nil, fmt.Errorf("block size %d, need %d: %w", p.blockSize, size, ErrBadSize)
	}

	if !safe.IsPowerOfTwo(align) || align > p.blockAlign {
		return nil, ErrBadAlignment
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 {
		return nil, fmt.Errorf("pool of %d blocks exhausted: %w", len(p.owned), ErrOutOfMemory)
	}

	block := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	p.owned[block] = true

	// Blocks are recycled without reallocation; scrub residue from the
	// previous occupant.
	clear(unsafe.Slice((*byte)(block), p.blockSize))

	return block, nil
}

// Deallocate pushes a block back onto the free list. Traps on pointers the
// pool does not own and on double frees.
func (p *Pool) Deallocate(ptr unsafe.Pointer, _, _ uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()

	live, ok := p.owned[ptr]
	if !ok {
		assert.Trap("memory", "Deallocate", "pointer does not belong to this pool")
	}

	if !live {
		assert.Trap("memory", "Deallocate", "double free of pool block")
	}

	p.owned[ptr] = false
	p.freeList = append(p.freeList, ptr)
}

// Free returns the number of blocks currently available.
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.freeList)
}
