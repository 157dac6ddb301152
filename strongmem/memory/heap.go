package memory

import (
	"reflect"
	"unsafe"
)

// maxHeapAlign is the strongest alignment the raw byte path over-allocates
// for. AllocateTyped has no such limit.
const maxHeapAlign = 4096

// Heap is the default Resource, backed by the Go runtime.
//
// Deallocation is a no-op: storage is reclaimed by the garbage collector once
// unreachable. Heap also implements TypedResource, so any payload type is
// safe, including ones containing Go pointers.
//
// The zero value is ready to use.
type Heap struct{}

var (
	_ Resource      = (*Heap)(nil)
	_ TypedResource = (*Heap)(nil)
)

// Allocate returns zeroed storage of the requested size and alignment.
func (h *Heap) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	if size == 0 {
		return nil, ErrBadSize
	}

	if align == 0 || align&(align-1) != 0 || align > maxHeapAlign {
		return nil, ErrBadAlignment
	}

	// Over-allocate and align within the block. The returned pointer keeps
	// the whole block reachable.
	buf := make([]byte, size+align-1)
	base := unsafe.Pointer(unsafe.SliceData(buf))

	misalign := uintptr(base) & (align - 1)
	if misalign == 0 {
		return base, nil
	}

	return unsafe.Add(base, align-misalign), nil
}

// AllocateTyped returns a zeroed, GC-scanned value of type t.
func (h *Heap) AllocateTyped(t reflect.Type) (unsafe.Pointer, error) {
	return reflect.New(t).UnsafePointer(), nil
}

// Deallocate is a no-op; the garbage collector reclaims heap storage.
func (h *Heap) Deallocate(_ unsafe.Pointer, _, _ uintptr) {}
