package memory

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

// Resource is the polymorphic allocation boundary.
//
// Allocate returns storage of at least size bytes aligned to align (a non-zero
// power of two), or an error; it never returns a nil pointer alongside a nil
// error. Deallocate returns storage previously obtained from the same resource
// with the same size and alignment. Passing foreign pointers is a programming
// error; resources are allowed to trap on it.
//
// Implementations must be safe for concurrent use.
type Resource interface {
	Allocate(size, align uintptr) (unsafe.Pointer, error)
	Deallocate(p unsafe.Pointer, size, align uintptr)
}

// TypedResource is implemented by resources that can provide GC-scanned
// storage for a specific Go type. The ptr factories prefer this path when
// available, which lifts the pointer-free payload restriction.
type TypedResource interface {
	Resource

	AllocateTyped(t reflect.Type) (unsafe.Pointer, error)
}

var (
	// ErrOutOfMemory is returned when a resource cannot satisfy an allocation.
	ErrOutOfMemory = errors.New("memory resource exhausted")

	// ErrBadAlignment is returned for alignments that are zero, not a power of
	// two, or beyond what the resource can guarantee.
	ErrBadAlignment = errors.New("unsupported alignment")

	// ErrBadSize is returned for zero or oversized allocation requests.
	ErrBadSize = errors.New("unsupported allocation size")

	// ErrPointerPayload is returned when a Go-pointer-bearing type is placed
	// into a resource whose storage the garbage collector does not scan.
	ErrPointerPayload = errors.New("payload type contains Go pointers; use a GC-scanned resource")

	// ErrNilResource is returned by factories given a nil resource.
	ErrNilResource = errors.New("memory resource is nil")
)

// AllocateFor allocates storage for one value of type t from res.
//
// The typed path is preferred when the resource offers one; otherwise the
// raw path is used, and pointer-bearing payload types are rejected with
// ErrPointerPayload because raw storage is invisible to the garbage
// collector.
func AllocateFor(res Resource, t reflect.Type) (unsafe.Pointer, error) {
	if typed, ok := res.(TypedResource); ok {
		return typed.AllocateTyped(t)
	}

	if TypeHasPointers(t) {
		return nil, fmt.Errorf("place %s in %T: %w", t, res, ErrPointerPayload)
	}

	return res.Allocate(t.Size(), uintptr(t.Align()))
}

// TypeHasPointers reports whether values of type t contain Go pointers the
// garbage collector would need to scan (pointers, maps, channels, functions,
// slices, strings, interfaces, or aggregates containing any of those).
func TypeHasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && TypeHasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if TypeHasPointers(t.Field(i).Type) {
				return true
			}
		}

		return false
	default:
		// Pointer, UnsafePointer, Map, Chan, Func, Slice, String, Interface.
		return true
	}
}
