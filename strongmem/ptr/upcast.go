package ptr

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidUpcast is returned when an ownership transfer into an interface
// handle cannot be performed: the target type parameter is not an interface,
// or the owned value does not implement it.
var ErrInvalidUpcast = errors.New("invalid upcast")

// Upcast transfers ownership from a concrete handle into a Strong[I], where I
// is an interface implemented by *T. The returned handle observes the same
// underlying object through the interface; the source is poisoned exactly as
// by Move.
//
// The owned T stays in its original resource storage. The interface header
// the new handle dereferences to is a small GC-managed cell; destroying the
// Strong[I] still disposes the T and returns its storage to the originating
// resource.
//
// A failed upcast returns an error and leaves the source live and usable.
// Downcasting back to the concrete type is deliberately not provided.
func Upcast[I any, T any](src *Strong[T]) (*Strong[I], error) {
	target := reflect.TypeFor[I]()
	if target.Kind() != reflect.Interface {
		return nil, fmt.Errorf("target type %s is not an interface: %w", target, ErrInvalidUpcast)
	}

	src.mustBeLive("Upcast")

	iface, ok := any(src.obj).(I)
	if !ok {
		return nil, fmt.Errorf("*%s does not implement %s: %w",
			reflect.TypeFor[T](), target, ErrInvalidUpcast)
	}

	cell := new(I)
	*cell = iface

	dst := &Strong[I]{obj: cell, free: src.free, id: src.id, state: stateLive}

	src.poison()
	dst.rearm()

	return dst, nil
}
