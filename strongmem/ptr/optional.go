package ptr

import "errors"

// ErrEmptyOptional is returned when accessing an Optional that holds no
// value.
var ErrEmptyOptional = errors.New("optional holds no value")

// Optional is a nullable companion to Strong for the cases where "maybe one
// owned value" is genuinely the shape of the problem: caches, slots,
// deferred construction. It keeps the nullability out of Strong itself, so
// handles stay non-null and empty checks happen at the Optional boundary
// with explicit errors instead of traps.
//
// Like Strong, an Optional is not safe for concurrent use without external
// synchronization.
type Optional[T any] struct {
	held *Strong[T]
}

// Some wraps an owned handle. Traps if the handle is dead, exactly as any
// other access to it would.
func Some[T any](s *Strong[T]) *Optional[T] {
	s.mustBeLive("Some")

	return &Optional[T]{held: s}
}

// None returns an empty Optional.
func None[T any]() *Optional[T] {
	return &Optional[T]{}
}

// IsSome reports whether a value is held.
func (o *Optional[T]) IsSome() bool {
	return o != nil && o.held != nil
}

// Get returns the held value, or ErrEmptyOptional.
func (o *Optional[T]) Get() (*T, error) {
	if !o.IsSome() {
		return nil, ErrEmptyOptional
	}

	return o.held.Get(), nil
}

// Take moves the held handle out, leaving the Optional empty. Returns
// ErrEmptyOptional if nothing is held.
func (o *Optional[T]) Take() (*Strong[T], error) {
	if !o.IsSome() {
		return nil, ErrEmptyOptional
	}

	s := o.held
	o.held = nil

	return s, nil
}

// Reset destroys the held value, if any, and leaves the Optional empty.
// Resetting an empty Optional is a no-op.
func (o *Optional[T]) Reset() error {
	if !o.IsSome() {
		return nil
	}

	s := o.held
	o.held = nil

	return s.Destroy()
}

// Replace destroys the currently held value, if any, and installs s in its
// place. Returns the destroy error from the displaced value.
func (o *Optional[T]) Replace(s *Strong[T]) error {
	s.mustBeLive("Replace")

	old := o.held
	o.held = s

	if old == nil {
		return nil
	}

	return old.Destroy()
}
