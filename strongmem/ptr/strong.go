package ptr

import (
	"fmt"
	"reflect"
	goruntime "runtime"

	"github.com/google/uuid"
	"github.com/memcore-io/lib-strongmem/strongmem/assert"
	"github.com/memcore-io/lib-strongmem/strongmem/internal/nilcheck"
	"github.com/memcore-io/lib-strongmem/strongmem/memory"
	"github.com/memcore-io/lib-strongmem/strongmem/runtime"
)

// Disposer is implemented by payload types that hold resources of their own.
// Destroy calls Dispose on the owned value before returning its storage.
type Disposer interface {
	Dispose() error
}

// Handle states. A handle is usable only while live; the zero value of
// Strong was never constructed and is equally unusable.
const (
	stateZero uint8 = iota
	stateLive
	stateMoved
	stateDestroyed
)

func stateName(s uint8) string {
	switch s {
	case stateLive:
		return "live"
	case stateMoved:
		return "moved"
	case stateDestroyed:
		return "destroyed"
	default:
		return "zero"
	}
}

// Strong owns exactly one T placed in storage obtained from a
// memory.Resource. See the package documentation for the ownership and
// sharing contract.
type Strong[T any] struct {
	obj   *T
	free  func() error
	state uint8
	id    uuid.UUID
}

// New allocates storage from res, places value in it, and returns the owning
// handle. Allocation failure propagates the resource's error and leaves
// nothing to clean up.
func New[T any](res memory.Resource, value T) (*Strong[T], error) {
	return build(res, func(obj *T) error {
		*obj = value

		return nil
	}, runtime.Origin(1))
}

// NewWith allocates storage from res and constructs the value in place by
// calling init on zeroed storage. If init returns an error the storage is
// scrubbed and returned to the resource, and no handle escapes. A nil init
// leaves the value zeroed.
func NewWith[T any](res memory.Resource, init func(*T) error) (*Strong[T], error) {
	return build(res, init, runtime.Origin(1))
}

func build[T any](res memory.Resource, init func(*T) error, origin string) (*Strong[T], error) {
	if nilcheck.Interface(res) {
		return nil, memory.ErrNilResource
	}

	t := reflect.TypeFor[T]()

	raw, err := memory.AllocateFor(res, t)
	if err != nil {
		return nil, fmt.Errorf("allocate %s: %w", t, err)
	}

	obj := (*T)(raw)
	size := t.Size()
	align := uintptr(t.Align())

	if init != nil {
		if err := init(obj); err != nil {
			var zero T

			*obj = zero
			res.Deallocate(raw, size, align)

			return nil, fmt.Errorf("initialize %s: %w", t, err)
		}
	}

	s := &Strong[T]{
		obj:   obj,
		state: stateLive,
		free: func() error {
			var derr error
			if d, ok := any(obj).(Disposer); ok {
				derr = d.Dispose()
			}

			// Scrub before handing storage back so recycled blocks never
			// leak previous contents.
			var zero T

			*obj = zero
			res.Deallocate(raw, size, align)

			if derr != nil {
				return fmt.Errorf("dispose %s: %w", t, derr)
			}

			return nil
		},
	}

	if tracker := runtime.ActiveTracker(); tracker != nil {
		s.id = tracker.Register(t.String(), origin).ID
		s.arm(tracker)
	}

	return s, nil
}

// Get returns the owned value. It never returns nil: calling Get on a
// moved-from, destroyed, or zero-value handle traps.
func (s *Strong[T]) Get() *T {
	s.mustBeLive("Get")

	return s.obj
}

// Move transfers ownership into a fresh handle and poisons the source. Any
// later Get, Move, or Destroy-after-destroy on the source traps; Destroy on
// the source is a no-op, so deferred cleanup of a moved-from handle is safe.
func (s *Strong[T]) Move() *Strong[T] {
	s.mustBeLive("Move")

	dst := &Strong[T]{obj: s.obj, free: s.free, id: s.id, state: stateLive}

	s.poison()
	dst.rearm()

	return dst
}

// Destroy disposes the owned value (if it implements Disposer), scrubs its
// storage, and returns the storage to the originating resource. It runs
// exactly once per owned value: destroying a moved-from handle is a no-op,
// destroying an already-destroyed or never-constructed handle traps.
func (s *Strong[T]) Destroy() error {
	if s == nil {
		return nil
	}

	switch s.state {
	case stateMoved:
		return nil
	case stateLive:
	default:
		assert.Trap("ptr", "Destroy", "destroy of dead handle", "state", stateName(s.state))
	}

	s.state = stateDestroyed

	goruntime.SetFinalizer(s, nil)

	if tracker := runtime.ActiveTracker(); tracker != nil && s.id != uuid.Nil {
		tracker.Unregister(s.id)
	}

	err := s.free()
	s.obj = nil
	s.free = nil

	return err
}

// mustBeLive traps unless the handle currently owns its value.
func (s *Strong[T]) mustBeLive(operation string) {
	if s == nil {
		assert.Trap("ptr", operation, "use of nil handle")
	}

	if s.state != stateLive {
		assert.Trap("ptr", operation, "use of dead handle",
			"state", stateName(s.state),
			"type", reflect.TypeFor[T]().String(),
		)
	}
}

// poison marks the handle moved-from and drops its references so the object
// it used to own cannot be reached or freed through it.
func (s *Strong[T]) poison() {
	s.state = stateMoved
	s.obj = nil
	s.free = nil

	goruntime.SetFinalizer(s, nil)
}

func (s *Strong[T]) arm(tracker *runtime.Tracker) {
	goruntime.SetFinalizer(s, func(dead *Strong[T]) {
		if dead.state == stateLive {
			tracker.LeakDetected(dead.id)
		}
	})
}

// rearm re-attaches leak detection after an ownership transfer.
func (s *Strong[T]) rearm() {
	if s.id == uuid.Nil {
		return
	}

	if tracker := runtime.ActiveTracker(); tracker != nil {
		s.arm(tracker)
	}
}
