package runtime

import (
	"context"
	"errors"
	"fmt"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/memcore-io/lib-strongmem/strongmem/log"
	"github.com/memcore-io/lib-strongmem/strongmem/opentelemetry/metrics"
)

// ErrObjectLeaked marks an owned object that was garbage-collected without
// ever being destroyed. Its backing storage was never returned to the
// resource that allocated it.
var ErrObjectLeaked = errors.New("owned object collected without destroy")

// Entry records one live owned object.
type Entry struct {
	ID        uuid.UUID
	Type      string
	Origin    string
	CreatedAt time.Time
}

// Tracker is a registry of live owned objects, used to detect leaks: objects
// whose handles were dropped without a destroy. Construction registers an
// entry, destruction removes it, and a finalizer firing on a still-registered
// object reports a leak.
//
// Tracking is optional and off unless a tracker is installed with SetTracker.
// All methods are safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	logger  log.Logger
	leaked  *metrics.CounterBuilder
	entries map[uuid.UUID]Entry
	leaks   int
}

// NewTracker creates a tracker that logs leaks through the given logger and
// counts them on the leaked-objects metric. A nil factory disables metrics, a
// nil logger disables logging.
func NewTracker(logger log.Logger, factory *metrics.MetricsFactory) (*Tracker, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	if factory == nil {
		factory = metrics.NewNopFactory()
	}

	leaked, err := factory.Counter(metrics.MetricLeakedObjects)
	if err != nil {
		return nil, fmt.Errorf("create leaked-objects counter: %w", err)
	}

	return &Tracker{
		logger:  logger,
		leaked:  leaked,
		entries: make(map[uuid.UUID]Entry),
	}, nil
}

// Register records a new live object and returns its entry. typeName is the
// payload type, origin the construction site (see Origin).
func (t *Tracker) Register(typeName, origin string) Entry {
	entry := Entry{
		ID:        uuid.New(),
		Type:      typeName,
		Origin:    origin,
		CreatedAt: time.Now(),
	}

	t.mu.Lock()
	t.entries[entry.ID] = entry
	t.mu.Unlock()

	return entry
}

// Unregister removes an object from the registry. Unknown IDs are ignored:
// the tracker may have been installed after the object was built.
func (t *Tracker) Unregister(id uuid.UUID) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

// LeakDetected reports that the object with the given ID was collected while
// still registered. Called from finalizers, so it must not block or panic.
func (t *Tracker) LeakDetected(id uuid.UUID) {
	t.mu.Lock()
	entry, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
		t.leaks++
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	ctx := context.Background()

	t.logger.Log(ctx, log.LevelError, "owned object leaked",
		log.String("object_id", entry.ID.String()),
		log.String("object_type", entry.Type),
		log.String("origin", entry.Origin),
		log.Any("age", time.Since(entry.CreatedAt).String()),
	)

	if err := t.leaked.WithLabels(map[string]string{"type": entry.Type}).AddOne(ctx); err != nil {
		t.logger.Log(ctx, log.LevelWarn, "metric recording failed", log.Err(err))
	}

	reportLeakToErrorService(ctx, fmt.Errorf("%w: %s from %s", ErrObjectLeaked, entry.Type, entry.Origin), entry)
}

// Outstanding returns the number of registered live objects.
func (t *Tracker) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

// Leaks returns how many leaks this tracker has detected.
func (t *Tracker) Leaks() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.leaks
}

// Entries returns a snapshot of the registered live objects.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}

	return out
}

// trackerInstance is the singleton tracker. Nil unless configured.
var (
	trackerInstance *Tracker
	trackerMu       sync.RWMutex
)

// SetTracker installs the global leak tracker. Pass nil to disable tracking.
// Objects built while no tracker is installed are never tracked.
func SetTracker(t *Tracker) {
	trackerMu.Lock()
	defer trackerMu.Unlock()

	trackerInstance = t
}

// ActiveTracker returns the installed tracker, or nil if tracking is off.
func ActiveTracker() *Tracker {
	trackerMu.RLock()
	defer trackerMu.RUnlock()

	return trackerInstance
}

// Origin returns the file:line of the caller skip frames up the stack.
// skip 0 is the caller of Origin itself.
func Origin(skip int) string {
	_, file, line, ok := goruntime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}

	return fmt.Sprintf("%s:%d", file, line)
}
