package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/memcore-io/lib-strongmem/strongmem/log"
	"github.com/memcore-io/lib-strongmem/strongmem/opentelemetry/metrics"
)

// Instrumented decorates a Resource with OpenTelemetry metrics: allocation
// and deallocation counters, an allocation-size histogram, and a live-count
// gauge, all labeled with the given resource name.
//
// Metric recording failures are logged and never affect the allocation path.
type Instrumented struct {
	inner  Resource
	logger log.Logger

	allocs   *metrics.CounterBuilder
	deallocs *metrics.CounterBuilder
	failures *metrics.CounterBuilder
	live     *metrics.GaugeBuilder
	sizes    *metrics.HistogramBuilder

	liveCount atomic.Int64
}

var (
	_ Resource      = (*Instrumented)(nil)
	_ TypedResource = (*Instrumented)(nil)
)

// NewInstrumented wraps inner, labeling all metrics with the resource name.
func NewInstrumented(inner Resource, factory *metrics.MetricsFactory, logger log.Logger, name string) (*Instrumented, error) {
	if inner == nil {
		return nil, ErrNilResource
	}

	if factory == nil {
		factory = metrics.NewNopFactory()
	}

	if logger == nil {
		logger = log.NewNop()
	}

	labels := map[string]string{"resource": name}

	allocs, err := factory.Counter(metrics.MetricAllocations)
	if err != nil {
		return nil, fmt.Errorf("create allocation counter: %w", err)
	}

	deallocs, err := factory.Counter(metrics.MetricDeallocations)
	if err != nil {
		return nil, fmt.Errorf("create deallocation counter: %w", err)
	}

	failures, err := factory.Counter(metrics.MetricAllocationFailures)
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}

	live, err := factory.Gauge(metrics.MetricLiveAllocations)
	if err != nil {
		return nil, fmt.Errorf("create live gauge: %w", err)
	}

	sizes, err := factory.Histogram(metrics.MetricAllocationBytes)
	if err != nil {
		return nil, fmt.Errorf("create size histogram: %w", err)
	}

	return &Instrumented{
		inner:    inner,
		logger:   logger,
		allocs:   allocs.WithLabels(labels),
		deallocs: deallocs.WithLabels(labels),
		failures: failures.WithLabels(labels),
		live:     live.WithLabels(labels),
		sizes:    sizes.WithLabels(labels),
	}, nil
}

// Allocate delegates to the wrapped resource and records the outcome.
func (r *Instrumented) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	p, err := r.inner.Allocate(size, align)
	if err != nil {
		r.record(r.failures.AddOne(context.Background()))

		return nil, err
	}

	r.recordAllocation(size)

	return p, nil
}

// AllocateTyped allocates storage for type t through the wrapped resource
// (typed path when available, raw otherwise) and records the outcome.
func (r *Instrumented) AllocateTyped(t reflect.Type) (unsafe.Pointer, error) {
	p, err := AllocateFor(r.inner, t)
	if err != nil {
		r.record(r.failures.AddOne(context.Background()))

		return nil, err
	}

	r.recordAllocation(t.Size())

	return p, nil
}

// Deallocate delegates to the wrapped resource and records the return.
func (r *Instrumented) Deallocate(p unsafe.Pointer, size, align uintptr) {
	r.inner.Deallocate(p, size, align)

	ctx := context.Background()
	r.record(r.deallocs.AddOne(ctx))
	r.record(r.live.Set(ctx, r.liveCount.Add(-1)))
}

// Inner returns the wrapped resource.
//
//nolint:ireturn
func (r *Instrumented) Inner() Resource {
	return r.inner
}

func (r *Instrumented) recordAllocation(size uintptr) {
	ctx := context.Background()
	r.record(r.allocs.AddOne(ctx))
	r.record(r.sizes.Record(ctx, int64(size)))
	r.record(r.live.Set(ctx, r.liveCount.Add(1)))
}

func (r *Instrumented) record(err error) {
	if err != nil {
		r.logger.Log(context.Background(), log.LevelWarn, "metric recording failed", log.Err(err))
	}
}
