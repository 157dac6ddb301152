package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/memcore-io/lib-strongmem/strongmem/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MetricsFactory provides a thread-safe factory for creating and managing OpenTelemetry metrics
// with lazy initialization using sync.Map for high-performance concurrent access.
type MetricsFactory struct {
	meter      metric.Meter
	counters   sync.Map // string -> metric.Int64Counter
	gauges     sync.Map // string -> metric.Int64Gauge
	histograms sync.Map // string -> metric.Int64Histogram
	logger     log.Logger
}

// ErrNilMeter indicates that a nil OTEL meter was provided.
var ErrNilMeter = errors.New("metric meter cannot be nil")

// Metric describes an instrument that can be created by the factory.
type Metric struct {
	Name        string
	Description string
	Unit        string
	// For histograms: bucket boundaries
	Buckets []float64
}

// Pre-configured metrics that can be used to create metrics with default options.
var (
	// MetricAllocations counts successful allocations served by a resource.
	MetricAllocations = Metric{
		Name:        "memory_allocations",
		Unit:        "1",
		Description: "Number of successful allocations served by a memory resource.",
	}

	// MetricDeallocations counts deallocations returned to a resource.
	MetricDeallocations = Metric{
		Name:        "memory_deallocations",
		Unit:        "1",
		Description: "Number of deallocations returned to a memory resource.",
	}

	// MetricAllocationFailures counts allocation requests the resource rejected.
	MetricAllocationFailures = Metric{
		Name:        "memory_allocation_failures",
		Unit:        "1",
		Description: "Number of allocation requests rejected by a memory resource.",
	}

	// MetricLiveAllocations tracks allocations currently outstanding.
	MetricLiveAllocations = Metric{
		Name:        "memory_live_allocations",
		Unit:        "1",
		Description: "Allocations currently outstanding against a memory resource.",
	}

	// MetricAllocationBytes measures the size distribution of allocation requests.
	MetricAllocationBytes = Metric{
		Name:        "memory_allocation_bytes",
		Unit:        "By",
		Description: "Size distribution of allocation requests in bytes.",
	}

	// MetricLeakedObjects counts owned objects collected without Destroy.
	MetricLeakedObjects = Metric{
		Name:        "memory_leaked_objects",
		Unit:        "1",
		Description: "Owned objects garbage-collected while still live (missing Destroy).",
	}
)

// Default histogram bucket configurations.
var (
	// DefaultSizeBuckets for allocation sizes (in bytes).
	DefaultSizeBuckets = []float64{8, 16, 32, 64, 128, 256, 512, 1024, 4096, 16384, 65536}

	// DefaultCountBuckets for object counts per resource.
	DefaultCountBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}
)

// NewMetricsFactory creates a new MetricsFactory instance.
func NewMetricsFactory(meter metric.Meter, logger log.Logger) (*MetricsFactory, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	return &MetricsFactory{
		meter:  meter,
		logger: logger,
	}, nil
}

// NewNopFactory returns a MetricsFactory backed by OpenTelemetry's no-op meter.
// It is safe for use as a fallback when a real meter is unavailable.
func NewNopFactory() *MetricsFactory {
	return &MetricsFactory{
		meter:  noop.NewMeterProvider().Meter("nop"),
		logger: log.NewNop(),
	}
}

// Counter creates or retrieves a counter metric and returns a builder for fluent API usage
func (f *MetricsFactory) Counter(m Metric) (*CounterBuilder, error) {
	counter, err := f.getOrCreateCounter(m)
	if err != nil {
		return nil, err
	}

	return &CounterBuilder{
		factory: f,
		counter: counter,
		name:    m.Name,
	}, nil
}

// Gauge creates or retrieves a gauge metric and returns a builder for fluent API usage
func (f *MetricsFactory) Gauge(m Metric) (*GaugeBuilder, error) {
	gauge, err := f.getOrCreateGauge(m)
	if err != nil {
		return nil, err
	}

	return &GaugeBuilder{
		factory: f,
		gauge:   gauge,
		name:    m.Name,
	}, nil
}

// Histogram creates or retrieves a histogram metric and returns a builder for fluent API usage
func (f *MetricsFactory) Histogram(m Metric) (*HistogramBuilder, error) {
	// Set default buckets if not provided
	if m.Buckets == nil {
		m.Buckets = selectDefaultBuckets(m.Name)
	}

	histogram, err := f.getOrCreateHistogram(m)
	if err != nil {
		return nil, err
	}

	return &HistogramBuilder{
		factory:   f,
		histogram: histogram,
		name:      m.Name,
	}, nil
}

// selectDefaultBuckets chooses default buckets based on metric name.
// Uses substring checks in a deterministic order.
func selectDefaultBuckets(name string) []float64 {
	nameL := strings.ToLower(name)

	patterns := []struct {
		substr  string
		buckets []float64
	}{
		{"bytes", DefaultSizeBuckets},
		{"size", DefaultSizeBuckets},
		{"count", DefaultCountBuckets},
		{"objects", DefaultCountBuckets},
	}

	for _, p := range patterns {
		if strings.Contains(nameL, p.substr) {
			return p.buckets
		}
	}

	return DefaultSizeBuckets
}

// getOrCreateCounter lazily creates or retrieves an existing counter
func (f *MetricsFactory) getOrCreateCounter(m Metric) (metric.Int64Counter, error) {
	if counter, exists := f.counters.Load(m.Name); exists {
		if c, ok := counter.(metric.Int64Counter); ok {
			return c, nil
		}

		return nil, fmt.Errorf("counter cache contains invalid type for %q", m.Name)
	}

	counter, err := f.meter.Int64Counter(m.Name, f.addCounterOptions(m)...)
	if err != nil {
		if f.logger != nil {
			f.logger.Log(context.Background(), log.LevelError, "failed to create counter metric", log.String("metric_name", m.Name), log.Err(err))
		}

		return nil, fmt.Errorf("create counter %q: %w", m.Name, err)
	}

	if actual, loaded := f.counters.LoadOrStore(m.Name, counter); loaded {
		// Another goroutine created it first, use that one
		if c, ok := actual.(metric.Int64Counter); ok {
			return c, nil
		}

		return nil, fmt.Errorf("counter cache contains invalid type for %q", m.Name)
	}

	return counter, nil
}

// getOrCreateGauge lazily creates or retrieves an existing gauge
func (f *MetricsFactory) getOrCreateGauge(m Metric) (metric.Int64Gauge, error) {
	if gauge, exists := f.gauges.Load(m.Name); exists {
		if g, ok := gauge.(metric.Int64Gauge); ok {
			return g, nil
		}

		return nil, fmt.Errorf("gauge cache contains invalid type for %q", m.Name)
	}

	gauge, err := f.meter.Int64Gauge(m.Name, f.addGaugeOptions(m)...)
	if err != nil {
		if f.logger != nil {
			f.logger.Log(context.Background(), log.LevelError, "failed to create gauge metric", log.String("metric_name", m.Name), log.Err(err))
		}

		return nil, fmt.Errorf("create gauge %q: %w", m.Name, err)
	}

	if actual, loaded := f.gauges.LoadOrStore(m.Name, gauge); loaded {
		// Another goroutine created it first, use that one
		if g, ok := actual.(metric.Int64Gauge); ok {
			return g, nil
		}

		return nil, fmt.Errorf("gauge cache contains invalid type for %q", m.Name)
	}

	return gauge, nil
}

// getOrCreateHistogram lazily creates or retrieves an existing histogram.
// Uses a composite key (name + buckets hash) to ensure different bucket configs
// result in different histograms.
func (f *MetricsFactory) getOrCreateHistogram(m Metric) (metric.Int64Histogram, error) {
	cacheKey := histogramCacheKey(m.Name, m.Buckets)

	if histogram, exists := f.histograms.Load(cacheKey); exists {
		if h, ok := histogram.(metric.Int64Histogram); ok {
			return h, nil
		}

		return nil, fmt.Errorf("histogram cache contains invalid type for %q", cacheKey)
	}

	histogram, err := f.meter.Int64Histogram(m.Name, f.addHistogramOptions(m)...)
	if err != nil {
		if f.logger != nil {
			f.logger.Log(context.Background(), log.LevelError, "failed to create histogram metric", log.String("metric_name", m.Name), log.Err(err))
		}

		return nil, fmt.Errorf("create histogram %q: %w", m.Name, err)
	}

	if actual, loaded := f.histograms.LoadOrStore(cacheKey, histogram); loaded {
		// Another goroutine created it first, use that one
		if h, ok := actual.(metric.Int64Histogram); ok {
			return h, nil
		}

		return nil, fmt.Errorf("histogram cache contains invalid type for %q", cacheKey)
	}

	return histogram, nil
}

// histogramCacheKey generates a unique cache key based on name and bucket configuration.
func histogramCacheKey(name string, buckets []float64) string {
	if len(buckets) == 0 {
		return name
	}

	sortedBuckets := make([]float64, len(buckets))
	copy(sortedBuckets, buckets)
	sort.Float64s(sortedBuckets)

	bucketStrings := make([]string, len(sortedBuckets))
	for i, b := range sortedBuckets {
		bucketStrings[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}

	return fmt.Sprintf("%s:%s", name, strings.Join(bucketStrings, ","))
}

func (f *MetricsFactory) addCounterOptions(m Metric) []metric.Int64CounterOption {
	var opts []metric.Int64CounterOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	return opts
}

func (f *MetricsFactory) addGaugeOptions(m Metric) []metric.Int64GaugeOption {
	var opts []metric.Int64GaugeOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	return opts
}

func (f *MetricsFactory) addHistogramOptions(m Metric) []metric.Int64HistogramOption {
	var opts []metric.Int64HistogramOption
	if m.Description != "" {
		opts = append(opts, metric.WithDescription(m.Description))
	}

	if m.Unit != "" {
		opts = append(opts, metric.WithUnit(m.Unit))
	}

	if len(m.Buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(m.Buckets...))
	}

	return opts
}
