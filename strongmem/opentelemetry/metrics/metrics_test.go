//go:build unit

package metrics

import (
	"context"
	"sync"
	"testing"

	"github.com/memcore-io/lib-strongmem/strongmem/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestFactory creates a MetricsFactory wired to an in-memory ManualReader so
// we can collect and inspect metric data without any exporter.
func newTestFactory(t *testing.T) (*MetricsFactory, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("test-lib")

	factory, err := NewMetricsFactory(meter, log.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	return factory, reader
}

// collectMetrics drains the ManualReader into a ResourceMetrics snapshot.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

// findMetric searches a ResourceMetrics snapshot for a metric by name.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}

	return nil
}

func TestNewMetricsFactoryRejectsNilMeter(t *testing.T) {
	t.Parallel()

	_, err := NewMetricsFactory(nil, log.NewNop())
	require.ErrorIs(t, err, ErrNilMeter)
}

func TestNopFactoryRecordsWithoutError(t *testing.T) {
	t.Parallel()

	factory := NewNopFactory()

	counter, err := factory.Counter(MetricAllocations)
	require.NoError(t, err)
	require.NoError(t, counter.AddOne(context.Background()))
}

func TestCounterRecordsIncrements(t *testing.T) {
	t.Parallel()

	factory, reader := newTestFactory(t)

	counter, err := factory.Counter(MetricAllocations)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, counter.Add(ctx, 2))
	require.NoError(t, counter.WithLabels(map[string]string{"resource": "monotonic"}).AddOne(ctx))

	rm := collectMetrics(t, reader)
	m := findMetric(rm, MetricAllocations.Name)
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	assert.Equal(t, int64(3), total)
}

func TestGaugeRecordsLastValue(t *testing.T) {
	t.Parallel()

	factory, reader := newTestFactory(t)

	gauge, err := factory.Gauge(MetricLiveAllocations)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, gauge.Set(ctx, 5))
	require.NoError(t, gauge.Set(ctx, 3))

	rm := collectMetrics(t, reader)
	m := findMetric(rm, MetricLiveAllocations.Name)
	require.NotNil(t, m)

	data, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, int64(3), data.DataPoints[0].Value)
}

func TestHistogramRecordsSizes(t *testing.T) {
	t.Parallel()

	factory, reader := newTestFactory(t)

	histogram, err := factory.Histogram(MetricAllocationBytes)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, histogram.Record(ctx, 64))
	require.NoError(t, histogram.WithAttributes(attribute.String("resource", "pool")).Record(ctx, 128))

	rm := collectMetrics(t, reader)
	m := findMetric(rm, MetricAllocationBytes.Name)
	require.NotNil(t, m)

	data, ok := m.Data.(metricdata.Histogram[int64])
	require.True(t, ok)

	var count uint64
	for _, dp := range data.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(2), count)
}

func TestSelectDefaultBuckets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultSizeBuckets, selectDefaultBuckets("memory_allocation_bytes"))
	assert.Equal(t, DefaultCountBuckets, selectDefaultBuckets("leaked_objects"))
	assert.Equal(t, DefaultSizeBuckets, selectDefaultBuckets("unrelated"))
}

func TestHistogramCacheKeyIsBucketOrderInsensitive(t *testing.T) {
	t.Parallel()

	a := histogramCacheKey("m", []float64{1, 2, 4})
	b := histogramCacheKey("m", []float64{4, 1, 2})
	c := histogramCacheKey("m", []float64{1, 2, 8})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "m", histogramCacheKey("m", nil))
}

func TestConcurrentInstrumentCreation(t *testing.T) {
	t.Parallel()

	factory, _ := newTestFactory(t)

	var wg sync.WaitGroup

	const goroutines = 16

	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()

			counter, err := factory.Counter(MetricDeallocations)
			assert.NoError(t, err)
			assert.NoError(t, counter.AddOne(context.Background()))
		}()
	}

	wg.Wait()
}
