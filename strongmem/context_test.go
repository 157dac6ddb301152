//go:build unit

package strongmem

import (
	"context"
	"testing"

	"github.com/memcore-io/lib-strongmem/strongmem/log"
	"github.com/memcore-io/lib-strongmem/strongmem/opentelemetry/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFromContextFallsBackToNop(t *testing.T) {
	t.Parallel()

	logger := NewLoggerFromContext(context.Background())

	require.NotNil(t, logger)
	assert.IsType(t, &log.NopLogger{}, logger)
}

func TestContextWithLoggerRoundTrip(t *testing.T) {
	t.Parallel()

	logger := log.NewNop()
	ctx := ContextWithLogger(context.Background(), logger)

	assert.Equal(t, logger, NewLoggerFromContext(ctx))
}

func TestNewMetricsFactoryFromContextFallsBackToNop(t *testing.T) {
	t.Parallel()

	factory := NewMetricsFactoryFromContext(context.Background())

	require.NotNil(t, factory)

	counter, err := factory.Counter(metrics.MetricAllocations)
	require.NoError(t, err)
	assert.NoError(t, counter.AddOne(context.Background()))
}

func TestContextWithMetricsFactoryRoundTrip(t *testing.T) {
	t.Parallel()

	factory := metrics.NewNopFactory()
	ctx := ContextWithMetricsFactory(context.Background(), factory)

	assert.Same(t, factory, NewMetricsFactoryFromContext(ctx))
}

func TestContextCarriesBothFacilities(t *testing.T) {
	t.Parallel()

	logger := log.NewNop()
	factory := metrics.NewNopFactory()

	ctx := ContextWithLogger(context.Background(), logger)
	ctx = ContextWithMetricsFactory(ctx, factory)

	assert.Equal(t, logger, NewLoggerFromContext(ctx))
	assert.Same(t, factory, NewMetricsFactoryFromContext(ctx))
}
