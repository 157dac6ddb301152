package strongmem

import (
	"context"

	"github.com/memcore-io/lib-strongmem/strongmem/log"
	"github.com/memcore-io/lib-strongmem/strongmem/opentelemetry/metrics"
)

type customContextKey string

// CustomContextKey is the context key used to store CustomContextKeyValue.
var CustomContextKey = customContextKey("strongmem_context")

// CustomContextKeyValue holds the observability facilities attached to a
// context: the logger leak reports go to and the factory allocation metrics
// are built from.
type CustomContextKeyValue struct {
	Logger        log.Logger
	MetricFactory *metrics.MetricsFactory
}

// NewLoggerFromContext extracts the Logger attached to ctx, falling back to a
// no-op logger so callers never need a nil check.
//
//nolint:ireturn
func NewLoggerFromContext(ctx context.Context) log.Logger {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok &&
		values.Logger != nil {
		return values.Logger
	}

	return &log.NopLogger{}
}

// ContextWithLogger returns a context carrying the given logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	values, _ := ctx.Value(CustomContextKey).(*CustomContextKeyValue)
	if values == nil {
		values = &CustomContextKeyValue{}
	}

	values.Logger = logger

	return context.WithValue(ctx, CustomContextKey, values)
}

// NewMetricsFactoryFromContext extracts the MetricsFactory attached to ctx,
// falling back to a no-op factory.
func NewMetricsFactoryFromContext(ctx context.Context) *metrics.MetricsFactory {
	if values, ok := ctx.Value(CustomContextKey).(*CustomContextKeyValue); ok &&
		values.MetricFactory != nil {
		return values.MetricFactory
	}

	return metrics.NewNopFactory()
}

// ContextWithMetricsFactory returns a context carrying the given factory.
func ContextWithMetricsFactory(ctx context.Context, factory *metrics.MetricsFactory) context.Context {
	values, _ := ctx.Value(CustomContextKey).(*CustomContextKeyValue)
	if values == nil {
		values = &CustomContextKeyValue{}
	}

	values.MetricFactory = factory

	return context.WithValue(ctx, CustomContextKey, values)
}
