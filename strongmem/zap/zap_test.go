//go:build unit

package zap

import (
	"context"
	"testing"

	logpkg "github.com/memcore-io/lib-strongmem/strongmem/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)

	return &Logger{logger: zap.New(core)}, observed
}

func TestLoggerNilReceiverFallsBackToNop(t *testing.T) {
	var nilLogger *Logger

	assert.NotPanics(t, func() {
		nilLogger.Info("message")
	})
}

func TestLoggerNilUnderlyingFallsBackToNop(t *testing.T) {
	logger := &Logger{}

	assert.NotPanics(t, func() {
		logger.Log(context.Background(), logpkg.LevelInfo, "message")
	})
}

func TestLogDispatchesLevels(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.DebugLevel)

	ctx := context.Background()
	logger.Log(ctx, logpkg.LevelDebug, "d")
	logger.Log(ctx, logpkg.LevelInfo, "i")
	logger.Log(ctx, logpkg.LevelWarn, "w")
	logger.Log(ctx, logpkg.LevelError, "e")

	entries := observed.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestLogConvertsFields(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	logger.Log(context.Background(), logpkg.LevelInfo, "alloc",
		logpkg.String("resource", "monotonic"),
		logpkg.Uintptr("size", 64),
	)

	entries := observed.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "monotonic", fields["resource"])
	assert.Equal(t, uint64(64), fields["size"])
}

func TestWithAddsPersistentFields(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	child := logger.With(logpkg.String("component", "pool"))
	child.Log(context.Background(), logpkg.LevelInfo, "released")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "pool", entries[0].ContextMap()["component"])
}

func TestWithGroupNestsFields(t *testing.T) {
	logger, observed := newObservedLogger(zapcore.InfoLevel)

	child := logger.WithGroup("allocator")
	child.Log(context.Background(), logpkg.LevelInfo, "stats", logpkg.Int("live", 3))

	entries := observed.All()
	require.Len(t, entries, 1)

	nested, ok := entries[0].ContextMap()["allocator"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(3), nested["live"])
}

func TestEnabledRespectsLevel(t *testing.T) {
	logger, _ := newObservedLogger(zapcore.WarnLevel)

	assert.True(t, logger.Enabled(logpkg.LevelError))
	assert.True(t, logger.Enabled(logpkg.LevelWarn))
	assert.False(t, logger.Enabled(logpkg.LevelInfo))
	assert.False(t, logger.Enabled(logpkg.LevelDebug))
}

func TestSyncRespectsCanceledContext(t *testing.T) {
	logger, _ := newObservedLogger(zapcore.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, logger.Sync(ctx), context.Canceled)
}

func TestNewBuildsAtConfiguredLevel(t *testing.T) {
	logger, err := New(logpkg.LevelWarn)
	require.NoError(t, err)

	assert.True(t, logger.Enabled(logpkg.LevelError))
	assert.False(t, logger.Enabled(logpkg.LevelInfo))
	assert.Equal(t, zapcore.WarnLevel, logger.Level().Level())
}
