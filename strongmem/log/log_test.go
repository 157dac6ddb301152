package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level    Level
		expected string
	}{
		{LevelError, "error"},
		{LevelWarn, "warn"},
		{LevelInfo, "info"},
		{LevelDebug, "debug"},
		{Level(42), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"Warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "size", Value: uint64(64)}, Uintptr("size", 64))
	assert.Equal(t, Field{Key: "ok", Value: true}, Bool("ok", true))

	err := assert.AnError
	assert.Equal(t, Field{Key: "error", Value: err}, Err(err))
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NewNop()

	assert.NotPanics(t, func() {
		logger.Log(context.Background(), LevelError, "dropped", String("k", "v"))
	})
	assert.False(t, logger.Enabled(LevelError))
	assert.Same(t, logger, logger.With(String("k", "v")))
	assert.Same(t, logger, logger.WithGroup("group"))
	require.NoError(t, logger.Sync(context.Background()))
}
