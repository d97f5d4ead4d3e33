package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   slog.Level
		wantOK bool
	}{
		{name: "debug", want: slog.LevelDebug, wantOK: true},
		{name: "INFO", want: slog.LevelInfo, wantOK: true},
		{name: "", want: slog.LevelInfo, wantOK: true},
		{name: "Warn", want: slog.LevelWarn, wantOK: true},
		{name: "error", want: slog.LevelError, wantOK: true},
		{name: "verbose", want: slog.LevelInfo, wantOK: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := logger.ParseLevel(tc.name)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantOK, ok)
		})
	}
}

func TestNewWarnsOnInvalidLevel(t *testing.T) {
	t.Parallel()
	buf := &logger.TestLogBuffer{}

	log := logger.New(buf, "chatty")
	log.Debug("hidden")
	log.Info("visible", slog.String("component", "test"))

	entries, err := buf.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "chatty", entries[0]["configured_level"])
	assert.Equal(t, "visible", entries[1]["msg"])
	assert.Equal(t, "test", entries[1]["component"])
}

func TestSetupReturnsLogger(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	log, err := logger.Setup(config.ServerConfig{LogLevel: "debug"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
	assert.Same(t, log, slog.Default())
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()
	reqLogger, buf := logger.NewTestLogger()
	fallback, _ := logger.NewTestLogger()

	ctx := logger.WithLogger(context.Background(), reqLogger.With(slog.String("trace_id", "abc")))

	logger.FromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), `"trace_id":"abc"`)

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.NotNil(t, logger.FromContext(context.Background()))
}
