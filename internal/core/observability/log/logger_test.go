package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level Level) (*Logger, *observer.ObservedLogs) {
	atomicLevel := zap.NewAtomicLevelAt(toZapLevel(level))
	core, logs := observer.New(atomicLevel)
	logger := NewFromCore(core, level)
	logger.level = atomicLevel
	return logger, logs
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: " error ", want: LevelError},
		{in: "fatal", want: LevelFatal},
		{in: "loud", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_WithCarriesFields(t *testing.T) {
	logger, logs := newObserved(LevelDebug)

	child := logger.With(String("component", "runner"))
	child.Info("tick", Uint64("tick", 7), Float64("x", 1.5), Error(errors.New("boom")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "tick", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "runner", ctx["component"])
	assert.Equal(t, uint64(7), ctx["tick"])
	assert.Equal(t, 1.5, ctx["x"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestLogger_SetLevelFiltersChildren(t *testing.T) {
	logger, logs := newObserved(LevelDebug)
	child := logger.With(String("component", "server"))

	logger.SetLevel(LevelWarn)
	assert.Equal(t, LevelWarn, logger.GetLevel())

	child.Info("dropped")
	child.Log(LevelDebug, "dropped too")
	child.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	assert.NotPanics(t, func() {
		logger.With(Bool("ok", true)).Info("silent")
	})
}
