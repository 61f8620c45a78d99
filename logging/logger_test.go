package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*TestMeshLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Output = buf
	cfg.Level = level
	cfg.AddSource = false
	return NewLogger(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestTestMeshLoggerContext(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.WithComponent("notifier").WithRun("run-1").WithContext("suite", "All").Info("listener removed", "listener", "text")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "listener removed", lines[0]["msg"])
	assert.Equal(t, "notifier", lines[0]["component"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Equal(t, "All", lines[0]["suite"])
	assert.Equal(t, "text", lines[0]["listener"])
}

func TestTestMeshLoggerFormatArgs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.Debug("scheduled %d children", 3)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "scheduled 3 children", lines[0]["msg"])
}

func TestTestMeshLoggerLevelFilter(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestLogTestExecution(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.LogTestExecution("a(C)", 10*time.Millisecond, false, errors.New("boom"))
	l.LogRunSummary(2, 1, 0, time.Second)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Test failed", lines[0]["msg"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "Test run completed with failures", lines[1]["msg"])
	assert.EqualValues(t, 2, lines[1]["run_count"])
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}

func TestErrorWithStack(t *testing.T) {
	t.Run("stack of the error", func(t *testing.T) {
		l, buf := newBufferLogger(LogLevelDebug)

		l.ErrorWithStack(goerrors.Wrap(errors.New("boom"), 0), "listener removed", "event", "testStarted")

		lines := decodeLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "listener removed", lines[0]["msg"])
		assert.Equal(t, "boom", lines[0]["error"])
		assert.Equal(t, "testStarted", lines[0]["event"])
		assert.Contains(t, lines[0]["stack_trace"], "TestErrorWithStack")
		assert.NotContains(t, lines[0]["stack_trace"], "(*TestMeshLogger).ErrorWithStack")
	})

	t.Run("stack of the caller", func(t *testing.T) {
		l, buf := newBufferLogger(LogLevelDebug)

		l.ErrorWithStack(errors.New("boom"), "failed %d times", 2)

		lines := decodeLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "failed 2 times", lines[0]["msg"])
		assert.Contains(t, lines[0]["stack_trace"], "goroutine ")
	})
}

func TestStartTimer(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	stop := l.StartTimer("build runner")
	stop()

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "Operation completed", lines[0]["msg"])
	assert.Equal(t, "build runner", lines[0]["operation"])
	assert.Contains(t, lines[0], "duration")
}
