package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Logger = (*AgentLabLogger)(nil)
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
)

func newBufferLogger(level LogLevel) (*AgentLabLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Output = buf
	cfg.AddSource = false
	cfg.Level = level
	return NewLogger(cfg), buf
}

func TestAgentLabLogger_StructuredArgs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)

	l.WithComponent("task").WithSession("c1", "m1").Info("run started", "attempt", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run started", entry["msg"])
	assert.Equal(t, "task", entry["component"])
	assert.Equal(t, "c1", entry["chat_id"])
	assert.Equal(t, "m1", entry["message_id"])
	assert.Equal(t, float64(2), entry["attempt"])
}

func TestAgentLabLogger_LevelFilter(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestAgentLabLogger_ErrorWithStack(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)

	ErrorWithStack(l, errors.New("boom"), "failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry["stack_trace"], "goroutine")
}

func TestWithContextIsolation(t *testing.T) {
	base, _ := newBufferLogger(LogLevelInfo)
	child := base.WithContext("k", "v")
	assert.Empty(t, base.context)
	assert.Equal(t, "v", child.context["k"])
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
}
