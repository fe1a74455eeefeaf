package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger() (*Logger, *bytes.Buffer) {
	logger := NewLogger()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	return logger, &buf
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger()
	logger.SetLevel(WARN)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
}

func TestTextFormat(t *testing.T) {
	logger, buf := newBufferLogger()

	logger.Info("profiling started",
		Component("profiling"),
		String("dataset", "orders"),
		Int("rows", 42))

	output := buf.String()
	assert.Contains(t, output, "[INFO] profiling started")
	assert.Contains(t, output, "component=profiling")
	assert.Contains(t, output, "dataset=orders")
	assert.Contains(t, output, "rows=42")
}

func TestJSONFormat(t *testing.T) {
	logger, buf := newBufferLogger()
	logger.SetFormat("json")

	logger.Error("scan failed", errors.New("boom"),
		Component("ethical"),
		RequestID("req-1"),
		Float("score", 42.5),
		Bool("retryable", false))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "scan failed", entry.Message)
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, "ethical", entry.Component)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "aether-insight", entry.Service)
	assert.Equal(t, 42.5, entry.Fields["score"])
	assert.Equal(t, false, entry.Fields["retryable"])
	assert.NotEmpty(t, entry.File)
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DEBUG.String())
	assert.Equal(t, "INFO", INFO.String())
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "ERROR", ERROR.String())
	assert.Equal(t, "FATAL", FATAL.String())
}

func TestInitLoggerAppliesConfig(t *testing.T) {
	logger := GetLogger()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetLevel(INFO)

	require.NoError(t, InitLogger(LoggingConfig{
		Level:  "debug",
		Format: "text",
		Output: "stdout",
	}))
	// InitLogger resets output to stdout; route it back to the buffer.
	logger.SetOutput(&buf)

	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}
