package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestLineFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, slog.LevelInfo, false)

	logger.Debug("hidden")
	logger.Info("row skipped", "row", 3, "field", "poblacion")
	logger.With("backend", "csv").Warn("dataset created")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO row skipped [row=3, field=poblacion]\n")
	assert.Contains(t, out, "WARN dataset created [backend=csv]\n")
}

func TestSourceLocation(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, slog.LevelDebug, true)

	logger.Info("wrapped")
	logger.With("backend", "csv").Warn("derived")
	logger.Logger.Debug("direct")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Contains(t, line, " logger_test.go:")
		assert.NotContains(t, line, " logger.go:")
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger := File(path, true, slog.LevelInfo)
	logger.Info("first")
	require.NoError(t, logger.Close())

	logger = File(path, true, slog.LevelInfo)
	logger.Info("second")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}

func TestDefaultLogger(t *testing.T) {
	prev := defaultLogger
	defer Init(prev)

	Init(nil)
	assert.NotNil(t, Get())

	l := DevNull()
	Init(l)
	assert.Same(t, l, Get())
}
