package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "catalog", LevelWarn)

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.LogWarning("serving stale RSI", errors.New("connection refused"))
	entry := lastLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "catalog", entry["component"])
	assert.Equal(t, "serving stale RSI", entry["message"])
	assert.Equal(t, "connection refused", entry["error"])
}

func TestLogger_ChildLoggers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "wizard", LevelDebug)

	log.With("indicator", "MACD").Debugf("migrated %d conditions", 2)
	entry := lastLine(t, &buf)
	assert.Equal(t, "MACD", entry["indicator"])
	assert.Equal(t, "migrated 2 conditions", entry["message"])

	log.Component("advisor").Info("check skipped")
	assert.Contains(t, buf.String(), `"component":"advisor"`)

	assert.NoError(t, log.Close())
	Nop().Error("never written", errors.New("x"))
}

func TestNewFileLogger(t *testing.T) {
	dir := t.TempDir()
	log, err := NewFileLogger(dir, "wizard", LevelInfo)
	require.NoError(t, err)
	log.Info("started")
	require.NoError(t, log.Close())
}
