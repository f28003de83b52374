package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, line string) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

// TestLogger_WritesJSON tests the ELK-compatible entry shape
func TestLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, InfoLevel)

	logger.Info("routed prompt", map[string]interface{}{"latency_ms": 12})

	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "routed prompt", entry.Message)
	assert.NotEmpty(t, entry.Timestamp)
	assert.Equal(t, "globalmcp", entry.Fields["service"])
	assert.EqualValues(t, 12, entry.Fields["latency_ms"])
}

// TestLogger_LevelFilter tests minimum level filtering
func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, WarnLevel)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

// TestLogger_PromotesKnownFields tests request_id and tier promotion to
// top-level entry members
func TestLogger_PromotesKnownFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, InfoLevel)

	logger.Info("routed", map[string]interface{}{
		"request_id": "req-123",
		"tier":       "moderate",
	})

	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "req-123", entry.RequestID)
	assert.Equal(t, "moderate", entry.Tier)
	assert.NotContains(t, entry.Fields, "request_id")
}

// TestLogger_ErrorField tests error serialization
func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, InfoLevel)

	logger.Error("dispatch failed", errors.New("connection refused"))

	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "connection refused", entry.Error)
}

// TestParseLevel tests config string mapping
func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, InfoLevel, ParseLevel("info"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"), "unknown levels default to info")
}

// TestLogger_WithField tests global field attachment
func TestLogger_WithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, InfoLevel).WithField("version", "1.0.0")

	logger.Info("starting")

	entry := decodeEntry(t, buf.String())
	assert.Equal(t, "1.0.0", entry.Fields["version"])
}
