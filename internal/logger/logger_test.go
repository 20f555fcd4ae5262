package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), tt.input)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf, Level: "info", Format: "json"})

	log.Debug("hidden")
	log.Info("listing created", "property_id", "p1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "listing created", entry["msg"])
	assert.Equal(t, "p1", entry["property_id"])
}

func TestNewTintWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf, Level: "debug"})
	log.Debug("planning query", "route", "fetch_all")
	assert.Contains(t, buf.String(), "planning query")
	assert.Contains(t, buf.String(), "fetch_all")
}
