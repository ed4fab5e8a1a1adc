package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "info", Format: "json", Output: &buf})

	logger.WithComponent("navigation").Warn().Str("type", "page_view").Msg("push rejected")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "navigation", line["component"])
	assert.Equal(t, "page_view", line["type"])
	assert.Equal(t, "push rejected", line["message"])
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "warn", Format: "json", Output: &buf})

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	verbose := NewLogger(LoggerOptions{Level: "warn", Format: "json", Output: &buf, Verbose: true})
	verbose.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "debug", Format: "pretty", Output: &buf})
	logger.WithAddress("iiif://viewer/#aor").Info().Msg("decoded")

	out := buf.String()
	assert.Contains(t, out, "decoded")
	assert.Contains(t, out, "address=iiif://viewer/#aor")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"bogus": zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithComponent("x").Error().Msg("dropped")
	})
}
