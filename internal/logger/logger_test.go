package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"binwahab-store/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" warning "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, config.Log{Level: "info", Format: "json"}, "test")

	log.Debug("hidden")
	log.Info("order created", "order_id", 42)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "order created", line["msg"])
	assert.Equal(t, "binwahab-store", line["service"])
	assert.Equal(t, "test", line["env"])
	assert.EqualValues(t, 42, line["order_id"])
}

func TestNewTextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, config.Log{Level: "debug", Format: "text"}, "dev")

	log.Debug("reserved stock")
	assert.Contains(t, buf.String(), "msg=\"reserved stock\"")
}
