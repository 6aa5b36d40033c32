package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lkarlslund/gatherbot/internal/config"
)

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "gatherbot"}, zapcore.AddSync(&buf))
	logger.Named("controller").Debug("phase", zap.String("to", "NAVIGATING"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "gatherbot.controller.")
	assert.Contains(t, out, "phase")
	assert.Contains(t, out, "NAVIGATING")
}

func TestJSONLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))
	logger.Info("hidden")
	logger.Warn("shown", zap.Int("attempts", 26))
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.EqualValues(t, 26, line["attempts"])
}

func TestFileSink(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bot.log")
	var buf bytes.Buffer
	logger := New(config.LoggerConfig{Level: "info", Format: "console", LogFile: file, MaxSize: 1}, zapcore.AddSync(&buf))
	logger.Info("to both")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to both"`)
	assert.Contains(t, buf.String(), "to both")
}

func TestInitializeOnce(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	var first, second bytes.Buffer
	a := Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&first))
	b := Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&second))
	assert.Same(t, a, b)
	GetLogger().Info("hello")
	Sync()
	assert.Contains(t, first.String(), "hello")
	assert.Empty(t, second.String())
}
