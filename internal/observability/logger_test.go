// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/boxlayout/internal/config"
)

// initBuffered initializes the global logger into a buffer and resets it
// when the test ends.
func initBuffered(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("Console With Colors", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		})
		GetLogger().Named("layout").Info("Laid out tree.")
		Sync()

		output := buf.String()
		assert.Contains(t, output, colorGreen+"INFO"+colorReset)
		assert.Contains(t, output, "TestService.layout.")
		assert.Contains(t, output, "Laid out tree.")
	})

	t.Run("Console Without A Color Stays Plain", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "debug", Format: "console", Colors: config.ColorConfig{Debug: "chartreuse"}})
		GetLogger().Debug("plain")
		Sync()
		assert.Contains(t, buf.String(), "DEBUG")
		assert.NotContains(t, buf.String(), colorReset)
	})

	t.Run("JSON", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "JSONTest"})
		GetLogger().Warn("Dropped declaration.", zap.String("property", "color"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be valid JSON")
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "Dropped declaration.", entry["msg"])
		assert.Equal(t, "color", entry["property"])
	})

	t.Run("Level Filters And Bad Level Falls Back To Info", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "loud", Format: "json"})
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("Writes A Rotated File", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "boxlayout.log")
		initBuffered(t, config.LoggerConfig{Level: "debug", Format: "console", LogFile: file, MaxSize: 1})
		GetLogger().Error("This should go to the file.")
		Close()

		content, err := os.ReadFile(file)
		require.NoError(t, err)
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry), "file output is always JSON")
		assert.Equal(t, "This should go to the file.", entry["msg"])
	})

	t.Run("Only Once", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"})
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, zapcore.AddSync(&bytes.Buffer{}))
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("test")
		Sync()
		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})

	t.Run("Redirects The Standard Logger", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json"})
		log.Print("from the standard library")
		Sync()
		assert.Contains(t, buf.String(), "from the standard library")
	})
}

func TestNew(t *testing.T) {
	ResetForTest()
	var buf bytes.Buffer
	logger, sink := New(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "local"}, zapcore.AddSync(&buf))
	assert.Nil(t, sink)
	logger.Info("independent")
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), `"logger":"local"`)
	assert.Nil(t, globalLogger.Load(), "New must not touch the global logger")
}

func TestGetLogger(t *testing.T) {
	t.Run("Fallback Before Initialization", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})

	t.Run("Global After Initialization", func(t *testing.T) {
		initBuffered(t, config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"})
		assert.Equal(t, globalLogger.Load(), GetLogger())
	})
}
