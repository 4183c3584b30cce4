package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NeuralTrust/TrustRelay/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	t.Chdir(t.TempDir())

	logger, closeFn, err := NewLogger(config.LogConfig{Level: "debug", File: "logs/relay.log"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("handle", "#1").Info("issued anonymous handle")
	closeFn()

	data, err := os.ReadFile(filepath.Join("logs", "relay.log"))
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "issued anonymous handle", entry["msg"])
	assert.Equal(t, "#1", entry["handle"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_RejectsPathOutsideWorkingDir(t *testing.T) {
	_, _, err := NewLogger(config.LogConfig{File: "../escape.log"})
	assert.Error(t, err)

	_, _, err = NewLogger(config.LogConfig{File: "/var/log/relay.log"})
	assert.Error(t, err)
}

func TestNewLogger_StdoutOnly(t *testing.T) {
	logger, closeFn, err := NewLogger(config.LogConfig{Level: "warn"})
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}

func TestParseLevel_FallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, parseLevel("verbose"))
	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, logrus.ErrorLevel, parseLevel("debug"))
}

func TestConsoleHook_MirrorsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(NewConsoleHook(&buf))

	logger.Warn("suspended sender")

	assert.True(t, strings.Contains(buf.String(), "suspended sender"))
}

func TestAsyncFileWriter_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	writer, err := NewAsyncFileWriter(path, 64)
	require.NoError(t, err)

	_, err = writer.Write([]byte("line\n"))
	require.NoError(t, err)
	writer.Close()
	writer.Close()

	_, err = writer.Write([]byte("late\n"))
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
	assert.Equal(t, uint64(0), writer.Dropped())
}
