package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NeuralTrust/TrustRelay/pkg/config"
	"github.com/sirupsen/logrus"
)

const fileBufferSize = 32 * 1024

// NewLogger builds the JSON logger used across the relay. Entries go to an
// async buffered log file and are mirrored on stdout. The returned close
// function flushes the file.
func NewLogger(cfg config.LogConfig) (*logrus.Logger, func(), error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(parseLevel(cfg.Level))

	if cfg.File == "" {
		logger.SetOutput(os.Stdout)
		return logger, func() {}, nil
	}

	logFile := filepath.Clean(cfg.File)
	if filepath.IsAbs(logFile) || strings.HasPrefix(logFile, "..") {
		return nil, nil, fmt.Errorf("invalid log file path %q: must be relative to the working directory", cfg.File)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	asyncWriter, err := NewAsyncFileWriter(logFile, fileBufferSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}

	logger.SetOutput(asyncWriter)
	logger.AddHook(NewConsoleHook(os.Stdout))

	return logger, asyncWriter.Close, nil
}

func parseLevel(level string) logrus.Level {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
