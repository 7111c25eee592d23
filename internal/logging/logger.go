// Package logging provides structured logging with file output support.
// It uses environment variables for configuration and supports file cleanup.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerCloser wraps a logger and provides a Close method for cleanup
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// NewLoggerWithWriter creates a new logger with the provided writer
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	lg.SetLevel(levelFromEnv())

	prefix := os.Getenv("DEXGRAPH_LOG_PREFIX")
	if prefix == "" {
		prefix = "dexgraph "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a new logger based on environment variables
// DEXGRAPH_LOG_LEVEL: debug, info, warn, error (default: info)
// DEXGRAPH_LOG_PREFIX: prefix for log messages (default: "dexgraph ")
// DEXGRAPH_LOG_TO_FILE: when set to "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv("DEXGRAPH_LOG_TO_FILE") == "1" {
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("dexgraph-%s.log", timestamp)

		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// If file creation fails, fall back to stderr
	}

	return NewLoggerWithWriter(output)
}

var (
	defaultOnce   sync.Once
	defaultLogger *LoggerCloser
)

// Default returns the process-wide logger, created on first use.
// Scopes that were not handed an explicit logger log through it.
func Default() *log.Logger {
	defaultOnce.Do(func() {
		defaultLogger = NewLogger()
	})
	return defaultLogger.Logger
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return os.Getenv("DEXGRAPH_LOG_LEVEL") == "debug"
}

// SetLevelFromFlag raises the default logger to debug when the --debug
// flag or the config asks for it.
func SetLevelFromFlag(debug bool) {
	if debug {
		Default().SetLevel(log.DebugLevel)
	}
}

func levelFromEnv() log.Level {
	switch os.Getenv("DEXGRAPH_LOG_LEVEL") {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
