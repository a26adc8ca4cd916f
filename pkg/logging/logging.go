// Package logging builds the zerolog logger used across stagerun.
//
// The logger is constructed once by the CLI and handed down explicitly to
// the orchestrator and dispatcher. There is no package-global logger:
// library packages receive a zerolog.Logger and derive component loggers
// from it.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

// LogFileName is the name of the log file under the XDG state directory
const LogFileName = "stagerun.log"

// NewLogger creates the root logger for the given verbosity level.
// It writes to both the console (stderr) and an append-only log file
// under $XDG_STATE_HOME/stagerun/.
func NewLogger(verbosity int) zerolog.Logger {
	level := levelFor(verbosity)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}

	writers := []io.Writer{consoleWriter}

	logFile := LogFilePath()
	logFileHandle, err := openLogFile(logFile)
	if err == nil {
		writers = append(writers, logFileHandle)
	}

	logger := zerolog.New(io.MultiWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()

	if err != nil {
		logger.Warn().Err(err).Str("path", logFile).Msg("Failed to create log file, logging to console only")
	}

	// Caller information for debug and trace levels
	if verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}

	logger.Debug().Int("verbosity", verbosity).Str("logFile", logFile).Msg("Logger initialized")
	return logger
}

// Component returns a child logger tagged with the given component name
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// LogFilePath returns the path to the log file under the XDG state directory
func LogFilePath() string {
	return filepath.Join(xdg.StateHome, "stagerun", LogFileName)
}

func levelFor(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// openLogFile creates the log file and its parent directories
func openLogFile(logPath string) (*os.File, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return file, nil
}
