// Package log provides the structured logging facade used across stagehand.
package log

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Fields contains key-value pairs of structured logging data.
type Fields = logrus.Fields

// Logger is the logging interface accepted by stagehand components.
type Logger interface {
	// WithField creates a new logger with the given field appended.
	WithField(key string, value any) Logger
	// WithFields creates a new logger with the given fields appended.
	WithFields(fields Fields) Logger
	// WithError creates a new logger with an error field appended.
	WithError(err error) Logger

	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// LogrusLogger implements Logger on top of a logrus entry.
type LogrusLogger struct {
	entry *logrus.Entry
}

// FromLogrusEntry wraps an existing logrus entry into a LogrusLogger.
func FromLogrusEntry(entry *logrus.Entry) LogrusLogger {
	return LogrusLogger{entry: entry}
}

// Configure creates a new logger writing to the given writer using the
// requested format ("text" or "json") and level.
func Configure(out io.Writer, format string, levelName string) (LogrusLogger, error) {
	logger := logrus.New()
	logger.Out = out

	switch format {
	case "", "text":
		logger.Formatter = &logrus.TextFormatter{}
	case "json":
		logger.Formatter = &logrus.JSONFormatter{}
	default:
		return LogrusLogger{}, fmt.Errorf("invalid logger format %q", format)
	}

	if levelName == "" {
		levelName = "info"
	}

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return LogrusLogger{}, fmt.Errorf("parse logger level: %w", err)
	}
	logger.SetLevel(level)

	return FromLogrusEntry(logrus.NewEntry(logger)), nil
}

// Discard returns a Logger that drops every message. It is the default for
// components constructed without an explicit logger.
func Discard() LogrusLogger {
	logger := logrus.New()
	logger.Out = io.Discard

	return FromLogrusEntry(logrus.NewEntry(logger))
}

// WithField creates a new logger with the given field appended.
func (l LogrusLogger) WithField(key string, value any) Logger {
	return LogrusLogger{entry: l.entry.WithField(key, value)}
}

// WithFields creates a new logger with the given fields appended.
func (l LogrusLogger) WithFields(fields Fields) Logger {
	return LogrusLogger{entry: l.entry.WithFields(fields)}
}

// WithError creates a new logger with an error field appended.
func (l LogrusLogger) WithError(err error) Logger {
	return LogrusLogger{entry: l.entry.WithError(err)}
}

// Debug logs a message at debug level.
func (l LogrusLogger) Debug(msg string) { l.entry.Debug(msg) }

// Info logs a message at info level.
func (l LogrusLogger) Info(msg string) { l.entry.Info(msg) }

// Warn logs a message at warn level.
func (l LogrusLogger) Warn(msg string) { l.entry.Warn(msg) }

// Error logs a message at error level.
func (l LogrusLogger) Error(msg string) { l.entry.Error(msg) }
