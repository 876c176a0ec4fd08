// internal/util/logger.go
package util

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LogConfig selects level, format and destination of the global logger.
type LogConfig struct {
	Level  string // logrus level name
	Format string // json or text
	Output string // file path, "stdout" or "stderr"
}

var logger *logrus.Logger

// InitLogger initializes the global structured logger. The returned closer
// releases the log file, if one was opened.
func InitLogger(cfg LogConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var formatter logrus.Formatter
	switch cfg.Format {
	case "json", "":
		formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "loglevel",
			},
		}
	case "text":
		formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	out, closer, err := logOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	logger = &logrus.Logger{
		Formatter: formatter,
		Out:       out,
		Hooks:     make(logrus.LevelHooks),
		Level:     level,
	}
	return closer, nil
}

// GetLogger returns the initialized global logger.
func GetLogger() *logrus.Logger {
	if logger == nil {
		// Not initialized yet; fall back to a discarding logger.
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return logger
}

func logOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "stderr", "":
		return os.Stderr, nopCloser{}, nil
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %q: %w", output, err)
	}
	return f, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
