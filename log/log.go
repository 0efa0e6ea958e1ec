// Package log is the logging facade used across pdb-mcp.
// The stdio transport owns stdout, so loggers normally write to a file.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the printf-style logger handed to components.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	// With returns a logger that adds key=value to every entry
	With(key string, value interface{}) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is one of trace, debug, info, warn, error.
	Level string
	// Pretty enables human-readable console output.
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

type logger struct {
	z zerolog.Logger
}

var _ Logger = (*logger)(nil)

// New creates a zerolog-backed Logger.
func New(cfg Config) Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    true,
		}
	}

	return &logger{
		z: zerolog.New(output).
			Level(ParseLevel(cfg.Level)).
			With().
			Timestamp().
			Logger(),
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &logger{z: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

func (l *logger) Debugf(format string, args ...interface{}) { l.z.Debug().Msgf(format, args...) }
func (l *logger) Infof(format string, args ...interface{})  { l.z.Info().Msgf(format, args...) }
func (l *logger) Warnf(format string, args ...interface{})  { l.z.Warn().Msgf(format, args...) }
func (l *logger) Errorf(format string, args ...interface{}) { l.z.Error().Msgf(format, args...) }

func (l *logger) Debug(args ...interface{}) { l.z.Debug().Msg(fmt.Sprint(args...)) }
func (l *logger) Info(args ...interface{})  { l.z.Info().Msg(fmt.Sprint(args...)) }
func (l *logger) Warn(args ...interface{})  { l.z.Warn().Msg(fmt.Sprint(args...)) }
func (l *logger) Error(args ...interface{}) { l.z.Error().Msg(fmt.Sprint(args...)) }

func (l *logger) With(key string, value interface{}) Logger {
	return &logger{z: l.z.With().Interface(key, value).Logger()}
}
