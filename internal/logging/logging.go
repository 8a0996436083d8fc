package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/daybook/internal/config"
)

// TypeEnum tags a log line with the subsystem that wrote it.
type TypeEnum string

const (
	TypeApp   TypeEnum = "app"
	TypeStore TypeEnum = "store"
	TypeSync  TypeEnum = "sync"
	TypeNet   TypeEnum = "net"
)

type Logger interface {
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Errorf(t TypeEnum, format string, args ...interface{})
	Close()
}

// ZeroLogger writes structured lines through zerolog.
type ZeroLogger struct {
	log  zerolog.Logger
	file *os.File
}

// New builds a logger from config. With an empty dir it writes human-readable
// lines to stderr, otherwise JSON lines to <dir>/daybook.log.
func New(conf config.LoggerConfig) (*ZeroLogger, error) {
	level, err := zerolog.ParseLevel(conf.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Level, err)
	}

	var out io.Writer
	var file *os.File
	if conf.Dir == "" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	} else {
		if err := os.MkdirAll(conf.Dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file, err = os.OpenFile(filepath.Join(conf.Dir, "daybook.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = file
	}

	return &ZeroLogger{
		log:  zerolog.New(out).Level(level).With().Timestamp().Logger(),
		file: file,
	}, nil
}

// NewWriter logs JSON lines to w. Used by tests and the dev server.
func NewWriter(w io.Writer, level zerolog.Level) *ZeroLogger {
	return &ZeroLogger{log: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (l *ZeroLogger) Debugf(t TypeEnum, format string, args ...interface{}) {
	l.log.Debug().Str("type", string(t)).Msgf(format, args...)
}

func (l *ZeroLogger) Infof(t TypeEnum, format string, args ...interface{}) {
	l.log.Info().Str("type", string(t)).Msgf(format, args...)
}

func (l *ZeroLogger) Warnf(t TypeEnum, format string, args ...interface{}) {
	l.log.Warn().Str("type", string(t)).Msgf(format, args...)
}

func (l *ZeroLogger) Errorf(t TypeEnum, format string, args ...interface{}) {
	l.log.Error().Str("type", string(t)).Msgf(format, args...)
}

func (l *ZeroLogger) Close() {
	if l.file != nil {
		_ = l.file.Close()
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debugf(TypeEnum, string, ...interface{}) {}
func (Nop) Infof(TypeEnum, string, ...interface{})  {}
func (Nop) Warnf(TypeEnum, string, ...interface{})  {}
func (Nop) Errorf(TypeEnum, string, ...interface{}) {}
func (Nop) Close()                                  {}
