package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level selects the minimum severity emitted by the process logger.
type Level = zerolog.Level

const (
	TraceLevel = zerolog.TraceLevel
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	Disabled   = zerolog.Disabled
)

// Config controls process-wide log output.
type Config struct {
	Level     Level
	Timestamp bool
	NoColor   bool
	Bypass    bool
}

func DefaultConfig() Config {
	return Config{
		Level:     InfoLevel,
		Timestamp: true,
	}
}

var (
	mu     sync.RWMutex
	root   = build(DefaultConfig())
	bypass bool
)

// Configure replaces the process logger. Safe to call at any point;
// in-flight writers finish on the previous sink.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	root = build(cfg)
	bypass = cfg.Bypass
}

func build(cfg Config) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	if !cfg.Timestamp {
		out.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	logger := zerolog.New(out).Level(cfg.Level)
	if cfg.Timestamp {
		logger = logger.With().Timestamp().Logger()
	}
	return logger
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Log writes regardless of the configured level, short of Disabled.
func Log(msg string) {
	if bypassed() {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	l := current()
	l.WithLevel(zerolog.NoLevel).Msg(msg)
}

func Logf(format string, args ...any) {
	if bypassed() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		return
	}
	l := current()
	l.WithLevel(zerolog.NoLevel).Msgf(format, args...)
}

func Tracef(format string, args ...any) {
	l := current()
	l.Trace().Msgf(format, args...)
}

func Debug(msg string) {
	l := current()
	l.Debug().Msg(msg)
}

func Debugf(format string, args ...any) {
	l := current()
	l.Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	l := current()
	l.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	l := current()
	l.Warn().Msgf(format, args...)
}

func Errf(format string, args ...any) {
	l := current()
	l.Error().Msgf(format, args...)
}

func bypassed() bool {
	mu.RLock()
	defer mu.RUnlock()
	return bypass
}
