// Package logging provides named component loggers backed by zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging contract every package in this module accepts.
// Arguments after the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds logger options
type Config struct {
	Level  string
	Format string // "pretty" or "json"
	Output io.Writer
}

// Provider hands out loggers scoped to a component name
type Provider struct {
	base zerolog.Logger
}

// New creates a Provider from the given config
func New(cfg Config) *Provider {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if strings.EqualFold(cfg.Format, "pretty") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	base := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return &Provider{base: base}
}

// GetLogger returns a logger that tags every entry with name
func (p *Provider) GetLogger(name string) Logger {
	if p == nil {
		return Default()
	}
	return zlogger{l: p.base.With().Str("logger", name).Logger()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
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
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Default is the fallback logger used when a component is not given one.
func Default() Logger {
	return zlogger{l: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()}
}

// Nop discards everything
func Nop() Logger {
	return zlogger{l: zerolog.Nop()}
}

type zlogger struct {
	l zerolog.Logger
}

func (z zlogger) Debug(msg string, args ...any) {
	z.l.Debug().Fields(pairs(args)).Msg(msg)
}

func (z zlogger) Info(msg string, args ...any) {
	z.l.Info().Fields(pairs(args)).Msg(msg)
}

func (z zlogger) Warn(msg string, args ...any) {
	z.l.Warn().Fields(pairs(args)).Msg(msg)
}

func (z zlogger) Error(msg string, args ...any) {
	z.l.Error().Fields(pairs(args)).Msg(msg)
}

// pairs turns key/value args into a field map. A trailing key without value
// is kept under "!BADKEY" so nothing is silently dropped.
func pairs(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			fields["!BADKEY"] = args[i]
			continue
		}
		if i+1 >= len(args) {
			fields["!BADKEY"] = key
			break
		}
		if err, ok := args[i+1].(error); ok && err != nil {
			fields[key] = err.Error()
			continue
		}
		fields[key] = args[i+1]
	}
	return fields
}
