// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service is the value of the service field on every process log line.
const Service = "streamwatch"

// Config mirrors the logging section of the configuration file.
type Config struct {
	Level     string    // trace, debug, info, warn, error or disabled; default info
	Format    string    // json or console; default json
	Caller    bool      // add file:line
	Timestamp bool      // add the time field
	Output    io.Writer // default os.Stderr

	// Version, when set, is attached to every line next to the service.
	Version string
}

// DefaultConfig is what the process logs with before Init runs.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Timestamp: true, Output: os.Stderr}
}

var (
	mu     sync.RWMutex
	global zerolog.Logger
)

//nolint:gochecknoinits // configuration loading logs before Init runs
func init() {
	global = build(DefaultConfig())
}

// Init replaces the process logger. Later calls win.
func Init(cfg Config) {
	logger := build(cfg)
	mu.Lock()
	global = logger
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With()
	if cfg.Version != "" {
		ctx = ctx.Str("service", Service).Str("version", cfg.Version)
	}
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// parseLevel accepts zerolog's names plus "warning". Anything else is info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(level)
	if level == "warning" {
		level = "warn"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// Logger returns the process logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// SetLogger swaps the process logger, for tests that capture output.
//
//nolint:gocritic // zerolog.Logger is passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	global = l
	mu.Unlock()
}

// WithComponent tags a child of the process logger, e.g. "nats_sink".
func WithComponent(component string) zerolog.Logger {
	logger := Logger()
	return logger.With().Str("component", component).Logger()
}

func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info starts an info line.
//
//	logging.Info().Int("shards", len(shards)).Msg("Stream filter planned")
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Fatal exits the process with status 1 after the line is written.
func Fatal() *zerolog.Event {
	l := Logger()
	return l.Fatal()
}

// MaskSecret keeps only the last four characters of a client secret or
// write token so it can be logged for identification.
func MaskSecret(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
