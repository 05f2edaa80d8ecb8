package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error, fatal, panic).
	Level string

	// Format is json, or console/pretty for human-readable output.
	Format string

	// Output names the destination: stdout or stderr.
	Output string

	// Writer, when set, replaces Output.
	Writer io.Writer

	// AddSource adds source file and line number to log entries.
	AddSource bool

	// TimeFormat is the time format for timestamps.
	TimeFormat string
}

// DefaultLoggingConfig returns the server defaults: JSON at info on stdout.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: time.RFC3339Nano,
	}
}

// NewLogger creates a zerolog logger from cfg. The CLI logs to stderr so
// stdout carries only results and the MCP stdio stream.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	out := cfg.Writer
	if out == nil {
		out = os.Stdout
		if strings.EqualFold(cfg.Output, "stderr") {
			out = os.Stderr
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	lc := zerolog.New(out).With().Timestamp()
	if cfg.AddSource {
		lc = lc.Caller()
	}
	return lc.Logger().Level(parseLevel(cfg.Level))
}

// parseLevel maps a configured level name to a zerolog level. "warning" is
// accepted as an alias; anything unrecognized is info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zerolog.WarnLevel
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" || l == zerolog.NoLevel || l == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return l
}

// WithRequestContext adds request and session fields to a logger.
func WithRequestContext(logger zerolog.Logger, requestID, sessionID string) zerolog.Logger {
	ctx := logger.With().Str("request_id", requestID)
	if sessionID != "" {
		ctx = ctx.Str("session_id", sessionID)
	}
	return ctx.Logger()
}

// WithSearchContext adds search-related fields to a logger.
func WithSearchContext(logger zerolog.Logger, query, source string) zerolog.Logger {
	return logger.With().
		Str("query", query).
		Str("source", source).
		Logger()
}

// WithLLMContext adds LLM provider fields to a logger.
func WithLLMContext(logger zerolog.Logger, provider, model string) zerolog.Logger {
	return logger.With().
		Str("llm_provider", provider).
		Str("llm_model", model).
		Logger()
}

// FromContext returns logger enriched with the request and session IDs
// carried by ctx, if any.
func FromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	requestID := RequestIDFromContext(ctx)
	sessionID := SessionIDFromContext(ctx)
	if requestID == "" && sessionID == "" {
		return logger
	}
	return WithRequestContext(logger, requestID, sessionID)
}
