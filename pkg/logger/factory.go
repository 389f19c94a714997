package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents logger output format.
type Format string

const (
	// FormatJSON outputs structured logs for log aggregation systems.
	FormatJSON Format = "json"
	// FormatText outputs human-readable logs for terminals.
	FormatText Format = "text"
)

// Option configures logger creation.
type Option func(*config)

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets output format.
// Panics for invalid formats to enforce fail-fast initialization.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets a custom output destination, ignoring nil writers.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithComponent tags every record with the emitting component.
func WithComponent(name string) Option {
	return func(c *config) {
		if name != "" {
			c.attrs = append(c.attrs, slog.String("component", name))
		}
	}
}

// WithAttr adds static attributes to every log record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		if len(attrs) > 0 {
			c.attrs = append(c.attrs, attrs...)
		}
	}
}

type config struct {
	level  slog.Level
	format Format
	output io.Writer
	attrs  []slog.Attr
}

// defaultConfig is tuned for a client SDK: text output at info level, so
// embedding applications see something readable unless they opt into JSON.
func defaultConfig() *config {
	return &config{
		level:  slog.LevelInfo,
		format: FormatText,
		output: os.Stderr,
	}
}

// New creates a logger from the given options.
func New(opts ...Option) *slog.Logger {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	handlerOpts := &slog.HandlerOptions{Level: c.level}

	var handler slog.Handler
	switch c.format {
	case FormatText:
		handler = slog.NewTextHandler(c.output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(c.output, handlerOpts)
	}

	if len(c.attrs) > 0 {
		handler = handler.WithAttrs(c.attrs)
	}

	return slog.New(handler)
}

// NewFromEnv creates a logger configured from MEFEED_LOG_LEVEL
// (debug|info|warn|error) and MEFEED_LOG_FORMAT (text|json). Unknown values
// fall back to the defaults rather than failing: logging must never prevent
// the consumer from starting.
func NewFromEnv(opts ...Option) *slog.Logger {
	var envOpts []Option

	switch strings.ToLower(os.Getenv("MEFEED_LOG_LEVEL")) {
	case "debug":
		envOpts = append(envOpts, WithLevel(slog.LevelDebug))
	case "warn":
		envOpts = append(envOpts, WithLevel(slog.LevelWarn))
	case "error":
		envOpts = append(envOpts, WithLevel(slog.LevelError))
	case "info":
		envOpts = append(envOpts, WithLevel(slog.LevelInfo))
	}

	switch strings.ToLower(os.Getenv("MEFEED_LOG_FORMAT")) {
	case "json":
		envOpts = append(envOpts, WithFormat(FormatJSON))
	case "text":
		envOpts = append(envOpts, WithFormat(FormatText))
	}

	return New(append(envOpts, opts...)...)
}
