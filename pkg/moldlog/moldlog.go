// Package moldlog provides the structured logger every mold/config
// component logs through: plugins, archive backends, the CLI, and the
// HTTP API all take a *slog.Logger built here rather than reaching for
// the standard library's default logger.
package moldlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey namespaces values moldlog stores on a context.Context.
type ContextKey string

// OperationIDKey is the context key used to correlate a chain of core
// operations (begin/finalize/validate/diff) belonging to one CLI
// invocation or plugin round-trip.
const OperationIDKey ContextKey = "operation_id"

// Config mirrors the teacher's logger configuration: a level, a format,
// and an output target rotated through lumberjack when writing to a file.
type Config struct {
	Level      string
	Format     string
	Output     string
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// New builds a structured logger from cfg.
func New(cfg Config) *slog.Logger {
	level := ParseLevel(cfg.Level)
	writer := setupWriter(cfg)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	return slog.New(handler)
}

// ParseLevel parses a level string, defaulting to info on anything
// unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupWriter(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "file":
		if cfg.Filename == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	case "stderr":
		return os.Stderr
	case "stdout", "":
		return os.Stdout
	default:
		return os.Stdout
	}
}

// WithOperationID attaches an operation ID to ctx, used to group a
// CLI command's begin/finalize/validate/diff calls in log output.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, OperationIDKey, id)
}

// OperationID extracts the operation ID stashed by WithOperationID, or ""
// if none was set.
func OperationID(ctx context.Context) string {
	if id, ok := ctx.Value(OperationIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns logger annotated with the context's operation ID,
// if one is present.
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := OperationID(ctx); id != "" {
		return logger.With("operation_id", id)
	}
	return logger
}

// StatusAttr formats a corectx-style status/kind/name triple as a slog
// attribute group named "result".
func StatusAttr(status, kind, name string) slog.Attr {
	return slog.Group("result",
		slog.String("status", status),
		slog.String("kind", kind),
		slog.String("name", name),
	)
}
