package infra

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"prompt-forge/server/internal/config"
)

// NewLogger builds the process logger. The returned close func releases a
// log file when output is a path.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(orDefault(cfg.Level, "info")))); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var (
		out     io.Writer
		closeFn = func() error { return nil }
	)
	switch output := orDefault(cfg.Output, "stderr"); output {
	case "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch orDefault(cfg.Format, "text") {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		closeFn()
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), closeFn, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
