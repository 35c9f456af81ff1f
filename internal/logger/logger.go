// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Init installs the default logger.  Development gets a readable text
// handler at debug level; every other environment gets JSON at info.
func Init(env string) *slog.Logger {
	return InitTo(os.Stdout, env)
}

// InitTo is Init writing to w.
func InitTo(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var h slog.Handler
	if env == "development" {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(w, opts)
	} else {
		opts.AddSource = true
		h = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(h).With("service", "auth")
	slog.SetDefault(l)
	return l
}
