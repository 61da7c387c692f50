package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Options struct {
	Level  string // "debug"|"info"|"warn"|"error"
	Format string // "text"|"json"
	Output io.Writer
}

func New(opts Options) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(opts.Level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   false,
		ReplaceAttr: replaceAttrsCompact,
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var h slog.Handler
	if strings.ToLower(opts.Format) == "text" {
		h = slog.NewTextHandler(out, handlerOpts)
	} else {
		h = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(h)
}

func replaceAttrsCompact(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			return slog.Time(slog.TimeKey, t.UTC())
		}
	}
	return a
}
