package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"binwahab-store/internal/config"
)

func New(cfg config.Log, env string) *slog.Logger {
	return newWithWriter(os.Stdout, cfg, env)
}

func newWithWriter(w io.Writer, cfg config.Log, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	base := slog.New(h).With(
		"service", "binwahab-store",
		"env", env,
	)

	slog.SetDefault(base)
	return base
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
