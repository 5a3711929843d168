// Package logger собирает *slog.Logger в зависимости от окружения:
// цветной вывод tint локально, текстовый в dev и JSON в prod.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Окружения, различаемые при выборе обработчика.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New создаёт логгер для окружения env с выводом в stdout.
func New(env string) *slog.Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter создаёт логгер для окружения env с выводом в w.
func NewWithWriter(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	switch env {
	case EnvProd:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case EnvDev:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.DateTime,
			NoColor:    w != os.Stdout,
		})
	}
	return slog.New(handler)
}
