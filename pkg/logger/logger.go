package logger

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(New(os.Getenv("ENVIRONMENT"), os.Stdout))
}

// New builds a logger: colored text for development, JSON everywhere else.
func New(env string, w io.Writer) *slog.Logger {
	if env == "development" || env == "local" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}))
}

// Init replaces the process logger for the given environment.
func Init(env string) *slog.Logger {
	l := New(env, os.Stdout)
	Set(l)
	return l
}

func Set(l *slog.Logger) {
	current.Store(l)
	slog.SetDefault(l)
}

func L() *slog.Logger {
	return current.Load()
}

func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}
