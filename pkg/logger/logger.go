// Package logger provides a structured, levelled logger built on log/slog.
//
// The handler is picked from APP_ENV: JSON in production (for aggregators),
// text everywhere else. When LOG_MONGO_URI is configured the records are
// additionally shipped to MongoDB through the asynchronous MongoHandler.
package logger

import (
	"context"
	"log/slog"
	"os"

	"shopfront/config"
)

var L *slog.Logger

func init() {
	var level slog.Level
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch config.AppEnv() {
	case "production", "prod":
		level = slog.LevelInfo
		opts.Level = level
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		level = slog.LevelDebug
		opts.Level = level
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	if uri := config.LogMongoURI(); uri != "" {
		if mh, err := NewMongoHandler(uri, "shopfront", "logs"); err == nil {
			handler = NewMultiHandler(handler, mh)
		} else {
			slog.New(handler).Warn("logger: mongo handler disabled", "error", err)
		}
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// ctxKey is the unexported key used to store a scoped *slog.Logger.
type ctxKey struct{}

// WithCtx returns the *slog.Logger previously injected into ctx, or the base
// logger when none is present. Store operations use this so callers can
// thread a pre-tagged logger (e.g. with a session id) through the stores.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
