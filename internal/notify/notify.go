// Package notify carries transient, user-facing notifications (the toast of a
// web UI) from session objects to whatever front-end renders them.
package notify

import (
	"context"
	"log/slog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Level   Level
	Message string
	Err     error
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notice)

func (f Func) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

// Log writes notices to the default slog logger.
type Log struct{}

func (Log) Notify(ctx context.Context, n Notice) {
	attrs := []any{"notice", string(n.Level)}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err)
	}
	switch n.Level {
	case LevelError:
		slog.ErrorContext(ctx, n.Message, attrs...)
	case LevelWarning:
		slog.WarnContext(ctx, n.Message, attrs...)
	default:
		slog.InfoContext(ctx, n.Message, attrs...)
	}
}

// OrDiscard returns n, or a notifier that drops everything when n is nil.
func OrDiscard(n Notifier) Notifier {
	if n == nil {
		return Func(func(context.Context, Notice) {})
	}
	return n
}
