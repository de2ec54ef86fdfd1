package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers operator-facing notifications.
type Notifier interface {
	NotifyAdmins(ctx context.Context, msg string)
}

// Noop is a no-op notifier.
type Noop struct{}

func (Noop) NotifyAdmins(context.Context, string) {}

// Log writes notifications to the process log. It stands in until a real
// delivery channel is wired up.
type Log struct {
	Logger *slog.Logger
}

func (l Log) NotifyAdmins(ctx context.Context, msg string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notify.admins", "msg", msg)
}
