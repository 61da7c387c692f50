package notify

import (
	"context"
	"log/slog"

	"socialmedia/internal/logging"
)

// Notifier tells people about account events (new registrations, promotions).
type Notifier interface {
	NotifyAdmins(ctx context.Context, msg string)
	NotifyUser(ctx context.Context, username string, msg string)
}

// Noop is a no-op notifier.
type Noop struct{}

func (Noop) NotifyAdmins(context.Context, string)       {}
func (Noop) NotifyUser(context.Context, string, string) {}

// Log writes notifications to the request logger, or Logger when set.
type Log struct {
	Logger *slog.Logger
}

func (l Log) logger(ctx context.Context) *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return logging.From(ctx)
}

func (l Log) NotifyAdmins(ctx context.Context, msg string) {
	l.logger(ctx).Info("notify.admins", "msg", msg)
}

func (l Log) NotifyUser(ctx context.Context, username, msg string) {
	l.logger(ctx).Info("notify.user", "username", username, "msg", msg)
}
