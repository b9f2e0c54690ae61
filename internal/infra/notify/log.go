package notify

import (
	"context"
	"log/slog"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// Log only writes notifications to the logger. Used when no webhook is set.
type Log struct {
	log *slog.Logger
}

func NewLog(l *slog.Logger) *Log { return &Log{log: l} }

var _ ports.Notifier = (*Log)(nil)

func (l *Log) Notify(_ context.Context, n domain.Notification) error {
	l.log.Info("notify.message", "text", n.Text, "attachment", n.Attachment)
	return nil
}
