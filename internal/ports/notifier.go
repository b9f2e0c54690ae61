package ports

import (
	"context"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
)

// Notifier delivers a message (and optional attachment) to an external channel.
// Delivery is best-effort: callers log errors and move on.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
