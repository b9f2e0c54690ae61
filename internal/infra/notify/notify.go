// Package notify delivers monitor messages to chat webhooks.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/httpclient"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// New builds the notifier described by cfg, throttled per cfg.RatePerMinute.
func New(cfg domain.NotifyConfig, log *slog.Logger) (ports.Notifier, error) {
	hc := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	exec := httpclient.NewExecutor(
		httpclient.WithClient(httpclient.New(hc)),
		httpclient.WithTimeout(hc.Timeout),
	)

	var n ports.Notifier
	switch cfg.Kind {
	case domain.NotifyDiscord:
		n = NewDiscord(cfg.WebhookURL, cfg.Username, exec)
	case domain.NotifySlack:
		n = NewSlack(cfg.WebhookURL, cfg.Username, exec)
	case domain.NotifyLog:
		return NewLog(log), nil
	default:
		return nil, &domain.OpError{
			Op:   "notify.new",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("unsupported notifier %q: %w", cfg.Kind, domain.ErrInvalidConfig),
		}
	}
	return Throttle(n, cfg.RatePerMinute), nil
}
