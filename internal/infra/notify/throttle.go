package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// Throttled spaces deliveries so that several monitors sharing one webhook
// stay under the provider's rate limit. Safe for concurrent use.
type Throttled struct {
	next    ports.Notifier
	limiter *rate.Limiter
}

// Throttle allows perMinute messages per minute with a small burst.
// perMinute <= 0 returns next unchanged.
func Throttle(next ports.Notifier, perMinute int) ports.Notifier {
	if perMinute <= 0 {
		return next
	}
	burst := perMinute
	if burst > 5 {
		burst = 5
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

func (t *Throttled) Notify(ctx context.Context, n domain.Notification) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return wrap("notify.throttle", err)
	}
	return t.next.Notify(ctx, n)
}
