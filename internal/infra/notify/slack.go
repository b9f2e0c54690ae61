package notify

import (
	"context"
	"os"
	"strings"

	"github.com/slack-go/slack"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/httpclient"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// Incoming webhooks cannot upload files, so attachments are inlined.
const slackMaxInline = 3000

// Slack posts to a Slack incoming webhook.
type Slack struct {
	url      string
	username string
	exec     *httpclient.Executor
}

func NewSlack(url, username string, exec *httpclient.Executor) *Slack {
	if exec == nil {
		exec = httpclient.NewExecutor()
	}
	return &Slack{url: url, username: username, exec: exec}
}

var _ ports.Notifier = (*Slack)(nil)

func (s *Slack) Notify(ctx context.Context, n domain.Notification) error {
	// Slack mrkdwn uses single asterisks for bold.
	text := strings.ReplaceAll(n.Text, "**", "*")

	if n.Attachment != "" {
		if b, err := os.ReadFile(n.Attachment); err == nil {
			body := strings.TrimSpace(string(b))
			if body != "" {
				text += "\n```\n" + truncate(body, slackMaxInline) + "\n```"
			}
		}
	}

	msg := &slack.WebhookMessage{
		Text:     text,
		Username: s.username,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.url, s.exec.Client(), msg); err != nil {
		return wrap("notify.slack", err)
	}
	return nil
}
