package notify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/httpclient"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// Discord rejects message content longer than this.
const discordMaxContent = 2000

type discordPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// Discord posts to a Discord webhook. Messages with an attachment go out as
// multipart form data with the file in the "file" part.
type Discord struct {
	url      string
	username string
	exec     *httpclient.Executor
}

func NewDiscord(url, username string, exec *httpclient.Executor) *Discord {
	if exec == nil {
		exec = httpclient.NewExecutor()
	}
	return &Discord{url: url, username: username, exec: exec}
}

var _ ports.Notifier = (*Discord)(nil)

func (d *Discord) Notify(ctx context.Context, n domain.Notification) error {
	content := truncate(n.Text, discordMaxContent)

	var (
		reqErr error
		resp   httpclient.ResponseData
	)
	if n.Attachment != "" && fileExists(n.Attachment) {
		fields := map[string]string{"content": content}
		if d.username != "" {
			fields["username"] = d.username
		}
		req, err := httpclient.BuildMultipart(ctx, d.url, fields, "file", n.Attachment)
		if err != nil {
			return wrap("notify.discord", err)
		}
		resp, reqErr = d.exec.Do(ctx, req)
	} else {
		req, err := httpclient.BuildJSON(ctx, d.url, discordPayload{Content: content, Username: d.username})
		if err != nil {
			return wrap("notify.discord", err)
		}
		resp, reqErr = d.exec.Do(ctx, req)
	}

	if reqErr != nil {
		return wrap("notify.discord", reqErr)
	}
	if !resp.OK() {
		return wrap("notify.discord", fmt.Errorf("webhook answered %d: %s", resp.Status, truncate(strings.TrimSpace(string(resp.BodyBytes)), 200)))
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func wrap(op string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindNotify, Err: err}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
