package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/httpclient"
)

type captured struct {
	contentType string
	body        []byte
}

func captureServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, captured{contentType: r.Header.Get("Content-Type"), body: b})
		mu.Unlock()
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"message": "You are being rate limited."}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func testExecutor(srv *httptest.Server) *httpclient.Executor {
	return httpclient.NewExecutor(httpclient.WithClient(srv.Client()), httpclient.WithTimeout(5*time.Second))
}

func TestDiscord_MessageOnlyIsJSON(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusNoContent)
	d := NewDiscord(srv.URL, "subnotify", testExecutor(srv))

	if err := d.Notify(context.Background(), domain.Notification{Text: "✅ No new subdomains"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(*reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*reqs))
	}
	got := (*reqs)[0]
	if got.contentType != "application/json" {
		t.Fatalf("expected json, got %s", got.contentType)
	}
	var p discordPayload
	if err := json.Unmarshal(got.body, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Content != "✅ No new subdomains" || p.Username != "subnotify" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestDiscord_AttachmentIsMultipart(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusOK)
	d := NewDiscord(srv.URL, "", testExecutor(srv))

	path := filepath.Join(t.TempDir(), "new_subdomains.txt")
	if err := os.WriteFile(path, []byte("c.example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := d.Notify(context.Background(), domain.Notification{Text: "📋 New subdomains list:", Attachment: path}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	got := (*reqs)[0]
	mediaType, params, err := mime.ParseMediaType(got.contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart, got %s", got.contentType)
	}
	form, err := multipart.NewReader(bytes.NewReader(got.body), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	if form.Value["content"][0] != "📋 New subdomains list:" {
		t.Fatalf("unexpected content %v", form.Value["content"])
	}
	if _, ok := form.Value["username"]; ok {
		t.Fatalf("expected no username field when unset")
	}
	f, _ := form.File["file"][0].Open()
	defer f.Close()
	b, _ := io.ReadAll(f)
	if string(b) != "c.example.com\n" {
		t.Fatalf("unexpected attachment %q", string(b))
	}
}

func TestDiscord_MissingAttachmentFallsBackToText(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusNoContent)
	d := NewDiscord(srv.URL, "", testExecutor(srv))

	err := d.Notify(context.Background(), domain.Notification{Text: "x", Attachment: filepath.Join(t.TempDir(), "gone.txt")})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if (*reqs)[0].contentType != "application/json" {
		t.Fatalf("expected json fallback, got %s", (*reqs)[0].contentType)
	}
}

func TestDiscord_ErrorStatusIsNotifyFailure(t *testing.T) {
	srv, _ := captureServer(t, http.StatusTooManyRequests)
	d := NewDiscord(srv.URL, "", testExecutor(srv))

	err := d.Notify(context.Background(), domain.Notification{Text: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.KindNotify) {
		t.Fatalf("expected notify kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected status and body in error, got %v", err)
	}
}

func TestDiscord_TruncatesLongContent(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusNoContent)
	d := NewDiscord(srv.URL, "", testExecutor(srv))

	if err := d.Notify(context.Background(), domain.Notification{Text: strings.Repeat("é", 3000)}); err != nil {
		t.Fatal(err)
	}
	var p discordPayload
	_ = json.Unmarshal((*reqs)[0].body, &p)
	if n := len([]rune(p.Content)); n != discordMaxContent {
		t.Fatalf("expected %d runes, got %d", discordMaxContent, n)
	}
}

func TestSlack_InlinesAttachment(t *testing.T) {
	srv, reqs := captureServer(t, http.StatusOK)
	s := NewSlack(srv.URL, "subnotify", testExecutor(srv))

	path := filepath.Join(t.TempDir(), "new.txt")
	if err := os.WriteFile(path, []byte("c.example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := s.Notify(context.Background(), domain.Notification{Text: "🎯 Found **1** new subdomain(s)", Attachment: path})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	var msg struct {
		Text     string `json:"text"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal((*reqs)[0].body, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(msg.Text, "🎯 Found *1* new subdomain(s)") {
		t.Fatalf("expected slack bold markup, got %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "```\nc.example.com\n```") {
		t.Fatalf("expected inlined attachment, got %q", msg.Text)
	}
	if msg.Username != "subnotify" {
		t.Fatalf("unexpected username %q", msg.Username)
	}
}

func TestSlack_ErrorStatusIsNotifyFailure(t *testing.T) {
	srv, _ := captureServer(t, http.StatusInternalServerError)
	s := NewSlack(srv.URL, "", testExecutor(srv))

	if err := s.Notify(context.Background(), domain.Notification{Text: "x"}); !domain.IsKind(err, domain.KindNotify) {
		t.Fatalf("expected notify kind, got %v", err)
	}
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (c *countingNotifier) Notify(_ context.Context, _ domain.Notification) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil
}

func TestThrottle_WaitsBeyondBurst(t *testing.T) {
	inner := &countingNotifier{}
	n := Throttle(inner, 1) // burst of 1, then one per minute

	if err := n.Notify(context.Background(), domain.Notification{Text: "a"}); err != nil {
		t.Fatalf("first notify: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := n.Notify(ctx, domain.Notification{Text: "b"})
	if err == nil {
		t.Fatalf("expected throttle to refuse within deadline")
	}
	if !domain.IsKind(err, domain.KindNotify) {
		t.Fatalf("expected notify kind, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 delivered call, got %d", inner.calls)
	}
}

func TestThrottle_DisabledReturnsInner(t *testing.T) {
	inner := &countingNotifier{}
	if got := Throttle(inner, 0); got != inner {
		t.Fatalf("expected inner notifier back")
	}
}

func TestNew(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	n, err := New(domain.NotifyConfig{Kind: domain.NotifyDiscord, WebhookURL: "https://x", RatePerMinute: 10}, log)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(*Throttled); !ok {
		t.Fatalf("expected throttled discord notifier, got %T", n)
	}

	n, err = New(domain.NotifyConfig{Kind: domain.NotifyLog}, log)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := n.(*Log); !ok {
		t.Fatalf("expected log notifier, got %T", n)
	}

	_, err = New(domain.NotifyConfig{Kind: "pager"}, log)
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLogNotifierWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))
	if err := n.Notify(context.Background(), domain.Notification{Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"text":"hello"`) {
		t.Fatalf("expected message logged, got %s", buf.String())
	}
}
