package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/dnsprobe"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/statestore"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/toolrunner"
)

func init() {
	color.NoColor = true
}

// resolveArgs parses args the way every command does and resolves the
// effective config.
func resolveArgs(t *testing.T, args ...string) (domain.Config, error) {
	t.Helper()
	opts := &options{}
	cmd := &cobra.Command{Use: "test"}
	opts.bind(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return opts.resolve(cmd)
}

func TestResolve_FlagsOverrideDefaults(t *testing.T) {
	t.Setenv(WebhookEnv, "")

	cfg, err := resolveArgs(t,
		"-d", "Example.com", "--domain", "hackerone.com",
		"-w", "https://discord.com/api/webhooks/1/abc",
		"-i", "60",
		"--liveness", "dns",
		"--state-backend", "sqlite",
	)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.Join(cfg.Domains, ",") != "example.com,hackerone.com" {
		t.Fatalf("unexpected domains %v", cfg.Domains)
	}
	if cfg.Interval != time.Minute {
		t.Fatalf("expected 60s interval, got %v", cfg.Interval)
	}
	if cfg.Notify.Kind != domain.NotifyDiscord || cfg.Notify.WebhookURL == "" {
		t.Fatalf("unexpected notify %+v", cfg.Notify)
	}
	if cfg.Liveness.Mode != domain.LivenessDNS || cfg.State.Backend != domain.StateSQLite {
		t.Fatalf("unexpected modes %+v %+v", cfg.Liveness, cfg.State)
	}
}

func TestResolve_WebhookFromEnv(t *testing.T) {
	t.Setenv(WebhookEnv, "https://discord.com/api/webhooks/2/env")

	cfg, err := resolveArgs(t, "-d", "example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Notify.WebhookURL != "https://discord.com/api/webhooks/2/env" {
		t.Fatalf("expected env webhook, got %q", cfg.Notify.WebhookURL)
	}
	if cfg.Interval != 7200*time.Second {
		t.Fatalf("expected default interval, got %v", cfg.Interval)
	}
}

func TestResolve_NoWebhookFallsBackToLog(t *testing.T) {
	t.Setenv(WebhookEnv, "")

	cfg, err := resolveArgs(t, "-d", "example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Notify.Kind != domain.NotifyLog {
		t.Fatalf("expected log notifier, got %q", cfg.Notify.Kind)
	}
}

func TestResolve_ExplicitSlackNeedsWebhook(t *testing.T) {
	t.Setenv(WebhookEnv, "")

	_, err := resolveArgs(t, "-d", "example.com", "--notifier", "slack")
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Setenv(WebhookEnv, "")

	cases := map[string][]string{
		"no domain":    {},
		"bare suffix":  {"-d", "com"},
		"bad interval": {"-d", "example.com", "-i", "0"},
		"bad mode":     {"-d", "example.com", "--liveness", "ping"},
	}
	for name, args := range cases {
		if _, err := resolveArgs(t, args...); !domain.IsKind(err, domain.KindInvalidConfig) {
			t.Fatalf("%s: expected invalid_config, got %v", name, err)
		}
	}
}

func TestResolve_ConfigFileThenFlags(t *testing.T) {
	t.Setenv(WebhookEnv, "")
	path := filepath.Join(t.TempDir(), "subnotify.yaml")
	yaml := "subnotify:\n  domains: [example.com]\n  interval: 2h\n  notify:\n    kind: log\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveArgs(t, "--config", path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Interval != 2*time.Hour || cfg.Domains[0] != "example.com" {
		t.Fatalf("file values not applied: %+v", cfg)
	}

	cfg, err = resolveArgs(t, "--config", path, "-i", "30")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Interval != 30*time.Second {
		t.Fatalf("flag must override file, got %v", cfg.Interval)
	}
}

func TestResolve_MissingExplicitConfigFails(t *testing.T) {
	_, err := resolveArgs(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "-d", "example.com")
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestRequiredTools(t *testing.T) {
	cfg := domain.DefaultConfig()
	if got := strings.Join(requiredTools(cfg), ","); got != "subfinder,httpx" {
		t.Fatalf("unexpected tools %q", got)
	}
	cfg.Liveness.Mode = domain.LivenessDNS
	if got := strings.Join(requiredTools(cfg), ","); got != "subfinder" {
		t.Fatalf("unexpected tools %q", got)
	}
}

func TestBuildProber(t *testing.T) {
	lc := domain.DefaultConfig().Liveness

	if _, ok := buildProber(lc, nil).(*toolrunner.HTTPX); !ok {
		t.Fatalf("expected httpx prober")
	}
	lc.Mode = domain.LivenessDNS
	if _, ok := buildProber(lc, nil).(*dnsprobe.Prober); !ok {
		t.Fatalf("expected dns prober")
	}
	lc.Mode = domain.LivenessNone
	if p := buildProber(lc, nil); p != nil {
		t.Fatalf("expected nil prober, got %T", p)
	}
}

func TestStateShow(t *testing.T) {
	t.Setenv(WebhookEnv, "")
	dir := t.TempDir()
	store := statestore.NewJSONStore(dir, "example.com")
	if err := store.Save(domain.NewHostSet("b.example.com", "a.example.com")); err != nil {
		t.Fatal(err)
	}

	run := func(format string) string {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs([]string{"state", "show", "-d", "example.com", "--state-dir", dir, "--format", format})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("state show %s: %v", format, err)
		}
		return out.String()
	}

	if got := run("plain"); got != "a.example.com\nb.example.com\n" {
		t.Fatalf("unexpected plain output %q", got)
	}

	var payload struct {
		Domain string   `json:"domain"`
		Total  int      `json:"total"`
		Hosts  []string `json:"hosts"`
	}
	if err := json.Unmarshal([]byte(run("json")), &payload); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if payload.Domain != "example.com" || payload.Total != 2 || payload.Hosts[0] != "a.example.com" {
		t.Fatalf("unexpected json output %+v", payload)
	}

	pretty := run("pretty")
	if !strings.Contains(pretty, "example.com (2)") || !strings.Contains(pretty, "b.example.com") {
		t.Fatalf("unexpected pretty output %q", pretty)
	}
}

func TestStateShowDoesNotQuarantine(t *testing.T) {
	t.Setenv(WebhookEnv, "")
	dir := t.TempDir()
	store := statestore.NewJSONStore(dir, "example.com")
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"state", "show", "-d", "example.com", "--state-dir", dir})
	if err := cmd.Execute(); !domain.IsKind(err, domain.KindStateCorrupt) {
		t.Fatalf("expected state_corrupt, got %v", err)
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("state file must stay in place: %v", err)
	}
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, domain.IterationResult{
		Target:       "example.com",
		Discovered:   domain.NewHostSet("a.example.com", "b.example.com"),
		Current:      domain.NewHostSet("a.example.com", "b.example.com"),
		New:          domain.NewHostSet("b.example.com"),
		Total:        2,
		UsedFallback: true,
		Persisted:    true,
	}, true)

	got := out.String()
	for _, want := range []string{"[DEGRADED] example.com", "new:        1", "liveness:   failed", "+ b.example.com"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestPrintFailure(t *testing.T) {
	var out bytes.Buffer
	err := &domain.OpError{Op: "toolrunner.subfinder", Kind: domain.KindDiscovery, Err: errors.New("exit status 1")}
	printFailure(&out, "example.com", err)
	if !strings.Contains(out.String(), "[FAIL] example.com") || !strings.Contains(out.String(), "(discovery)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "subnotify ") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestOpenLogMirrorsToStderr(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Paths.LogDir = t.TempDir()

	var stderr bytes.Buffer
	cmd := &cobra.Command{Use: "once"}
	cmd.SetErr(&stderr)

	log, closeLog, err := openLog(cfg, cmd)
	if err != nil {
		t.Fatalf("openLog: %v", err)
	}
	log.Info("monitor.iteration_done", "target", "example.com")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stderr.String(), `"msg":"monitor.iteration_done"`) {
		t.Fatalf("expected record on stderr, got %q", stderr.String())
	}
	b, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "subnotify.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"monitor.iteration_done"`) {
		t.Fatalf("expected record in log file, got %q", string(b))
	}
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	printBanner(&out)
	if !strings.Contains(out.String(), "authorized") {
		t.Fatalf("expected disclaimer in banner")
	}
}
