package toolrunner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/hostlist"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// HTTPX runs `httpx -l <in> -o <out> -silent`. In JSON mode it runs with
// -json instead and selects each record's host with a JSONPath expression.
// httpx reports URLs; every record is reduced to its hostname so the live
// set compares equal to discovery output.
type HTTPX struct {
	cfg      domain.ToolConfig
	jsonMode bool
	hostPath string
	log      *slog.Logger
}

type HTTPXOption func(*HTTPX)

// WithJSONOutput switches to JSONL output; hostPath selects the host field
// (for example "$.input" or "$.host").
func WithJSONOutput(hostPath string) HTTPXOption {
	return func(h *HTTPX) {
		h.jsonMode = true
		h.hostPath = hostPath
	}
}

func WithLogger(l *slog.Logger) HTTPXOption {
	return func(h *HTTPX) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHTTPX(cfg domain.ToolConfig, opts ...HTTPXOption) *HTTPX {
	if cfg.Binary == "" {
		cfg.Binary = "httpx"
	}
	h := &HTTPX{
		cfg: cfg,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ ports.LivenessProber = (*HTTPX)(nil)

func (h *HTTPX) Name() string { return filepath.Base(h.cfg.Binary) }

func (h *HTTPX) Probe(ctx context.Context, inPath string, outPath string) error {
	rawOut := outPath + ".raw"
	if h.jsonMode {
		rawOut = outPath + ".jsonl"
	}

	args := []string{"-l", inPath, "-o", rawOut, "-silent"}
	if h.jsonMode {
		args = append(args, "-json")
	}
	args = append(args, h.cfg.ExtraArgs...)

	runErr := run(ctx, h.cfg.Timeout, h.cfg.Binary, args)
	if runErr != nil && ctx.Err() != nil {
		return runErr
	}

	// httpx exits non-zero on partial failures; any output it managed to
	// write is still usable.
	if !nonEmpty(rawOut) {
		cause := domain.ErrEmptyOutput
		if runErr != nil {
			cause = runErr
		}
		return h.fail(outPath, cause)
	}
	if runErr != nil {
		h.log.Warn("httpx.nonzero_exit", "error", runErr.Error(), "output", rawOut)
	}

	var hosts domain.HostSet
	var err error
	if h.jsonMode {
		hosts, err = h.extractHosts(rawOut)
	} else {
		hosts, err = h.readLines(rawOut)
	}
	if err != nil {
		return h.fail(outPath, err)
	}
	if hosts.Len() == 0 {
		if h.jsonMode {
			return h.fail(outPath, fmt.Errorf("no host matched %s: %w", h.hostPath, domain.ErrEmptyOutput))
		}
		return h.fail(outPath, domain.ErrEmptyOutput)
	}
	if err := hostlist.WriteFile(outPath, hosts); err != nil {
		return h.fail(outPath, err)
	}
	return nil
}

// extractHosts reads httpx JSONL output. Lines that are not JSON or do not
// carry the host field are skipped.
func (h *HTTPX) extractHosts(path string) (domain.HostSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := domain.HostSet{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	skipped := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			skipped++
			continue
		}
		v, err := jsonpath.Get(h.hostPath, doc)
		if err != nil {
			skipped++
			continue
		}
		s, ok := v.(string)
		if !ok || !set.Add(hostOf(s)) {
			skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		h.log.Warn("httpx.json.skipped", "records", skipped, "host_path", h.hostPath)
	}
	return set, nil
}

// readLines reads the plain -o output, one URL per line.
func (h *HTTPX) readLines(path string) (domain.HostSet, error) {
	urls, err := hostlist.ReadFile(path, h.log)
	if err != nil {
		return nil, err
	}
	set := domain.HostSet{}
	for _, u := range urls.Sorted() {
		set.Add(hostOf(u))
	}
	return set, nil
}

// hostOf strips scheme, userinfo, port and path from an httpx record.
// Bare hostnames pass through unchanged.
func hostOf(record string) string {
	record = strings.TrimSpace(record)
	if record == "" {
		return ""
	}
	ref := record
	if !strings.Contains(ref, "://") {
		ref = "//" + ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.Hostname() == "" {
		return record
	}
	return u.Hostname()
}

func (h *HTTPX) fail(outPath string, err error) error {
	return &domain.OpError{
		Op:   "toolrunner.httpx",
		Kind: domain.KindLiveness,
		Path: outPath,
		Err:  err,
	}
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
