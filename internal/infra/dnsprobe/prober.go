// Package dnsprobe is an in-process liveness prober: a host counts as live
// when one of the configured resolvers answers an A or AAAA query for it with
// NOERROR and at least one record.
package dnsprobe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/time/rate"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/hostlist"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

const defaultQueryTimeout = 3 * time.Second

type Prober struct {
	resolvers    []string
	workers      int
	timeout      time.Duration
	queryTimeout time.Duration
	limiter      *rate.Limiter
	client       *dns.Client
	log          *slog.Logger
}

type Option func(*Prober)

func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.log = l
		}
	}
}

// WithQueryTimeout bounds a single DNS exchange.
func WithQueryTimeout(d time.Duration) Option {
	return func(p *Prober) { p.queryTimeout = d }
}

// New builds a prober from the liveness settings. QPS <= 0 disables pacing.
func New(cfg domain.LivenessConfig, opts ...Option) *Prober {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.QPS > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.QPS), workers)
	}

	p := &Prober{
		resolvers:    append([]string(nil), cfg.Resolvers...),
		workers:      workers,
		timeout:      cfg.Tool.Timeout,
		queryTimeout: defaultQueryTimeout,
		limiter:      lim,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.client = &dns.Client{Net: "udp", Timeout: p.queryTimeout}
	return p
}

var _ ports.LivenessProber = (*Prober)(nil)

func (p *Prober) Name() string { return "dns" }

func (p *Prober) Probe(ctx context.Context, inPath string, outPath string) error {
	if len(p.resolvers) == 0 {
		return p.fail(outPath, fmt.Errorf("no resolvers configured: %w", domain.ErrInvalidConfig))
	}

	candidates, err := hostlist.ReadFile(inPath, p.log)
	if err != nil {
		return p.fail(outPath, err)
	}

	runCtx := ctx
	cancel := func() {}
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
	}
	defer cancel()

	jobs := make(chan string)
	var (
		mu   sync.Mutex
		live = domain.HostSet{}
		wg   sync.WaitGroup
	)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for host := range jobs {
				if p.isLive(runCtx, host, worker) {
					mu.Lock()
					live.Add(host)
					mu.Unlock()
				}
			}
		}(i)
	}

feed:
	for _, h := range candidates.Sorted() {
		select {
		case jobs <- h:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return p.fail(outPath, fmt.Errorf("dns probe timed out after %s: %w", p.timeout, context.DeadlineExceeded))
	}
	if live.Len() == 0 {
		return p.fail(outPath, domain.ErrEmptyOutput)
	}

	if err := hostlist.WriteFile(outPath, live); err != nil {
		return p.fail(outPath, err)
	}
	p.log.Info("dnsprobe.done", "candidates", candidates.Len(), "live", live.Len())
	return nil
}

// isLive tries A then AAAA, spreading load across resolvers by worker.
func (p *Prober) isLive(ctx context.Context, host string, worker int) bool {
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		for i := range p.resolvers {
			if err := p.limiter.Wait(ctx); err != nil {
				return false
			}
			server := p.resolvers[(worker+i)%len(p.resolvers)]

			m := new(dns.Msg)
			m.SetQuestion(dns.Fqdn(host), qtype)
			m.RecursionDesired = true

			in, _, err := p.client.ExchangeContext(ctx, m, server)
			if err != nil {
				p.log.Debug("dnsprobe.exchange", "host", host, "server", server, "error", err.Error())
				continue
			}
			if in.Rcode == dns.RcodeNameError {
				// Authoritative "no such name"; other resolvers will agree.
				return false
			}
			if in.Rcode == dns.RcodeSuccess && len(in.Answer) > 0 {
				return true
			}
			break
		}
	}
	return false
}

func (p *Prober) fail(outPath string, err error) error {
	return &domain.OpError{
		Op:   "dnsprobe.probe",
		Kind: domain.KindLiveness,
		Path: outPath,
		Err:  err,
	}
}
