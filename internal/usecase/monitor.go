package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/hostlist"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/scratch"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
)

// errorNoticeMax bounds the cause quoted in an error notification.
const errorNoticeMax = 100

// Monitor runs the discover, filter, diff, notify and persist cycle for one
// target. A Monitor is not safe for concurrent use; run one per target.
type Monitor struct {
	target     string
	discoverer ports.Discoverer
	prober     ports.LivenessProber
	store      ports.StateStore
	notifier   ports.Notifier
	scratch    ports.ScratchSpace

	interval time.Duration
	log      *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	seq   uint64
	stage domain.Stage
}

type MonitorOption func(*Monitor)

// WithInterval sets the pause between iterations.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSleep replaces the interruptible wait between iterations (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) MonitorOption {
	return func(m *Monitor) { m.sleep = fn }
}

// NewMonitor wires a monitor for target. A nil prober disables liveness
// filtering: every discovered host counts as current.
func NewMonitor(
	target string,
	d ports.Discoverer,
	p ports.LivenessProber,
	store ports.StateStore,
	n ports.Notifier,
	sp ports.ScratchSpace,
	opts ...MonitorOption,
) *Monitor {
	m := &Monitor{
		target:     target,
		discoverer: d,
		prober:     p,
		store:      store,
		notifier:   n,
		scratch:    sp,
		interval:   domain.DefaultConfig().Interval,
		log:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("target", target)
	return m
}

func (m *Monitor) Target() string { return m.target }

// Run sends the startup notice and then iterates until ctx is cancelled.
// It always returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("monitor.started", "interval", m.interval.String())
	m.notify(ctx, domain.Notification{Text: fmt.Sprintf("🚀 Subdomain monitoring started for **%s**", m.target)})

	for {
		if err := ctx.Err(); err != nil {
			m.log.Info("monitor.stopped", "reason", err.Error())
			return err
		}

		res, err := m.runGuarded(ctx)
		switch {
		case err == nil:
			m.log.Info("monitor.iteration.completed",
				"seq", res.Seq,
				"discovered", res.Discovered.Len(),
				"current", res.Current.Len(),
				"new", res.New.Len(),
				"total", res.Total,
				"fallback", res.UsedFallback,
				"persisted", res.Persisted,
			)
		case ctx.Err() != nil:
			m.log.Info("monitor.stopped", "reason", ctx.Err().Error(), "stage", string(m.stage))
			return ctx.Err()
		case domain.IsKind(err, domain.KindDiscovery):
			// Already reported by RunOnce.
			m.log.Warn("monitor.iteration.skipped", "seq", m.seq, "error", err)
		default:
			m.log.Error("monitor.iteration.failed",
				"seq", m.seq,
				"stage", string(m.stage),
				"kind", string(domain.KindOf(err)),
				"error", err,
			)
			m.notify(ctx, domain.Notification{Text: "❌ Error occurred: " + truncate(err.Error(), errorNoticeMax)})
		}

		m.enter(domain.StageSleeping)
		m.log.Info("monitor.sleeping", "seq", m.seq, "duration", m.interval.String())
		if err := m.sleep(ctx, m.interval); err != nil {
			m.log.Info("monitor.stopped", "reason", err.Error())
			return err
		}
	}
}

// runGuarded turns a panic inside an iteration into an error so the loop
// survives it.
func (m *Monitor) runGuarded(ctx context.Context) (res domain.IterationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.OpError{
				Op:   "monitor.iteration",
				Kind: domain.KindUnexpected,
				Err:  fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return m.RunOnce(ctx)
}

// RunOnce performs a single iteration. Discovery failures are reported to
// the notifier and returned as KindDiscovery errors; nothing is persisted in
// that case. Liveness, notification and persistence problems degrade the
// iteration but do not fail it.
func (m *Monitor) RunOnce(ctx context.Context) (res domain.IterationResult, err error) {
	m.seq++
	res = domain.IterationResult{
		Seq:        m.seq,
		Target:     m.target,
		Discovered: domain.NewHostSet(),
		Current:    domain.NewHostSet(),
		New:        domain.NewHostSet(),
	}
	log := m.log.With("seq", m.seq)
	log.Info("monitor.iteration.started")

	dir, err := m.scratch.Dir(m.seq)
	if err != nil {
		return res, err
	}
	defer func() {
		failedAt := m.stage
		m.cleanup(log, dir)
		if err != nil {
			// Keep the failing stage for the caller's log line.
			m.stage = failedAt
		}
	}()

	// 1. Discover.
	m.enter(domain.StageDiscovering)
	discoveryPath := filepath.Join(dir, scratch.DiscoveryFile)
	if err := m.discoverer.Discover(ctx, m.target, discoveryPath); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		log.Warn("monitor.discovery.failed", "tool", m.discoverer.Name(), "error", err)
		m.notify(ctx, domain.Notification{Text: fmt.Sprintf("⚠️ %s failed for %s", m.discoverer.Name(), m.target)})
		if !domain.IsKind(err, domain.KindDiscovery) {
			err = &domain.OpError{Op: "monitor.discover", Kind: domain.KindDiscovery, Err: err}
		}
		return res, err
	}

	discovered, err := hostlist.ReadFile(discoveryPath, log)
	if err != nil {
		return res, err
	}
	res.Discovered = discovered
	log.Info("monitor.discovery.completed", "hosts", discovered.Len())

	// 2. Filter live hosts.
	m.enter(domain.StageFilteringLive)
	current, fallback, err := m.filterLive(ctx, log, dir, discovered)
	if err != nil {
		return res, err
	}
	res.Current = current
	res.UsedFallback = fallback
	if current.Len() == 0 {
		log.Warn("monitor.current.empty")
	}

	// 3. Reconcile with what was seen before.
	m.enter(domain.StageReconciling)
	previous, err := m.store.Load()
	if err != nil {
		if !domain.IsKind(err, domain.KindStateCorrupt) {
			return res, err
		}
		log.Error("monitor.state.corrupt", "error", err)
		previous = domain.NewHostSet()
	}
	res.New = domain.Diff(previous, current)
	all := domain.Union(previous, current)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	// 4. Notify.
	m.enter(domain.StageNotifying)
	if domain.HasNews(res.New) {
		log.Info("monitor.news", "new", res.New.Len())
		m.notify(ctx, domain.Notification{
			Text: fmt.Sprintf("🎯 Found **%d** new subdomain(s) for **%s**", res.New.Len(), m.target),
		})
		newPath := filepath.Join(dir, scratch.NewHostsFile)
		if err := hostlist.WriteFile(newPath, res.New); err != nil {
			log.Error("monitor.news.write_failed", "path", newPath, "error", err)
			newPath = ""
		}
		m.notify(ctx, domain.Notification{Text: "📋 New subdomains list:", Attachment: newPath})
	} else {
		log.Info("monitor.news.none", "current", current.Len())
		m.notify(ctx, domain.Notification{
			Text: fmt.Sprintf("✅ No new subdomains for **%s** (Total: %d)", m.target, current.Len()),
		})
	}

	// 5. Persist the superset.
	m.enter(domain.StagePersisting)
	res.Total = all.Len()
	if err := m.store.Save(all); err != nil {
		log.Error("monitor.persist.failed", "hosts", all.Len(), "error", err)
	} else {
		res.Persisted = true
	}

	return res, nil
}

// filterLive returns the current host set and whether the discovery set was
// used because the prober failed.
func (m *Monitor) filterLive(ctx context.Context, log *slog.Logger, dir string, discovered domain.HostSet) (domain.HostSet, bool, error) {
	if m.prober == nil {
		return discovered, false, nil
	}
	if discovered.Len() == 0 {
		log.Info("monitor.liveness.skipped", "reason", "no discovered hosts")
		return domain.NewHostSet(), false, nil
	}

	inPath := filepath.Join(dir, scratch.DiscoveryFile)
	outPath := filepath.Join(dir, scratch.LiveFile)

	probeErr := m.prober.Probe(ctx, inPath, outPath)
	if probeErr == nil {
		live, err := hostlist.ReadFile(outPath, log)
		switch {
		case err != nil:
			probeErr = err
		case live.Len() == 0:
			probeErr = &domain.OpError{Op: "monitor.liveness", Kind: domain.KindLiveness, Path: outPath, Err: domain.ErrEmptyOutput}
		default:
			log.Info("monitor.liveness.completed", "tool", m.prober.Name(), "live", live.Len())
			return live, false, nil
		}
	}
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}

	log.Warn("monitor.liveness.fallback", "tool", m.prober.Name(), "error", probeErr, "hosts", discovered.Len())
	m.notify(ctx, domain.Notification{
		Text: fmt.Sprintf("⚠️ %s failed for %s, using all discovered subdomains", m.prober.Name(), m.target),
	})
	return discovered, true, nil
}

func (m *Monitor) cleanup(log *slog.Logger, dir string) {
	m.enter(domain.StageCleaningUp)
	if err := m.scratch.Remove(dir); err != nil {
		log.Warn("monitor.cleanup.failed", "dir", dir, "error", err)
	}
}

// notify is best-effort. Nothing is sent once ctx is done.
func (m *Monitor) notify(ctx context.Context, n domain.Notification) {
	if ctx.Err() != nil {
		return
	}
	if err := m.notifier.Notify(ctx, n); err != nil {
		m.log.Error("monitor.notify.failed", "seq", m.seq, "error", err)
	}
}

func (m *Monitor) enter(s domain.Stage) {
	m.stage = s
	m.log.Debug("monitor.stage", "seq", m.seq, "stage", string(s))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// IsStopped reports whether err only says the monitor was asked to stop.
func IsStopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
