package cli

import (
	"log/slog"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/dnsprobe"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/scratch"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/statestore"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/toolrunner"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/ports"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/usecase"
)

// buildMonitor assembles the adapters for one target. Each target gets its
// own state record and scratch namespace; the notifier is shared.
func buildMonitor(cfg domain.Config, target string, n ports.Notifier, log *slog.Logger) (*usecase.Monitor, error) {
	store, err := statestore.New(cfg, target)
	if err != nil {
		return nil, err
	}

	return usecase.NewMonitor(
		target,
		toolrunner.NewSubfinder(cfg.Discovery),
		buildProber(cfg.Liveness, log),
		store,
		n,
		scratch.New(cfg.Paths.ScratchDir, target),
		usecase.WithInterval(cfg.Interval),
		usecase.WithLogger(log),
	), nil
}

// buildProber returns nil when liveness filtering is disabled.
func buildProber(lc domain.LivenessConfig, log *slog.Logger) ports.LivenessProber {
	switch lc.Mode {
	case domain.LivenessDNS:
		return dnsprobe.New(lc, dnsprobe.WithLogger(log))
	case domain.LivenessNone:
		return nil
	default:
		var opts []toolrunner.HTTPXOption
		opts = append(opts, toolrunner.WithLogger(log))
		if lc.JSONOutput {
			opts = append(opts, toolrunner.WithJSONOutput(lc.HostPath))
		}
		return toolrunner.NewHTTPX(lc.Tool, opts...)
	}
}
