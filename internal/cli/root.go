package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/buildinfo"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/logger"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/notify"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/toolrunner"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/usecase"
)

func Execute() {
	cmd := newRootCmd()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "subnotify",
		Short: "Watch target domains for new subdomains and post them to a webhook",
		Long: "subnotify runs subfinder against each target, keeps the hosts that answer,\n" +
			"and reports every host it has not seen before. State survives restarts.",
		SilenceUsage: true,
		Version:      buildinfo.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			if !opts.noBanner {
				printBanner(cmd.ErrOrStderr())
			}
			return runForever(cmd.Context(), cfg, cmd)
		},
	}
	cmd.SetVersionTemplate(buildinfo.String() + "\n")

	opts.bind(cmd)

	cmd.AddCommand(
		onceCmd(opts),
		stateCmd(opts),
		checkCmd(opts),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

// openLog opens the log file and mirrors every record to the command's
// stderr.
func openLog(cfg domain.Config, cmd *cobra.Command) (*slog.Logger, func() error, error) {
	log, closeLog, err := logger.New(logger.Config{
		Dir:     cfg.Paths.LogDir,
		Debug:   cfg.Debug,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return log, closeLog, nil
}

// runForever starts one monitor per configured domain and blocks until ctx
// is cancelled or every monitor has returned.
func runForever(ctx context.Context, cfg domain.Config, cmd *cobra.Command) error {
	log, closeLog, err := openLog(cfg, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if err := toolrunner.CheckInstalled(requiredTools(cfg)...); err != nil {
		log.Error("startup.tools_missing", "error", err)
		return err
	}

	notifier, err := notify.New(cfg.Notify, log)
	if err != nil {
		return err
	}

	monitors := make([]*usecase.Monitor, 0, len(cfg.Domains))
	for _, target := range cfg.Domains {
		m, err := buildMonitor(cfg, target, notifier, log)
		if err != nil {
			return err
		}
		monitors = append(monitors, m)
	}

	log.Info("startup.ready", "domains", cfg.Domains, "interval", cfg.Interval.String(),
		"liveness", cfg.Liveness.Mode, "notifier", cfg.Notify.Kind, "state", cfg.State.Backend)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, m := range monitors {
		wg.Add(1)
		go func(m *usecase.Monitor) {
			defer wg.Done()
			if err := m.Run(ctx); err != nil && !usecase.IsStopped(err) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", m.Target(), err))
				mu.Unlock()
			}
		}(m)
	}
	wg.Wait()

	log.Info("shutdown.completed")
	return errors.Join(errs...)
}

// requiredTools lists the binaries the configured pipeline shells out to.
func requiredTools(cfg domain.Config) []string {
	bins := []string{cfg.Discovery.Binary}
	if cfg.Liveness.Mode == domain.LivenessHTTPX {
		bins = append(bins, cfg.Liveness.Tool.Binary)
	}
	return bins
}
