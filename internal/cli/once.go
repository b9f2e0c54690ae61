package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/notify"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/toolrunner"
)

func onceCmd(opts *options) *cobra.Command {
	var showHosts bool

	c := &cobra.Command{
		Use:   "once",
		Short: "Run a single iteration for every domain and exit",
		Long: "once runs discovery, liveness filtering, diffing, notification and\n" +
			"persistence a single time per domain. It exits non-zero when discovery\n" +
			"fails for any domain.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			log, closeLog, err := openLog(cfg, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			if err := toolrunner.CheckInstalled(requiredTools(cfg)...); err != nil {
				return err
			}

			notifier, err := notify.New(cfg.Notify, log)
			if err != nil {
				return err
			}

			var failed []error
			for _, target := range cfg.Domains {
				m, err := buildMonitor(cfg, target, notifier, log)
				if err != nil {
					return err
				}
				res, err := m.RunOnce(cmd.Context())
				if err != nil {
					printFailure(cmd.OutOrStdout(), target, err)
					failed = append(failed, fmt.Errorf("%s: %w", target, err))
					if cmd.Context().Err() != nil {
						break
					}
					continue
				}
				printResult(cmd.OutOrStdout(), res, showHosts)
			}
			return errors.Join(failed...)
		},
	}

	c.Flags().BoolVar(&showHosts, "show-new", false, "List every new host, not only the count")
	return c
}

func printResult(w io.Writer, res domain.IterationResult, showHosts bool) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	status := green("OK")
	if res.UsedFallback || !res.Persisted {
		status = yellow("DEGRADED")
	}

	fmt.Fprintf(w, "[%s] %s\n", status, res.Target)
	fmt.Fprintf(w, "  discovered: %d\n", res.Discovered.Len())
	fmt.Fprintf(w, "  current:    %d\n", res.Current.Len())
	fmt.Fprintf(w, "  new:        %d\n", res.New.Len())
	fmt.Fprintf(w, "  total:      %d\n", res.Total)
	if res.UsedFallback {
		fmt.Fprintln(w, "  liveness:   failed, used every discovered host")
	}
	if !res.Persisted {
		fmt.Fprintln(w, "  state:      NOT saved (see log)")
	}
	if showHosts {
		for _, h := range res.New.Sorted() {
			fmt.Fprintf(w, "    + %s\n", green(h))
		}
	}
}

func printFailure(w io.Writer, target string, err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(w, "[%s] %s\n  error: %v (%s)\n", red("FAIL"), target, err, domain.KindOf(err))
}
