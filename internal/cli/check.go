package cli

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/toolrunner"
)

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and look for the external tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			printCheck(cmd.OutOrStdout(), cfg)
			return toolrunner.CheckInstalled(requiredTools(cfg)...)
		},
	}
}

func printCheck(w io.Writer, cfg domain.Config) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, bin := range requiredTools(cfg) {
		if path, err := exec.LookPath(bin); err == nil {
			fmt.Fprintf(w, "%s %s (%s)\n", green("[+]"), bin, path)
		} else {
			fmt.Fprintf(w, "%s %s not found in PATH\n", red("[-]"), bin)
		}
	}
	fmt.Fprintf(w, "%s domains: %v\n", green("[+]"), cfg.Domains)
	fmt.Fprintf(w, "%s liveness: %s, notifier: %s, state: %s\n", green("[+]"), cfg.Liveness.Mode, cfg.Notify.Kind, cfg.State.Backend)
}
