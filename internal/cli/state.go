package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/domain"
	"github.com/s-0-u-l-z/SubdomainNotifier/internal/infra/statestore"
)

func stateCmd(opts *options) *cobra.Command {
	c := &cobra.Command{
		Use:   "state",
		Short: "Inspect persisted state",
	}
	c.AddCommand(stateShowCmd(opts))
	return c
}

func stateShowCmd(opts *options) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "show",
		Short: "Print the hosts recorded for each domain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			for _, target := range cfg.Domains {
				// Read only: a corrupt record is reported, not quarantined.
				store, err := statestore.New(cfg, target, statestore.WithQuarantine(false))
				if err != nil {
					return err
				}
				hosts, err := store.Load()
				if err != nil {
					return err
				}
				if err := printState(cmd.OutOrStdout(), format, target, store.Path(), hosts); err != nil {
					return err
				}
			}
			return nil
		},
	}

	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json|plain")
	return c
}

var cardStyle = lipgloss.NewStyle().
	Padding(0, 1).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63"))

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

func printState(w io.Writer, format, target, path string, hosts domain.HostSet) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"domain": target,
			"path":   path,
			"total":  hosts.Len(),
			"hosts":  hosts.Sorted(),
		})
	case "plain":
		for _, h := range hosts.Sorted() {
			fmt.Fprintln(w, h)
		}
		return nil
	case "pretty", "":
		var b strings.Builder
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", target, hosts.Len())))
		b.WriteString("\n")
		b.WriteString(faintStyle.Render(path))
		if hosts.Len() == 0 {
			b.WriteString("\n\n")
			b.WriteString(faintStyle.Render("(no hosts recorded yet)"))
		} else {
			b.WriteString("\n")
			for _, h := range hosts.Sorted() {
				b.WriteString("\n")
				b.WriteString(h)
			}
		}
		fmt.Fprintln(w, cardStyle.Render(b.String()))
		return nil
	default:
		return fmt.Errorf("unsupported format %q (expected pretty|json|plain)", format)
	}
}
