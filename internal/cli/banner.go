package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/s-0-u-l-z/SubdomainNotifier/internal/buildinfo"
)

const bannerArt = `
 ___ _   _| |__  _ __   ___ | |_(_) __ _   _
/ __| | | | '_ \| '_ \ / _ \| __| |/ _| | | |
\__ \ |_| | |_) | | | | (_) | |_| | | | |_| |
|___/\__,_|_.__/|_| |_|\___/ \__|_|_|  \__, |
                                       |___/ `

var bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

func printBanner(w io.Writer) {
	fmt.Fprintln(w, bannerStyle.Render(bannerArt))
	fmt.Fprintln(w, lipgloss.NewStyle().Faint(true).Render("  "+buildinfo.String()))
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintln(w, red("  Only scan domains you are authorized to test."))
	fmt.Fprintln(w)
}
