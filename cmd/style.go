package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF9900"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Width(16)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#232F3E")).
			Padding(0, 1)
)

// row renders one "label value" line.
func row(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

// printBanner writes the startup banner. It is the only output visible in
// the terminal during normal operation; structured logs go to the log file.
func printBanner(w io.Writer, version, serverURL, logFile string) {
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("sesrelay "+version),
		row("API", serverURL+"/api"),
		row("Webhook", serverURL+"/webhooks/ses"),
		row("Metrics", serverURL+"/metrics"),
		row("Logs", logFile),
	)
	fmt.Fprintln(w, boxStyle.Render(body))
}
