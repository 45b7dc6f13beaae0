package main

import "github.com/charmbracelet/lipgloss"

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(16).
			Align(lipgloss.Right)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#393C41")).
			Padding(0, 1).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EAB308"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#22C55E")).
		Bold(true)
)

func row(label, value string) string {
	if value == "" {
		return ""
	}
	return labelStyle.Render(label+":") + " " + valueStyle.Render(value) + "\n"
}
