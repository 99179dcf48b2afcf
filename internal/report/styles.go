// Package report renders the end-of-run outcome table for the terminal.
package report

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#4ECDC4")
	// SuccessColor indicates classified documents.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates rows that needed the general bucket.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates rows whose download or trigger failed.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	subtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)
)

// FormatTitle renders a section title.
func FormatTitle(s string) string {
	return titleStyle.Render(s)
}
