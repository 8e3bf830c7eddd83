// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	// ColorPrimary is purple: titles and headers.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray: secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green: successful outcomes.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red: failures.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber: warnings.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue: commands and keys.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for failure headers.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command names and configuration keys.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)
)

// summaryHeader colours a batch summary header by outcome.
func summaryHeader(failed bool) func(string) string {
	style := SuccessStyle
	if failed {
		style = ErrorStyle
	}
	return func(s string) string { return style.Render(s) }
}
