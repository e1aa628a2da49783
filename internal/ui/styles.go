package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	quitTextStyle = lipgloss.NewStyle().Margin(1, 0, 2, 4)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
)

// Success renders a completed step.
func Success(msg string) string {
	return successStyle.Render("✅ " + msg)
}

// Error renders a fatal message.
func Error(msg string) string {
	return errorStyle.Render("❌ " + msg)
}

// Warn renders a hint or a non-fatal problem.
func Warn(msg string) string {
	return warnStyle.Render(msg)
}

// Field renders an aligned "label value" line.
func Field(label, value string) string {
	return "   " + labelStyle.Render(label) + " " + value
}
