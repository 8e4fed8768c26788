package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Color palette
	primaryColor   = lipgloss.Color("#7D56F4")
	secondaryColor = lipgloss.Color("#00D7FF")
	successColor   = lipgloss.Color("#04B575")
	warningColor   = lipgloss.Color("#FFA500")
	mutedColor     = lipgloss.Color("#666666")

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	nodeStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	goodStyle = lipgloss.NewStyle().
			Foreground(successColor)

	warnStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// styled renders text with s unless --no-color is set. Output that is not a
// terminal is left plain by lipgloss itself.
func styled(s lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return s.Render(text)
}

// label renders a "Name:" prefix.
func label(name string) string {
	return styled(labelStyle, name+":")
}

// countStyle picks warnStyle for non-zero failure counts.
func countStyle(failures int) string {
	if failures > 0 {
		return styled(warnStyle, fmt.Sprint(failures))
	}
	return styled(goodStyle, "0")
}
