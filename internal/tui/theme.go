// Package tui renders packaging job progress in the terminal.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette (Tokyonight theme).
var (
	colorBorder  = lipgloss.Color("#414868")
	colorMuted   = lipgloss.Color("#565f89")
	colorText    = lipgloss.Color("#a9b1d6")
	colorPrimary = lipgloss.Color("#7aa2f7")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorWarning = lipgloss.Color("#e0af68")
	colorRose    = lipgloss.Color("#f7768e")
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	runningStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	doneStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRose).
			Bold(true)

	cancelStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)
