package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors for light and dark terminal themes
var (
	SuccessColor = lipgloss.AdaptiveColor{Light: "#107C10", Dark: "#6CCB5F"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#C42B1C", Dark: "#FF6B6B"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#9D5D00", Dark: "#F2C14E"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6E6E6E", Dark: "#8A8A8A"}
	PathColor    = lipgloss.AdaptiveColor{Light: "#005FB8", Dark: "#60CDFF"}
)

// Semantic styles used across command output
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	PathStyle = lipgloss.NewStyle().
			Foreground(PathColor)

	CommandStyle = lipgloss.NewStyle().
			Bold(true)
)
