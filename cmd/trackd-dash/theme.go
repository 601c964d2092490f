package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual styling for the trackd dashboard.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
}

// DefaultTheme returns the default theme for trackd-dash.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("12"),  // Blue
		Secondary: lipgloss.Color("14"),  // Cyan
		Success:   lipgloss.Color("10"),  // Green
		Warning:   lipgloss.Color("11"),  // Yellow
		Error:     lipgloss.Color("9"),   // Red
		Muted:     lipgloss.Color("240"), // Gray
	}
}

// Styles holds the derived lipgloss styles used by the views.
type Styles struct {
	Header lipgloss.Style
	Col    lipgloss.Style
	Muted  lipgloss.Style
}

// NewStyles derives render styles from a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Col:    lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Foreground(theme.Muted),
	}
}
