package tui

import "charm.land/lipgloss/v2"

// Styles groups the lipgloss styles used across the TUI.
type Styles struct {
	Heading   lipgloss.Style
	Quote     lipgloss.Style
	Bullet    lipgloss.Style
	Status    lipgloss.Style
	StatusErr lipgloss.Style
}

// DefaultStyles returns the stock color scheme.
func DefaultStyles() Styles {
	return Styles{
		Heading:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dc4e4")),
		Quote:     lipgloss.NewStyle().Foreground(lipgloss.Color("#939ab7")),
		Bullet:    lipgloss.NewStyle().Foreground(lipgloss.Color("#a6da95")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#939ab7")),
		StatusErr: lipgloss.NewStyle().Foreground(lipgloss.Color("#ed8796")),
	}
}
