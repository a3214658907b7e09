package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/nconklindev/leadbook/internal/types"
)

var (
	accent    = lipgloss.Color("#FF8C42")
	highlight = lipgloss.Color("#FFB84D")
	muted     = lipgloss.Color("#6B7280")
	danger    = lipgloss.Color("#FF4757")
	good      = lipgloss.Color("#2ED573")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	ActiveColumnStyle = ColumnStyle.
				BorderForeground(accent)

	CardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	SelectedCardStyle = lipgloss.NewStyle().
				Foreground(accent).
				Bold(true)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(muted)

	StatValueStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true)

	BarStyle = lipgloss.NewStyle().
			Foreground(accent)
)

var priorityColors = map[types.Priority]lipgloss.Color{
	types.PriorityHigh:   danger,
	types.PriorityMedium: highlight,
	types.PriorityLow:    good,
}

func priorityStyle(p types.Priority) lipgloss.Style {
	c, ok := priorityColors[p]
	if !ok {
		c = muted
	}
	return lipgloss.NewStyle().Foreground(c)
}
