package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dim    = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}

	headerStyle         = lipgloss.NewStyle().Bold(true).Foreground(accent)
	panelTitleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	figureTitleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle            = lipgloss.NewStyle().Foreground(dim)
	barStyle            = lipgloss.NewStyle().Foreground(accent)
	selectedOptionStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true, true, false, true).
			BorderForeground(accent)
	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true, true, false, true).
				BorderForeground(dim).
				Foreground(dim)
)

// dynamicMark flags tabs that take part in periodic refresh.
const dynamicMark = "●"

// contentBorder returns the style framing the selected tab's content.
func contentBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent)
}
