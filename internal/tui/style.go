package tui

import "github.com/charmbracelet/lipgloss"

var styles = struct {
	title    lipgloss.Style
	cell     lipgloss.Style
	selected lipgloss.Style
	label    lipgloss.Style
	locked   lipgloss.Style
	status   lipgloss.Style
	errorMsg lipgloss.Style
	bar      scrollbar
}{
	title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1),
	cell:     lipgloss.NewStyle().Border(lipgloss.HiddenBorder(), false, false, false, true).PaddingLeft(1),
	selected: lipgloss.NewStyle().Border(lipgloss.ThickBorder(), false, false, false, true).BorderForeground(lipgloss.Color("63")).PaddingLeft(1),
	label:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	locked:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	status:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	errorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	bar: scrollbar{
		thumb: lipgloss.NewStyle().Background(lipgloss.Color("57")),
		track: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	},
}
