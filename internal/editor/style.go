package editor

import "github.com/charmbracelet/lipgloss"

var styles = struct {
	code    lipgloss.Style
	rich    lipgloss.Style
	badge   lipgloss.Style
	divider lipgloss.Style
}{
	code: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")),
	rich: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("212")),
	badge: lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214")).
		Padding(0, 1),
	divider: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}
