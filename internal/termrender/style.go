package termrender

import "github.com/charmbracelet/lipgloss"

type styleSet struct {
	h1, h2, h3  lipgloss.Style
	em          lipgloss.Style
	strong      lipgloss.Style
	del         lipgloss.Style
	code        lipgloss.Style
	pre         lipgloss.Style
	link        lipgloss.Style
	quote       lipgloss.Style
	rule        lipgloss.Style
	marker      lipgloss.Style
	math        lipgloss.Style
	rawMath     lipgloss.Style
	displayMath lipgloss.Style
	button      lipgloss.Style
}

func (s styleSet) heading(level int) lipgloss.Style {
	switch level {
	case 1:
		return s.h1
	case 2:
		return s.h2
	default:
		return s.h3
	}
}

var styles = styleSet{
	h1:          lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
	h2:          lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("141")),
	h3:          lipgloss.NewStyle().Bold(true),
	em:          lipgloss.NewStyle().Italic(true),
	strong:      lipgloss.NewStyle().Bold(true),
	del:         lipgloss.NewStyle().Strikethrough(true),
	code:        lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	pre:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1),
	link:        lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39")),
	quote:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	rule:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	marker:      lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
	math:        lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
	rawMath:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	displayMath: lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Align(lipgloss.Center),
	button:      lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63")).Padding(0, 1),
}
