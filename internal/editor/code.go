package editor

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Code is the plain-text source editor.
type Code struct {
	base
	opts CodeOptions
}

var _ CodeEditor = (*Code)(nil)

// Options returns the options the editor was built with.
func (e *Code) Options() CodeOptions { return e.opts }

// Update implements Editor.
func (e *Code) Update(msg tea.Msg) tea.Cmd {
	cmd := e.update(msg)
	e.applyWrap()
	return cmd
}

// applyWrap widens the textarea past its longest line when wrapping is off,
// so lines scroll instead of folding.
func (e *Code) applyWrap() {
	if e.opts.WordWrap {
		return
	}
	if w := longestLine(e.ta.Value()) + 8; w > e.ta.Width() {
		e.ta.SetWidth(w)
	}
}

// View implements dom.Widget.
func (e *Code) View() string {
	return styles.code.Render(e.ta.View())
}
