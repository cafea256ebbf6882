package editor

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Rich is the rich editor: the source on top, its rendering below. While not
// editable it accepts navigation keys only.
type Rich struct {
	base
	opts     RichOptions
	preview  func(string) string
	editable bool
}

var _ RichEditor = (*Rich)(nil)

// Editable reports the editable state read by the last RefreshEditable.
func (e *Rich) Editable() bool { return e.editable }

// RefreshEditable re-reads the Editable predicate. The mounted element and
// textarea are kept.
func (e *Rich) RefreshEditable() {
	e.editable = e.opts.Editable == nil || e.opts.Editable()
	if e.editable {
		e.ta.Placeholder = "Write something..."
	} else {
		e.ta.Placeholder = ""
	}
}

// Update implements Editor.
func (e *Rich) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && !e.editable && !isNavigation(key) {
		return nil
	}
	return e.update(msg)
}

func isNavigation(k tea.KeyMsg) bool {
	switch k.Type {
	case tea.KeyUp, tea.KeyDown, tea.KeyLeft, tea.KeyRight,
		tea.KeyHome, tea.KeyEnd, tea.KeyPgUp, tea.KeyPgDown,
		tea.KeyCtrlA, tea.KeyCtrlE:
		return true
	}
	return false
}

// View implements dom.Widget.
func (e *Rich) View() string {
	var b strings.Builder
	if !e.editable {
		b.WriteString(styles.badge.Render("read-only"))
		b.WriteByte('\n')
	}
	b.WriteString(e.ta.View())
	if e.preview != nil {
		if rendered := strings.TrimSpace(e.preview(e.ta.Value())); rendered != "" {
			b.WriteByte('\n')
			b.WriteString(styles.divider.Render(strings.Repeat("─", max(1, e.width-2))))
			b.WriteByte('\n')
			b.WriteString(rendered)
		}
	}
	return styles.rich.Render(b.String())
}
