package notebook

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/mdcell/internal/editor"
)

func typeInto(ed editor.Editor, s string) {
	ed.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}
