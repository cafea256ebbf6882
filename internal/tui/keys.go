package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Edit   key.Binding
	Toggle key.Binding
	Run    key.Binding
	RunAll key.Binding
	Lock   key.Binding
	Insert key.Binding
	Delete key.Binding
	Leave  key.Binding
	Save   key.Binding
	PgUp   key.Binding
	PgDown key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous cell")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next cell")),
		Edit:   key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		Toggle: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "source/rich")),
		Run:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "run cell")),
		RunAll: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "run all")),
		Lock:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "lock")),
		Insert: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new cell")),
		Delete: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete cell")),
		Leave:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave editor")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		PgUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PgDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	}
}

// ShortHelp implements help.KeyMap. It must fit an 80 column terminal with
// quit still showing.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Leave, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PgUp, k.PgDown},
		{k.Edit, k.Toggle, k.Leave, k.Lock},
		{k.Run, k.RunAll, k.Insert, k.Delete},
		{k.Save, k.Help, k.Quit},
	}
}
