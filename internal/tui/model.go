// Package tui is the terminal front end for a notebook: a bubbletea program
// whose notebook work all runs on the UI loop.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joeycumines/mdcell/internal/cell"
	"github.com/joeycumines/mdcell/internal/dom"
	"github.com/joeycumines/mdcell/internal/editor"
	"github.com/joeycumines/mdcell/internal/notebook"
	"github.com/joeycumines/mdcell/internal/termrender"
	"github.com/joeycumines/mdcell/internal/uiloop"
	"golang.org/x/net/html"
)

// refreshMsg asks the model to redraw from the document.
type refreshMsg struct{}

// Refresher repaints a running program after loop tasks that ran outside
// of Update, such as a deferred focus check or a typesetting upgrade. Pass
// AfterTask to uiloop.WithAfterTask.
type Refresher struct {
	p atomic.Pointer[tea.Program]
}

// AfterTask implements the loop hook. The send happens on its own goroutine
// because Update blocks on the loop.
func (r *Refresher) AfterTask() {
	if p := r.p.Load(); p != nil {
		go p.Send(refreshMsg{})
	}
}

// Model is the notebook program's model.
type Model struct {
	loop   *uiloop.Loop
	rt     *notebook.Runtime
	path   string
	logger *slog.Logger

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	selected int
	content  string
	// offsets holds the first content line of each cell.
	offsets []int
	status  string
	err     error
}

// New returns a model over rt, whose methods must run on loop. path is where
// saves go.
func New(loop *uiloop.Loop, rt *notebook.Runtime, path string, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		loop:     loop,
		rt:       rt,
		path:     path,
		logger:   logger,
		keys:     defaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg { return refreshMsg{} }
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	err := m.loop.Do(func() error {
		cmds = append(cmds, m.update(msg))
		m.render()
		return nil
	})
	if err != nil {
		m.logger.Error("tui: loop unavailable", "error", err)
		return m, tea.Quit
	}
	return m, tea.Batch(cmds...)
}

// update handles msg on the loop.
func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case refreshMsg:
		return nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	// cursor blinks and the like belong to the focused editor
	if ed := m.activeEditor(); ed != nil {
		return ed.Update(msg)
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		if m.rt.Dirty() {
			m.logger.Warn("tui: quitting with unsaved changes", "path", m.path)
		}
		return tea.Quit
	}
	m.status, m.err = "", nil

	switch {
	case key.Matches(msg, m.keys.Save):
		m.save()
		return nil
	case key.Matches(msg, m.keys.Toggle):
		m.toggle()
		return nil
	case key.Matches(msg, m.keys.Run):
		if v := m.current(); v != nil && v.Controller != nil {
			v.Controller.Run()
		}
		return nil
	case key.Matches(msg, m.keys.Lock):
		m.lock()
		return nil
	}

	if ed := m.activeEditor(); ed != nil {
		if key.Matches(msg, m.keys.Leave) {
			m.rt.Document().Blur()
			return nil
		}
		return ed.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.selected = max(0, m.selected-1)
	case key.Matches(msg, m.keys.Down):
		m.selected = min(len(m.rt.Views())-1, m.selected+1)
	case key.Matches(msg, m.keys.Edit):
		m.edit()
	case key.Matches(msg, m.keys.RunAll):
		m.rt.RunAll()
	case key.Matches(msg, m.keys.Insert):
		m.insert()
	case key.Matches(msg, m.keys.Delete):
		m.remove()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.PgUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keys.PgDown):
		m.viewport.HalfViewDown()
	}
	return nil
}

func (m *Model) current() *notebook.View {
	views := m.rt.Views()
	if len(views) == 0 {
		return nil
	}
	m.selected = max(0, min(m.selected, len(views)-1))
	return views[m.selected]
}

// activeEditor returns the editor holding document focus, selecting its cell.
func (m *Model) activeEditor() editor.Editor {
	doc := m.rt.Document()
	for n := doc.ActiveElement(); n != nil; n = n.Parent {
		if ed, ok := doc.WidgetAt(n).(editor.Editor); ok {
			m.selectNode(n)
			return ed
		}
	}
	return nil
}

func (m *Model) selectNode(n *html.Node) {
	for i, v := range m.rt.Views() {
		if dom.Contains(v.Regions.Root, n) {
			m.selected = i
			return
		}
	}
}

// edit is the keyboard form of double-clicking the cell.
func (m *Model) edit() {
	v := m.current()
	if v == nil || v.Controller == nil {
		return
	}
	doc := m.rt.Document()
	target := v.Regions.Top
	if c := v.Regions.Top.FirstChild; c != nil {
		target = c
	}
	doc.Dispatch(&dom.Event{Type: dom.EventDblClick, Target: target})
	if v.Controller.Mode() == cell.ModeDisplay {
		return
	}
	v.Controller.FocusEditor(cell.FocusOptions{Position: editor.End})
}

// toggle presses the selected cell's control button.
func (m *Model) toggle() {
	v := m.current()
	if v == nil {
		return
	}
	button := dom.Find(v.Regions.Controls, dom.ByClass("cell-control"))
	if button == nil {
		return
	}
	doc := m.rt.Document()
	doc.Focus(button)
	doc.Dispatch(&dom.Event{Type: dom.EventClick, Target: button})
}

func (m *Model) lock() {
	v := m.current()
	if v == nil {
		return
	}
	locked := !v.Cell.Metadata.Properties.Locked
	if err := m.rt.SetLocked(v.Cell.ID, locked); err != nil {
		m.err = err
		return
	}
	if locked {
		m.status = "cell locked"
	} else {
		m.status = "cell unlocked"
	}
}

func (m *Model) insert() {
	after := ""
	if v := m.current(); v != nil {
		after = v.Cell.ID
	}
	if _, err := m.rt.InsertCell(after); err != nil {
		m.err = err
	}
}

func (m *Model) remove() {
	v := m.current()
	if v == nil {
		return
	}
	if err := m.rt.RemoveCell(v.Cell.ID); err != nil {
		m.err = err
		return
	}
	m.status = "cell deleted"
}

func (m *Model) save() {
	if m.path == "" {
		m.err = errors.New("no file to save to")
		return
	}
	if err := m.rt.Save(m.path); err != nil {
		m.err = err
		return
	}
	m.status = "saved " + m.path
}

// render rebuilds the viewport content from the document.
func (m *Model) render() {
	views := m.rt.Views()
	if len(views) > 0 {
		m.selected = max(0, min(m.selected, len(views)-1))
	}
	width := max(20, m.width-4)
	r := &termrender.Renderer{Doc: m.rt.Document(), Width: width}

	var b strings.Builder
	m.offsets = m.offsets[:0]
	line := 0
	for i, v := range views {
		m.offsets = append(m.offsets, line)
		label := fmt.Sprintf("[%d] %s", i+1, v.Cell.Type)
		if v.Controller != nil {
			label += " · " + string(v.Controller.Mode())
		}
		if v.Cell.Metadata.Properties.Locked {
			label += " " + styles.locked.Render("locked")
		}
		body := styles.label.Render(label) + "\n" + r.Render(v.Regions.Root)
		style := styles.cell
		if i == m.selected {
			style = styles.selected
		}
		block := style.Render(body)
		b.WriteString(block)
		b.WriteString("\n")
		line += lipgloss.Height(block) + 1
	}
	m.content = b.String()

	m.viewport.Width = max(1, m.width-1)
	m.viewport.Height = max(1, m.height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()))
	m.viewport.SetContent(m.content)
	m.follow()
}

// follow scrolls the selected cell's first line into view.
func (m *Model) follow() {
	if m.selected >= len(m.offsets) {
		return
	}
	top := m.offsets[m.selected]
	if top < m.viewport.YOffset || top >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(top)
	}
}

func (m *Model) header() string {
	title := m.rt.Notebook().Title
	if title == "" {
		title = m.path
	}
	if m.rt.Dirty() {
		title += " *"
	}
	return styles.title.Render(title)
}

func (m *Model) footer() string {
	var status string
	switch {
	case m.err != nil:
		status = styles.errorMsg.Render("error: " + m.err.Error())
	case m.status != "":
		status = styles.status.Render(m.status)
	}
	return status + "\n" + m.help.View(m.keys)
}

// View implements tea.Model. It reads only state computed in Update.
func (m *Model) View() string {
	bar := styles.bar.view(m.viewport.Height, m.viewport.TotalLineCount(), m.viewport.YOffset)
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), bar)
	return m.header() + "\n" + body + "\n" + m.footer()
}

// Run drives m until the user quits or ctx is done.
func Run(ctx context.Context, m *Model, r *Refresher, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(m, opts...)
	if r != nil {
		r.p.Store(p)
		defer r.p.Store(nil)
	}
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
