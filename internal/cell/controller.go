package cell

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joeycumines/mdcell/internal/dom"
	"github.com/joeycumines/mdcell/internal/editor"
	"golang.org/x/net/html"
)

var (
	ErrAttached     = errors.New("cell: controller already attached")
	ErrDisposed     = errors.New("cell: controller disposed")
	ErrMissingPlace = errors.New("cell: regions need a root and a top element")
)

const defaultPosition = editor.Start

// Deps are the collaborators a controller calls into.
type Deps struct {
	Doc      *dom.Document
	Markdown Markdown
	Editors  editor.Factory
	Tasks    Tasks
	Host     Host
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultMode sets the edit mode entered by double-click, the edit
// control and FocusEditor. Display is not an edit mode and is ignored.
func WithDefaultMode(m Mode) Option {
	return func(c *Controller) {
		if m.IsEdit() {
			c.defaultMode = m
		}
	}
}

// WithWordWrap sets line wrapping for the source editor (on by default).
func WithWordWrap(on bool) Option { return func(c *Controller) { c.wordWrap = on } }

// FocusOptions configures FocusEditor.
type FocusOptions struct {
	// Position is where the caret goes; the zero value means the start.
	Position editor.Position
}

// Controller drives one Markdown cell.
type Controller struct {
	cell     *Cell
	doc      *dom.Document
	md       Markdown
	editors  editor.Factory
	tasks    Tasks
	host     Host
	logger   *slog.Logger
	wordWrap bool

	defaultMode Mode
	regions     Regions
	attached    bool
	disposed    bool
	unlisten    []func()

	mode    Mode
	session editorSession
	// output is the container of the latest render, nil outside display.
	output *html.Node
	// renderSeq identifies the latest transition; a pending upgrade render
	// only applies while it is still current.
	renderSeq uint64
	// caret is the latest requested caret position; deferred focus passes
	// apply it rather than the one they were queued with.
	caret editor.Position
}

// New returns a detached controller for cell.
func New(cell *Cell, deps Deps, opts ...Option) *Controller {
	c := &Controller{
		cell:        cell,
		doc:         deps.Doc,
		md:          deps.Markdown,
		editors:     deps.Editors,
		tasks:       deps.Tasks,
		host:        deps.Host,
		logger:      slog.Default(),
		wordWrap:    true,
		defaultMode: DefaultMode,
		mode:        ModeDisplay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cell returns the controlled cell.
func (c *Controller) Cell() *Cell { return c.cell }

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// DefaultMode returns the configured default edit mode.
func (c *Controller) DefaultMode() Mode { return c.defaultMode }

// Editor returns the mounted editor, or nil in display mode.
func (c *Controller) Editor() editor.Editor {
	if c.session == nil {
		return nil
	}
	return c.session.editor()
}

// Regions returns the regions given to Attach.
func (c *Controller) Regions() Regions { return c.regions }

// Attach takes ownership of r, wires the cell's listeners and shows the cell:
// rendered when it has text, in the default edit mode when it is empty.
func (c *Controller) Attach(r Regions) error {
	switch {
	case c.disposed:
		return ErrDisposed
	case c.attached:
		return ErrAttached
	case r.Root == nil || r.Top == nil:
		return ErrMissingPlace
	}
	c.attached = true
	c.regions = r

	c.unlisten = append(c.unlisten,
		c.doc.AddEventListener(r.Top, dom.EventDblClick, c.onDoubleClick),
		c.doc.AddEventListener(r.Root, dom.EventFocusOut, c.onFocusOut),
	)

	if c.cell.Text == "" {
		if err := c.EnterEditMode(c.defaultMode); err != nil {
			return fmt.Errorf("cell %s: %w", c.cell.ID, err)
		}
		return nil
	}
	c.Run()
	return nil
}

func (c *Controller) onDoubleClick(*dom.Event) {
	if c.mode != ModeDisplay {
		return
	}
	c.switchTo(c.defaultMode)
}

func (c *Controller) onFocusOut(ev *dom.Event) {
	if c.mode == ModeDisplay || dom.Contains(c.regions.Root, ev.RelatedTarget) {
		return
	}
	// Editor widgets may pull focus back within the same turn, so decide on
	// the next one.
	c.tasks.Defer(func() {
		if c.disposed || c.mode == ModeDisplay {
			return
		}
		if dom.Contains(c.regions.Root, c.doc.ActiveElement()) {
			return
		}
		c.logger.Debug("cell: focus left cell, rendering", "cell", c.cell.ID)
		c.Run()
	})
}

// EnterEditMode mounts the editor for mode, disposing any editor already
// mounted. ModeDisplay is equivalent to Run.
func (c *Controller) EnterEditMode(mode Mode) error {
	if c.disposed {
		return ErrDisposed
	}
	if mode == ModeDisplay {
		c.Run()
		return nil
	}
	if !mode.IsEdit() {
		return fmt.Errorf("cell: cannot edit in mode %q", mode)
	}

	c.closeSession()
	c.renderSeq++
	c.mode = mode
	c.output = nil

	var s editorSession
	switch mode {
	case ModeCode:
		s = &codeSession{ed: c.editors.NewCode(c.doc, editor.CodeOptions{
			Language: "markdown",
			WordWrap: c.wordWrap,
			Content:  c.cell.Text,
			OnChange: c.onEdit,
		})}
	case ModeRich:
		rs := &richSession{ed: c.editors.NewRich(c.doc, editor.RichOptions{
			Editable: func() bool { return !c.cell.Metadata.Properties.Locked },
			Content:  c.cell.Text,
			OnChange: c.onEdit,
		})}
		if c.host != nil {
			rs.unsubscribe = c.host.SubscribeToCellChanges(c.cell.ID, func(*Cell) {
				if c.session == rs {
					rs.ed.RefreshEditable()
				}
			})
		}
		s = rs
	}
	c.session = s
	c.doc.ReplaceChildren(c.regions.Top, s.editor().Node())
	c.renderControls()

	c.logger.Debug("cell: entered edit mode", "cell", c.cell.ID, "mode", mode)
	return nil
}

func (c *Controller) onEdit(text string) {
	if c.host != nil {
		c.host.SetCellText(c.cell.ID, text)
	}
}

// Run renders the cell into the top element and switches to display mode.
// When typesetting is not ready yet, the untypeset render is shown at once
// and replaced in place once the engine settles.
func (c *Controller) Run() {
	if c.disposed || !c.attached {
		return
	}
	c.closeSession()
	c.mode = ModeDisplay
	c.renderSeq++
	seq := c.renderSeq

	out := c.doc.CreateElement("div", "markdown-body")
	c.fill(out)
	c.doc.ReplaceChildren(c.regions.Top, out)
	c.output = out
	c.dropStaleOutput()
	c.renderControls()

	if ready := c.md.Ready(); !ready.Settled() {
		ready.Then(func() {
			c.tasks.Defer(func() { c.upgrade(seq) })
		})
	}
}

// upgrade re-renders the output of render seq, if it is still current.
func (c *Controller) upgrade(seq uint64) {
	if c.disposed || seq != c.renderSeq || c.output == nil {
		return
	}
	c.fill(c.output)
	c.dropStaleOutput()
	c.renderControls()
	c.logger.Debug("cell: upgraded render", "cell", c.cell.ID)
}

func (c *Controller) fill(out *html.Node) {
	if err := c.doc.SetInnerHTML(out, c.md.Render(c.cell.Text)); err != nil {
		c.logger.Error("cell: render failed", "cell", c.cell.ID, "error", err)
	}
}

// dropStaleOutput keeps only the latest output in the top element.
func (c *Controller) dropStaleOutput() {
	top := c.regions.Top
	for top.FirstChild != nil && top.FirstChild != top.LastChild {
		stale := top.FirstChild
		if stale == c.output {
			stale = top.LastChild
		}
		c.logger.Warn("cell: removing duplicate output", "cell", c.cell.ID)
		c.doc.RemoveChild(top, stale)
	}
}

// Dispose disposes the editor, cancels pending deferred work and removes
// the cell's listeners. The regions stay in the document.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.closeSession()
	if c.tasks != nil {
		c.tasks.Close()
	}
	for _, fn := range c.unlisten {
		fn()
	}
	c.unlisten = nil
	c.logger.Debug("cell: disposed", "cell", c.cell.ID)
}

// Disposed reports whether Dispose was called.
func (c *Controller) Disposed() bool { return c.disposed }

// FocusEditor switches to the default edit mode unless already there and
// puts the caret at opts.Position, now and again on the next turn.
func (c *Controller) FocusEditor(opts FocusOptions) {
	if c.disposed || !c.attached {
		return
	}
	if c.mode != c.defaultMode {
		if err := c.EnterEditMode(c.defaultMode); err != nil {
			c.logger.Warn("cell: focus failed", "cell", c.cell.ID, "error", err)
			return
		}
	}
	pos := opts.Position
	if pos == "" {
		pos = defaultPosition
	}
	c.focusActive(pos)
}

// focusActive focuses the mounted editor now and on the next turn, since a
// widget may not accept the caret until it has been laid out once. The second
// pass is skipped once focus has moved out of the editor.
func (c *Controller) focusActive(pos editor.Position) {
	ed := c.Editor()
	if ed == nil {
		return
	}
	c.caret = pos
	ed.Focus()
	ed.SetCaretPosition(pos)
	c.tasks.Defer(func() {
		if c.disposed || c.Editor() != ed {
			return
		}
		if !dom.Contains(ed.Node(), c.doc.ActiveElement()) {
			return
		}
		ed.Focus()
		ed.SetCaretPosition(c.caret)
	})
}

// Clear does nothing: a Markdown cell has no output besides its own text.
func (c *Controller) Clear() {}

func (c *Controller) closeSession() {
	if c.session == nil {
		return
	}
	s := c.session
	c.session = nil
	s.close()
}
