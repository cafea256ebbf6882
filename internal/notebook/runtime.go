package notebook

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/joeycumines/mdcell/internal/cell"
	"github.com/joeycumines/mdcell/internal/dom"
	"github.com/joeycumines/mdcell/internal/editor"
	"github.com/joeycumines/mdcell/internal/storage"
	"github.com/joeycumines/mdcell/internal/uiloop"
	"golang.org/x/net/html"
)

// ErrUnknownCell is returned for a cell id the runtime does not hold.
var ErrUnknownCell = errors.New("notebook: unknown cell")

// Options configures a Runtime.
type Options struct {
	Loop     *uiloop.Loop
	Markdown cell.Markdown
	Editors  editor.Factory
	Logger   *slog.Logger
	// DefaultMode is the cells' default edit mode; empty means code.
	DefaultMode cell.Mode
	WordWrap    bool
	// Autorun runs every cell after mounting, unless the notebook's front
	// matter says otherwise.
	Autorun bool
}

// View is a mounted cell.
type View struct {
	Cell    *Cell
	Regions cell.Regions
	// Controller is nil for cells that are not markdown.
	Controller *cell.Controller
}

// Runtime mounts a notebook into a document and hosts its cell controllers.
// All methods must run on the loop.
type Runtime struct {
	nb     *Notebook
	opts   Options
	logger *slog.Logger
	doc    *dom.Document
	root   *html.Node
	views  []*View

	subs    map[string]map[uint64]func(*cell.Cell)
	nextSub uint64
	dirty   bool
	closed  bool
}

// Open mounts nb into a fresh document and attaches a controller to every
// markdown cell.
func Open(nb *Notebook, opts Options) (*Runtime, error) {
	if opts.Loop == nil || opts.Markdown == nil || opts.Editors == nil {
		return nil, errors.New("notebook: loop, markdown and editors are required")
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = cell.DefaultMode
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{
		nb:     nb,
		opts:   opts,
		logger: logger,
		doc:    dom.NewDocument(),
		subs:   make(map[string]map[uint64]func(*cell.Cell)),
	}
	rt.root = rt.doc.CreateElement("main", "notebook")
	rt.doc.AppendChild(rt.doc.Root(), rt.root)
	if nb.Title != "" {
		h := rt.doc.CreateElement("h1", "notebook-title")
		h.AppendChild(rt.doc.CreateText(nb.Title))
		rt.doc.AppendChild(rt.root, h)
	}

	for _, c := range nb.Cells {
		v, err := rt.mount(c, nil)
		if err != nil {
			rt.Dispose()
			return nil, err
		}
		rt.views = append(rt.views, v)
	}

	if rt.autorun() {
		rt.RunAll()
	}
	logger.Debug("notebook: opened", "cells", len(rt.views), "autorun", rt.autorun())
	return rt, nil
}

func (rt *Runtime) autorun() bool {
	if rt.nb.Autorun != nil {
		return *rt.nb.Autorun
	}
	return rt.opts.Autorun
}

// mount builds c's regions, inserts them before the section next (or at the
// end) and attaches a controller for markdown cells.
func (rt *Runtime) mount(c *Cell, next *html.Node) (*View, error) {
	section := rt.doc.CreateElement("section", "cell", "cell-"+c.Type)
	dom.SetAttr(section, "data-cell-id", c.ID)
	top := rt.doc.CreateElement("div", "cell-top")
	controls := rt.doc.CreateElement("div", "cell-controls")
	section.AppendChild(controls)
	section.AppendChild(top)
	if next != nil {
		rt.root.InsertBefore(section, next)
	} else {
		rt.doc.AppendChild(rt.root, section)
	}

	v := &View{Cell: c, Regions: cell.Regions{Root: section, Top: top, Controls: controls}}
	if !c.Markdown() {
		pre := rt.doc.CreateElement("pre", "source")
		dom.SetAttr(pre, "data-type", c.Type)
		code := rt.doc.CreateElement("code")
		code.AppendChild(rt.doc.CreateText(c.Text))
		pre.AppendChild(code)
		rt.doc.ReplaceChildren(top, pre)
		return v, nil
	}

	v.Controller = cell.New(&c.Cell, cell.Deps{
		Doc:      rt.doc,
		Markdown: rt.opts.Markdown,
		Editors:  rt.opts.Editors,
		Tasks:    rt.opts.Loop.Group(c.ID),
		Host:     rt,
	},
		cell.WithLogger(rt.logger.With("cell", c.ID)),
		cell.WithDefaultMode(rt.opts.DefaultMode),
		cell.WithWordWrap(rt.opts.WordWrap),
	)
	if err := v.Controller.Attach(v.Regions); err != nil {
		return nil, fmt.Errorf("notebook: attach cell %s: %w", c.ID, err)
	}
	return v, nil
}

// Notebook returns the hosted notebook.
func (rt *Runtime) Notebook() *Notebook { return rt.nb }

// Document returns the document the notebook is mounted in.
func (rt *Runtime) Document() *dom.Document { return rt.doc }

// Root returns the notebook's root element.
func (rt *Runtime) Root() *html.Node { return rt.root }

// Views returns the mounted cells in order.
func (rt *Runtime) Views() []*View { return slices.Clone(rt.views) }

// View returns the mounted cell with id, or nil.
func (rt *Runtime) View(id string) *View {
	if i := rt.index(id); i >= 0 {
		return rt.views[i]
	}
	return nil
}

func (rt *Runtime) index(id string) int {
	return slices.IndexFunc(rt.views, func(v *View) bool { return v.Cell.ID == id })
}

// ViewAt returns the mounted cell containing n, or nil.
func (rt *Runtime) ViewAt(n *html.Node) *View {
	for _, v := range rt.views {
		if dom.Contains(v.Regions.Root, n) {
			return v
		}
	}
	return nil
}

// SubscribeToCellChanges implements cell.Host.
func (rt *Runtime) SubscribeToCellChanges(id string, fn func(*cell.Cell)) (unsubscribe func()) {
	rt.nextSub++
	sid := rt.nextSub
	if rt.subs[id] == nil {
		rt.subs[id] = make(map[uint64]func(*cell.Cell))
	}
	rt.subs[id][sid] = fn
	return func() {
		delete(rt.subs[id], sid)
		if len(rt.subs[id]) == 0 {
			delete(rt.subs, id)
		}
	}
}

// SetCellText implements cell.Host.
func (rt *Runtime) SetCellText(id, text string) {
	v := rt.View(id)
	if v == nil || v.Cell.Text == text {
		return
	}
	v.Cell.Text = text
	rt.dirty = true
	rt.notify(v)
}

// SetLocked changes a cell's locked property and notifies subscribers.
func (rt *Runtime) SetLocked(id string, locked bool) error {
	v := rt.View(id)
	if v == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCell, id)
	}
	if v.Cell.Metadata.Properties.Locked == locked {
		return nil
	}
	v.Cell.Metadata.Properties.Locked = locked
	rt.dirty = true
	rt.notify(v)
	return nil
}

func (rt *Runtime) notify(v *View) {
	subs := rt.subs[v.Cell.ID]
	for _, k := range slices.Sorted(maps.Keys(subs)) {
		if fn, ok := subs[k]; ok {
			fn(&v.Cell.Cell)
		}
	}
}

// RunAll renders every markdown cell that has text.
func (rt *Runtime) RunAll() {
	for _, v := range rt.views {
		if v.Controller != nil && v.Cell.Text != "" {
			v.Controller.Run()
		}
	}
}

// InsertCell adds an empty markdown cell after the cell with id (at the start
// when id is empty) and focuses its editor.
func (rt *Runtime) InsertCell(after string) (*View, error) {
	pos := 0
	if after != "" {
		i := rt.index(after)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCell, after)
		}
		pos = i + 1
	}
	var next *html.Node
	if pos < len(rt.views) {
		next = rt.views[pos].Regions.Root
	}

	c := NewCell()
	v, err := rt.mount(c, next)
	if err != nil {
		return nil, err
	}
	rt.views = slices.Insert(rt.views, pos, v)
	rt.nb.Cells = slices.Insert(rt.nb.Cells, pos, c)
	rt.dirty = true
	v.Controller.FocusEditor(cell.FocusOptions{})
	return v, nil
}

// RemoveCell disposes and unmounts the cell with id.
func (rt *Runtime) RemoveCell(id string) error {
	i := rt.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCell, id)
	}
	v := rt.views[i]
	if v.Controller != nil {
		v.Controller.Dispose()
	}
	rt.doc.RemoveChild(rt.root, v.Regions.Root)
	rt.views = slices.Delete(rt.views, i, i+1)
	rt.nb.Cells = slices.DeleteFunc(rt.nb.Cells, func(c *Cell) bool { return c == v.Cell })
	delete(rt.subs, id)
	rt.dirty = true
	return nil
}

// Dirty reports whether the notebook changed since it was opened or saved.
func (rt *Runtime) Dirty() bool { return rt.dirty }

// Save writes the notebook to path atomically.
func (rt *Runtime) Save(path string) error {
	data, err := Encode(rt.nb)
	if err != nil {
		return err
	}
	if err := storage.AtomicWriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("notebook: save %s: %w", path, err)
	}
	rt.dirty = false
	rt.logger.Info("notebook: saved", "path", path, "cells", len(rt.nb.Cells))
	return nil
}

// Dispose disposes every controller. The document is left as is.
func (rt *Runtime) Dispose() {
	if rt.closed {
		return
	}
	rt.closed = true
	for _, v := range rt.views {
		if v.Controller != nil {
			v.Controller.Dispose()
		}
	}
}

// Load reads and parses the notebook at path.
func Load(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("notebook: %w", err)
	}
	nb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nb, nil
}
