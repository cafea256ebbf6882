package cell

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/mdcell/internal/dom"
	"github.com/joeycumines/mdcell/internal/editor"
	"github.com/joeycumines/mdcell/internal/typeset"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type fakeEditor struct {
	doc      *dom.Document
	kind     Mode
	node     *html.Node
	code     editor.CodeOptions
	rich     editor.RichOptions
	disposed int
	focused  int
	carets   []editor.Position
	editable bool
	refresh  int
}

func (e *fakeEditor) View() string                { return "editor:" + string(e.kind) }
func (e *fakeEditor) Node() *html.Node            { return e.node }
func (e *fakeEditor) Update(tea.Msg) tea.Cmd      { return nil }
func (e *fakeEditor) Value() string               { return "" }
func (e *fakeEditor) Disposed() bool              { return e.disposed > 0 }
func (e *fakeEditor) Options() editor.CodeOptions { return e.code }
func (e *fakeEditor) Editable() bool              { return e.editable }

func (e *fakeEditor) Focus() {
	e.focused++
	e.doc.Focus(e.node)
}

func (e *fakeEditor) SetCaretPosition(p editor.Position) { e.carets = append(e.carets, p) }

func (e *fakeEditor) Dispose() {
	e.disposed++
	if e.node.Parent != nil {
		e.doc.RemoveChild(e.node.Parent, e.node)
	}
}

func (e *fakeEditor) RefreshEditable() {
	e.refresh++
	e.editable = e.rich.Editable()
}

// fakeFactory records every editor and fails the test if one is created
// while another is still live.
type fakeFactory struct {
	t       *testing.T
	created []*fakeEditor
}

func (f *fakeFactory) live() int {
	n := 0
	for _, e := range f.created {
		if e.disposed == 0 {
			n++
		}
	}
	return n
}

func (f *fakeFactory) add(e *fakeEditor) {
	require.Zero(f.t, f.live(), "editor created while another is live")
	e.node = e.doc.CreateElement("div", "editor", fmt.Sprintf("editor-%d", len(f.created)))
	f.created = append(f.created, e)
}

func (f *fakeFactory) NewCode(doc *dom.Document, opts editor.CodeOptions) editor.CodeEditor {
	e := &fakeEditor{doc: doc, kind: ModeCode, code: opts}
	f.add(e)
	return e
}

func (f *fakeFactory) NewRich(doc *dom.Document, opts editor.RichOptions) editor.RichEditor {
	e := &fakeEditor{doc: doc, kind: ModeRich, rich: opts, editable: opts.Editable()}
	f.add(e)
	return e
}

func (f *fakeFactory) last() *fakeEditor {
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

// fakeTasks runs deferred work only when flushed.
type fakeTasks struct {
	next    int
	queue   map[int]func()
	order   []int
	closed  bool
	cancels int
}

func newFakeTasks() *fakeTasks { return &fakeTasks{queue: make(map[int]func())} }

func (q *fakeTasks) Defer(fn func()) (cancel func()) {
	if q.closed {
		return func() {}
	}
	q.next++
	id := q.next
	q.queue[id] = fn
	q.order = append(q.order, id)
	return func() {
		if _, ok := q.queue[id]; ok {
			q.cancels++
			delete(q.queue, id)
		}
	}
}

func (q *fakeTasks) Close() {
	q.closed = true
	clear(q.queue)
	q.order = nil
}

func (q *fakeTasks) pending() int { return len(q.queue) }

// flush runs queued tasks, including those they queue, in order.
func (q *fakeTasks) flush() {
	for len(q.order) > 0 {
		id := q.order[0]
		q.order = q.order[1:]
		if fn, ok := q.queue[id]; ok {
			delete(q.queue, id)
			fn()
		}
	}
}

type fakeHost struct {
	cells  map[string]*Cell
	subs   map[string]map[int]func(*Cell)
	nextID int
	texts  []string
}

func newFakeHost(cells ...*Cell) *fakeHost {
	h := &fakeHost{cells: make(map[string]*Cell), subs: make(map[string]map[int]func(*Cell))}
	for _, c := range cells {
		h.cells[c.ID] = c
	}
	return h
}

func (h *fakeHost) SubscribeToCellChanges(id string, fn func(*Cell)) func() {
	h.nextID++
	sid := h.nextID
	if h.subs[id] == nil {
		h.subs[id] = make(map[int]func(*Cell))
	}
	h.subs[id][sid] = fn
	return func() { delete(h.subs[id], sid) }
}

func (h *fakeHost) SetCellText(id, text string) {
	h.texts = append(h.texts, text)
	h.cells[id].Text = text
	h.notify(id)
}

func (h *fakeHost) setLocked(id string, locked bool) {
	h.cells[id].Metadata.Properties.Locked = locked
	h.notify(id)
}

func (h *fakeHost) notify(id string) {
	for _, fn := range h.subs[id] {
		fn(h.cells[id])
	}
}

func (h *fakeHost) subscriptions(id string) int { return len(h.subs[id]) }

type fakeMarkdown struct {
	ready   *typeset.Signal
	renders int
}

func (m *fakeMarkdown) Ready() *typeset.Signal { return m.ready }

func (m *fakeMarkdown) Render(source string) string {
	m.renders++
	if m.ready.Settled() {
		return "<p>typeset:" + html.EscapeString(source) + "</p>"
	}
	return "<p>" + html.EscapeString(source) + "</p>"
}

func readyMarkdown() *fakeMarkdown {
	s := typeset.NewSignal()
	s.Settle(nil)
	return &fakeMarkdown{ready: s}
}

type fixture struct {
	t       *testing.T
	doc     *dom.Document
	cell    *Cell
	host    *fakeHost
	md      *fakeMarkdown
	editors *fakeFactory
	tasks   *fakeTasks
	regions Regions
	outside *html.Node
	ctl     *Controller
}

func newFixture(t *testing.T, text string, opts ...Option) *fixture {
	t.Helper()
	doc := dom.NewDocument()
	f := &fixture{
		t:       t,
		doc:     doc,
		cell:    &Cell{ID: "c1", Text: text},
		md:      readyMarkdown(),
		editors: &fakeFactory{t: t},
		tasks:   newFakeTasks(),
	}
	f.host = newFakeHost(f.cell)
	root := doc.CreateElement("div", "cell")
	f.regions = Regions{
		Root:     root,
		Top:      doc.CreateElement("div", "top"),
		Controls: doc.CreateElement("div", "controls"),
	}
	doc.AppendChild(root, f.regions.Controls)
	doc.AppendChild(root, f.regions.Top)
	doc.AppendChild(doc.Root(), root)
	f.outside = doc.CreateElement("button", "outside")
	doc.AppendChild(doc.Root(), f.outside)

	f.ctl = New(f.cell, Deps{
		Doc:      doc,
		Markdown: f.md,
		Editors:  f.editors,
		Tasks:    f.tasks,
		Host:     f.host,
	}, opts...)
	return f
}

func (f *fixture) attach() *fixture {
	f.t.Helper()
	require.NoError(f.t, f.ctl.Attach(f.regions))
	return f
}

func (f *fixture) topChildren() []*html.Node { return dom.Children(f.regions.Top) }

func (f *fixture) controlButtons() []*html.Node { return dom.Children(f.regions.Controls) }
