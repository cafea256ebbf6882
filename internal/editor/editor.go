// Package editor provides the two editor widgets a Markdown cell can mount:
// a plain-text source editor and a rich editor with a live rendered preview.
// Both wrap github.com/charmbracelet/bubbles/textarea and mount at a DOM
// element of the cell's document.
package editor

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/mdcell/internal/dom"
	"golang.org/x/net/html"
)

// Position is a caret placement target.
type Position string

const (
	Start Position = "start"
	End   Position = "end"
)

// Editor is the capability set shared by every editor widget.
type Editor interface {
	dom.Widget
	// Node is the element the editor is mounted at.
	Node() *html.Node
	// Focus moves document focus into the editor.
	Focus()
	SetCaretPosition(Position)
	// Dispose unmounts the editor. Further calls are no-ops.
	Dispose()
	Disposed() bool
	// Update feeds a terminal message to the editor.
	Update(tea.Msg) tea.Cmd
	Value() string
}

// CodeOptions configures a plain-text editor.
type CodeOptions struct {
	Language string
	WordWrap bool
	Content  string
	OnChange func(string)
}

// RichOptions configures a rich editor.
type RichOptions struct {
	// Editable is consulted at construction and on RefreshEditable.
	Editable func() bool
	Content  string
	OnChange func(string)
}

// CodeEditor is a plain-text source editor.
type CodeEditor interface {
	Editor
	Options() CodeOptions
}

// RichEditor is a rich editor whose read-only state can change in place.
type RichEditor interface {
	Editor
	Editable() bool
	// RefreshEditable re-reads the Editable predicate without remounting.
	RefreshEditable()
}

// Factory constructs editors mounted in doc.
type Factory interface {
	NewCode(doc *dom.Document, opts CodeOptions) CodeEditor
	NewRich(doc *dom.Document, opts RichOptions) RichEditor
}

// Config configures the default factory.
type Config struct {
	// Width is the editor width in columns.
	Width int
	// Preview renders Markdown for the rich editor's preview pane. Nil
	// disables the preview.
	Preview func(source string) string
}

// NewFactory returns the textarea-backed factory.
func NewFactory(cfg Config) Factory {
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	return &factory{cfg: cfg}
}

type factory struct {
	cfg Config
}

func (f *factory) NewCode(doc *dom.Document, opts CodeOptions) CodeEditor {
	e := &Code{opts: opts}
	e.init(doc, "editor-code", f.cfg.Width, opts.Content, opts.OnChange)
	if opts.Language != "" {
		dom.SetAttr(e.node, "data-language", opts.Language)
		e.ta.Placeholder = opts.Language + " source"
	}
	e.ta.ShowLineNumbers = true
	e.applyWrap()
	doc.Attach(e.node, e)
	return e
}

func (f *factory) NewRich(doc *dom.Document, opts RichOptions) RichEditor {
	e := &Rich{opts: opts, preview: f.cfg.Preview}
	e.init(doc, "editor-rich", f.cfg.Width, opts.Content, opts.OnChange)
	e.ta.ShowLineNumbers = false
	e.ta.Prompt = ""
	e.ta.Placeholder = "Write something..."
	e.RefreshEditable()
	doc.Attach(e.node, e)
	return e
}
