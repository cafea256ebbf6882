package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/mdcell/internal/dom"
	"golang.org/x/net/html"
)

const (
	minHeight = 3
	maxHeight = 20
)

// base holds what both editors share: the mount element and the textarea.
type base struct {
	doc      *dom.Document
	node     *html.Node
	ta       textarea.Model
	width    int
	onChange func(string)
	disposed bool
	unlisten []func()
}

func (b *base) init(doc *dom.Document, class string, width int, content string, onChange func(string)) {
	b.doc = doc
	b.width = width
	b.onChange = onChange
	b.node = doc.CreateElement("div", "editor", class)
	dom.SetAttr(b.node, "tabindex", "0")

	b.ta = textarea.New()
	b.ta.CharLimit = 0
	b.ta.MaxHeight = 0
	b.ta.SetWidth(width)
	b.ta.SetValue(content)
	b.fitHeight()

	// The textarea mirrors document focus, so a focus change made by anyone
	// (a sibling widget, the host) shows or hides the cursor.
	b.unlisten = append(b.unlisten,
		doc.AddEventListener(b.node, dom.EventFocusIn, func(*dom.Event) { b.ta.Focus() }),
		doc.AddEventListener(b.node, dom.EventFocusOut, func(e *dom.Event) {
			if !dom.Contains(b.node, e.RelatedTarget) {
				b.ta.Blur()
			}
		}),
	)
}

func (b *base) Node() *html.Node { return b.node }

func (b *base) Disposed() bool { return b.disposed }

func (b *base) Value() string { return b.ta.Value() }

func (b *base) Focus() {
	if b.disposed {
		return
	}
	b.doc.Focus(b.node)
	b.ta.Focus()
}

func (b *base) SetCaretPosition(pos Position) {
	if b.disposed {
		return
	}
	// Each step moves at least one visual row, so the bound is never hit
	// for a well-behaved textarea.
	limit := len(b.ta.Value()) + b.ta.LineCount() + 1
	switch pos {
	case End:
		for i := 0; i < limit && b.ta.Line() < b.ta.LineCount()-1; i++ {
			b.ta.CursorDown()
		}
		b.ta.CursorEnd()
	default:
		for i := 0; i < limit && b.ta.Line() > 0; i++ {
			b.ta.CursorUp()
		}
		b.ta.CursorStart()
	}
}

func (b *base) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	for _, fn := range b.unlisten {
		fn()
	}
	b.unlisten = nil
	b.ta.Blur()
	b.doc.Detach(b.node)
	if parent := b.node.Parent; parent != nil {
		b.doc.RemoveChild(parent, b.node)
	}
}

// update forwards msg to the textarea and reports content changes.
func (b *base) update(msg tea.Msg) tea.Cmd {
	if b.disposed {
		return nil
	}
	before := b.ta.Value()
	var cmd tea.Cmd
	b.ta, cmd = b.ta.Update(msg)
	if after := b.ta.Value(); after != before {
		b.fitHeight()
		if b.onChange != nil {
			b.onChange(after)
		}
	}
	return cmd
}

func (b *base) fitHeight() {
	h := b.ta.LineCount() + 1
	h = max(minHeight, min(maxHeight, h))
	b.ta.SetHeight(h)
}

// longestLine returns the display width of the longest line of s.
func longestLine(s string) int {
	longest := 0
	for line := range strings.SplitSeq(s, "\n") {
		longest = max(longest, len([]rune(line)))
	}
	return longest
}
