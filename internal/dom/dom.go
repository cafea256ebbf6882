// Package dom is a small document model for notebook cells: an element tree
// built on golang.org/x/net/html nodes, with bubbling events, focus tracking
// and widget attachment.
//
// A Document is not safe for concurrent use. All access happens on the UI
// loop.
package dom

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Widget is a live component mounted at an element, rendered by the host
// instead of the element's markup.
type Widget interface {
	View() string
}

// Document owns an element tree rooted at a <body> element.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]*listener
	widgets   map[*html.Node]Widget
	active    *html.Node
	nextID    uint64
}

type listener struct {
	id uint64
	fn func(*Event)
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		root:      &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"},
		listeners: make(map[*html.Node]map[string][]*listener),
		widgets:   make(map[*html.Node]Widget),
	}
}

// Root returns the document's root element.
func (d *Document) Root() *html.Node { return d.root }

// CreateElement returns a detached element with the given classes.
func (d *Document) CreateElement(tag string, classes ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: atom.Lookup([]byte(tag)), Data: tag}
	if len(classes) > 0 {
		SetAttr(n, "class", strings.Join(classes, " "))
	}
	return n
}

// CreateText returns a detached text node.
func (d *Document) CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// AppendChild moves child to the end of parent's children.
func (d *Document) AppendChild(parent, child *html.Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

// RemoveChild detaches child from parent and releases its listeners, widgets
// and focus.
func (d *Document) RemoveChild(parent, child *html.Node) {
	if child.Parent != parent {
		return
	}
	parent.RemoveChild(child)
	d.release(child)
}

// ReplaceChildren swaps all of parent's children for children in one step:
// no observer on the loop can see the intermediate empty state.
func (d *Document) ReplaceChildren(parent *html.Node, children ...*html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		d.release(c)
		c = next
	}
	for _, c := range children {
		d.AppendChild(parent, c)
	}
}

// SetInnerHTML parses markup as a fragment in n's context and replaces n's
// children with the result.
func (d *Document) SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("dom: parse fragment: %w", err)
	}
	d.ReplaceChildren(n, nodes...)
	return nil
}

// release forgets every resource attached to the subtree rooted at n.
func (d *Document) release(n *html.Node) {
	if d.active != nil && Contains(n, d.active) {
		d.active = nil
	}
	walk(n, func(c *html.Node) {
		delete(d.listeners, c)
		delete(d.widgets, c)
	})
}

// Attach mounts w at n.
func (d *Document) Attach(n *html.Node, w Widget) { d.widgets[n] = w }

// Detach removes any widget mounted at n.
func (d *Document) Detach(n *html.Node) { delete(d.widgets, n) }

// WidgetAt returns the widget mounted at n, or nil.
func (d *Document) WidgetAt(n *html.Node) Widget { return d.widgets[n] }

// Contains reports whether n is ancestor or a descendant of ancestor.
// A nil n is contained by nothing.
func Contains(ancestor, n *html.Node) bool {
	if ancestor == nil {
		return false
	}
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Children returns n's child nodes.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// InnerHTML serializes n's children.
func InnerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// TextContent concatenates the text nodes under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n's class attribute lists class.
func HasClass(n *html.Node, class string) bool {
	v, _ := Attr(n, "class")
	return slices.Contains(strings.Fields(v), class)
}

// Find returns the first element under n (n included) matching pred.
func Find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) {
		if found == nil && c.Type == html.ElementNode && pred(c) {
			found = c
		}
	})
	return found
}

// ByClass is a Find predicate matching elements with class.
func ByClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return HasClass(n, class) }
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
