package dom

import (
	"slices"

	"golang.org/x/net/html"
)

// Event types dispatched by the document and its hosts.
const (
	EventClick    = "click"
	EventDblClick = "dblclick"
	EventFocusIn  = "focusin"
	EventFocusOut = "focusout"
)

// Event is dispatched to listeners along the path from Target to the root.
type Event struct {
	Type string
	// Target is the node the event was dispatched at.
	Target *html.Node
	// RelatedTarget is, for focus events, the node gaining focus (focusout)
	// or losing it (focusin). It may be nil.
	RelatedTarget *html.Node
	// CurrentTarget is the node whose listener is running.
	CurrentTarget *html.Node

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// AddEventListener registers fn for events of typ reaching n. The returned
// func removes the listener and is idempotent.
func (d *Document) AddEventListener(n *html.Node, typ string, fn func(*Event)) (remove func()) {
	d.nextID++
	l := &listener{id: d.nextID, fn: fn}
	byType := d.listeners[n]
	if byType == nil {
		byType = make(map[string][]*listener)
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], l)

	return func() {
		byType := d.listeners[n]
		if byType == nil {
			return
		}
		byType[typ] = slices.DeleteFunc(byType[typ], func(o *listener) bool { return o.id == l.id })
	}
}

// Dispatch delivers ev to listeners on ev.Target and then each ancestor,
// unless a listener stops propagation. The path is fixed before the first
// listener runs.
func (d *Document) Dispatch(ev *Event) {
	if ev.Target == nil {
		return
	}
	var path []*html.Node
	for n := ev.Target; n != nil; n = n.Parent {
		path = append(path, n)
	}
	for _, n := range path {
		ls := slices.Clone(d.listeners[n][ev.Type])
		ev.CurrentTarget = n
		for _, l := range ls {
			l.fn(ev)
		}
		if ev.stopped {
			return
		}
	}
}

// ActiveElement returns the focused node, or nil.
func (d *Document) ActiveElement() *html.Node { return d.active }

// Focus moves focus to n, dispatching focusout at the previously focused node
// and focusin at n. Focusing the already focused node does nothing.
func (d *Document) Focus(n *html.Node) {
	prev := d.active
	if prev == n {
		return
	}
	d.active = n
	if prev != nil {
		d.Dispatch(&Event{Type: EventFocusOut, Target: prev, RelatedTarget: n})
	}
	if n != nil && d.active == n {
		d.Dispatch(&Event{Type: EventFocusIn, Target: n, RelatedTarget: prev})
	}
}

// Blur removes focus from the document.
func (d *Document) Blur() { d.Focus(nil) }
