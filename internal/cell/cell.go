// Package cell implements the controller behind a Markdown notebook cell.
//
// A Controller owns the cell's top and controls regions and moves the cell
// between three presentations: the rendered display, a plain-text source
// editor and a rich editor. Every method must be called on the UI loop that
// runs the controller's deferred tasks.
package cell

import (
	"fmt"

	"github.com/joeycumines/mdcell/internal/typeset"
	"golang.org/x/net/html"
)

// Mode is a cell's presentation.
type Mode string

const (
	ModeDisplay Mode = "display"
	ModeCode    Mode = "code"
	ModeRich    Mode = "wysiwyg"
)

// DefaultMode is the edit mode entered when none is configured.
const DefaultMode = ModeCode

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDisplay, ModeCode, ModeRich:
		return m, nil
	}
	return "", fmt.Errorf("unknown cell mode %q", s)
}

// IsEdit reports whether m mounts an editor.
func (m Mode) IsEdit() bool { return m == ModeCode || m == ModeRich }

// Properties are the host-defined cell flags.
type Properties struct {
	Locked bool `json:"locked,omitempty"`
}

// Metadata is a cell's mutable metadata.
type Metadata struct {
	Properties Properties `json:"properties"`
}

// Cell is the host's record of a cell. The controller only reads it; writes
// go through the Host.
type Cell struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Host is the notebook runtime a controller reports to.
type Host interface {
	// SubscribeToCellChanges calls fn after every change to the cell with
	// the given id, until the returned func is called.
	SubscribeToCellChanges(id string, fn func(*Cell)) (unsubscribe func())
	SetCellText(id, text string)
}

// Markdown renders cell source. Ready reports when math typesetting becomes
// available; until then Render emits untypeset math.
type Markdown interface {
	Render(source string) string
	Ready() *typeset.Signal
}

// Tasks schedules continuations on a later turn of the UI loop. Close
// cancels every pending continuation and rejects new ones.
type Tasks interface {
	Defer(fn func()) (cancel func())
	Close()
}

// Regions are the parts of the document a controller owns.
type Regions struct {
	// Root is the cell's outermost element; focus leaving it ends editing.
	Root *html.Node
	// Top holds the mounted editor or the rendered output.
	Top *html.Node
	// Controls holds the mode buttons.
	Controls *html.Node
}
