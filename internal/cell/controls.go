package cell

import (
	"github.com/joeycumines/mdcell/internal/dom"
	"golang.org/x/net/html"
)

// Control is a button offered in the controls region.
type Control struct {
	Icon    string
	Tooltip string
	Action  func()
}

// Controls derives the buttons for the current mode.
func (c *Controller) Controls() []Control {
	switch c.mode {
	case ModeCode:
		return []Control{{Icon: "¶", Tooltip: "Switch to rich text", Action: func() { c.switchTo(ModeRich) }}}
	case ModeRich:
		return []Control{{Icon: "</>", Tooltip: "Switch to source", Action: func() { c.switchTo(ModeCode) }}}
	default:
		return []Control{{Icon: "✎", Tooltip: "Edit", Action: func() { c.switchTo(c.defaultMode) }}}
	}
}

func (c *Controller) switchTo(mode Mode) {
	if c.disposed {
		return
	}
	if err := c.EnterEditMode(mode); err != nil {
		c.logger.Warn("cell: control action failed", "cell", c.cell.ID, "mode", mode, "error", err)
		return
	}
	c.focusActive(defaultPosition)
}

func (c *Controller) renderControls() {
	if c.regions.Controls == nil {
		return
	}
	controls := c.Controls()
	buttons := make([]*html.Node, 0, len(controls))
	for _, ctl := range controls {
		b := c.doc.CreateElement("button", "cell-control")
		dom.SetAttr(b, "title", ctl.Tooltip)
		b.AppendChild(c.doc.CreateText(ctl.Icon))
		action := ctl.Action
		c.doc.AddEventListener(b, dom.EventClick, func(ev *dom.Event) {
			ev.StopPropagation()
			action()
		})
		buttons = append(buttons, b)
	}
	c.doc.ReplaceChildren(c.regions.Controls, buttons...)
}
