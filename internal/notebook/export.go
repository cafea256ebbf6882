package notebook

import (
	"bytes"
	"strings"

	"github.com/joeycumines/mdcell/internal/cell"
	"github.com/joeycumines/mdcell/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const stylesheet = `body{font-family:sans-serif;max-width:50em;margin:2em auto;line-height:1.5}
.cell{margin:1em 0}
.cell-code pre{background:#f4f4f4;padding:.5em}
.math.display{display:block;text-align:center}`

// ExportHTML returns the rendered cells as HTML. Markdown cells that are not
// in display mode are rendered first. With standalone set the result is a
// complete document.
func (rt *Runtime) ExportHTML(standalone bool) string {
	doc := dom.NewDocument()
	body := doc.CreateElement("main", "notebook")
	if rt.nb.Title != "" {
		h := doc.CreateElement("h1", "notebook-title")
		h.AppendChild(doc.CreateText(rt.nb.Title))
		body.AppendChild(h)
	}
	for _, v := range rt.views {
		if v.Controller != nil && v.Controller.Mode() != cell.ModeDisplay {
			v.Controller.Run()
		}
		section := doc.CreateElement("section", "cell", "cell-"+v.Cell.Type)
		dom.SetAttr(section, "id", v.Cell.ID)
		for c := v.Regions.Top.FirstChild; c != nil; c = c.NextSibling {
			section.AppendChild(clone(c))
		}
		body.AppendChild(section)
	}

	var buf bytes.Buffer
	if !standalone {
		_ = html.Render(&buf, body)
		buf.WriteByte('\n')
		return buf.String()
	}

	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Html, Data: "html"}
	head := doc.CreateElement("head")
	meta := doc.CreateElement("meta")
	dom.SetAttr(meta, "charset", "utf-8")
	head.AppendChild(meta)
	title := doc.CreateElement("title")
	title.AppendChild(doc.CreateText(strings.TrimSpace(rt.nb.Title)))
	head.AppendChild(title)
	style := doc.CreateElement("style")
	style.AppendChild(doc.CreateText(stylesheet))
	head.AppendChild(style)
	htmlBody := doc.CreateElement("body")
	htmlBody.AppendChild(body)
	root.AppendChild(head)
	root.AppendChild(htmlBody)

	buf.WriteString("<!DOCTYPE html>\n")
	_ = html.Render(&buf, root)
	buf.WriteByte('\n')
	return buf.String()
}

func clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(clone(child))
	}
	return c
}
