// Package termrender draws a dom subtree as styled terminal text.
package termrender

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joeycumines/mdcell/internal/dom"
	"github.com/joeycumines/mdcell/internal/markdown"
	"github.com/rivo/uniseg"
	"golang.org/x/net/html"
)

// Renderer converts element trees into terminal text.
type Renderer struct {
	// Doc supplies mounted widgets. It may be nil.
	Doc   *dom.Document
	Width int
}

// Render returns the terminal form of n and its descendants.
func (r *Renderer) Render(n *html.Node) string {
	if n == nil {
		return ""
	}
	return strings.Join(r.blocks(n, r.width()), "\n\n")
}

func (r *Renderer) width() int {
	if r.Width <= 0 {
		return 80
	}
	return r.Width
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "div": true, "dl": true, "figure": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"ul": true,
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if blockTags[n.Data] {
		return true
	}
	return n.Data == "span" && dom.HasClass(n, "math") && dom.HasClass(n, "display")
}

// blocks renders the children of n, grouping runs of inline content into
// paragraphs.
func (r *Renderer) blocks(n *html.Node, width int) []string {
	if w := r.widget(n); w != nil {
		return []string{w.View()}
	}
	if n.Type != html.ElementNode || !isBlock(n) {
		if s := r.inline(n); strings.TrimSpace(s) != "" {
			return []string{wrap(s, width)}
		}
		return nil
	}
	if n.Data != "body" && n.Data != "div" && n.Data != "section" && n.Data != "article" && n.Data != "main" {
		if s := r.block(n, width); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	var run strings.Builder
	flush := func() {
		if s := strings.TrimSpace(run.String()); s != "" {
			out = append(out, wrap(s, width))
		}
		run.Reset()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if r.widget(c) != nil || isBlock(c) {
			flush()
			out = append(out, r.blocks(c, width)...)
			continue
		}
		run.WriteString(r.inline(c))
	}
	flush()
	return out
}

func (r *Renderer) widget(n *html.Node) dom.Widget {
	if r.Doc == nil || n == nil {
		return nil
	}
	return r.Doc.WidgetAt(n)
}

func (r *Renderer) block(n *html.Node, width int) string {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(n.Data[1:])
		text := strings.Repeat("#", level) + " " + collapse(r.inline(n))
		return styles.heading(level).Render(wrap(text, width))
	case "p":
		return wrap(collapse(r.inline(n)), width)
	case "pre":
		code := strings.TrimRight(dom.TextContent(n), "\n")
		return styles.pre.Render(code)
	case "blockquote":
		inner := strings.Join(r.childBlocks(n, width-2), "\n\n")
		return prefixLines(inner, styles.quote.Render("│ "), styles.quote.Render("│ "))
	case "hr":
		return styles.rule.Render(strings.Repeat("─", width))
	case "ul", "ol":
		return r.list(n, width)
	case "li":
		return strings.Join(r.childBlocks(n, width), "\n")
	case "span":
		return styles.displayMath.Width(width).Render(collapse(r.inline(n)))
	case "table":
		return r.table(n)
	default:
		return strings.Join(r.childBlocks(n, width), "\n\n")
	}
}

// childBlocks renders n's children as if n were a plain container.
func (r *Renderer) childBlocks(n *html.Node, width int) []string {
	var out []string
	var run strings.Builder
	flush := func() {
		if s := strings.TrimSpace(run.String()); s != "" {
			out = append(out, wrap(collapse(s), width))
		}
		run.Reset()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if r.widget(c) != nil || isBlock(c) {
			flush()
			out = append(out, r.blocks(c, width)...)
			continue
		}
		run.WriteString(r.inline(c))
	}
	flush()
	return out
}

func (r *Renderer) list(n *html.Node, width int) string {
	var items []string
	i := 1
	if v, ok := dom.Attr(n, "start"); ok {
		if s, err := strconv.Atoi(v); err == nil {
			i = s
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		marker := "• "
		if n.Data == "ol" {
			marker = strconv.Itoa(i) + ". "
			i++
		}
		indent := strings.Repeat(" ", uniseg.StringWidth(marker))
		body := strings.Join(r.childBlocks(c, width-len(indent)), "\n")
		items = append(items, prefixLines(body, styles.marker.Render(marker), indent))
	}
	return strings.Join(items, "\n")
}

func (r *Renderer) table(n *html.Node) string {
	var rows [][]string
	dom.Find(n, func(c *html.Node) bool {
		if c.Type == html.ElementNode && c.Data == "tr" {
			var row []string
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
					row = append(row, collapse(r.inline(cell)))
				}
			}
			rows = append(rows, row)
		}
		return false
	})
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], uniseg.StringWidth(cell))
		}
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell + strings.Repeat(" ", widths[i]-uniseg.StringWidth(cell))
		}
		lines = append(lines, strings.Join(cells, " │ "))
	}
	return strings.Join(lines, "\n")
}

// inline renders n as a run of inline text.
func (r *Renderer) inline(n *html.Node) string {
	if w := r.widget(n); w != nil {
		return w.View()
	}
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
	default:
		return ""
	}

	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(r.inline(c))
	}
	s := b.String()

	switch n.Data {
	case "em", "i":
		return styles.em.Render(s)
	case "strong", "b":
		return styles.strong.Render(s)
	case "del", "s":
		return styles.del.Render(s)
	case "code":
		return styles.code.Render(s)
	case "a":
		href, _ := dom.Attr(n, "href")
		if href != "" && href != s {
			return styles.link.Render(s) + " (" + href + ")"
		}
		return styles.link.Render(s)
	case "br":
		return "\n"
	case "img":
		alt, _ := dom.Attr(n, "alt")
		return "[image: " + alt + "]"
	case "input":
		if _, checked := dom.Attr(n, "checked"); checked {
			return "[x] "
		}
		return "[ ] "
	case "span":
		if dom.HasClass(n, "math") {
			if dom.HasClass(n, "typeset") {
				return styles.math.Render(s)
			}
			return styles.rawMath.Render(s)
		}
	case "button":
		label, _ := dom.Attr(n, "title")
		if label == "" {
			label = s
		} else if s != "" {
			label = s + " " + label
		}
		return styles.button.Render(label)
	}
	return s
}

// MarkdownPreview returns a func rendering Markdown source through svc and
// then to terminal text at width.
func MarkdownPreview(svc *markdown.Service, width int) func(string) string {
	return func(source string) string {
		doc := dom.NewDocument()
		if err := doc.SetInnerHTML(doc.Root(), svc.Render(source)); err != nil {
			return source
		}
		return (&Renderer{Doc: doc, Width: width}).Render(doc.Root())
	}
}

func collapse(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(strings.TrimSpace(s))
}

func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if i == 0 {
			lines[i] = first + l
		} else {
			lines[i] = rest + l
		}
	}
	return strings.Join(lines, "\n")
}
