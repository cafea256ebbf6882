package markdown

import (
	"github.com/joeycumines/mdcell/internal/typeset"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindMath is the node kind of inline math spans.
var KindMath = ast.NewNodeKind("Math")

// Math is a $...$ (or $$...$$ when Display) span.
type Math struct {
	ast.BaseInline
	Tex     []byte
	Display bool
}

// Kind implements ast.Node.
func (n *Math) Kind() ast.NodeKind { return KindMath }

// Dump implements ast.Node.
func (n *Math) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Tex":     string(n.Tex),
		"Display": boolString(n.Display),
	}, nil)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type mathParser struct{}

func (p *mathParser) Trigger() []byte { return []byte{'$'} }

// Parse recognises $tex$ and $$tex$$ on a single line. An inline span may
// not start or end with a space, so "costs $5 and $6" stays text.
func (p *mathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	open := 1
	if len(line) > 1 && line[1] == '$' {
		open = 2
	}
	rest := line[open:]

	end := -1
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case '\\':
			i++
		case '$':
			if open == 1 {
				end = i
			} else if i+1 < len(rest) && rest[i+1] == '$' {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end <= 0 {
		return nil
	}
	tex := rest[:end]
	if open == 1 && (util.IsSpace(tex[0]) || util.IsSpace(tex[len(tex)-1])) {
		return nil
	}

	block.Advance(open + end + open)
	return &Math{Tex: append([]byte(nil), tex...), Display: open == 2}
}

type mathRenderer struct {
	engine *typeset.Engine
}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMath, r.renderMath)
}

func (r *mathRenderer) renderMath(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Math)

	class := "math"
	delim := "$"
	if n.Display {
		class = "math display"
		delim = "$$"
	}

	if out, ok := r.engine.Typeset(string(n.Tex)); ok {
		_, _ = w.WriteString(`<span class="` + class + ` typeset">`)
		_, _ = w.Write(util.EscapeHTML([]byte(out)))
	} else {
		_, _ = w.WriteString(`<span class="` + class + `">`)
		_, _ = w.Write(util.EscapeHTML([]byte(delim + string(n.Tex) + delim)))
	}
	_, _ = w.WriteString("</span>")
	return ast.WalkSkipChildren, nil
}

type mathExtension struct {
	engine *typeset.Engine
}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&mathParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathRenderer{engine: e.engine}, 500),
	))
}
