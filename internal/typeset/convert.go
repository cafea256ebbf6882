package typeset

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Convert renders tex using t. Unknown commands are kept verbatim, scripts
// that have no Unicode form fall back to ^(...) and _(...). The result is
// NFC-normalised so accented letters compose where Unicode allows.
func Convert(t *Table, tex string) string {
	c := converter{t: t, src: []rune(tex)}
	return norm.NFC.String(strings.TrimSpace(c.sequence(false)))
}

type converter struct {
	t   *Table
	src []rune
	pos int
}

func (c *converter) more() bool { return c.pos < len(c.src) }

// sequence converts until the end of input or, when inGroup, the closing
// brace of the current group.
func (c *converter) sequence(inGroup bool) string {
	var b strings.Builder
	for c.more() {
		r := c.src[c.pos]
		switch {
		case r == '}' && inGroup:
			c.pos++
			return b.String()
		case r == '{':
			c.pos++
			b.WriteString(c.sequence(true))
		case r == '\\':
			b.WriteString(c.command())
		case r == '^':
			c.pos++
			b.WriteString(c.script(c.argument(), c.t.Superscripts, "^"))
		case r == '_':
			c.pos++
			b.WriteString(c.script(c.argument(), c.t.Subscripts, "_"))
		case unicode.IsSpace(r):
			for c.more() && unicode.IsSpace(c.src[c.pos]) {
				c.pos++
			}
			b.WriteByte(' ')
		default:
			c.pos++
			b.WriteRune(r)
		}
	}
	return b.String()
}

// argument reads one operand: a braced group, a command, or a single rune.
func (c *converter) argument() string {
	for c.more() && unicode.IsSpace(c.src[c.pos]) {
		c.pos++
	}
	if !c.more() {
		return ""
	}
	switch r := c.src[c.pos]; r {
	case '{':
		c.pos++
		return c.sequence(true)
	case '\\':
		return c.command()
	default:
		c.pos++
		return string(r)
	}
}

func (c *converter) command() string {
	c.pos++ // backslash
	start := c.pos
	for c.more() && unicode.IsLetter(c.src[c.pos]) {
		c.pos++
	}
	name := string(c.src[start:c.pos])
	if name == "" {
		if !c.more() {
			return `\`
		}
		r := c.src[c.pos]
		c.pos++
		switch r {
		case ',', ';', ':', ' ':
			return " "
		case '\\':
			return "\n"
		default:
			return string(r)
		}
	}

	if mark, ok := c.t.Accents[name]; ok {
		return c.argument() + mark
	}
	switch name {
	case "frac":
		num, den := c.argument(), c.argument()
		if s, ok := c.mapAll(num, c.t.Superscripts); ok {
			if d, ok := c.mapAll(den, c.t.Subscripts); ok {
				return s + "⁄" + d
			}
		}
		return group(num) + "/" + group(den)
	case "sqrt":
		return "√" + group(c.argument())
	case "text", "mathrm", "mathit", "mathbf", "operatorname":
		return c.argument()
	case "left", "right", "big", "Big", "displaystyle":
		return ""
	}
	if sym, ok := c.t.Symbols[name]; ok {
		return sym
	}
	return `\` + name
}

func (c *converter) script(arg string, m map[string]string, marker string) string {
	if s, ok := c.mapAll(arg, m); ok {
		return s
	}
	return marker + group(arg)
}

// mapAll maps every rune of s through m, failing if any rune is missing.
func (c *converter) mapAll(s string, m map[string]string) (string, bool) {
	if s == "" {
		return "", false
	}
	var b strings.Builder
	for _, r := range s {
		v, ok := m[string(r)]
		if !ok {
			return "", false
		}
		b.WriteString(v)
	}
	return b.String(), true
}

// group parenthesises s unless it is a single rune.
func group(s string) string {
	if utf8.RuneCountInString(s) <= 1 {
		return s
	}
	return "(" + s + ")"
}
