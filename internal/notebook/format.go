// Package notebook reads and writes notebook files and hosts their cells.
//
// A notebook file is an optional YAML front matter block followed by cells.
// Each cell starts with a header line:
//
//	# %% [markdown] {"id":"intro","properties":{"locked":true}}
//
// The bracketed type defaults to "code" and the JSON metadata is optional.
// Only markdown cells get a controller; other cells are kept verbatim.
package notebook

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/joeycumines/mdcell/internal/cell"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnterminatedFrontMatter = errors.New("notebook: unterminated front matter")
	ErrInvalidCellHeader       = errors.New("notebook: invalid cell header")
)

const (
	headerPrefix   = "# %%"
	frontMatterSep = "---"

	TypeMarkdown = "markdown"
	TypeCode     = "code"
)

// FrontMatter is the notebook-level settings block.
type FrontMatter struct {
	Title string `yaml:"title,omitempty"`
	// Autorun overrides the configured notebook.autorun when set.
	Autorun *bool `yaml:"autorun,omitempty"`
}

// Cell is one notebook cell.
type Cell struct {
	cell.Cell
	Type string
	// Extra holds metadata keys this package does not interpret, kept for
	// round trips.
	Extra map[string]json.RawMessage
}

// Markdown reports whether c is a markdown cell.
func (c *Cell) Markdown() bool { return c.Type == TypeMarkdown }

// Notebook is a parsed notebook file.
type Notebook struct {
	FrontMatter
	Cells []*Cell
}

// NewCell returns an empty markdown cell with a fresh id.
func NewCell() *Cell {
	return &Cell{Cell: cell.Cell{ID: uuid.NewString()}, Type: TypeMarkdown}
}

// Parse reads a notebook. Cells without an id, or with an id already used,
// get a fresh one.
func Parse(data []byte) (*Notebook, error) {
	nb := &Notebook{}
	lines := splitLines(string(data))

	if len(lines) > 0 && strings.TrimSpace(lines[0]) == frontMatterSep {
		end := slices.IndexFunc(lines[1:], func(l string) bool { return strings.TrimSpace(l) == frontMatterSep })
		if end < 0 {
			return nil, ErrUnterminatedFrontMatter
		}
		end++
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &nb.FrontMatter); err != nil {
			return nil, fmt.Errorf("notebook: front matter: %w", err)
		}
		lines = lines[end+1:]
	}

	var (
		current *Cell
		body    []string
		seen    = make(map[string]bool)
	)
	flush := func() {
		text := strings.Join(trimBlankEdges(body), "\n")
		if current == nil {
			if text == "" {
				return
			}
			current = NewCell()
		}
		current.Text = text
		if current.ID == "" || seen[current.ID] {
			current.ID = uuid.NewString()
		}
		seen[current.ID] = true
		nb.Cells = append(nb.Cells, current)
	}

	for i, line := range lines {
		if !isHeader(line) {
			body = append(body, line)
			continue
		}
		flush()
		c, err := parseHeader(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		current, body = c, nil
	}
	flush()
	return nb, nil
}

func isHeader(line string) bool {
	return line == headerPrefix || strings.HasPrefix(line, headerPrefix+" ")
}

func parseHeader(line string) (*Cell, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, headerPrefix))
	c := &Cell{Type: TypeCode}

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unclosed cell type in %q", ErrInvalidCellHeader, line)
		}
		c.Type = strings.TrimSpace(rest[1:end])
		if c.Type == "" {
			return nil, fmt.Errorf("%w: empty cell type in %q", ErrInvalidCellHeader, line)
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if rest == "" {
		return c, nil
	}
	if !strings.HasPrefix(rest, "{") {
		return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidCellHeader, rest)
	}
	var meta map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rest), &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellHeader, err)
	}
	if raw, ok := meta["id"]; ok {
		if err := json.Unmarshal(raw, &c.ID); err != nil {
			return nil, fmt.Errorf("%w: id: %v", ErrInvalidCellHeader, err)
		}
		delete(meta, "id")
	}
	if raw, ok := meta["properties"]; ok {
		if err := json.Unmarshal(raw, &c.Metadata.Properties); err != nil {
			return nil, fmt.Errorf("%w: properties: %v", ErrInvalidCellHeader, err)
		}
		delete(meta, "properties")
	}
	if len(meta) > 0 {
		c.Extra = meta
	}
	return c, nil
}

// Encode writes nb in the format Parse reads.
func Encode(nb *Notebook) ([]byte, error) {
	var buf bytes.Buffer
	if nb.Title != "" || nb.Autorun != nil {
		fm, err := yaml.Marshal(&nb.FrontMatter)
		if err != nil {
			return nil, fmt.Errorf("notebook: front matter: %w", err)
		}
		buf.WriteString(frontMatterSep + "\n")
		buf.Write(fm)
		buf.WriteString(frontMatterSep + "\n")
	}
	for i, c := range nb.Cells {
		if i > 0 || buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		header, err := encodeHeader(c)
		if err != nil {
			return nil, err
		}
		buf.WriteString(header)
		buf.WriteByte('\n')
		if c.Text != "" {
			buf.WriteString(c.Text)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

func encodeHeader(c *Cell) (string, error) {
	meta := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		meta[k] = v
	}
	meta["id"] = c.ID
	if c.Metadata.Properties != (cell.Properties{}) {
		meta["properties"] = c.Metadata.Properties
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("notebook: cell %s metadata: %w", c.ID, err)
	}
	typ := c.Type
	if typ == "" {
		typ = TypeCode
	}
	return fmt.Sprintf("%s [%s] %s", headerPrefix, typ, b), nil
}

func splitLines(s string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), len(s)+1)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines
}

func trimBlankEdges(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
