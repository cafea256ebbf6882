package notebook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `---
title: Sample
autorun: false
---
# %% [markdown] {"id":"intro","properties":{"locked":true},"tags":["a"]}
# Intro

Some $x^2$ text.

# %% {"id":"snippet"}
print("hi")

# %% [markdown]
`

func TestParse(t *testing.T) {
	nb, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Sample", nb.Title)
	require.NotNil(t, nb.Autorun)
	assert.False(t, *nb.Autorun)
	require.Len(t, nb.Cells, 3)

	intro := nb.Cells[0]
	assert.Equal(t, "intro", intro.ID)
	assert.True(t, intro.Markdown())
	assert.True(t, intro.Metadata.Properties.Locked)
	assert.Equal(t, "# Intro\n\nSome $x^2$ text.", intro.Text)
	assert.JSONEq(t, `["a"]`, string(intro.Extra["tags"]))

	snippet := nb.Cells[1]
	assert.Equal(t, TypeCode, snippet.Type)
	assert.False(t, snippet.Markdown())
	assert.Equal(t, `print("hi")`, snippet.Text)

	empty := nb.Cells[2]
	assert.True(t, empty.Markdown())
	assert.Empty(t, empty.Text)
	assert.NotEmpty(t, empty.ID, "missing ids are generated")
}

func TestParse_PreambleAndDuplicateIDs(t *testing.T) {
	nb, err := Parse([]byte("loose text\n\n# %% [markdown] {\"id\":\"a\"}\none\n# %% [markdown] {\"id\":\"a\"}\ntwo\n"))
	require.NoError(t, err)
	require.Len(t, nb.Cells, 3)
	assert.Equal(t, "loose text", nb.Cells[0].Text)
	assert.True(t, nb.Cells[0].Markdown())
	assert.Equal(t, "a", nb.Cells[1].ID)
	assert.NotEqual(t, "a", nb.Cells[2].ID)
}

func TestParse_Empty(t *testing.T) {
	nb, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, nb.Cells)
	assert.Empty(t, nb.Title)
}

func TestParse_Errors(t *testing.T) {
	for name, tc := range map[string]struct {
		input string
		err   error
	}{
		"unterminated front matter": {"---\ntitle: x\n", ErrUnterminatedFrontMatter},
		"bad json":                  {"# %% [markdown] {nope}\n", ErrInvalidCellHeader},
		"unclosed type":             {"# %% [markdown {}\n", ErrInvalidCellHeader},
		"empty type":                {"# %% [] \n", ErrInvalidCellHeader},
		"trailing junk":             {"# %% [markdown] junk\n", ErrInvalidCellHeader},
		"bad id":                    {"# %% {\"id\": 3}\n", ErrInvalidCellHeader},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestParse_BadFrontMatter(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [unclosed\n---\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "front matter")
}

func TestEncodeRoundTrip(t *testing.T) {
	nb, err := Parse([]byte(sample))
	require.NoError(t, err)

	out, err := Encode(nb)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "---\ntitle: Sample\nautorun: false\n---\n"))
	assert.Contains(t, text, `# %% [markdown] {"id":"intro","properties":{"locked":true},"tags":["a"]}`)
	assert.Contains(t, text, `# %% [code] {"id":"snippet"}`)

	again, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, again.Cells, len(nb.Cells))
	for i := range nb.Cells {
		assert.Equal(t, nb.Cells[i].ID, again.Cells[i].ID)
		assert.Equal(t, nb.Cells[i].Type, again.Cells[i].Type)
		assert.Equal(t, nb.Cells[i].Text, again.Cells[i].Text)
		assert.Equal(t, nb.Cells[i].Metadata, again.Cells[i].Metadata)
	}
}

func TestEncode_NoFrontMatter(t *testing.T) {
	c := NewCell()
	c.Text = "hello"
	out, err := Encode(&Notebook{Cells: []*Cell{c}})
	require.NoError(t, err)
	assert.Equal(t, "# %% [markdown] {\"id\":\""+c.ID+"\"}\nhello\n", string(out))
}
