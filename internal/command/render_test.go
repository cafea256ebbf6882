package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/mdcell/internal/config"
	"github.com/joeycumines/mdcell/internal/notebook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const renderSource = `---
title: Render Test
---
# %% [markdown] {"id":"intro"}
# Intro

Angle $\alpha$ here.

# %% [python] {"id":"code"}
print("hi")

# %% [markdown] {"id":"empty"}
`

func writeNotebook(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nb.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runRender(t *testing.T, cmd *RenderCommand, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newRegistryWith(cmd).Run(t.Context(), append([]string{"render"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRenderCommand_Standalone(t *testing.T) {
	path := writeNotebook(t, renderSource)
	out, _, err := runRender(t, NewRenderCommand(config.NewConfig()), "-log-level", "error", path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>\n"))
	assert.Contains(t, out, "<title>Render Test</title>")
	assert.Contains(t, out, `<section class="cell cell-markdown" id="intro">`)
	assert.Contains(t, out, `<h1 id="intro">Intro</h1>`)
	assert.Contains(t, out, `<span class="math typeset">α</span>`)
	assert.Contains(t, out, `id="code"`)
	assert.Contains(t, out, `print(&#34;hi&#34;)`)
	assert.Contains(t, out, `id="empty"`)
}

func TestRenderCommand_FragmentWithoutTypesetting(t *testing.T) {
	path := writeNotebook(t, renderSource)
	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyMarkdownTypeset, "false")
	cfg.SetCommandOption("render", "standalone", "false")

	out, _, err := runRender(t, NewRenderCommand(cfg), "-timeout", "50ms", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "<!DOCTYPE html>")
	assert.True(t, strings.HasPrefix(out, `<main class="notebook">`))
	assert.Contains(t, out, `<span class="math">$\alpha$</span>`)
	assert.NotContains(t, out, "typeset")
}

func TestRenderCommand_OutputFile(t *testing.T) {
	path := writeNotebook(t, renderSource)
	dest := filepath.Join(t.TempDir(), "out.html")

	out, _, err := runRender(t, NewRenderCommand(config.NewConfig()), "-fragment", "-o", dest, path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<h1 id="intro">Intro</h1>`)
}

func TestRenderCommand_OutputFromConfig(t *testing.T) {
	path := writeNotebook(t, renderSource)
	dest := filepath.Join(t.TempDir(), "configured.html")
	cfg := config.NewConfig()
	cfg.SetCommandOption("render", "output", dest)

	_, _, err := runRender(t, NewRenderCommand(cfg), path)
	require.NoError(t, err)
	assert.FileExists(t, dest)

	// -o - forces stdout
	out, _, err := runRender(t, NewRenderCommand(cfg), "-o", "-", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Render Test</title>")
}

func TestRenderCommand_Stdin(t *testing.T) {
	cmd := NewRenderCommand(config.NewConfig())
	cmd.stdin = strings.NewReader("Plain **bold** text\n")
	out, _, err := runRender(t, cmd, "-fragment", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestRenderCommand_Errors(t *testing.T) {
	_, stderr, err := runRender(t, NewRenderCommand(config.NewConfig()))
	assert.Error(t, err)
	assert.Contains(t, stderr, "Usage: mdcell render")

	_, _, err = runRender(t, NewRenderCommand(config.NewConfig()), filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeNotebook(t, "---\ntitle: broken\n")
	_, _, err = runRender(t, NewRenderCommand(config.NewConfig()), path)
	assert.ErrorIs(t, err, notebook.ErrUnterminatedFrontMatter)

	_, _, err = runRender(t, NewRenderCommand(config.NewConfig()), "-log-level", "loud", writeNotebook(t, "x"))
	assert.ErrorContains(t, err, "invalid log level")
}
