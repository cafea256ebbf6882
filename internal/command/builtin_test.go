package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/mdcell/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpCommandExecute(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewVersionCommand("1.0.0"))
	registry.Register(NewConfigCommand(config.NewConfig(), ""))
	registry.Register(NewRenderCommand(config.NewConfig()))
	cmd := NewHelpCommand(registry)
	registry.Register(cmd)

	t.Run("general help", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, cmd.Execute(t.Context(), nil, &stdout, &stderr))
		output := stdout.String()
		for _, part := range []string{
			"mdcell - edit and render Markdown notebooks",
			"Usage: mdcell <command>",
			"Available commands:",
			"  render",
			"  version",
		} {
			assert.Contains(t, output, part)
		}
	})

	t.Run("command help lists flags", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, cmd.Execute(t.Context(), []string{"render"}, &stdout, &stderr))
		output := stdout.String()
		assert.Contains(t, output, "Command: render")
		assert.Contains(t, output, "Usage: mdcell render [options] <notebook|->")
		assert.Contains(t, output, "Flags:")
		assert.Contains(t, output, "-standalone")
		assert.Contains(t, output, "-log-file")
	})

	t.Run("command without flags", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, cmd.Execute(t.Context(), []string{"version"}, &stdout, &stderr))
		assert.NotContains(t, stdout.String(), "Flags:")
	})

	t.Run("unknown command", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.ErrorIs(t, cmd.Execute(t.Context(), []string{"nope"}, &stdout, &stderr), ErrUnknownCommand)
		assert.Contains(t, stderr.String(), "Unknown command: nope")
	})
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	var stdout, stderr bytes.Buffer
	require.NoError(t, cmd.Execute(t.Context(), nil, &stdout, &stderr))
	assert.Equal(t, "mdcell version 1.2.3\n", stdout.String())

	assert.Error(t, cmd.Execute(t.Context(), []string{"extra"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unexpected arguments")
}

func runConfig(t *testing.T, cmd *ConfigCommand, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newRegistryWith(cmd).Run(t.Context(), append([]string{"config"}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("MDCELL_LOG_LEVEL", "")
	os.Unsetenv("MDCELL_LOG_LEVEL")

	path := filepath.Join(t.TempDir(), "config")
	cfg := config.NewConfig()
	cfg.SetGlobalOption(config.KeyEditorWordWrap, "false")

	t.Run("usage", func(t *testing.T) {
		out, _, err := runConfig(t, NewConfigCommand(cfg, path))
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration management:")
	})

	t.Run("get configured and default values", func(t *testing.T) {
		out, _, err := runConfig(t, NewConfigCommand(cfg, path), config.KeyEditorWordWrap)
		require.NoError(t, err)
		assert.Equal(t, "editor.word-wrap: false\n", out)

		out, _, err = runConfig(t, NewConfigCommand(cfg, path), config.KeyLogLevel)
		require.NoError(t, err)
		assert.Equal(t, "log.level: info\n", out)

		out, _, err = runConfig(t, NewConfigCommand(cfg, path), "-section", "render", "standalone")
		require.NoError(t, err)
		assert.Equal(t, "render.standalone: true\n", out)

		out, _, err = runConfig(t, NewConfigCommand(cfg, path), "missing.key")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration key 'missing.key' not found")
	})

	t.Run("set persists", func(t *testing.T) {
		out, stderr, err := runConfig(t, NewConfigCommand(cfg, path), config.KeyNotebookAutorun, "false")
		require.NoError(t, err)
		assert.Equal(t, "Set configuration: notebook.autorun = false\n", out)
		assert.Empty(t, stderr)

		_, _, err = runConfig(t, NewConfigCommand(cfg, path), "-section", "render", "output", "out.html")
		require.NoError(t, err)

		loaded, err := config.LoadFromPath(path)
		require.NoError(t, err)
		v, ok := loaded.GetGlobalOption(config.KeyNotebookAutorun)
		assert.True(t, ok)
		assert.Equal(t, "false", v)
		v, ok = loaded.GetCommandOption("render", "output")
		assert.True(t, ok)
		assert.Equal(t, "out.html", v)
		assert.Equal(t, "out.html", cfg.Commands["render"]["output"])
	})

	t.Run("unknown key warns", func(t *testing.T) {
		_, stderr, err := runConfig(t, NewConfigCommand(cfg, ""), "made.up", "1")
		require.NoError(t, err)
		assert.Contains(t, stderr, "Warning: unknown option made.up")
	})

	t.Run("all", func(t *testing.T) {
		out, _, err := runConfig(t, NewConfigCommand(cfg, ""), "-all")
		require.NoError(t, err)
		assert.Contains(t, out, "Global configuration:")
		assert.Contains(t, out, "  editor.word-wrap: false\n")
		assert.Contains(t, out, "  markdown.typeset: true\n")
		assert.Contains(t, out, "[render]\n")
		assert.Contains(t, out, "  standalone: true\n")
	})

	t.Run("validate and schema", func(t *testing.T) {
		out, _, err := runConfig(t, NewConfigCommand(cfg, ""), "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "issue(s)")
		assert.Contains(t, out, "made.up")

		out, _, err = runConfig(t, NewConfigCommand(config.NewConfig(), ""), "validate")
		require.NoError(t, err)
		assert.Equal(t, "Configuration is valid.\n", out)

		out, _, err = runConfig(t, NewConfigCommand(cfg, ""), "schema")
		require.NoError(t, err)
		assert.Contains(t, out, config.KeyTypesetTimeout)
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, stderr, err := runConfig(t, NewConfigCommand(cfg, ""), "a", "b", "c")
		assert.Error(t, err)
		assert.True(t, strings.Contains(stderr, "Invalid number of arguments"))
	})
}

func newRegistryWith(cmds ...Command) *Registry {
	r := NewRegistry()
	for _, c := range cmds {
		r.Register(c)
	}
	return r
}
