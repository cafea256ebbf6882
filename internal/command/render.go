package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/mdcell/internal/config"
	"github.com/joeycumines/mdcell/internal/logging"
	"github.com/joeycumines/mdcell/internal/notebook"
	"github.com/joeycumines/mdcell/internal/storage"
)

// RenderCommand renders a notebook to HTML without a terminal.
type RenderCommand struct {
	*BaseCommand
	config *config.Config

	output     string
	standalone bool
	fragment   bool
	timeout    time.Duration
	logs       logFlags
	stdin      io.Reader
}

// NewRenderCommand creates a new render command.
func NewRenderCommand(cfg *config.Config) *RenderCommand {
	return &RenderCommand{
		BaseCommand: NewBaseCommand(
			"render",
			"Render a notebook to HTML",
			"render [options] <notebook|->",
		),
		config: cfg,
		stdin:  os.Stdin,
	}
}

// SetupFlags configures the flags for the render command.
func (c *RenderCommand) SetupFlags(fs *flag.FlagSet) {
	schema := config.DefaultSchema()

	output, _ := schema.ResolveCommand(c.config, "render", "output")
	standalone := schema.ResolveCommandBool(c.config, "render", "standalone")

	fs.StringVar(&c.output, "o", output, "Write HTML to this file instead of stdout")
	fs.BoolVar(&c.standalone, "standalone", standalone, "Wrap the cells in a complete HTML document")
	fs.BoolVar(&c.fragment, "fragment", false, "Emit only the cells (same as -standalone=false)")
	fs.DurationVar(&c.timeout, "timeout", schema.ResolveDuration(c.config, config.KeyTypesetTimeout), "How long to wait for math typesetting")
	c.logs.register(fs)
}

// Execute renders the notebook named by args[0], or stdin for "-".
func (c *RenderCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: mdcell %s\n", c.Usage())
		return fmt.Errorf("render: expected exactly one notebook")
	}

	logs, err := logging.Resolve(c.logs.file, c.logs.level, c.config, stderr)
	if err != nil {
		return err
	}
	defer logs.Close()
	logger := logs.Logger

	nb, err := c.load(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv(ctx, c.config, nb, logger, envOptions{})
	if err != nil {
		return err
	}
	defer e.close()

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	ready := e.markdown.Ready()
	if err := ready.Wait(waitCtx); err != nil {
		logger.Warn("render: math left untypeset", "error", err)
	}
	cancel()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var out string
	err = e.loop.Do(func() error {
		// The deferred upgrade may not have run yet; rendering again here
		// makes the export independent of it.
		if ready.Settled() {
			e.rt.RunAll()
		}
		out = e.rt.ExportHTML(c.standalone && !c.fragment)
		return nil
	})
	if err != nil {
		return err
	}

	if c.output == "" || c.output == "-" {
		_, err := io.WriteString(stdout, out)
		return err
	}
	if err := storage.AtomicWriteFile(c.output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("render: write %s: %w", c.output, err)
	}
	logger.Info("render: wrote notebook", "path", c.output, "cells", len(nb.Cells))
	return nil
}

func (c *RenderCommand) load(path string) (*notebook.Notebook, error) {
	if path != "-" {
		return notebook.Load(path)
	}
	data, err := io.ReadAll(c.stdin)
	if err != nil {
		return nil, fmt.Errorf("render: read stdin: %w", err)
	}
	return notebook.Parse(data)
}
