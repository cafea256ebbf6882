package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joeycumines/mdcell/internal/cell"
	"github.com/joeycumines/mdcell/internal/config"
	"github.com/joeycumines/mdcell/internal/editor"
	"github.com/joeycumines/mdcell/internal/markdown"
	"github.com/joeycumines/mdcell/internal/notebook"
	"github.com/joeycumines/mdcell/internal/termrender"
	"github.com/joeycumines/mdcell/internal/uiloop"
)

// env is an opened notebook: its loop, Markdown service and runtime.
type env struct {
	loop     *uiloop.Loop
	markdown *markdown.Service
	rt       *notebook.Runtime
	logger   *slog.Logger
}

type envOptions struct {
	width     int
	afterTask func()
}

// openEnv starts a loop and mounts nb on it, configured from cfg. The caller
// must call close.
func openEnv(ctx context.Context, cfg *config.Config, nb *notebook.Notebook, logger *slog.Logger, opts envOptions) (*env, error) {
	schema := config.DefaultSchema()

	mode, err := cell.ParseMode(schema.Resolve(cfg, config.KeyEditorMode))
	if err != nil {
		logger.Warn("command: ignoring editor mode", "error", err)
		mode = cell.DefaultMode
	}
	width := opts.width
	if width <= 0 {
		width = schema.ResolveInt(cfg, config.KeyEditorWidth)
	}

	svc := markdown.New(
		markdown.WithLogger(logger),
		markdown.WithTypesetting(schema.ResolveBool(cfg, config.KeyMarkdownTypeset)),
		markdown.WithSymbolFile(schema.Resolve(cfg, config.KeyMarkdownSymbols)),
	)
	svc.Start(ctx)

	loopOpts := []uiloop.Option{uiloop.WithLogger(logger)}
	if opts.afterTask != nil {
		loopOpts = append(loopOpts, uiloop.WithAfterTask(opts.afterTask))
	}
	loop, err := uiloop.New(ctx, loopOpts...)
	if err != nil {
		return nil, err
	}

	e := &env{loop: loop, markdown: svc, logger: logger}
	err = loop.Do(func() error {
		var err error
		e.rt, err = notebook.Open(nb, notebook.Options{
			Loop:     loop,
			Markdown: svc,
			Editors: editor.NewFactory(editor.Config{
				Width:   width,
				Preview: termrender.MarkdownPreview(svc, width),
			}),
			Logger:      logger,
			DefaultMode: mode,
			WordWrap:    schema.ResolveBool(cfg, config.KeyEditorWordWrap),
			Autorun:     schema.ResolveBool(cfg, config.KeyNotebookAutorun),
		})
		return err
	})
	if err != nil {
		_ = loop.Close()
		return nil, fmt.Errorf("open notebook: %w", err)
	}
	return e, nil
}

// close disposes the runtime and stops the loop.
func (e *env) close() {
	_ = e.loop.Do(func() error {
		e.rt.Dispose()
		return nil
	})
	_ = e.loop.Close()
}
