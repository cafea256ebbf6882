package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/mdcell/internal/config"
	"github.com/joeycumines/mdcell/internal/logging"
	"github.com/joeycumines/mdcell/internal/notebook"
	"github.com/joeycumines/mdcell/internal/storage"
	"github.com/joeycumines/mdcell/internal/tui"
	"golang.org/x/term"
)

// ErrNotTerminal is returned by edit when stdin or stdout is not a terminal.
var ErrNotTerminal = errors.New("edit: requires an interactive terminal")

// EditCommand opens a notebook in the terminal editor.
type EditCommand struct {
	*BaseCommand
	config *config.Config

	create bool
	title  string
	logs   logFlags

	stdin      io.Reader
	isTerminal func(any) bool
	// programOptions are appended to the program's options, for tests.
	programOptions []tea.ProgramOption
}

// NewEditCommand creates a new edit command.
func NewEditCommand(cfg *config.Config) *EditCommand {
	return &EditCommand{
		BaseCommand: NewBaseCommand(
			"edit",
			"Edit a notebook in the terminal",
			"edit [options] <notebook>",
		),
		config:     cfg,
		stdin:      os.Stdin,
		isTerminal: isTerminal,
	}
}

// SetupFlags configures the flags for the edit command.
func (c *EditCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.create, "new", false, "Create the notebook if it does not exist")
	fs.StringVar(&c.title, "title", "", "Title for a notebook created with -new")
	c.logs.register(fs)
}

// Execute runs the editor until the user quits or ctx is cancelled.
func (c *EditCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(stderr, "Usage: mdcell %s\n", c.Usage())
		return fmt.Errorf("edit: expected exactly one notebook")
	}
	path := args[0]

	if !c.isTerminal(c.stdin) || !c.isTerminal(stdout) {
		return ErrNotTerminal
	}

	// The terminal belongs to the editor, so logs go to a file or nowhere.
	logs, err := logging.Resolve(c.logs.file, c.logs.level, c.config, nil)
	if err != nil {
		return err
	}
	defer logs.Close()
	logger := logs.Logger

	nb, err := c.load(path)
	if err != nil {
		return err
	}

	width := 0
	if f, ok := stdout.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = max(20, w-6)
		}
	}

	var refresher tui.Refresher
	e, err := openEnv(ctx, c.config, nb, logger, envOptions{width: width, afterTask: refresher.AfterTask})
	if err != nil {
		return err
	}
	defer e.close()

	model := tui.New(e.loop, e.rt, path, logger)
	opts := append([]tea.ProgramOption{tea.WithInput(c.stdin), tea.WithOutput(stdout)}, c.programOptions...)
	if err := tui.Run(ctx, model, &refresher, opts...); err != nil {
		return err
	}

	dirty := false
	_ = e.loop.Do(func() error {
		dirty = e.rt.Dirty()
		return nil
	})
	if dirty {
		_, _ = fmt.Fprintf(stderr, "Warning: unsaved changes to %s were discarded\n", path)
	}
	return nil
}

// load reads path, creating a one-cell notebook there first when -new is set
// and the file is missing.
func (c *EditCommand) load(path string) (*notebook.Notebook, error) {
	nb, err := notebook.Load(path)
	if err == nil || !c.create || !errors.Is(err, fs.ErrNotExist) {
		return nb, err
	}

	nb = &notebook.Notebook{
		FrontMatter: notebook.FrontMatter{Title: c.title},
		Cells:       []*notebook.Cell{notebook.NewCell()},
	}
	data, err := notebook.Encode(nb)
	if err != nil {
		return nil, err
	}
	if err := storage.AtomicWriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("edit: create %s: %w", path, err)
	}
	return nb, nil
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
