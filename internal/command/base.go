package command

import (
	"context"
	"flag"
	"io"
)

// Command is one mdcell subcommand.
type Command interface {
	Name() string
	// Description is the one-line summary shown by help.
	Description() string
	// Usage is the argument synopsis, without the program name.
	Usage() string
	// SetupFlags registers the command's flags on fs before parsing.
	SetupFlags(fs *flag.FlagSet)
	// Execute runs the command with the arguments left after flag parsing.
	// Cancelling ctx stops long-running commands such as edit.
	Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

// BaseCommand supplies the descriptive half of Command for embedding.
type BaseCommand struct {
	name, description, usage string
}

// NewBaseCommand returns a BaseCommand with the given help text.
func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{name: name, description: description, usage: usage}
}

func (c *BaseCommand) Name() string        { return c.name }
func (c *BaseCommand) Description() string { return c.description }
func (c *BaseCommand) Usage() string       { return c.usage }

// SetupFlags registers no flags.
func (c *BaseCommand) SetupFlags(*flag.FlagSet) {}

// logFlags are the logging flags shared by commands that open notebooks.
type logFlags struct {
	file  string
	level string
}

func (f *logFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "log-file", "", "Write JSON logs to this file (overrides log.file)")
	fs.StringVar(&f.level, "log-level", "", "Log level: debug, info, warn, error (overrides log.level)")
}
