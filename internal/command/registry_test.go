package command

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"slices"
	"strings"
	"testing"
)

// TestCommand implements Command interface for testing
type TestCommand struct {
	*BaseCommand
	verbose bool
	got     []string
}

func NewTestCommand(name, description, usage string) *TestCommand {
	return &TestCommand{
		BaseCommand: NewBaseCommand(name, description, usage),
	}
}

func (c *TestCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "Verbose output")
}

func (c *TestCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	c.got = args
	return nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()

	testCmd := NewTestCommand("test", "Test command", "test [options]")
	registry.Register(testCmd)
	registry.Register(NewTestCommand("alpha", "Alpha", "alpha"))

	cmd, err := registry.Get("test")
	if err != nil {
		t.Fatalf("Expected to find test command, got error: %v", err)
	}
	if cmd.Name() != "test" {
		t.Errorf("Expected command name 'test', got %s", cmd.Name())
	}

	if _, err := registry.Get("missing"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}

	if got := registry.List(); !slices.Equal(got, []string{"alpha", "test"}) {
		t.Errorf("Expected sorted [alpha test], got %v", got)
	}
}

func TestRegistryRun(t *testing.T) {
	t.Parallel()
	registry := NewRegistry()
	testCmd := NewTestCommand("test", "Test command", "test [options]")
	registry.Register(testCmd)
	registry.Register(NewHelpCommand(registry))

	var stdout, stderr bytes.Buffer
	if err := registry.Run(t.Context(), []string{"test", "-v", "a", "b"}, &stdout, &stderr); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !testCmd.verbose {
		t.Error("Expected -v to be parsed")
	}
	if !slices.Equal(testCmd.got, []string{"a", "b"}) {
		t.Errorf("Expected args [a b], got %v", testCmd.got)
	}

	t.Run("no args shows help", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := registry.Run(t.Context(), nil, &stdout, &stderr); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !strings.Contains(stdout.String(), "Available commands:") {
			t.Errorf("Expected help output, got %q", stdout.String())
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := registry.Run(t.Context(), []string{"nope"}, &stdout, &stderr)
		if !errors.Is(err, ErrUnknownCommand) {
			t.Fatalf("Expected ErrUnknownCommand, got %v", err)
		}
		if !strings.Contains(stderr.String(), "mdcell help") {
			t.Errorf("Expected hint on stderr, got %q", stderr.String())
		}
	})

	t.Run("bad flag", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := registry.Run(t.Context(), []string{"test", "-bogus"}, &stdout, &stderr); err == nil {
			t.Fatal("Expected flag error")
		}
		if !strings.Contains(stderr.String(), "Usage: mdcell test [options]") {
			t.Errorf("Expected usage on stderr, got %q", stderr.String())
		}
	})

	t.Run("-h is not an error", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := registry.Run(t.Context(), []string{"test", "-h"}, &stdout, &stderr); err != nil {
			t.Fatalf("Expected nil, got %v", err)
		}
	})
}
