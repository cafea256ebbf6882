package command

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/joeycumines/mdcell/internal/config"
)

// HelpCommand displays help information for commands.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

// Execute displays help information.
func (c *HelpCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "mdcell - edit and render Markdown notebooks in the terminal")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: mdcell <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Available commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'mdcell help <command>' for more information about a specific command (includes flags).")
		return nil
	}

	cmd, err := c.registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: mdcell %s\n", cmd.Usage())

	// Flags are listed by setting them up on a throwaway FlagSet.
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	buf := &bytes.Buffer{}
	fs.SetOutput(buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}

	return nil
}

// VersionCommand displays version information.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand creates a new version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand(
			"version",
			"Display version information",
			"version",
		),
		version: version,
	}
}

// Execute displays version information.
func (c *VersionCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	_, _ = fmt.Fprintf(stdout, "mdcell version %s\n", c.version)
	return nil
}

// ConfigCommand manages configuration.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	section    string
	showAll    bool
}

// NewConfigCommand creates a new config command. With an empty configPath,
// set values are not persisted.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [options] [key] [value] | config validate | config schema",
		),
		config:     cfg,
		configPath: configPath,
	}
}

// SetupFlags configures the flags for the config command.
func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.section, "section", "", "Command section to get or set the key in (e.g. render)")
	fs.BoolVar(&c.showAll, "all", false, "Show every effective option, defaults included")
}

// Execute manages configuration.
func (c *ConfigCommand) Execute(_ context.Context, args []string, stdout, stderr io.Writer) error {
	schema := config.DefaultSchema()

	if len(args) == 0 {
		if c.showAll {
			c.printAll(stdout, schema)
			return nil
		}
		_, _ = fmt.Fprintln(stdout, "Configuration management:")
		_, _ = fmt.Fprintln(stdout, "  config <key>            - Get configuration value")
		_, _ = fmt.Fprintln(stdout, "  config <key> <value>    - Set configuration value")
		_, _ = fmt.Fprintln(stdout, "  config -section s <key> - Get a command-specific value")
		_, _ = fmt.Fprintln(stdout, "  config -all             - Show all configuration")
		_, _ = fmt.Fprintln(stdout, "  config validate         - Validate configuration")
		_, _ = fmt.Fprintln(stdout, "  config schema           - Show configuration schema")
		return nil
	}

	switch args[0] {
	case "validate":
		return c.executeValidate(stdout)
	case "schema":
		_, _ = fmt.Fprint(stdout, schema.FormatHelp())
		return nil
	}

	switch len(args) {
	case 1:
		key := args[0]
		value, ok := c.lookup(schema, key)
		if !ok {
			_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", c.qualified(key))
			return nil
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", c.qualified(key), value)
		return nil
	case 2:
		key, value := args[0], args[1]
		if c.section == "" {
			c.config.SetGlobalOption(key, value)
		} else {
			c.config.SetCommandOption(c.section, key, value)
		}
		if c.configPath != "" {
			if err := config.SetKeyInFile(c.configPath, c.section, key, value); err != nil {
				_, _ = fmt.Fprintf(stderr, "Warning: failed to persist config to disk: %v\n", err)
			}
		}
		if !schema.IsKnown(c.section, key) {
			_, _ = fmt.Fprintf(stderr, "Warning: unknown option %s\n", c.qualified(key))
		}
		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", c.qualified(key), value)
		return nil
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return fmt.Errorf("invalid arguments")
}

// lookup resolves key in the selected section: env, then config, then the
// schema default.
func (c *ConfigCommand) lookup(schema *config.ConfigSchema, key string) (string, bool) {
	if c.section == "" {
		if v := schema.Resolve(c.config, key); v != "" {
			return v, true
		}
		return c.config.GetGlobalOption(key)
	}
	v, ok := schema.ResolveCommand(c.config, c.section, key)
	if !ok {
		return c.config.GetCommandOption(c.section, key)
	}
	return v, true
}

func (c *ConfigCommand) qualified(key string) string {
	if c.section == "" {
		return key
	}
	return c.section + "." + key
}

func (c *ConfigCommand) printAll(w io.Writer, schema *config.ConfigSchema) {
	_, _ = fmt.Fprintln(w, "Global configuration:")
	global := make(map[string]string, len(c.config.Global))
	maps.Copy(global, c.config.Global)
	for _, opt := range schema.Options() {
		if opt.Section == "" {
			global[opt.Key] = schema.Resolve(c.config, opt.Key)
		}
	}
	printOptions(w, "  ", global)

	sections := slices.Collect(maps.Keys(c.config.Commands))
	for _, s := range schema.Sections() {
		if s != "" && !slices.Contains(sections, s) {
			sections = append(sections, s)
		}
	}
	slices.Sort(sections)
	for _, s := range sections {
		values := make(map[string]string)
		for _, opt := range schema.Options() {
			if opt.Section == s && opt.Default != "" {
				values[opt.Key] = opt.Default
			}
		}
		maps.Copy(values, c.config.Commands[s])
		if len(values) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n[%s]\n", s)
		printOptions(w, "  ", values)
	}
}

func printOptions(w io.Writer, indent string, values map[string]string) {
	for _, k := range slices.Sorted(maps.Keys(values)) {
		_, _ = fmt.Fprintf(w, "%s%s: %s\n", indent, k, strings.TrimSpace(values[k]))
	}
}

// executeValidate validates the current config against the schema.
func (c *ConfigCommand) executeValidate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return nil
}
