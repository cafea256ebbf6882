// Package config reads mdcell's configuration file.
//
// The format is line based: "option value" pairs, where the value is the rest
// of the line, "#" comments, and "[name]" headers that start a
// command-specific section. Options before the first header are global.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config is a parsed configuration file.
type Config struct {
	// Global holds options from before the first section header.
	Global map[string]string
	// Commands holds each section's options, keyed by section name.
	Commands map[string]map[string]string
	// Warnings lists problems found while loading. They are not fatal.
	Warnings []string
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{
		Global:   make(map[string]string),
		Commands: make(map[string]map[string]string),
	}
}

// Load reads the file named by GetConfigPath. A missing file is an empty
// configuration.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration at path. A missing file is an empty
// configuration; a symlink is an error, so the config path cannot be used to
// read an arbitrary file.
func LoadFromPath(path string) (*Config, error) {
	info, err := os.Lstat(path)
	switch {
	case os.IsNotExist(err):
		return NewConfig(), nil
	case err != nil:
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	case info.Mode()&os.ModeSymlink != 0:
		return nil, fmt.Errorf("symlink not allowed in config path: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader parses a configuration and validates it against
// DefaultSchema, recording any issues as warnings.
func LoadFromReader(r io.Reader) (*Config, error) {
	c := NewConfig()
	section := c.Global

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		if name, ok := sectionHeader(line); ok {
			if name == "" {
				c.addWarning("line %d: empty section name; options go to the global section", n)
				section = c.Global
				continue
			}
			if c.Commands[name] == nil {
				c.Commands[name] = make(map[string]string)
			}
			section = c.Commands[name]
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		section[key] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	for _, issue := range ValidateConfig(c, DefaultSchema()) {
		c.addWarning("%s", issue)
	}
	return c, nil
}

func sectionHeader(line string) (string, bool) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	return strings.TrimSpace(line[1 : len(line)-1]), true
}

func (c *Config) addWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
	slog.Warn("config: " + msg)
}

// parseBool accepts true/false, 1/0, yes/no and on/off in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %s", s)
}

// GetGlobalOption returns a global option.
func (c *Config) GetGlobalOption(name string) (string, bool) {
	v, ok := c.Global[name]
	return v, ok
}

// GetCommandOption returns the option from command's section, falling back
// to the global section.
func (c *Config) GetCommandOption(command, name string) (string, bool) {
	if v, ok := c.Commands[command][name]; ok {
		return v, true
	}
	return c.GetGlobalOption(name)
}

// SetGlobalOption sets a global option.
func (c *Config) SetGlobalOption(name, value string) { c.Global[name] = value }

// SetCommandOption sets an option in command's section, creating it.
func (c *Config) SetCommandOption(command, name, value string) {
	if c.Commands[command] == nil {
		c.Commands[command] = make(map[string]string)
	}
	c.Commands[command][name] = value
}

// HasWarnings reports whether loading produced warnings.
func (c *Config) HasWarnings() bool { return len(c.Warnings) > 0 }
