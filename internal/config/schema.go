package config

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// OptionType is the type an option's value must parse as.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeDuration OptionType = "duration" // time.ParseDuration syntax
)

// ConfigOption declares one option.
type ConfigOption struct {
	Key     string
	Type    OptionType
	Default string
	// Description is shown by FormatHelp.
	Description string
	// Section is the command section, or "" for a global option.
	Section string
	// EnvVar, when set, overrides the configured value. Global options only.
	EnvVar string
}

type optionID struct{ section, key string }

// ConfigSchema is the set of declared options. It drives validation, typed
// lookups with defaults, environment overrides and the help text.
type ConfigSchema struct {
	order []optionID
	byID  map[optionID]ConfigOption
}

// NewSchema returns an empty schema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{byID: make(map[optionID]ConfigOption)}
}

// Register declares opt. Registering the same section and key again replaces
// the earlier declaration in place.
func (s *ConfigSchema) Register(opt ConfigOption) {
	id := optionID{opt.Section, opt.Key}
	if _, ok := s.byID[id]; !ok {
		s.order = append(s.order, id)
	}
	s.byID[id] = opt
}

// RegisterAll declares each of opts.
func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Options returns every declared option in registration order.
func (s *ConfigSchema) Options() []ConfigOption {
	out := make([]ConfigOption, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

// Lookup returns the declaration of key in section ("" for global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	opt, ok := s.byID[optionID{section, key}]
	if !ok {
		return nil
	}
	return &opt
}

// IsKnown reports whether key is declared in section. Global keys are known
// in every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	return s.Lookup(section, key) != nil || s.Lookup("", key) != nil
}

// Sections returns the declared command sections, sorted.
func (s *ConfigSchema) Sections() []string {
	var out []string
	for _, id := range s.order {
		if id.section != "" && !slices.Contains(out, id.section) {
			out = append(out, id.section)
		}
	}
	slices.Sort(out)
	return out
}

// Resolve returns the effective value of a global key: its environment
// variable, then the configured value, then the default. c may be nil.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if v, ok := c.Global[key]; ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// resolveAs parses the resolved value of a global key, falling back to the
// parsed default when the value does not parse.
func resolveAs[T any](s *ConfigSchema, c *Config, key string, parse func(string) (T, error)) T {
	if v, err := parse(s.Resolve(c, key)); err == nil {
		return v
	}
	var zero T
	if opt := s.Lookup("", key); opt != nil {
		if v, err := parse(opt.Default); err == nil {
			return v
		}
	}
	return zero
}

// ResolveBool is Resolve parsed as a bool.
func (s *ConfigSchema) ResolveBool(c *Config, key string) bool {
	return resolveAs(s, c, key, parseBool)
}

// ResolveInt is Resolve parsed as an int.
func (s *ConfigSchema) ResolveInt(c *Config, key string) int {
	return resolveAs(s, c, key, strconv.Atoi)
}

// ResolveDuration is Resolve parsed as a time.Duration.
func (s *ConfigSchema) ResolveDuration(c *Config, key string) time.Duration {
	return resolveAs(s, c, key, time.ParseDuration)
}

// ResolveCommand returns the effective value of a command-specific key: the
// section's configured value, then the section's default. The second result
// is false when neither exists.
func (s *ConfigSchema) ResolveCommand(c *Config, section, key string) (string, bool) {
	if c != nil {
		if v, ok := c.Commands[section][key]; ok {
			return v, true
		}
	}
	if opt := s.Lookup(section, key); opt != nil {
		return opt.Default, true
	}
	return "", false
}

// ResolveCommandBool is ResolveCommand parsed as a bool, falling back to the
// default when the configured value does not parse.
func (s *ConfigSchema) ResolveCommandBool(c *Config, section, key string) bool {
	v, _ := s.ResolveCommand(c, section, key)
	if b, err := parseBool(v); err == nil {
		return b
	}
	if opt := s.Lookup(section, key); opt != nil {
		b, _ := parseBool(opt.Default)
		return b
	}
	return false
}

// ValidateConfig returns the problems with c under s, sorted. An empty
// result means c is valid.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
		} else if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			opt := cmp.Or(s.Lookup(section, key), s.Lookup("", key))
			if opt == nil {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
			} else if err := validateType(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	slices.Sort(issues)
	return issues
}

func validateType(t OptionType, value string) error {
	var err error
	switch t {
	case TypeString, "":
	case TypeBool:
		_, err = parseBool(value)
	case TypeInt:
		_, err = strconv.Atoi(value)
	case TypeDuration:
		_, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	if err != nil {
		return fmt.Errorf("expected %s, got %q", t, value)
	}
	return nil
}

// FormatHelp describes every option, globals first, then each section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder
	write := func(heading, section string) {
		first := true
		for _, opt := range s.Options() {
			if opt.Section != section {
				continue
			}
			if first {
				b.WriteString(heading)
				first = false
			}
			writeOptionHelp(&b, opt)
		}
	}

	write("Global Options:\n", "")
	for _, sec := range s.Sections() {
		write(fmt.Sprintf("\n[%s] Options:\n", sec), sec)
	}
	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-28s %s", o.Key, o.Description)
	var notes []string
	if o.Type != "" && o.Type != TypeString {
		notes = append(notes, "type: "+string(o.Type))
	}
	if o.Default != "" {
		notes = append(notes, "default: "+o.Default)
	}
	if o.EnvVar != "" {
		notes = append(notes, "env: "+o.EnvVar)
	}
	if len(notes) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(notes, ", "))
	}
	b.WriteByte('\n')
}

// Option keys understood by mdcell.
const (
	KeyLogFile         = "log.file"
	KeyLogLevel        = "log.level"
	KeyLogMaxSizeMB    = "log.max-size-mb"
	KeyLogMaxFiles     = "log.max-files"
	KeyEditorMode      = "editor.default-mode"
	KeyEditorWordWrap  = "editor.word-wrap"
	KeyEditorWidth     = "editor.width"
	KeyMarkdownTypeset = "markdown.typeset"
	KeyMarkdownSymbols = "markdown.symbols"
	KeyTypesetTimeout  = "markdown.typeset-timeout"
	KeyNotebookAutorun = "notebook.autorun"
)

func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll([]ConfigOption{
		{Key: KeyLogFile, Type: TypeString, Description: "Log file path (JSON output)", EnvVar: "MDCELL_LOG_FILE"},
		{Key: KeyLogLevel, Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "MDCELL_LOG_LEVEL"},
		{Key: KeyLogMaxSizeMB, Type: TypeInt, Default: "10", Description: "Max log file size in MB before rotation"},
		{Key: KeyLogMaxFiles, Type: TypeInt, Default: "5", Description: "Max number of rotated log backup files"},

		{Key: KeyEditorMode, Type: TypeString, Default: "code", Description: "Edit mode entered by double-click and focus requests: code or wysiwyg"},
		{Key: KeyEditorWordWrap, Type: TypeBool, Default: "true", Description: "Soft-wrap lines in the source editor"},
		{Key: KeyEditorWidth, Type: TypeInt, Default: "80", Description: "Editor width in columns when the terminal size is unknown"},

		{Key: KeyMarkdownTypeset, Type: TypeBool, Default: "true", Description: "Typeset $math$ spans once the symbol table has loaded"},
		{Key: KeyMarkdownSymbols, Type: TypeString, Description: "Extra TOML symbol table merged over the built-in one", EnvVar: "MDCELL_SYMBOLS"},
		{Key: KeyTypesetTimeout, Type: TypeDuration, Default: "5s", Description: "How long render waits for typesetting before giving up"},

		{Key: KeyNotebookAutorun, Type: TypeBool, Default: "true", Description: "Run every cell when a notebook is opened"},

		{Key: "output", Section: "render", Type: TypeString, Description: "Default output file for render"},
		{Key: "standalone", Section: "render", Type: TypeBool, Default: "true", Description: "Wrap rendered cells in a full HTML document"},
	})
	return s
}
