package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigParsing(t *testing.T) {
	configContent := `# Global options
log.level debug
editor.word-wrap off

[render]
output out.html
standalone false`

	config, err := LoadFromReader(strings.NewReader(configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if value, ok := config.GetGlobalOption("log.level"); !ok || value != "debug" {
		t.Errorf("Expected log.level=debug, got %s (exists: %v)", value, ok)
	}

	if value, ok := config.GetCommandOption("render", "output"); !ok || value != "out.html" {
		t.Errorf("Expected render.output=out.html, got %s (exists: %v)", value, ok)
	}

	// Test fallback to global options
	if value, ok := config.GetCommandOption("render", "log.level"); !ok || value != "debug" {
		t.Errorf("Expected render log.level=debug (fallback), got %s (exists: %v)", value, ok)
	}

	if value, ok := config.GetCommandOption("nonexistent", "option"); ok {
		t.Errorf("Expected nonexistent option to not exist, but got %s", value)
	}

	if config.HasWarnings() {
		t.Errorf("Expected no warnings, got %v", config.Warnings)
	}
}

func TestConfigWarnings(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("bogus 1\nnotebook.autorun maybe\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if len(config.Warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %v", config.Warnings)
	}
	if !strings.Contains(config.Warnings[0], "notebook.autorun") || !strings.Contains(config.Warnings[1], "bogus") {
		t.Errorf("unexpected warnings: %v", config.Warnings)
	}
}

func TestConfigEmptySectionHeader(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader("[render]\noutput a.html\n[ ]\nlog.level warn\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if len(config.Warnings) != 1 || !strings.Contains(config.Warnings[0], "line 3") {
		t.Fatalf("Expected one warning for line 3, got %v", config.Warnings)
	}
	if v, _ := config.GetGlobalOption(KeyLogLevel); v != "warn" {
		t.Errorf("Expected log.level=warn in the global section, got %q", v)
	}
	if v, _ := config.GetCommandOption("render", "output"); v != "a.html" {
		t.Errorf("Expected render.output=a.html, got %q", v)
	}
}

func TestEmptyConfig(t *testing.T) {
	config, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Failed to load empty config: %v", err)
	}
	if len(config.Global) != 0 || len(config.Commands) != 0 {
		t.Errorf("Expected empty config, got %+v", config)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	config, err := LoadFromPath(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if len(config.Global) != 0 {
		t.Errorf("Expected empty config, got %v", config.Global)
	}
}

func TestLoadFromPathRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("log.level debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "config")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if _, err := LoadFromPath(link); err == nil || !strings.Contains(err.Error(), "symlink") {
		t.Fatalf("Expected symlink error, got %v", err)
	}
}

func TestLoadUsesConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("notebook.autorun false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if DefaultSchema().ResolveBool(config, KeyNotebookAutorun) {
		t.Error("Expected notebook.autorun=false from env-selected file")
	}
}

func TestGetConfigPathDefault(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	path, err := GetConfigPath()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if !strings.HasSuffix(path, filepath.Join(".mdcell", "config")) {
		t.Errorf("unexpected default path %q", path)
	}
}

func TestSchemaResolve(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()

	if got := s.Resolve(c, KeyLogLevel); got != "info" {
		t.Errorf("default log.level = %q, want info", got)
	}
	c.SetGlobalOption(KeyLogLevel, "warn")
	if got := s.Resolve(c, KeyLogLevel); got != "warn" {
		t.Errorf("configured log.level = %q, want warn", got)
	}
	t.Setenv("MDCELL_LOG_LEVEL", "error")
	if got := s.Resolve(c, KeyLogLevel); got != "error" {
		t.Errorf("env log.level = %q, want error", got)
	}
	if got := s.Resolve(nil, "unknown.key"); got != "" {
		t.Errorf("unknown key = %q, want empty", got)
	}
}

func TestSchemaTypedResolvers(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()

	if !s.ResolveBool(c, KeyEditorWordWrap) {
		t.Error("editor.word-wrap should default to true")
	}
	if got := s.ResolveDuration(c, KeyTypesetTimeout); got != 5*time.Second {
		t.Errorf("typeset timeout = %v, want 5s", got)
	}
	if got := s.ResolveInt(c, KeyLogMaxFiles); got != 5 {
		t.Errorf("log.max-files = %d, want 5", got)
	}

	c.SetGlobalOption(KeyEditorWordWrap, "no")
	c.SetGlobalOption(KeyTypesetTimeout, "not-a-duration")
	c.SetGlobalOption(KeyLogMaxFiles, "2")
	if s.ResolveBool(c, KeyEditorWordWrap) {
		t.Error("editor.word-wrap=no should resolve false")
	}
	if got := s.ResolveDuration(c, KeyTypesetTimeout); got != 5*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", got)
	}
	if got := s.ResolveInt(c, KeyLogMaxFiles); got != 2 {
		t.Errorf("log.max-files = %d, want 2", got)
	}
}

func TestSchemaResolveCommand(t *testing.T) {
	s := DefaultSchema()
	c := NewConfig()

	if v, ok := s.ResolveCommand(c, "render", "output"); !ok || v != "" {
		t.Errorf("render.output = %q, %v; want empty, true", v, ok)
	}
	if _, ok := s.ResolveCommand(c, "render", "nope"); ok {
		t.Error("unknown key should not resolve")
	}
	if !s.ResolveCommandBool(c, "render", "standalone") {
		t.Error("render.standalone should default to true")
	}

	c.SetCommandOption("render", "standalone", "off")
	c.SetCommandOption("render", "output", "out.html")
	if s.ResolveCommandBool(c, "render", "standalone") {
		t.Error("render.standalone=off should resolve false")
	}
	if v, _ := s.ResolveCommand(c, "render", "output"); v != "out.html" {
		t.Errorf("render.output = %q, want out.html", v)
	}

	c.SetCommandOption("render", "standalone", "maybe")
	if !s.ResolveCommandBool(c, "render", "standalone") {
		t.Error("unparseable value should fall back to the default")
	}
}

func TestValidateType(t *testing.T) {
	for _, tc := range []struct {
		typ   OptionType
		value string
		ok    bool
	}{
		{TypeString, "anything", true},
		{TypeBool, "on", true},
		{TypeBool, "sometimes", false},
		{TypeInt, "42", true},
		{TypeInt, "4.2", false},
		{TypeDuration, "250ms", true},
		{TypeDuration, "soon", false},
		{OptionType("matrix"), "x", false},
	} {
		err := validateType(tc.typ, tc.value)
		if (err == nil) != tc.ok {
			t.Errorf("validateType(%q, %q) = %v, want ok=%v", tc.typ, tc.value, err, tc.ok)
		}
	}
}

func TestFormatHelp(t *testing.T) {
	help := DefaultSchema().FormatHelp()
	for _, want := range []string{"Global Options:", KeyNotebookAutorun, "[render] Options:", "env: MDCELL_LOG_LEVEL"} {
		if !strings.Contains(help, want) {
			t.Errorf("help text missing %q:\n%s", want, help)
		}
	}
}
