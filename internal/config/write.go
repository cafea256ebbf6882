package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeycumines/mdcell/internal/storage"
)

// SetKeyInFile sets key to value in the config file at path, creating the
// file if needed. An empty section means the global section. Comments and
// other lines are kept as they are: an existing key line is rewritten in
// place, a new key goes at the end of its section, and a missing section is
// appended.
func SetKeyInFile(path, section, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	line := strings.TrimSpace(key + " " + value)
	lines := splitLines(string(data))

	current := ""
	// end is the index after the last non-blank line of the target section.
	end := -1
	if section == "" {
		end = 0
	}
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			current = strings.TrimSpace(strings.Trim(trimmed, "[]"))
			if current == section {
				end = i + 1
			}
			continue
		}
		if current != section || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = line
			return writeLines(path, lines)
		}
		end = i + 1
	}

	switch {
	case end >= 0:
		lines = append(lines[:end], append([]string{line}, lines[end:]...)...)
	default:
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, "["+section+"]", line)
	}
	return writeLines(path, lines)
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return storage.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
