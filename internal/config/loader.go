package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} expressions.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads a YAML configuration file and parses it with Parse.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse expands environment variables in raw and decodes it. Unknown
// top-level keys are rejected; module sections are decoded later by their
// modules. source names the input in error messages.
func Parse(raw []byte, source string) (*Config, error) {
	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", source, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: %s is empty", source)
		}
		return nil, fmt.Errorf("config: parsing %s: %w", source, err)
	}
	return &cfg, nil
}

// expandEnv replaces ${VAR} and ${VAR:-default} patterns. Comment lines
// are left untouched. Variables with neither a value nor a default are
// reported together, once each.
func expandEnv(raw []byte) ([]byte, error) {
	var missing []string

	lines := bytes.SplitAfter(raw, []byte("\n"))
	for i, line := range lines {
		if bytes.HasPrefix(bytes.TrimSpace(line), []byte("#")) {
			continue
		}
		lines[i] = envPattern.ReplaceAllFunc(line, func(match []byte) []byte {
			subs := envPattern.FindSubmatch(match)
			name := string(subs[1])
			if value, ok := os.LookupEnv(name); ok {
				return []byte(value)
			}
			if subs[2] != nil {
				return subs[2]
			}
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			return match
		})
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("unresolved variables: %s", strings.Join(missing, ", "))
	}
	return bytes.Join(lines, nil), nil
}
