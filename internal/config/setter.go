package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SetValue validates value against the key registry and writes it into the
// YAML config file at filePath, creating the file and any nested maps.
func SetValue(filePath, key, value string) (ParsedValue, error) {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return ParsedValue{}, err
	}

	doc := map[string]interface{}{}
	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := ValidateYAMLSyntaxFromBytes(data, filePath); err != nil {
			return ParsedValue{}, err
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return ParsedValue{}, fmt.Errorf("parsing %s: %w", filePath, err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
	case os.IsNotExist(err):
	default:
		return ParsedValue{}, fmt.Errorf("reading %s: %w", filePath, err)
	}

	setNested(doc, strings.Split(key, "."), parsed.Parsed)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return ParsedValue{}, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(filePath, out, 0o600); err != nil {
		return ParsedValue{}, fmt.Errorf("writing %s: %w", filePath, err)
	}
	return parsed, nil
}

func setNested(m map[string]interface{}, parts []string, value interface{}) {
	if len(parts) == 1 {
		m[parts[0]] = value
		return
	}
	child, ok := m[parts[0]].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		m[parts[0]] = child
	}
	setNested(child, parts[1:], value)
}
