package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeDuration
	TypeString
	TypeEnum
	TypeURL
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeURL:
		return "url"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Dotted key path (e.g., "provider.base_url")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
	Secret        bool            // Redacted when printed
}

func stringKey(path, desc string) ConfigKeySchema {
	return ConfigKeySchema{Path: path, Type: TypeString, Description: desc, Default: ""}
}

func secretKey(path, desc string) ConfigKeySchema {
	k := stringKey(path, desc)
	k.Secret = true
	return k
}

func urlKey(path, desc string) ConfigKeySchema {
	return ConfigKeySchema{Path: path, Type: TypeURL, Description: desc, Default: ""}
}

func register(keys ...ConfigKeySchema) map[string]ConfigKeySchema {
	m := make(map[string]ConfigKeySchema, len(keys))
	for _, k := range keys {
		m[k.Path] = k
	}
	return m
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = register(
	stringKey("provider.name", "Name of the provider under test"),
	urlKey("provider.base_url", "Base URL the provider serves on"),
	stringKey("consumer.name", "Consumer whose contract the provider must honour"),

	stringKey("source.file", "Local contract file"),
	urlKey("source.uri", "Remote contract URI"),
	stringKey("source.username", "Basic auth user for source.uri"),
	secretKey("source.password", "Basic auth password for source.uri"),
	secretKey("source.token", "Bearer token for source.uri"),

	urlKey("broker.url", "Contract broker base URL"),
	stringKey("broker.username", "Basic auth user for the broker"),
	secretKey("broker.password", "Basic auth password for the broker"),
	secretKey("broker.token", "Bearer token for the broker"),
	ConfigKeySchema{Path: "broker.tags", Type: TypeList, Description: "Consumer version tags, comma separated", Default: []string{}},

	urlKey("provider_state_url", "Endpoint that sets up provider states"),
	stringKey("filter.description", "Regular expression matched against interaction descriptions"),
	stringKey("filter.provider_state", "Regular expression matched against provider state names"),

	ConfigKeySchema{
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"trace", "debug", "info", "warn", "error", "none"},
		Description:   "Engine log level",
		Default:       "warn",
	},
	ConfigKeySchema{Path: "output", Type: TypeEnum, AllowedValues: []string{"text", "json"}, Description: "Report format", Default: "text"},
	ConfigKeySchema{Path: "timeout", Type: TypeDuration, Description: "Timeout for a whole verification run (0 = no timeout)", Default: "5m"},
	ConfigKeySchema{Path: "wait", Type: TypeDuration, Description: "How long to wait for the provider to come up", Default: "0s"},
	ConfigKeySchema{Path: "state_dir", Type: TypeString, Description: "Directory for history", Default: "~/.pactverify/state"},
	ConfigKeySchema{Path: "max_history_entries", Type: TypeInt, Description: "Maximum number of verification runs to retain", Default: 500},
)

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the registry keys in lexical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsedValue represents a configuration value after validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(value)
	case TypeDuration:
		return parseDurationValue(value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeURL:
		return parseURLValue(value)
	case TypeList:
		return ParsedValue{Raw: value, Parsed: splitTags([]string{value}), Type: TypeList}, nil
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses and validates a non-negative integer value.
func parseIntValue(value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseDurationValue parses and validates a duration value.
func parseDurationValue(value string) (ParsedValue, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return ParsedValue{}, fmt.Errorf("invalid duration: %q (examples: 5m, 1h30m, 10s)", value)
	}
	return ParsedValue{Raw: value, Parsed: d.String(), Type: TypeDuration}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if strings.EqualFold(value, allowed) {
			return ParsedValue{Raw: value, Parsed: allowed, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}

// parseURLValue accepts an empty value (unset) or an absolute http(s) URL.
func parseURLValue(value string) (ParsedValue, error) {
	if value != "" && !isHTTPURL(value) {
		return ParsedValue{}, fmt.Errorf("invalid URL: %q (expected http:// or https://)", value)
	}
	return ParsedValue{Raw: value, Parsed: value, Type: TypeURL}, nil
}
