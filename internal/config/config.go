// Package config provides hierarchical configuration for pactverify using koanf.
// Configuration is loaded with priority: environment variables > project config
// (.pactverify/config.yml or --config) > user config (~/.config/pactverify/config.yml)
// > defaults. Files ending in .json are parsed as JSON, everything else as YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. A double underscore marks
// nesting: PACTVERIFY_PROVIDER__BASE_URL -> provider.base_url.
const EnvPrefix = "PACTVERIFY_"

// ErrConfigNotFound is returned when an explicitly requested config file is missing.
var ErrConfigNotFound = errors.New("config file does not exist")

// Configuration represents the pactverify configuration.
type Configuration struct {
	Provider ProviderConfig `koanf:"provider"`
	Consumer ConsumerConfig `koanf:"consumer"`

	// Source selects a contract file or URI. At most one of source.file,
	// source.uri and broker.url may be set.
	Source SourceConfig `koanf:"source"`
	Broker BrokerConfig `koanf:"broker"`

	ProviderStateURL string       `koanf:"provider_state_url" validate:"omitempty,httpurl"`
	Filter           FilterConfig `koanf:"filter"`

	// LogLevel is one of trace, debug, info, warn, error, none.
	LogLevel string `koanf:"log_level"`
	// Output is the report format: text or json.
	Output string `koanf:"output" validate:"omitempty,oneof=text json"`

	// Timeout bounds a whole verification run (0 = no limit).
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
	// Wait is how long to wait for the provider to come up before verifying.
	Wait time.Duration `koanf:"wait" validate:"min=0"`

	StateDir          string `koanf:"state_dir"`
	MaxHistoryEntries int    `koanf:"max_history_entries" validate:"min=0"`
}

type ProviderConfig struct {
	Name    string `koanf:"name"`
	BaseURL string `koanf:"base_url" validate:"omitempty,httpurl"`
}

type ConsumerConfig struct {
	Name string `koanf:"name"`
}

// SourceConfig holds a file or URI contract source and optional URI credentials.
type SourceConfig struct {
	File     string `koanf:"file"`
	URI      string `koanf:"uri" validate:"omitempty,httpurl"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Token    string `koanf:"token"`
}

type BrokerConfig struct {
	URL      string   `koanf:"url" validate:"omitempty,httpurl"`
	Username string   `koanf:"username"`
	Password string   `koanf:"password"`
	Token    string   `koanf:"token"`
	Tags     []string `koanf:"tags"`
}

type FilterConfig struct {
	Description   string `koanf:"description"`
	ProviderState string `koanf:"provider_state"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path (default: .pactverify/config.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path (for testing)
	UserConfigPath string
	// SkipUserConfig ignores the user-level config file
	SkipUserConfig bool
	// WarningWriter receives warnings (default: os.Stderr)
	WarningWriter io.Writer
}

// Load loads configuration from user, project, and environment sources.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := opts.WarningWriter
	if warningWriter == nil {
		warningWriter = os.Stderr
	}

	loadDefaults(k)

	if !opts.SkipUserConfig {
		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath, _ = UserConfigPath()
		}
		if err := loadFile(k, userPath, "user"); err != nil {
			return nil, err
		}
	}

	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	} else if !fileExists(projectPath) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, projectPath)
	}
	if err := loadFile(k, projectPath, "project"); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k, warningWriter)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		_ = k.Set(key, value)
	}
}

// loadFile loads a config file if it exists, picking the parser by extension.
func loadFile(k *koanf.Koanf, path, configType string) error {
	if !fileExists(path) {
		return nil
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
		}
		return nil
	}
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf, warningWriter io.Writer) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Broker.Tags = splitTags(cfg.Broker.Tags)
	cfg.StateDir = expandHomePath(cfg.StateDir)

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Source.Password != "" && cfg.Source.Username == "" {
		fmt.Fprintf(warningWriter, "Warning: source.password is set without source.username and will be ignored\n")
	}
	if cfg.Broker.Password != "" && cfg.Broker.Username == "" {
		fmt.Fprintf(warningWriter, "Warning: broker.password is set without broker.username and will be ignored\n")
	}

	return &cfg, nil
}

// splitTags accepts both list values and a comma-separated string, which is
// how tags arrive from the environment.
func splitTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: PACTVERIFY_PROVIDER__BASE_URL -> provider.base_url
func envTransform(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
