package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		initialContent string
		key            string
		value          string
		wantContains   []string
		errContain     string
	}{
		"set new value": {
			key:          "max_history_entries",
			value:        "50",
			wantContains: []string{"max_history_entries: 50"},
		},
		"set nested value": {
			key:          "provider.base_url",
			value:        "http://localhost:8080",
			wantContains: []string{"provider:", "base_url: http://localhost:8080"},
		},
		"update existing value keeps siblings": {
			initialContent: "provider:\n  name: Event API\n  base_url: http://old\n",
			key:            "provider.base_url",
			value:          "http://new:9000",
			wantContains:   []string{"name: Event API", "base_url: http://new:9000"},
		},
		"list value": {
			key:          "broker.tags",
			value:        "main,prod",
			wantContains: []string{"tags:", "- main", "- prod"},
		},
		"enum normalised": {
			key:          "log_level",
			value:        "DEBUG",
			wantContains: []string{"log_level: debug"},
		},
		"invalid key": {
			key:        "unknown.key",
			value:      "value",
			errContain: "unknown configuration key",
		},
		"invalid integer": {
			key:        "max_history_entries",
			value:      "lots",
			errContain: "invalid integer",
		},
		"invalid duration": {
			key:        "timeout",
			value:      "soon",
			errContain: "invalid duration",
		},
		"invalid url": {
			key:        "broker.url",
			value:      "broker.local",
			errContain: "invalid URL",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), "config.yml")
			if tt.initialContent != "" {
				require.NoError(t, os.WriteFile(configPath, []byte(tt.initialContent), 0o644))
			}

			_, err := SetValue(configPath, tt.key, tt.value)
			if tt.errContain != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}
			require.NoError(t, err)

			content, err := os.ReadFile(configPath)
			require.NoError(t, err)
			for _, want := range tt.wantContains {
				assert.Contains(t, string(content), want)
			}
		})
	}
}

func TestSetValueCreatesFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "subdir", "config.yml")
	_, err := SetValue(configPath, "consumer.name", "Event UI")
	require.NoError(t, err)

	cfg, err := LoadWithOptions(LoadOptions{ProjectConfigPath: configPath, SkipUserConfig: true})
	require.NoError(t, err)
	assert.Equal(t, "Event UI", cfg.Consumer.Name)
}

func TestKnownKeysMatchDefaults(t *testing.T) {
	t.Parallel()

	defaults := GetDefaults()
	for _, key := range SortedKeys() {
		_, ok := defaults[key]
		assert.True(t, ok, "key %s has no default", key)
	}
	assert.Len(t, defaults, len(KnownKeys))
}
