package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ariel-frischer/pactverify/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yml", "")
	cfg, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipUserConfig: true})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Wait)
	assert.Equal(t, 500, cfg.MaxHistoryEntries)
	assert.NotContains(t, cfg.StateDir, "~")
}

func TestLoadProjectFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		name    string
		content string
	}{
		"yaml": {
			name: "config.yml",
			content: `provider:
  name: Event API
  base_url: http://localhost:8080
consumer:
  name: Event UI
broker:
  url: https://broker.example.com
  token: s3cret
  tags: [main, prod]
timeout: 30s
`,
		},
		"json": {
			name: "config.json",
			content: `{"provider": {"name": "Event API", "base_url": "http://localhost:8080"},
"consumer": {"name": "Event UI"},
"broker": {"url": "https://broker.example.com", "token": "s3cret", "tags": ["main", "prod"]},
"timeout": "30s"}`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.name, tt.content)
			cfg, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipUserConfig: true})
			require.NoError(t, err)

			assert.Equal(t, "Event API", cfg.Provider.Name)
			assert.Equal(t, "http://localhost:8080", cfg.Provider.BaseURL)
			assert.Equal(t, "Event UI", cfg.Consumer.Name)
			assert.Equal(t, "https://broker.example.com", cfg.Broker.URL)
			assert.Equal(t, []string{"main", "prod"}, cfg.Broker.Tags)
			assert.Equal(t, 30*time.Second, cfg.Timeout)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	userPath := writeConfig(t, "user.yml", "consumer:\n  name: From User\nlog_level: debug\n")
	projectPath := writeConfig(t, "project.yml", "consumer:\n  name: From Project\n")
	t.Setenv("PACTVERIFY_PROVIDER__BASE_URL", "http://env.example.com")
	t.Setenv("PACTVERIFY_BROKER__TAGS", "main, prod")

	cfg, err := LoadWithOptions(LoadOptions{
		ProjectConfigPath: projectPath,
		UserConfigPath:    userPath,
	})
	require.NoError(t, err)

	assert.Equal(t, "From Project", cfg.Consumer.Name)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://env.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, []string{"main", "prod"}, cfg.Broker.Tags)
}

func TestLoadMissingExplicitConfig(t *testing.T) {
	t.Parallel()

	_, err := LoadWithOptions(LoadOptions{
		ProjectConfigPath: filepath.Join(t.TempDir(), "nope.yml"),
		SkipUserConfig:    true,
	})
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadWarnsOnOrphanPassword(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yml", "source:\n  uri: https://contracts.example.com/pact.json\n  password: x\n")
	var warnings bytes.Buffer
	_, err := LoadWithOptions(LoadOptions{
		ProjectConfigPath: path,
		SkipUserConfig:    true,
		WarningWriter:     &warnings,
	})
	require.NoError(t, err)
	assert.Contains(t, warnings.String(), "source.password")
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content   string
		wantField string
		wantMsg   string
	}{
		"two sources": {
			content:   "source:\n  file: pact.json\nbroker:\n  url: https://broker.example.com\n",
			wantField: "source.file, broker.url",
			wantMsg:   "only one contract source",
		},
		"token and basic auth": {
			content:   "source:\n  uri: https://c.example.com/p.json\n  username: ci\n  token: t\n",
			wantField: "source.token",
		},
		"broker token and basic auth": {
			content:   "broker:\n  url: https://broker.example.com\n  username: ci\n  token: t\n",
			wantField: "broker.token",
		},
		"unknown log level": {
			content:   "log_level: loud\n",
			wantField: "log_level",
			wantMsg:   "must be one of",
		},
		"bad output": {
			content:   "output: xml\n",
			wantField: "output",
			wantMsg:   "must be one of",
		},
		"relative provider url": {
			content:   "provider:\n  base_url: localhost\n",
			wantField: "provider.base_url",
			wantMsg:   "absolute http(s) URL",
		},
		"non-http broker url": {
			content:   "broker:\n  url: ftp://broker.example.com\n",
			wantField: "broker.url",
			wantMsg:   "absolute http(s) URL",
		},
		"negative history": {
			content:   "max_history_entries: -1\n",
			wantField: "max_history_entries",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, "config.yml", tt.content)
			_, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipUserConfig: true})
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
			if tt.wantMsg != "" {
				assert.Contains(t, verr.Message, tt.wantMsg)
			}
		})
	}
}

func TestLoadYAMLSyntaxError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yml", "provider:\n  name: [unclosed\n")
	_, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipUserConfig: true})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, path, verr.FilePath)
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"PACTVERIFY_LOG_LEVEL":              "log_level",
		"PACTVERIFY_PROVIDER__BASE_URL":     "provider.base_url",
		"PACTVERIFY_FILTER__PROVIDER_STATE": "filter.provider_state",
	}
	for in, want := range tests {
		assert.Equal(t, want, envTransform(in), in)
	}
}

func TestStage(t *testing.T) {
	t.Parallel()

	base := func() Configuration {
		return Configuration{
			Provider: ProviderConfig{Name: "Event API", BaseURL: "http://localhost:8080"},
			Consumer: ConsumerConfig{Name: "Event UI"},
		}
	}

	tests := map[string]struct {
		mutate  func(*Configuration)
		check   func(t *testing.T, req verifier.Request)
		wantErr error
	}{
		"file source": {
			mutate: func(c *Configuration) { c.Source.File = "pacts/ui-api.json" },
			check: func(t *testing.T, req verifier.Request) {
				assert.Equal(t, verifier.FileSource{Path: "pacts/ui-api.json"}, req.Source)
			},
		},
		"uri with bearer": {
			mutate: func(c *Configuration) {
				c.Source.URI = "https://contracts.example.com/ui-api.json"
				c.Source.Token = "t0k"
			},
			check: func(t *testing.T, req verifier.Request) {
				src, ok := req.Source.(verifier.URISource)
				require.True(t, ok)
				assert.Equal(t, verifier.BearerToken("t0k"), src.Auth)
			},
		},
		"broker with basic auth and tags": {
			mutate: func(c *Configuration) {
				c.Broker.URL = "https://broker.example.com"
				c.Broker.Username = "ci"
				c.Broker.Password = "pw"
				c.Broker.Tags = []string{"main"}
			},
			check: func(t *testing.T, req verifier.Request) {
				src, ok := req.Source.(verifier.BrokerSource)
				require.True(t, ok)
				assert.Equal(t, verifier.BasicAuth("ci", "pw"), src.Auth)
				assert.Equal(t, []string{"main"}, src.Tags)
			},
		},
		"refinements": {
			mutate: func(c *Configuration) {
				c.Source.File = "p.json"
				c.ProviderStateURL = "http://localhost:8080/provider-states"
				c.Filter = FilterConfig{Description: "^a", ProviderState: "b"}
				c.LogLevel = "DEBUG"
			},
			check: func(t *testing.T, req verifier.Request) {
				assert.Equal(t, "http://localhost:8080/provider-states", req.ProviderStateURL.String())
				assert.Equal(t, verifier.Filter{Description: "^a", ProviderState: "b"}, req.Filter)
				assert.Equal(t, verifier.LogDebug, req.LogLevel)
			},
		},
		"no source": {
			mutate:  func(c *Configuration) {},
			wantErr: verifier.ErrInvalidConfiguration,
		},
		"missing provider": {
			mutate: func(c *Configuration) {
				c.Provider.Name = ""
				c.Source.File = "p.json"
			},
			wantErr: verifier.ErrInvalidConfiguration,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.mutate(&cfg)
			stage, err := cfg.Stage(nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, stage)
				return
			}
			require.NoError(t, err)
			tt.check(t, stage.Request())
		})
	}
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	cfg := &Configuration{
		Source: SourceConfig{Password: "pw", Token: ""},
		Broker: BrokerConfig{Token: "tok", Tags: []string{"main"}},
	}
	red := cfg.Redacted()

	assert.Equal(t, "***", red.Source.Password)
	assert.Empty(t, red.Source.Token)
	assert.Equal(t, "***", red.Broker.Token)
	assert.Equal(t, "pw", cfg.Source.Password)
	red.Broker.Tags[0] = "changed"
	assert.Equal(t, "main", cfg.Broker.Tags[0])
}
