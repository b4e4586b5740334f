package config

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# pactverify configuration
# See 'pactverify config -h' for commands, 'pactverify config keys' for all options

# Provider under test
provider:
  name: ""                            # Provider name as it appears in contracts
  base_url: ""                        # e.g. http://localhost:8080

# Consumer whose contract the provider must honour
consumer:
  name: ""

# Contract source: set exactly one of source.file, source.uri or broker.url
source:
  file: ""                            # Local contract file
  uri: ""                             # Remote contract URI
  username: ""                        # Basic auth for source.uri
  password: ""
  token: ""                           # Bearer token for source.uri (excludes username/password)

broker:
  url: ""                             # Contract broker base URL
  username: ""
  password: ""
  token: ""
  tags: []                            # Consumer version tags (latest per tag)

# Refinements
provider_state_url: ""                # Endpoint that sets up provider states
filter:
  description: ""                     # Regex on interaction description
  provider_state: ""                  # Regex on provider state name
log_level: warn                       # trace | debug | info | warn | error | none

# Run settings
output: text                          # text | json
timeout: 5m                           # Whole-run timeout (0 = no timeout)
wait: 0s                              # Wait for the provider to come up before verifying

# History
state_dir: ~/.pactverify/state        # Directory for history
max_history_entries: 500              # Max verification runs to retain
`
}

// GetDefaults returns the default configuration values as a map.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"provider.name":         "",
		"provider.base_url":     "",
		"consumer.name":         "",
		"source.file":           "",
		"source.uri":            "",
		"source.username":       "",
		"source.password":       "",
		"source.token":          "",
		"broker.url":            "",
		"broker.username":       "",
		"broker.password":       "",
		"broker.token":          "",
		"broker.tags":           []string{},
		"provider_state_url":    "",
		"filter.description":    "",
		"filter.provider_state": "",
		"log_level":             "warn",
		"output":                "text",
		"timeout":               "5m",
		"wait":                  "0s",
		"state_dir":             "~/.pactverify/state",
		"max_history_entries":   500,
	}
}
