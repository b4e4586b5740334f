// Package history records verification runs in a YAML file under the state dir.
package history

import "time"

// HistoryFileName is the name of the history file inside the state dir.
const HistoryFileName = "history.yaml"

// Run statuses.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
	StatusError  = "error"
)

// HistoryEntry is one verification run.
type HistoryEntry struct {
	ID              string    `yaml:"id"`
	Timestamp       time.Time `yaml:"timestamp"`
	Provider        string    `yaml:"provider"`
	Consumer        string    `yaml:"consumer"`
	Source          string    `yaml:"source"`
	Status          string    `yaml:"status"`
	Interactions    int       `yaml:"interactions"`
	Mismatches      int       `yaml:"mismatches"`
	ExitCode        int       `yaml:"exit_code"`
	Duration        string    `yaml:"duration"`
	ProviderVersion string    `yaml:"provider_version,omitempty"`
	ProviderBranch  string    `yaml:"provider_branch,omitempty"`
	Error           string    `yaml:"error,omitempty"`
}

// HistoryFile is the on-disk document.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}
