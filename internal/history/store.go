package history

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadHistory reads the history file. A missing file yields an empty history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, HistoryFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &HistoryFile{}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history file: %w", err)
	}
	return &history, nil
}

// SaveHistory writes the history file atomically via a temp file and rename.
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	tmp, err := os.CreateTemp(stateDir, HistoryFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(stateDir, HistoryFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// ClearHistory removes every entry.
func ClearHistory(stateDir string) error {
	return SaveHistory(stateDir, &HistoryFile{Entries: []HistoryEntry{}})
}

// FilterEntries returns entries for provider (all when empty), newest first,
// at most limit of them (all when limit <= 0).
func FilterEntries(entries []HistoryEntry, provider string, limit int) []HistoryEntry {
	var out []HistoryEntry
	for i := len(entries) - 1; i >= 0; i-- {
		if provider != "" && entries[i].Provider != provider {
			continue
		}
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
