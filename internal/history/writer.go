package history

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer appends verification runs to the history file under StateDir and
// keeps at most MaxEntries of them. It is safe for concurrent use within one
// process; a watch loop and a one-off run share a Writer this way.
type Writer struct {
	StateDir   string
	MaxEntries int // 0 keeps everything
	Warn       io.Writer

	mu sync.Mutex
}

// NewWriter creates a writer that reports failures on stderr.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{StateDir: stateDir, MaxEntries: maxEntries, Warn: os.Stderr}
}

// Append stores entry, stamping an ID and timestamp when missing, and returns
// the stored entry.
func (w *Writer) Append(entry HistoryEntry) (HistoryEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := LoadHistory(w.StateDir)
	if err != nil {
		return entry, err
	}
	file.Entries = keepNewest(append(file.Entries, entry), w.MaxEntries)
	if err := SaveHistory(w.StateDir, file); err != nil {
		return entry, err
	}
	return entry, nil
}

// LogEntry is Append for callers that must not fail because history could
// not be written. Errors go to Warn.
func (w *Writer) LogEntry(entry HistoryEntry) {
	if _, err := w.Append(entry); err != nil && w.Warn != nil {
		fmt.Fprintf(w.Warn, "Warning: failed to log history: %v\n", err)
	}
}

// keepNewest drops the oldest entries beyond limit.
func keepNewest(entries []HistoryEntry, limit int) []HistoryEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[len(entries)-limit:]
}
