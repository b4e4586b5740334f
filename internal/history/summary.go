package history

// Summary counts runs by status.
type Summary struct {
	Runs    int
	Passed  int
	Failed  int
	Errored int
}

// Summarize tallies entries.
func Summarize(entries []HistoryEntry) Summary {
	s := Summary{Runs: len(entries)}
	for _, e := range entries {
		switch e.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		default:
			s.Errored++
		}
	}
	return s
}

// PassRate is the share of runs that passed, 0 when there were none.
func (s Summary) PassRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Runs)
}
