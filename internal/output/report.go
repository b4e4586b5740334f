package output

import (
	"io"

	"github.com/ariel-frischer/pactverify/internal/verifier"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the machine-readable result of a verify run.
type Report struct {
	RunID      string                       `json:"run_id,omitempty"`
	Provider   string                       `json:"provider"`
	Consumer   string                       `json:"consumer"`
	Source     string                       `json:"source"`
	Success    bool                         `json:"success"`
	Total      int                          `json:"total"`
	Passed     int                          `json:"passed"`
	Failed     int                          `json:"failed"`
	Skipped    int                          `json:"skipped"`
	Duration   string                       `json:"duration"`
	Results    []verifier.InteractionResult `json:"results"`
	Mismatches []verifier.Mismatch          `json:"mismatches"`
	Error      string                       `json:"error,omitempty"`
}

// NewReport builds a Report from the request and whatever Verify returned.
// outcome may be nil when the run failed before any interaction was replayed.
func NewReport(runID string, req verifier.Request, outcome *verifier.Outcome, err error) Report {
	r := Report{
		RunID:      runID,
		Provider:   req.ProviderName,
		Consumer:   req.ConsumerName,
		Results:    []verifier.InteractionResult{},
		Mismatches: []verifier.Mismatch{},
	}
	if req.Source != nil {
		r.Source = req.Source.Describe()
	}
	if outcome != nil {
		r.Total = len(outcome.Results)
		r.Passed = outcome.Passed()
		r.Failed = len(outcome.Mismatches)
		r.Skipped = outcome.Skipped
		r.Duration = formatDuration(outcome.Duration)
		if outcome.Results != nil {
			r.Results = outcome.Results
		}
		if outcome.Mismatches != nil {
			r.Mismatches = outcome.Mismatches
		}
	}
	r.Success = err == nil && outcome.Success()
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(out io.Writer, v interface{}) error {
	enc := jsonAPI.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
