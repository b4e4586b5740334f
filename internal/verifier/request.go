package verifier

import (
	"context"
	"net/url"
	"time"
)

// Engine runs a completed Request against a provider.
type Engine interface {
	Verify(ctx context.Context, req Request) (*Outcome, error)
}

// Filter narrows the interactions an engine replays. Empty fields match
// everything.
type Filter struct {
	Description   string
	ProviderState string
}

// IsZero reports whether the filter matches every interaction.
func (f Filter) IsZero() bool {
	return f.Description == "" && f.ProviderState == ""
}

// Request is a complete, structurally valid verifier configuration. It is
// only obtainable from a SourceDefined stage.
type Request struct {
	ProviderName     string
	ProviderBaseURL  *url.URL
	ConsumerName     string
	Source           ContractSource
	ProviderStateURL *url.URL
	Filter           Filter
	LogLevel         LogLevel
}

// MismatchKind classifies a single difference within an interaction.
type MismatchKind string

const (
	KindStatus        MismatchKind = "status"
	KindHeader        MismatchKind = "header"
	KindBody          MismatchKind = "body"
	KindProviderState MismatchKind = "provider-state"
	KindRequest       MismatchKind = "request"
)

// Difference is one expected/actual pair inside an interaction.
type Difference struct {
	Kind     MismatchKind `json:"kind"`
	Path     string       `json:"path,omitempty"`
	Expected string       `json:"expected,omitempty"`
	Actual   string       `json:"actual,omitempty"`
	Message  string       `json:"message"`
}

// Mismatch describes one interaction the provider did not satisfy.
type Mismatch struct {
	Interaction   string       `json:"interaction"`
	ProviderState string       `json:"provider_state,omitempty"`
	Contract      string       `json:"contract,omitempty"`
	Differences   []Difference `json:"differences"`
}

// InteractionResult is the per-interaction verdict of a run.
type InteractionResult struct {
	Description   string `json:"description"`
	ProviderState string `json:"provider_state,omitempty"`
	Passed        bool   `json:"passed"`
}

// Outcome is the result of a verification run.
type Outcome struct {
	Provider   string              `json:"provider"`
	Consumer   string              `json:"consumer"`
	Source     string              `json:"source"`
	Results    []InteractionResult `json:"results"`
	Skipped    int                 `json:"skipped"`
	Mismatches []Mismatch          `json:"mismatches"`
	Duration   time.Duration       `json:"duration"`
}

// Success reports whether every replayed interaction matched.
func (o *Outcome) Success() bool {
	return o != nil && len(o.Mismatches) == 0
}

// Passed returns the number of matching interactions.
func (o *Outcome) Passed() int {
	n := 0
	for _, r := range o.Results {
		if r.Passed {
			n++
		}
	}
	return n
}
