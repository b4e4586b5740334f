package replay

import (
	"fmt"
	"regexp"

	"github.com/ariel-frischer/pactverify/internal/pact"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// interactionFilter selects interactions by description and provider state.
// Both patterns are regular expressions; a nil pattern matches everything.
// The filter applies after contract resolution.
type interactionFilter struct {
	description *regexp.Regexp
	state       *regexp.Regexp
}

func compileFilter(f verifier.Filter) (*interactionFilter, error) {
	var out interactionFilter
	var err error
	if f.Description != "" {
		if out.description, err = regexp.Compile(f.Description); err != nil {
			return nil, fmt.Errorf("%w: description filter %q: %v", verifier.ErrInvalidConfiguration, f.Description, err)
		}
	}
	if f.ProviderState != "" {
		if out.state, err = regexp.Compile(f.ProviderState); err != nil {
			return nil, fmt.Errorf("%w: provider state filter %q: %v", verifier.ErrInvalidConfiguration, f.ProviderState, err)
		}
	}
	return &out, nil
}

func (f *interactionFilter) matches(in pact.Interaction) bool {
	if f.description != nil && !f.description.MatchString(in.Description) {
		return false
	}
	if f.state == nil {
		return true
	}
	states := in.States()
	if len(states) == 0 {
		return f.state.MatchString("")
	}
	for _, s := range states {
		if f.state.MatchString(s.Name) {
			return true
		}
	}
	return false
}
