package replay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariel-frischer/pactverify/internal/logging"
	"github.com/ariel-frischer/pactverify/internal/pact"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// Provider state change actions.
const (
	actionSetup    = "setup"
	actionTeardown = "teardown"
)

// stateChange is the body POSTed to the provider state URL, once per state.
type stateChange struct {
	Consumer string         `json:"consumer"`
	State    string         `json:"state"`
	States   []string       `json:"states"`
	Params   map[string]any `json:"params,omitempty"`
	Action   string         `json:"action"`
}

// setupStates asks the provider to establish every state of an interaction,
// in order, and returns how many were set up. A rejected state becomes a
// difference; an unreachable endpoint aborts the run.
func (e *Engine) setupStates(ctx context.Context, req verifier.Request, states []pact.ProviderState, log *zap.Logger) (int, []verifier.Difference, error) {
	for i, s := range states {
		status, err := e.postState(ctx, req, states, s, actionSetup)
		if err != nil {
			return i, nil, err
		}
		if status < 200 || status > 299 {
			log.Warn("provider state setup rejected",
				zap.String(logging.FieldProviderState, s.Name),
				zap.Int(logging.FieldStatus, status),
			)
			return i, []verifier.Difference{{
				Kind:     verifier.KindProviderState,
				Expected: "2xx",
				Actual:   fmt.Sprintf("%d", status),
				Message:  fmt.Sprintf("provider state %q could not be set up", s.Name),
			}}, nil
		}
		log.Debug("provider state set up", zap.String(logging.FieldProviderState, s.Name))
	}
	return len(states), nil, nil
}

// teardownStates tears down the first n states, the ones setupStates
// established. It is best effort; failures are only logged.
func (e *Engine) teardownStates(ctx context.Context, req verifier.Request, states []pact.ProviderState, n int, log *zap.Logger) {
	for _, s := range states[:n] {
		status, err := e.postState(ctx, req, states, s, actionTeardown)
		if err != nil {
			log.Debug("provider state teardown failed", zap.String(logging.FieldProviderState, s.Name), zap.Error(err))
			continue
		}
		if status < 200 || status > 299 {
			log.Debug("provider state teardown rejected",
				zap.String(logging.FieldProviderState, s.Name),
				zap.Int(logging.FieldStatus, status),
			)
		}
	}
}

func (e *Engine) postState(ctx context.Context, req verifier.Request, all []pact.ProviderState, s pact.ProviderState, action string) (int, error) {
	names := make([]string, 0, len(all))
	for _, st := range all {
		names = append(names, st.Name)
	}
	payload, err := jsonAPI.Marshal(stateChange{
		Consumer: req.ConsumerName,
		State:    s.Name,
		States:   names,
		Params:   s.Params,
		Action:   action,
	})
	if err != nil {
		return 0, fmt.Errorf("encoding provider state %q: %w", s.Name, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.ProviderStateURL.String(), bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating provider state request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: provider state URL %s: %v", verifier.ErrProviderUnreachable, req.ProviderStateURL.Redacted(), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, nil
}
