// Package replay verifies a provider by replaying every recorded interaction
// of a contract against it and comparing the live responses with the
// recorded ones. It implements verifier.Engine.
package replay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ariel-frischer/pactverify/internal/contract"
	"github.com/ariel-frischer/pactverify/internal/logging"
	"github.com/ariel-frischer/pactverify/internal/pact"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// DefaultTimeout bounds a single request to the provider.
const DefaultTimeout = 30 * time.Second

const maxBodySize = 16 << 20

// Resolver turns a contract source into contracts.
type Resolver interface {
	Resolve(ctx context.Context, source verifier.ContractSource, provider, consumer string) ([]*pact.Contract, error)
}

// Engine replays interactions against a provider.
type Engine struct {
	resolver Resolver
	client   *http.Client
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient sets the client used for provider and provider-state calls.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		e.client = client
	}
}

// WithLogger sets the base logger. The request's log level narrows it further.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithResolver replaces the contract resolver.
func WithResolver(r Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// NewEngine creates an engine. By default it does not follow redirects, so
// the provider's literal response is compared.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = contract.NewResolver(e.client)
	}
	return e
}

var _ verifier.Engine = (*Engine)(nil)

// Verify resolves the contracts, replays the interactions selected by the
// request's filter in order and collects one Mismatch per failing interaction.
// It stops early only when the provider cannot be reached or ctx is done.
func (e *Engine) Verify(ctx context.Context, req verifier.Request) (*verifier.Outcome, error) {
	start := time.Now()
	log := logging.ForRequest(e.logger, req.LogLevel).With(
		zap.String(logging.FieldProvider, req.ProviderName),
		zap.String(logging.FieldConsumer, req.ConsumerName),
	)

	filter, err := compileFilter(req.Filter)
	if err != nil {
		return nil, err
	}

	log.Info("resolving contract", zap.String(logging.FieldSource, req.Source.Describe()))
	contracts, err := e.resolver.Resolve(ctx, req.Source, req.ProviderName, req.ConsumerName)
	if err != nil {
		return nil, err
	}

	outcome := &verifier.Outcome{
		Provider: req.ProviderName,
		Consumer: req.ConsumerName,
		Source:   req.Source.Describe(),
	}
	for _, c := range contracts {
		clog := log.With(zap.String(logging.FieldContract, c.Location))
		if c.Provider.Name != "" && c.Provider.Name != req.ProviderName {
			clog.Warn("contract names a different provider", zap.String("contract_provider", c.Provider.Name))
		}
		if c.Consumer.Name != "" && c.Consumer.Name != req.ConsumerName {
			clog.Warn("contract names a different consumer", zap.String("contract_consumer", c.Consumer.Name))
		}

		for _, in := range c.Interactions {
			if !filter.matches(in) {
				outcome.Skipped++
				clog.Debug("interaction filtered out", zap.String(logging.FieldInteraction, in.Description))
				continue
			}

			diffs, err := e.verifyInteraction(ctx, req, c, in, clog)
			if err != nil {
				return nil, err
			}
			outcome.Results = append(outcome.Results, verifier.InteractionResult{
				Description:   in.Description,
				ProviderState: in.StateNames(),
				Passed:        len(diffs) == 0,
			})
			if len(diffs) > 0 {
				outcome.Mismatches = append(outcome.Mismatches, verifier.Mismatch{
					Interaction:   in.Description,
					ProviderState: in.StateNames(),
					Contract:      c.Location,
					Differences:   diffs,
				})
			}
		}
	}

	outcome.Duration = time.Since(start)
	log.Info("verification finished",
		zap.Int("interactions", len(outcome.Results)),
		zap.Int("mismatches", len(outcome.Mismatches)),
		zap.Int("skipped", outcome.Skipped),
		zap.Duration(logging.FieldDuration, outcome.Duration),
	)
	return outcome, nil
}

func (e *Engine) verifyInteraction(ctx context.Context, req verifier.Request, c *pact.Contract, in pact.Interaction, log *zap.Logger) ([]verifier.Difference, error) {
	ilog := log.With(zap.String(logging.FieldInteraction, in.Description))

	states := in.States()
	if req.ProviderStateURL != nil && len(states) > 0 {
		ready, diffs, err := e.setupStates(ctx, req, states, ilog)
		defer e.teardownStates(ctx, req, states, ready, ilog)
		if err != nil || len(diffs) > 0 {
			return diffs, err
		}
	} else if len(states) > 0 {
		ilog.Debug("no provider state URL configured, skipping state setup",
			zap.String(logging.FieldProviderState, in.StateNames()))
	}

	httpReq, err := buildRequest(ctx, req.ProviderBaseURL, in.Request)
	if err != nil {
		return []verifier.Difference{{
			Kind:    verifier.KindRequest,
			Message: fmt.Sprintf("could not build request: %v", err),
		}}, nil
	}

	ilog.Debug("replaying request",
		zap.String(logging.FieldMethod, httpReq.Method),
		zap.String(logging.FieldPath, httpReq.URL.RequestURI()),
	)
	resp, err := e.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %v", verifier.ErrProviderUnreachable, httpReq.Method, httpReq.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response for %q: %v", verifier.ErrProviderUnreachable, in.Description, err)
	}

	diffs := compareResponse(in.Response, resp.StatusCode, resp.Header, body)
	if len(diffs) == 0 {
		ilog.Info("interaction verified", zap.Int(logging.FieldStatus, resp.StatusCode))
	} else {
		ilog.Warn("interaction did not match",
			zap.Int(logging.FieldStatus, resp.StatusCode),
			zap.Int("differences", len(diffs)),
		)
	}
	return diffs, nil
}

// buildRequest joins the interaction path onto the provider base URL, keeping
// any base path prefix. Escapes in the recorded path are sent as recorded.
func buildRequest(ctx context.Context, base *url.URL, r pact.Request) (*http.Request, error) {
	recorded, err := url.PathUnescape(r.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", r.Path, err)
	}
	u := *base
	u.Path = strings.TrimSuffix(base.Path, "/") + recorded
	u.RawPath = strings.TrimSuffix(base.EscapedPath(), "/") + r.Path
	u.RawQuery = r.Query.Encode()
	u.Fragment = ""

	contentType, _ := r.Headers.Get("Content-Type")
	payload, err := requestBody(r.Body, contentType)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(r.Method), u.String(), body)
	if err != nil {
		return nil, err
	}
	for name, value := range r.Headers {
		httpReq.Header.Set(name, value)
	}
	if payload != nil && contentType == "" && isStructuredJSON(r.Body) {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// requestBody returns the bytes to send. A JSON string body for a non-JSON
// content type is sent as plain text.
func requestBody(raw []byte, contentType string) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' && !isJSONContentType(contentType) {
		var text string
		if err := jsonAPI.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("decoding request body: %w", err)
		}
		return []byte(text), nil
	}
	return raw, nil
}

func isStructuredJSON(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && (raw[0] == '{' || raw[0] == '[')
}

// CheckProvider reports whether anything answers HTTP at base. Any response,
// whatever its status, counts as reachable.
func CheckProvider(ctx context.Context, client *http.Client, base *url.URL) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", verifier.ErrProviderUnreachable, base.Redacted(), err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
	return nil
}
