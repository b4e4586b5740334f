package verifier

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Initial is the first stage: nothing is configured yet.
type Initial interface {
	// ServiceProvider names the provider under test and the base URI it serves on.
	ServiceProvider(name, baseURI string) (ProviderDefined, error)
}

// ProviderDefined is the stage after the provider identity is set.
type ProviderDefined interface {
	// HonoursPactWith names the consumer whose contract the provider must honour.
	HonoursPactWith(consumer string) (ConsumerDefined, error)
}

// ConsumerDefined is the stage where exactly one contract source is chosen.
type ConsumerDefined interface {
	// FromContractFile reads the contract from a local path. The path is only
	// checked for existence when Verify runs.
	FromContractFile(path string) (SourceDefined, error)
	// FromContractURI fetches the contract over HTTP. auth may be nil.
	FromContractURI(uri string, auth Auth) (SourceDefined, error)
	// FromContractBroker fetches the latest contract from a broker.
	FromContractBroker(baseURI string, opts ...BrokerOption) (SourceDefined, error)
}

// SourceDefined is the refinement stage. Refinements loop back to this stage
// and overwrite earlier values; Verify ends the chain.
type SourceDefined interface {
	WithProviderStateURL(uri string) (SourceDefined, error)
	WithFilter(description, providerState string) SourceDefined
	WithLogLevel(level LogLevel) SourceDefined
	// Request returns a copy of the assembled configuration.
	Request() Request
	// Verify hands the configuration to the engine. It returns no stage.
	Verify(ctx context.Context) (*Outcome, error)
}

// New starts a configuration chain whose Verify dispatches to engine.
func New(engine Engine) Initial {
	return initial{engine: engine}
}

type initial struct {
	engine Engine
}

type providerDefined struct {
	engine Engine
	req    Request
}

type consumerDefined struct {
	engine Engine
	req    Request
}

type sourceDefined struct {
	engine Engine
	req    Request
}

func (s initial) ServiceProvider(name, baseURI string) (ProviderDefined, error) {
	name, err := requireName("provider", name)
	if err != nil {
		return nil, err
	}
	u, err := requireAbsoluteURI("provider base", baseURI)
	if err != nil {
		return nil, err
	}
	return providerDefined{
		engine: s.engine,
		req:    Request{ProviderName: name, ProviderBaseURL: u},
	}, nil
}

func (s providerDefined) HonoursPactWith(consumer string) (ConsumerDefined, error) {
	consumer, err := requireName("consumer", consumer)
	if err != nil {
		return nil, err
	}
	req := s.req
	req.ConsumerName = consumer
	return consumerDefined{engine: s.engine, req: req}, nil
}

func (s consumerDefined) FromContractFile(path string) (SourceDefined, error) {
	if strings.TrimSpace(path) == "" {
		return nil, invalidf("contract file path must not be empty")
	}
	return s.withSource(FileSource{Path: path}), nil
}

func (s consumerDefined) FromContractURI(uri string, auth Auth) (SourceDefined, error) {
	u, err := requireAbsoluteURI("contract", uri)
	if err != nil {
		return nil, err
	}
	if auth != nil {
		if err := auth.validate(); err != nil {
			return nil, err
		}
	}
	return s.withSource(URISource{URI: u, Auth: auth}), nil
}

func (s consumerDefined) FromContractBroker(baseURI string, opts ...BrokerOption) (SourceDefined, error) {
	u, err := requireAbsoluteURI("broker", baseURI)
	if err != nil {
		return nil, err
	}
	src := BrokerSource{BaseURI: u}
	for _, opt := range opts {
		opt(&src)
	}
	if src.Auth != nil {
		if err := src.Auth.validate(); err != nil {
			return nil, err
		}
	}
	for _, tag := range src.Tags {
		if strings.TrimSpace(tag) == "" {
			return nil, invalidf("consumer version tags must not be empty")
		}
	}
	return s.withSource(src), nil
}

func (s consumerDefined) withSource(src ContractSource) SourceDefined {
	req := s.req
	req.Source = src
	return sourceDefined{engine: s.engine, req: req}
}

func (s sourceDefined) WithProviderStateURL(uri string) (SourceDefined, error) {
	u, err := requireAbsoluteURI("provider state", uri)
	if err != nil {
		return nil, err
	}
	s.req.ProviderStateURL = u
	return s, nil
}

func (s sourceDefined) WithFilter(description, providerState string) SourceDefined {
	s.req.Filter = Filter{Description: description, ProviderState: providerState}
	return s
}

func (s sourceDefined) WithLogLevel(level LogLevel) SourceDefined {
	s.req.LogLevel = level
	return s
}

func (s sourceDefined) Request() Request {
	return s.req
}

func (s sourceDefined) Verify(ctx context.Context) (*Outcome, error) {
	if s.engine == nil {
		return nil, invalidf("no verification engine")
	}
	if s.req.LogLevel != "" && !s.req.LogLevel.IsValid() {
		return nil, invalidf("invalid log level %q", s.req.LogLevel)
	}

	outcome, err := s.engine.Verify(ctx, s.req)
	if err != nil {
		return outcome, err
	}
	if outcome == nil {
		return nil, fmt.Errorf("engine returned no outcome")
	}
	if !outcome.Success() {
		return outcome, &VerificationFailedError{Mismatches: outcome.Mismatches}
	}
	return outcome, nil
}

func requireName(role, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidf("%s name must not be empty", role)
	}
	return name, nil
}

func requireAbsoluteURI(role, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalidf("%s URI must not be empty", role)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalidf("%s URI %q: %v", role, raw, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, invalidf("%s URI %q must be absolute", role, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalidf("%s URI %q must use http or https", role, raw)
	}
	return u, nil
}
