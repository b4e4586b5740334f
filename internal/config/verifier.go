package config

import (
	"fmt"

	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// Stage walks the verifier builder with the configured values and returns
// the refinement stage, ready to Verify. Builder errors are returned as is
// so callers can match verifier.ErrInvalidConfiguration.
func (c *Configuration) Stage(engine verifier.Engine) (verifier.SourceDefined, error) {
	provider, err := verifier.New(engine).ServiceProvider(c.Provider.Name, c.Provider.BaseURL)
	if err != nil {
		return nil, err
	}
	consumer, err := provider.HonoursPactWith(c.Consumer.Name)
	if err != nil {
		return nil, err
	}

	var stage verifier.SourceDefined
	switch {
	case c.Source.File != "":
		stage, err = consumer.FromContractFile(c.Source.File)
	case c.Source.URI != "":
		stage, err = consumer.FromContractURI(c.Source.URI, authFor(c.Source.Username, c.Source.Password, c.Source.Token))
	case c.Broker.URL != "":
		opts := []verifier.BrokerOption{verifier.WithConsumerVersionTags(c.Broker.Tags...)}
		if auth := authFor(c.Broker.Username, c.Broker.Password, c.Broker.Token); auth != nil {
			opts = append(opts, verifier.WithBrokerAuth(auth))
		}
		stage, err = consumer.FromContractBroker(c.Broker.URL, opts...)
	default:
		return nil, fmt.Errorf("%w: no contract source: set source.file, source.uri or broker.url",
			verifier.ErrInvalidConfiguration)
	}
	if err != nil {
		return nil, err
	}

	if c.ProviderStateURL != "" {
		if stage, err = stage.WithProviderStateURL(c.ProviderStateURL); err != nil {
			return nil, err
		}
	}
	if c.Filter.Description != "" || c.Filter.ProviderState != "" {
		stage = stage.WithFilter(c.Filter.Description, c.Filter.ProviderState)
	}
	if c.LogLevel != "" {
		level, err := verifier.ParseLogLevel(c.LogLevel)
		if err != nil {
			return nil, err
		}
		stage = stage.WithLogLevel(level)
	}
	return stage, nil
}

func authFor(username, password, token string) verifier.Auth {
	switch {
	case token != "":
		return verifier.BearerToken(token)
	case username != "":
		return verifier.BasicAuth(username, password)
	default:
		return nil
	}
}

// Redacted returns a copy with secrets masked, for display.
func (c *Configuration) Redacted() *Configuration {
	out := *c
	out.Broker.Tags = append([]string(nil), c.Broker.Tags...)
	for _, s := range []*string{&out.Source.Password, &out.Source.Token, &out.Broker.Password, &out.Broker.Token} {
		if *s != "" {
			*s = "***"
		}
	}
	return &out
}
