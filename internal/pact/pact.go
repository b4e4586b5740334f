// Package pact models consumer contracts (Pact specification v2 and v3 JSON)
// closely enough to replay their interactions against a provider.
package pact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Contract is one consumer/provider contract document.
type Contract struct {
	Consumer     Pacticipant   `json:"consumer"`
	Provider     Pacticipant   `json:"provider"`
	Interactions []Interaction `json:"interactions"`
	Metadata     Metadata      `json:"metadata"`

	// Location records where the contract was loaded from. Not serialized.
	Location string `json:"-"`
}

// Pacticipant is a named party to a contract.
type Pacticipant struct {
	Name string `json:"name"`
}

// Metadata carries the specification version. Older documents use the
// hyphenated key.
type Metadata struct {
	PactSpecification   SpecVersion `json:"pactSpecification"`
	LegacySpecification SpecVersion `json:"pact-specification"`
}

type SpecVersion struct {
	Version string `json:"version"`
}

// SpecificationVersion returns the declared specification version, or "" if none.
func (m Metadata) SpecificationVersion() string {
	if m.PactSpecification.Version != "" {
		return m.PactSpecification.Version
	}
	return m.LegacySpecification.Version
}

// Interaction is a single expected request/response pair.
type Interaction struct {
	Description    string          `json:"description"`
	ProviderState  string          `json:"providerState,omitempty"`
	ProviderStates []ProviderState `json:"providerStates,omitempty"`
	Request        Request         `json:"request"`
	Response       Response        `json:"response"`
}

// ProviderState is a named precondition with optional parameters.
type ProviderState struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// States returns the interaction's provider states, folding the v2
// single-state field into the v3 list form.
func (i Interaction) States() []ProviderState {
	if len(i.ProviderStates) > 0 {
		return i.ProviderStates
	}
	if i.ProviderState != "" {
		return []ProviderState{{Name: i.ProviderState}}
	}
	return nil
}

// StateNames returns the provider state names joined for display.
func (i Interaction) StateNames() string {
	states := i.States()
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

// Request is the request the consumer sends.
type Request struct {
	Method  string          `json:"method"`
	Path    string          `json:"path"`
	Query   Query           `json:"query,omitempty"`
	Headers Headers         `json:"headers,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// Response is the response the consumer expects.
type Response struct {
	Status  int             `json:"status"`
	Headers Headers         `json:"headers,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// Query accepts both the v2 string form ("a=1&b=2") and the v3 map form.
type Query url.Values

func (q *Query) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := jsonAPI.Unmarshal(data, &raw); err != nil {
			return err
		}
		values, err := url.ParseQuery(raw)
		if err != nil {
			return fmt.Errorf("parsing query %q: %w", raw, err)
		}
		*q = Query(values)
		return nil
	}

	var m map[string]any
	if err := jsonAPI.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing query: %w", err)
	}
	values := url.Values{}
	for key, v := range m {
		strs, err := stringList(v)
		if err != nil {
			return fmt.Errorf("query parameter %q: %w", key, err)
		}
		values[key] = strs
	}
	*q = Query(values)
	return nil
}

// Encode returns the query in URL form with sorted keys.
func (q Query) Encode() string {
	return url.Values(q).Encode()
}

// Headers accepts single string values and v4-style string lists. Lists are
// joined with ", ".
type Headers map[string]string

func (h *Headers) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := jsonAPI.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing headers: %w", err)
	}
	if m == nil {
		*h = nil
		return nil
	}
	headers := make(Headers, len(m))
	for key, v := range m {
		strs, err := stringList(v)
		if err != nil {
			return fmt.Errorf("header %q: %w", key, err)
		}
		headers[key] = strings.Join(strs, ", ")
	}
	*h = headers
	return nil
}

// Get looks a header up case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Names returns the header names sorted.
func (h Headers) Names() []string {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func stringList(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or list of strings, got %T", v)
	}
}

// Parse decodes and validates a contract document.
func Parse(data []byte) (*Contract, error) {
	var c Contract
	if err := jsonAPI.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing contract: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses a contract file. A missing file yields an error
// satisfying os.IsNotExist via errors.Is(err, fs.ErrNotExist).
func Load(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading contract %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Location = path
	return c, nil
}

// Validate checks that every interaction can be replayed.
func (c *Contract) Validate() error {
	if c.Consumer.Name == "" && c.Provider.Name == "" {
		return fmt.Errorf("contract names neither consumer nor provider")
	}
	for i, in := range c.Interactions {
		if strings.TrimSpace(in.Description) == "" {
			return fmt.Errorf("interaction %d: description is required", i)
		}
		if in.Request.Method == "" {
			return fmt.Errorf("interaction %q: request method is required", in.Description)
		}
		if !strings.HasPrefix(in.Request.Path, "/") {
			return fmt.Errorf("interaction %q: request path %q must start with /", in.Description, in.Request.Path)
		}
		if in.Response.Status < 100 || in.Response.Status > 599 {
			return fmt.Errorf("interaction %q: response status %d is not a valid HTTP status", in.Description, in.Response.Status)
		}
	}
	return nil
}

// Title returns "consumer -> provider" for display.
func (c *Contract) Title() string {
	return c.Consumer.Name + " -> " + c.Provider.Name
}
