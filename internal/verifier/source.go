package verifier

import (
	"net/url"
	"strings"
)

// ContractSource is where the contract comes from. It is sealed: the only
// variants are FileSource, URISource and BrokerSource, and a Request carries
// exactly one of them.
type ContractSource interface {
	// Describe returns a short human-readable location, without credentials.
	Describe() string
	contractSource()
}

// FileSource is a contract on the local filesystem.
type FileSource struct {
	Path string
}

// URISource is a contract served over HTTP.
type URISource struct {
	URI  *url.URL
	Auth Auth
}

// BrokerSource is a contract stored in a broker.
type BrokerSource struct {
	BaseURI *url.URL
	Auth    Auth
	// Tags selects the latest contract for each consumer version tag.
	// Empty means the latest contract regardless of tag.
	Tags    []string
	Headers map[string]string
}

func (FileSource) contractSource()   {}
func (URISource) contractSource()    {}
func (BrokerSource) contractSource() {}

func (s FileSource) Describe() string { return "file " + s.Path }
func (s URISource) Describe() string  { return "uri " + s.URI.Redacted() }

func (s BrokerSource) Describe() string {
	d := "broker " + s.BaseURI.Redacted()
	if len(s.Tags) > 0 {
		d += " (tags: " + strings.Join(s.Tags, ", ") + ")"
	}
	return d
}

// BrokerOption configures a BrokerSource.
type BrokerOption func(*BrokerSource)

// WithBrokerAuth authenticates broker requests.
func WithBrokerAuth(auth Auth) BrokerOption {
	return func(b *BrokerSource) {
		b.Auth = auth
	}
}

// WithConsumerVersionTags fetches the latest contract for each tag.
func WithConsumerVersionTags(tags ...string) BrokerOption {
	return func(b *BrokerSource) {
		b.Tags = append(append([]string(nil), b.Tags...), tags...)
	}
}

// WithBrokerHeader adds a custom header to every broker request.
func WithBrokerHeader(key, value string) BrokerOption {
	return func(b *BrokerSource) {
		headers := make(map[string]string, len(b.Headers)+1)
		for k, v := range b.Headers {
			headers[k] = v
		}
		headers[key] = value
		b.Headers = headers
	}
}
