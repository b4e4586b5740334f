// Package contract resolves a verifier.ContractSource into parsed contracts.
// Existence and reachability are checked here, at verification time, never
// when the source is declared.
package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/pactverify/internal/build"
	"github.com/ariel-frischer/pactverify/internal/pact"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// DefaultTimeout bounds a single contract fetch.
const DefaultTimeout = 30 * time.Second

// maxContractSize caps how much of a remote response is read.
const maxContractSize = 16 << 20

// Resolver loads contracts from files, URIs and brokers.
type Resolver struct {
	Client *http.Client
}

// NewResolver creates a resolver using client, or a client with DefaultTimeout
// when client is nil.
func NewResolver(client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Resolver{Client: client}
}

// Resolve returns the contracts for the source. A broker with several tags can
// yield several contracts; the other sources always yield one.
func (r *Resolver) Resolve(ctx context.Context, source verifier.ContractSource, provider, consumer string) ([]*pact.Contract, error) {
	switch src := source.(type) {
	case verifier.FileSource:
		c, err := r.resolveFile(src)
		if err != nil {
			return nil, err
		}
		return []*pact.Contract{c}, nil
	case verifier.URISource:
		c, err := r.resolveURI(ctx, src)
		if err != nil {
			return nil, err
		}
		return []*pact.Contract{c}, nil
	case verifier.BrokerSource:
		return r.resolveBroker(ctx, src, provider, consumer)
	default:
		return nil, fmt.Errorf("%w: unsupported contract source %T", verifier.ErrInvalidConfiguration, source)
	}
}

func (r *Resolver) resolveFile(src verifier.FileSource) (*pact.Contract, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", verifier.ErrFileNotFound, src.Path)
		}
		return nil, fmt.Errorf("checking contract file %s: %w", src.Path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", verifier.ErrFileNotFound, src.Path)
	}
	return pact.Load(src.Path)
}

func (r *Resolver) resolveURI(ctx context.Context, src verifier.URISource) (*pact.Contract, error) {
	location := src.URI.Redacted()
	body, status, err := r.get(ctx, src.URI.String(), src.Auth, nil)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", verifier.ErrContractUnavailable, location, err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s returned 404", verifier.ErrFileNotFound, location)
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: %s: unexpected status code: %d", verifier.ErrContractUnavailable, location, status)
	}
	c, err := pact.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	c.Location = location
	return c, nil
}

// resolveBroker fetches the latest contract, or the latest per tag. Tags are
// fetched concurrently; the first failure cancels the rest.
func (r *Resolver) resolveBroker(ctx context.Context, src verifier.BrokerSource, provider, consumer string) ([]*pact.Contract, error) {
	urls := brokerURLs(src, provider, consumer)
	contracts := make([]*pact.Contract, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			c, err := r.fetchFromBroker(gctx, src, u)
			if err != nil {
				return err
			}
			contracts[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dedupe(contracts), nil
}

func (r *Resolver) fetchFromBroker(ctx context.Context, src verifier.BrokerSource, u *url.URL) (*pact.Contract, error) {
	location := u.Redacted()
	body, status, err := r.get(ctx, u.String(), src.Auth, src.Headers)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", verifier.ErrBrokerUnavailable, location, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: unexpected status code: %d", verifier.ErrBrokerUnavailable, location, status)
	}
	c, err := pact.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", verifier.ErrBrokerUnavailable, location, err)
	}
	c.Location = location
	return c, nil
}

// brokerURLs builds /pacts/provider/{p}/consumer/{c}/latest[/{tag}] URLs.
// Names and tags are escaped as single path segments.
func brokerURLs(src verifier.BrokerSource, provider, consumer string) []*url.URL {
	base := []string{"pacts", "provider", provider, "consumer", consumer, "latest"}
	if len(src.Tags) == 0 {
		return []*url.URL{joinSegments(src.BaseURI, base...)}
	}
	urls := make([]*url.URL, 0, len(src.Tags))
	for _, tag := range src.Tags {
		urls = append(urls, joinSegments(src.BaseURI, append(base, tag)...))
	}
	return urls
}

// joinSegments appends segments to base's path without cleaning them, so a
// "/" or ".." inside a segment cannot change the route.
func joinSegments(base *url.URL, segments ...string) *url.URL {
	u := *base
	plain := strings.TrimSuffix(base.Path, "/")
	raw := strings.TrimSuffix(base.EscapedPath(), "/")
	for _, seg := range segments {
		plain += "/" + seg
		raw += "/" + escapeSegment(seg)
	}
	u.Path, u.RawPath = plain, raw
	return &u
}

func escapeSegment(seg string) string {
	if seg == "." || seg == ".." {
		return strings.Repeat("%2E", len(seg))
	}
	return url.PathEscape(seg)
}

// dedupe drops contracts whose interactions are identical to an earlier one,
// which happens when several tags point at the same consumer version.
func dedupe(contracts []*pact.Contract) []*pact.Contract {
	seen := make(map[string]bool, len(contracts))
	out := make([]*pact.Contract, 0, len(contracts))
	for _, c := range contracts {
		key, err := fingerprint(c)
		if err != nil || !seen[key] {
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

func fingerprint(c *pact.Contract) (string, error) {
	var buf bytes.Buffer
	enc := jsonAPI.NewEncoder(&buf)
	if err := enc.Encode(c.Interactions); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Resolver) get(ctx context.Context, rawURL string, auth verifier.Auth, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/hal+json, application/json")
	req.Header.Set("User-Agent", build.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if auth != nil {
		auth.Apply(req)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContractSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}
