package pact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v2Contract = `{
  "consumer": {"name": "Event API Consumer"},
  "provider": {"name": "Event API"},
  "interactions": [
    {
      "description": "a request for all events",
      "providerState": "there are events with ids '45D80D13'",
      "request": {"method": "GET", "path": "/events", "query": "type=DetailsView&limit=10", "headers": {"Accept": "application/json"}},
      "response": {"status": 200, "headers": {"Content-Type": "application/json; charset=utf-8"}, "body": [{"eventId": "45D80D13"}]}
    }
  ],
  "metadata": {"pactSpecification": {"version": "2.0.0"}}
}`

const v3Contract = `{
  "consumer": {"name": "web"},
  "provider": {"name": "products"},
  "interactions": [
    {
      "description": "get product 10",
      "providerStates": [{"name": "product exists", "params": {"id": 10}}],
      "request": {"method": "GET", "path": "/products/10", "query": {"fields": ["name", "price"]}, "headers": {"Accept": ["application/json", "text/plain"]}},
      "response": {"status": 200, "body": {"id": 10}}
    }
  ],
  "metadata": {"pactSpecification": {"version": "3.0.0"}}
}`

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input       string
		wantErr     string
		wantVersion string
		check       func(t *testing.T, c *Contract)
	}{
		"v2 contract": {
			input:       v2Contract,
			wantVersion: "2.0.0",
			check: func(t *testing.T, c *Contract) {
				require.Len(t, c.Interactions, 1)
				in := c.Interactions[0]
				assert.Equal(t, "Event API Consumer -> Event API", c.Title())
				assert.Equal(t, "limit=10&type=DetailsView", in.Request.Query.Encode())
				assert.Equal(t, []ProviderState{{Name: "there are events with ids '45D80D13'"}}, in.States())
				accept, ok := in.Request.Headers.Get("accept")
				assert.True(t, ok)
				assert.Equal(t, "application/json", accept)
				assert.JSONEq(t, `[{"eventId": "45D80D13"}]`, string(in.Response.Body))
			},
		},
		"v3 contract": {
			input:       v3Contract,
			wantVersion: "3.0.0",
			check: func(t *testing.T, c *Contract) {
				in := c.Interactions[0]
				assert.Equal(t, "fields=name&fields=price", in.Request.Query.Encode())
				assert.Equal(t, "product exists", in.StateNames())
				assert.Equal(t, float64(10), in.States()[0].Params["id"])
				accept, _ := in.Request.Headers.Get("Accept")
				assert.Equal(t, "application/json, text/plain", accept)
			},
		},
		"legacy metadata key": {
			input:       `{"consumer":{"name":"a"},"provider":{"name":"b"},"interactions":[],"metadata":{"pact-specification":{"version":"1.0.0"}}}`,
			wantVersion: "1.0.0",
		},
		"malformed JSON": {
			input:   `{"consumer":`,
			wantErr: "parsing contract",
		},
		"no pacticipants": {
			input:   `{"interactions":[]}`,
			wantErr: "neither consumer nor provider",
		},
		"missing method": {
			input:   `{"consumer":{"name":"a"},"interactions":[{"description":"x","request":{"path":"/"},"response":{"status":200}}]}`,
			wantErr: "request method is required",
		},
		"relative path": {
			input:   `{"consumer":{"name":"a"},"interactions":[{"description":"x","request":{"method":"GET","path":"items"},"response":{"status":200}}]}`,
			wantErr: "must start with /",
		},
		"bad status": {
			input:   `{"consumer":{"name":"a"},"interactions":[{"description":"x","request":{"method":"GET","path":"/"},"response":{"status":42}}]}`,
			wantErr: "not a valid HTTP status",
		},
		"numeric header value": {
			input:   `{"consumer":{"name":"a"},"interactions":[{"description":"x","request":{"method":"GET","path":"/","headers":{"X-Count":3}},"response":{"status":200}}]}`,
			wantErr: "header \"X-Count\"",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := Parse([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, c.Metadata.SpecificationVersion())
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "consumer-provider.json")
	require.NoError(t, os.WriteFile(path, []byte(v2Contract), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Location)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
