package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const eventContract = `{
  "consumer": {"name": "Event UI"},
  "provider": {"name": "Event API"},
  "interactions": [
    {
      "description": "a request for all events",
      "providerState": "there are events",
      "request": {"method": "GET", "path": "/events"},
      "response": {
        "status": 200,
        "headers": {"Content-Type": "application/json"},
        "body": [{"eventId": "45D80D13", "eventType": "SearchView"}]
      }
    },
    {
      "description": "a request for event 83F9262F",
      "request": {"method": "GET", "path": "/events/83F9262F"},
      "response": {
        "status": 200,
        "headers": {"Content-Type": "application/json"},
        "body": {"eventId": "83F9262F", "eventType": "DetailsView"}
      }
    }
  ],
  "metadata": {"pactSpecification": {"version": "2.0.0"}}
}`

// eventProvider serves the events API; detailsType is reported for the
// single-event endpoint.
func eventProvider(t *testing.T, detailsType string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/provider-states", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"eventId": "45D80D13", "eventType": "SearchView", "timestamp": "2014-06-30T01:37:41"}]`))
	})
	mux.HandleFunc("/events/83F9262F", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"eventId": "83F9262F", "eventType": %q}`, detailsType)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type fixture struct {
	dir          string
	contractPath string
	configPath   string
	stateDir     string
}

// newFixture writes a contract and a config that points at providerURL and
// keeps history in a temp dir.
func newFixture(t *testing.T, providerURL string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:          dir,
		contractPath: filepath.Join(dir, "event_ui-event_api.json"),
		configPath:   filepath.Join(dir, "config.yml"),
		stateDir:     filepath.Join(dir, "state"),
	}
	require.NoError(t, os.WriteFile(f.contractPath, []byte(eventContract), 0o644))

	cfg := fmt.Sprintf(`provider:
  name: Event API
  base_url: %s
consumer:
  name: Event UI
source:
  file: %s
provider_state_url: %s/provider-states
log_level: none
state_dir: %s
`, providerURL, f.contractPath, providerURL, f.stateDir)
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o644))
	return f
}

// runCLI executes a fresh command tree and captures its output.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--no-color"))
	err = execute(context.Background(), cmd)
	return out.String(), errOut.String(), err
}
