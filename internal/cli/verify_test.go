package cli

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ariel-frischer/pactverify/internal/history"
)

func TestVerifyCmd_ProviderHonoursContract(t *testing.T) {
	provider := eventProvider(t, "DetailsView")
	f := newFixture(t, provider.URL)

	stdout, _, err := runCLI(t, "verify", "--config", f.configPath)
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, ExitCodeFor(err))
	assert.Contains(t, stdout, "Verifying a pact between Event UI and Event API")
	assert.Contains(t, stdout, "✓ Given there are events, a request for all events")
	assert.Contains(t, stdout, "2 interactions, 2 passed, 0 failed")

	hist, err := history.LoadHistory(f.stateDir)
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, history.StatusPassed, hist.Entries[0].Status)
	assert.Equal(t, 2, hist.Entries[0].Interactions)
	assert.NotEmpty(t, hist.Entries[0].ID)
}

func TestVerifyCmd_MismatchJSON(t *testing.T) {
	provider := eventProvider(t, "SearchView")
	f := newFixture(t, provider.URL)

	stdout, stderr, err := runCLI(t, "verify", "--config", f.configPath, "--output", "json")
	require.Error(t, err)
	assert.Equal(t, ExitVerificationFailed, ExitCodeFor(err))
	assert.Contains(t, stderr, "Verification Failed")

	require.True(t, gjson.Valid(stdout), stdout)
	assert.False(t, gjson.Get(stdout, "success").Bool())
	assert.Equal(t, int64(2), gjson.Get(stdout, "total").Int())
	assert.Equal(t, int64(1), gjson.Get(stdout, "failed").Int())
	assert.Equal(t, "a request for event 83F9262F", gjson.Get(stdout, "mismatches.0.interaction").String())
	assert.Equal(t, "$.eventType", gjson.Get(stdout, "mismatches.0.differences.0.path").String())
	assert.NotEmpty(t, gjson.Get(stdout, "run_id").String())

	hist, err := history.LoadHistory(f.stateDir)
	require.NoError(t, err)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, history.StatusFailed, hist.Entries[0].Status)
	assert.Equal(t, 1, hist.Entries[0].Mismatches)
	assert.Equal(t, ExitVerificationFailed, hist.Entries[0].ExitCode)
}

func TestVerifyCmd_FilterNarrowsRun(t *testing.T) {
	provider := eventProvider(t, "SearchView")
	f := newFixture(t, provider.URL)

	stdout, _, err := runCLI(t, "verify", "--config", f.configPath,
		"--filter-description", "all events", "--output", "json")
	require.NoError(t, err)
	assert.True(t, gjson.Get(stdout, "success").Bool())
	assert.Equal(t, int64(1), gjson.Get(stdout, "total").Int())
	assert.Equal(t, int64(1), gjson.Get(stdout, "skipped").Int())
}

func TestVerifyCmd_FlagsOverrideConfig(t *testing.T) {
	good := eventProvider(t, "DetailsView")
	f := newFixture(t, "http://127.0.0.1:1")

	_, _, err := runCLI(t, "verify", "--config", f.configPath,
		"--provider-url", good.URL, "--provider-state-url", good.URL+"/provider-states")
	require.NoError(t, err)
}

func TestVerifyCmd_Errors(t *testing.T) {
	provider := eventProvider(t, "DetailsView")

	tests := map[string]struct {
		args     func(f fixture) []string
		wantCode int
		wantErr  string
	}{
		"contract file missing": {
			args: func(f fixture) []string {
				return []string{"--file", filepath.Join(f.dir, "missing.json")}
			},
			wantCode: ExitContractUnavailable,
			wantErr:  "contract not found",
		},
		"provider unreachable": {
			args: func(f fixture) []string {
				return []string{"--provider-url", "http://127.0.0.1:1"}
			},
			wantCode: ExitProviderUnreachable,
			wantErr:  "provider unreachable",
		},
		"relative provider url": {
			args: func(f fixture) []string {
				return []string{"--provider-url", "localhost"}
			},
			wantCode: ExitInvalidConfiguration,
		},
		"two sources": {
			args: func(f fixture) []string {
				return []string{"--file", f.contractPath, "--uri", "https://contracts.example.com/p.json"}
			},
			wantCode: ExitInvalidConfiguration,
			wantErr:  "invalid flag combination",
		},
		"empty consumer": {
			args: func(f fixture) []string {
				return []string{"--consumer", " "}
			},
			wantCode: ExitInvalidConfiguration,
			wantErr:  "consumer name must not be empty",
		},
		"bad filter regex": {
			args: func(f fixture) []string {
				return []string{"--filter-state", "("}
			},
			wantCode: ExitInvalidConfiguration,
		},
		"watch needs a file": {
			args: func(f fixture) []string {
				return []string{"--uri", "https://contracts.example.com/p.json", "--watch"}
			},
			wantCode: ExitInvalidConfiguration,
			wantErr:  "--watch",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, provider.URL)
			args := append([]string{"verify", "--config", f.configPath}, tt.args(f)...)

			_, stderr, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ExitCodeFor(err), "err: %v", err)
			if tt.wantErr != "" {
				assert.Contains(t, stderr, tt.wantErr)
			}
		})
	}
}

func TestVerifyCmd_NoSource(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"provider:\n  name: Event API\n  base_url: http://localhost:8080\nconsumer:\n  name: Event UI\n"), 0o644))

	_, stderr, err := runCLI(t, "verify", "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitInvalidConfiguration, ExitCodeFor(err))
	assert.Contains(t, stderr, "no contract source configured")
}

func TestVerifyCmd_MissingConfigFile(t *testing.T) {
	_, stderr, err := runCLI(t, "verify", "--config", filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
	assert.Equal(t, ExitInvalidConfiguration, ExitCodeFor(err))
	assert.Contains(t, stderr, "config file not found")
	assert.Contains(t, stderr, "pactverify config init")
}

func TestVerifyCmd_WaitsForProvider(t *testing.T) {
	// Reserve a port, then leave it closed so the first probes are refused.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	f := newFixture(t, "http://"+addr)
	server := &httptest.Server{Config: &http.Server{Handler: http.NotFoundHandler()}}
	t.Cleanup(func() {
		if server.Listener != nil {
			server.Close()
		}
	})

	started := make(chan error, 1)
	go func() {
		time.Sleep(300 * time.Millisecond)
		l, err := net.Listen("tcp", addr)
		if err != nil {
			started <- err
			return
		}
		server.Listener = l
		server.Start()
		started <- nil
	}()

	_, _, err = runCLI(t, "verify", "--config", f.configPath, "--wait", "10s")
	require.NoError(t, <-started)
	// The provider answers 404 for everything, so the run gets past the wait
	// and fails on mismatches rather than on reachability.
	require.Error(t, err)
	assert.Equal(t, ExitVerificationFailed, ExitCodeFor(err))
}

func TestVerifyCmd_WaitGivesUp(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:1")

	start := time.Now()
	_, _, err := runCLI(t, "verify", "--config", f.configPath, "--wait", "500ms")
	require.Error(t, err)
	assert.Equal(t, ExitProviderUnreachable, ExitCodeFor(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestVerifyCmd_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	f := newFixture(t, slow.URL)

	_, stderr, err := runCLI(t, "verify", "--config", f.configPath, "--timeout", "200ms")
	require.Error(t, err)
	assert.Equal(t, ExitTimeout, ExitCodeFor(err))
	assert.Contains(t, stderr, "timed out")
}
