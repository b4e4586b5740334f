package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd(t *testing.T) {
	provider := eventProvider(t, "DetailsView")
	f := newFixture(t, provider.URL)

	stdout, _, err := runCLI(t, "doctor", "--config", f.configPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Configuration: loaded")
	assert.Contains(t, stdout, "✓ Provider: "+provider.URL+" is reachable")
	assert.Contains(t, stdout, "✓ Contract source: file "+f.contractPath+": 1 contract(s), 2 interaction(s)")
}

func TestDoctorCmdFailures(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:1")
	require.NoError(t, os.Remove(f.contractPath))

	stdout, stderr, err := runCLI(t, "doctor", "--config", f.configPath, "--timeout", "1s")
	require.Error(t, err)
	assert.Equal(t, ExitContractUnavailable, ExitCodeFor(err))
	assert.Contains(t, stdout, "✗ Provider:")
	assert.Contains(t, stdout, "✗ Contract source:")
	assert.Contains(t, stderr, "one or more checks failed")
}

func TestDoctorCmdBadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("log_level: loud\n"), 0o644))

	stdout, _, err := runCLI(t, "doctor", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ Configuration:")
}
