package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractWatcherRerunsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ui-api.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	w, err := New(path, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	// A burst of writes is coalesced into one run.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o644))
	}
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestContractWatcherReportsRunErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ui-api.json")
	w, err := New(path, 10*time.Millisecond)
	require.NoError(t, err)

	var mu sync.Mutex
	var reported []error
	w.OnError = func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(context.Context) error { return errors.New("contract missing") })
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.EqualError(t, reported[0], "contract missing")
}

func TestNewMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := New(filepath.Join(t.TempDir(), "missing", "ui-api.json"), 0)
	require.Error(t, err)
}
