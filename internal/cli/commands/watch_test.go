package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatchFile(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := filepath.Join(dir, "draft.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 50*time.Millisecond, slog.New(slog.DiscardHandler), func() {
			changes <- struct{}{}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("{}"), 0600))
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte(`{"fields":[]}`), 0600))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	// The burst is reported once and other files are ignored.
	time.Sleep(250 * time.Millisecond)
	assert.Empty(t, changes)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not return after cancel")
	}
}

func TestWatchFileMissingDir(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "missing", "draft.json"), time.Millisecond, slog.New(slog.DiscardHandler), func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}
