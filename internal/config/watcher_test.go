package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewWatcherLoadsInitialSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"socketPath": "/tmp/a.sock"}`), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.Equal(t, "/tmp/a.sock", w.Current().SocketPath)
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"socketPath": "/tmp/a.sock"}`), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"socketPath": "/tmp/b.sock"}`), 0o644))

	require.Eventually(t, func() bool {
		return w.Current().SocketPath == "/tmp/b.sock"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherRetainsPreviousSnapshotOnInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"socketPath": "/tmp/a.sock"}`), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{not valid json`), 0o644))
	time.Sleep(debounceWindow + 200*time.Millisecond)

	require.Equal(t, "/tmp/a.sock", w.Current().SocketPath)
}

func TestDirOf(t *testing.T) {
	require.Equal(t, "/a/b", dirOf("/a/b/config.json"))
	require.Equal(t, ".", dirOf("config.json"))
}
