package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitRefresh(t *testing.T, w *Watcher, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case dir := <-w.Refresh():
			if dir == want {
				return
			}
		case <-deadline:
			t.Fatalf("no refresh for %s", want)
		}
	}
}

func TestChangeTriggersRefresh(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	w.Add(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))
	waitRefresh(t, w, dir)
}

func TestBurstCollapsesToOneRefresh(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	w.Add(dir)
	for i := 0; i < 20; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte{byte(i)}, 0o644))
	}
	waitRefresh(t, w, dir)

	// The burst settled into the one refresh already consumed.
	select {
	case dir := <-w.Refresh():
		t.Fatalf("unexpected second refresh for %s", dir)
	case <-time.After(2 * debounce):
	}
}

func TestRemoveStopsNotifications(t *testing.T) {
	dir := t.TempDir()
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	w.Add(dir)
	w.Add(dir)
	w.Remove(dir)
	// Still refcounted once.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	waitRefresh(t, w, dir)

	w.Remove(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))
	select {
	case got := <-w.Refresh():
		t.Fatalf("refresh after removal: %s", got)
	case <-time.After(2 * debounce):
	}
}

func TestUnwatchableDirectoryIsSkipped(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	w.Add(filepath.Join(t.TempDir(), "missing"))
	assert.NotPanics(t, func() { w.Remove(filepath.Join(t.TempDir(), "missing")) })
}
