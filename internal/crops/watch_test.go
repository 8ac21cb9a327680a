package crops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "crops.geojson")
	require.NoError(t, os.WriteFile(file, []byte(`{"type":"FeatureCollection","features":[]}`), 0644))

	reloaded := make(chan struct{}, 1)
	w, err := Watch(dir, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	// Give the watcher a moment to arm before touching the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte(maizeFixture), 0644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "crops.geojson")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))

	reloads := make(chan struct{}, 16)
	w, err := Watch(dir, func() { reloads <- struct{}{} })
	require.NoError(t, err)
	defer w.Close()

	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte(maizeFixture), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}

	// The burst of writes landed within one debounce window.
	select {
	case <-reloads:
		t.Fatal("debounce collapsed the burst into more than one reload")
	case <-time.After(2 * debounceDelay):
	}
}

func TestWatchMissingPath(t *testing.T) {
	_, err := Watch(filepath.Join(t.TempDir(), "missing"), func() {})
	assert.Error(t, err)
}
