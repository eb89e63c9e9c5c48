package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GhostKellz/nvshader/internal/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain polls until the predicate holds or the deadline passes.
func drain(t *testing.T, w *Watcher, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w.Poll()
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, pred(), "expected events did not arrive")
}

func TestWatcherClassifiesEvents(t *testing.T) {
	dir := t.TempDir()

	w, err := New(&paths.CachePaths{Dxvk: dir})
	require.NoError(t, err)
	defer w.Stop()

	var events []Event
	w.OnEvent(func(ev Event) { events = append(events, ev) })

	path := filepath.Join(dir, "game.dxvk-cache")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString("cache data")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	drain(t, w, func() bool {
		c := w.Counters()
		return c.Created > 0 && c.CompilationEnds > 0
	})

	types := map[EventType]bool{}
	for _, ev := range events {
		assert.Equal(t, path, ev.Path)
		types[ev.Type] = true
	}
	assert.True(t, types[Created], "create must be seen")
	assert.True(t, types[CompilationEnd], "close-on-write must classify as compilation end")

	require.NoError(t, os.Remove(path))
	drain(t, w, func() bool { return w.Counters().Deleted > 0 })
}

func TestWatcherRequiresDirectories(t *testing.T) {
	_, err := New(&paths.CachePaths{})
	assert.Error(t, err)
}

func TestEventTypeStrings(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "compilation_end", CompilationEnd.String())
}
