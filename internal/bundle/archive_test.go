package bundle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return time.Unix(1700000000, 0) }
	t.Cleanup(func() { timeNow = prev })
}

// makeCacheFile creates a file entry with distinctive content.
func makeCacheFile(t *testing.T, dir, name string, content []byte) *nvshader.CacheEntry {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return &nvshader.CacheEntry{
		Path:      path,
		Kind:      nvshader.KindDXVK,
		SizeBytes: uint64(len(content)),
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	fixedClock(t)
	src := t.TempDir()
	work := t.TempDir()

	fileContent := []byte("dxvk state cache payload")
	file := makeCacheFile(t, src, "elden.dxvk-cache", fileContent)

	treeRoot := filepath.Join(src, "570")
	require.NoError(t, os.MkdirAll(filepath.Join(treeRoot, "fozpipelinesv6"), 0755))
	treeContent := []byte("fossilize blob")
	require.NoError(t, os.WriteFile(filepath.Join(treeRoot, "fozpipelinesv6", "x.foz"), treeContent, 0644))
	tree := &nvshader.CacheEntry{
		Path:        treeRoot,
		Kind:        nvshader.KindFossilize,
		SizeBytes:   uint64(len(treeContent)),
		IsDirectory: true,
	}

	dest := filepath.Join(work, "bundle")
	manifest, err := Export(dest, "steam:570", []*nvshader.CacheEntry{file, tree})
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 2)

	assert.Equal(t, "0_elden.dxvk-cache", manifest.Entries[0].StoredPath)
	assert.Equal(t, "dxvk", manifest.Entries[0].CacheType)
	assert.Equal(t, uint64(len(fileContent)), manifest.Entries[0].SizeBytes)
	assert.Equal(t, "1_570", manifest.Entries[1].StoredPath)
	assert.True(t, manifest.Entries[1].IsDirectory)

	// Re-measured sizes must match the manifest.
	for _, e := range manifest.Entries {
		stored := filepath.Join(dest, "cache", e.StoredPath)
		if e.IsDirectory {
			assert.Equal(t, e.SizeBytes, fs.DirSize(stored))
		} else {
			fi, err := os.Stat(stored)
			require.NoError(t, err)
			assert.Equal(t, e.SizeBytes, uint64(fi.Size()))
		}
	}

	// Wipe the originals, restore, compare bytes.
	require.NoError(t, os.Remove(file.Path))
	require.NoError(t, os.RemoveAll(treeRoot))

	_, err = Import(dest, "")
	require.NoError(t, err)

	restored, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, fileContent, restored)

	restoredTree, err := os.ReadFile(filepath.Join(treeRoot, "fozpipelinesv6", "x.foz"))
	require.NoError(t, err)
	assert.Equal(t, treeContent, restoredTree)
}

func TestImportWithOverride(t *testing.T) {
	fixedClock(t)
	src := t.TempDir()
	work := t.TempDir()

	file := makeCacheFile(t, src, "a.dxvk-cache", []byte("abc"))
	dest := filepath.Join(work, "bundle")
	_, err := Export(dest, "", []*nvshader.CacheEntry{file})
	require.NoError(t, err)

	override := filepath.Join(work, "restore-here")
	require.NoError(t, os.MkdirAll(override, 0755))

	_, err = Import(dest, override)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(override, "a.dxvk-cache"))
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	work := t.TempDir()
	dir := filepath.Join(work, "bundle")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cache"), 0755))

	manifest := map[string]any{
		"version":    2,
		"created_at": 0,
		"entries": []map[string]any{{
			"cache_type":    "dxvk",
			"original_path": filepath.Join(work, "out.dxvk-cache"),
			"stored_path":   "0_out.dxvk-cache",
			"is_directory":  false,
			"size_bytes":    3,
		}},
	}
	buf, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), buf, 0644))

	_, err = Import(dir, "")
	assert.True(t, errors.Is(err, nvshader.ErrUnsupportedManifest))
	assert.NoFileExists(t, filepath.Join(work, "out.dxvk-cache"), "nothing may be written")
}

func TestImportRejectsMissingEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"),
		[]byte(`{"version": 1, "created_at": 0}`), 0644))

	_, err := Import(dir, "")
	assert.True(t, errors.Is(err, nvshader.ErrInvalidManifest))
}

func TestExportSkipsBrokenEntry(t *testing.T) {
	fixedClock(t)
	src := t.TempDir()
	work := t.TempDir()

	good := makeCacheFile(t, src, "good.dxvk-cache", []byte("ok"))
	missing := &nvshader.CacheEntry{Path: filepath.Join(src, "gone.dxvk-cache"), Kind: nvshader.KindDXVK}

	manifest, err := Export(filepath.Join(work, "bundle"), "", []*nvshader.CacheEntry{missing, good})
	require.NoError(t, err, "one broken entry must not abort the bundle")
	require.Len(t, manifest.Entries, 1)
	assert.Equal(t, good.Path, manifest.Entries[0].OriginalPath)
}

func TestExportRefusesExistingDest(t *testing.T) {
	work := t.TempDir()
	dest := filepath.Join(work, "bundle")
	require.NoError(t, os.MkdirAll(dest, 0755))

	_, err := Export(dest, "", nil)
	assert.Error(t, err)
}
