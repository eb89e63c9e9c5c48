package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSize(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 28), 0644))

	// Symlinks do not count.
	require.NoError(t, os.Symlink(filepath.Join(dir, "a"), filepath.Join(dir, "link")))

	assert.Equal(t, uint64(128), DirSize(dir))
	assert.Equal(t, uint64(2), FileCount(dir))
}

func TestDirSizeEmpty(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, uint64(0), DirSize(dir))
	assert.Equal(t, uint64(0), FileCount(dir))
}

func TestDirSizeMissing(t *testing.T) {
	assert.Equal(t, uint64(0), DirSize(filepath.Join(t.TempDir(), "nope")))
}
