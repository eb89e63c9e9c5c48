package dxvk

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCache builds a state-cache file with the given entry size and payload
// length.
func writeCache(t *testing.T, dir, name string, entrySize uint32, payloadLen int) string {
	t.Helper()

	buf := make([]byte, HeaderSize+payloadLen)
	copy(buf[0:4], "DXVK")
	binary.LittleEndian.PutUint32(buf[4:8], 8)
	binary.LittleEndian.PutUint32(buf[8:12], entrySize)
	for i := 0; i < payloadLen; i++ {
		buf[HeaderSize+i] = byte(i)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf, 0644))
	return path
}

func TestParseHeader(t *testing.T) {
	dir := t.TempDir()

	path := writeCache(t, dir, "elden.dxvk-cache", 0x40, 64)

	hdr, count, err := ParseHeader(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), hdr.Version)
	assert.Equal(t, uint32(0x40), hdr.EntrySize)
	assert.Equal(t, uint32(1), count)
}

func TestParseHeaderOnly(t *testing.T) {
	dir := t.TempDir()

	// Exactly 12 bytes: a valid cache with an empty payload.
	path := writeCache(t, dir, "empty.dxvk-cache", 32, 0)

	_, count, err := ParseHeader(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), count)
}

func TestParseBoundaries(t *testing.T) {
	dir := t.TempDir()

	// 13 bytes with entry_size 1: payload of one full entry.
	path := writeCache(t, dir, "one.dxvk-cache", 1, 1)
	_, count, err := ParseHeader(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)

	// 14 bytes with entry_size 3: payload of 2 is not a full multiple.
	path = writeCache(t, dir, "ragged.dxvk-cache", 3, 2)
	_, _, err = ParseHeader(path)
	assert.True(t, errors.Is(err, nvshader.ErrInvalidCacheFile))
}

func TestParseRejects(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.dxvk-cache")
	require.NoError(t, os.WriteFile(short, []byte("DXVK"), 0644))
	_, _, err := ParseHeader(short)
	assert.True(t, errors.Is(err, nvshader.ErrInvalidCacheFile))

	badMagic := filepath.Join(dir, "bad.dxvk-cache")
	buf := make([]byte, HeaderSize)
	copy(buf, "VKD3")
	binary.LittleEndian.PutUint32(buf[8:12], 16)
	require.NoError(t, os.WriteFile(badMagic, buf, 0644))
	_, _, err = ParseHeader(badMagic)
	assert.True(t, errors.Is(err, nvshader.ErrInvalidCacheFile))

	zeroEntry := writeCache(t, dir, "zero.dxvk-cache", 0, 0)
	_, _, err = ParseHeader(zeroEntry)
	assert.True(t, errors.Is(err, nvshader.ErrInvalidCacheFile))
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	path := writeCache(t, dir, "rt.dxvk-cache", 16, 48)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	cache, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cache.EntryCount())

	out := filepath.Join(dir, "copy.dxvk-cache")
	require.NoError(t, cache.Write(out))

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, original, written)
}
