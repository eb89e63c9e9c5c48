// Package dxvk reads and writes the DXVK state-cache file format, shared by
// DXVK and vkd3d-proton. The layout is a fixed 12-byte little-endian header
// followed by a payload of equally sized shader entries:
//
//	offset 0:  magic[4]    ASCII "DXVK"
//	offset 4:  version     u32le
//	offset 8:  entry_size  u32le
//	offset 12: payload     entry_size * N bytes
package dxvk

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
)

// HeaderSize is the fixed size of the state-cache header in bytes.
const HeaderSize = 12

var magic = []byte("DXVK")

// Header is the decoded state-cache header.
type Header struct {
	Version   uint32
	EntrySize uint32
}

// StateCache is a fully loaded state-cache file.
type StateCache struct {
	Header  Header
	Payload []byte
}

// EntryCount returns the number of shader entries in the payload.
func (c *StateCache) EntryCount() uint32 {
	return uint32(len(c.Payload)) / c.Header.EntrySize
}

// ParseHeader reads and validates the header of the file at path, returning
// the header and the number of payload entries without loading the payload.
func ParseHeader(path string) (*Header, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, "Open")
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, 0, errors.Wrap(err, "Stat")
	}

	hdr, err := readHeader(f)
	if err != nil {
		return nil, 0, err
	}

	count, err := payloadEntries(hdr, fi.Size())
	if err != nil {
		return nil, 0, err
	}

	return hdr, count, nil
}

// Load reads the whole state-cache file at path.
func Load(path string) (*StateCache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open")
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "Stat")
	}

	hdr, err := readHeader(f)
	if err != nil {
		return nil, err
	}

	if _, err := payloadEntries(hdr, fi.Size()); err != nil {
		return nil, err
	}

	payloadSize := fi.Size() - HeaderSize
	if uint64(payloadSize) > uint64(math.MaxInt32) {
		return nil, errors.Wrapf(nvshader.ErrCacheTooLarge, "%s: payload is %d bytes", path, payloadSize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(f, payload); err != nil {
		return nil, errors.Wrap(err, "ReadFull")
	}

	return &StateCache{Header: *hdr, Payload: payload}, nil
}

// Write emits the state cache to path, byte-identical to the file it was
// loaded from.
func (c *StateCache) Write(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "OpenFile")
	}

	var hdr [HeaderSize]byte
	copy(hdr[0:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:8], c.Header.Version)
	binary.LittleEndian.PutUint32(hdr[8:12], c.Header.EntrySize)

	if _, err := f.Write(hdr[:]); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "Write")
	}
	if _, err := f.Write(c.Payload); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "Write")
	}

	return errors.Wrap(f.Close(), "Close")
}

// Validate re-checks the header and payload divisibility of the file at
// path without loading the payload.
func Validate(path string) error {
	_, _, err := ParseHeader(path)
	return err
}

func readHeader(r io.Reader) (*Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, errors.Wrap(nvshader.ErrInvalidCacheFile, "file shorter than header")
	}

	if !bytes.Equal(buf[0:4], magic) {
		return nil, errors.Wrap(nvshader.ErrInvalidCacheFile, "bad magic")
	}

	hdr := &Header{
		Version:   binary.LittleEndian.Uint32(buf[4:8]),
		EntrySize: binary.LittleEndian.Uint32(buf[8:12]),
	}

	if hdr.EntrySize == 0 {
		return nil, errors.Wrap(nvshader.ErrInvalidCacheFile, "zero entry size")
	}

	return hdr, nil
}

// payloadEntries validates that the payload is a whole multiple of the entry
// size and returns the entry count.
func payloadEntries(hdr *Header, fileSize int64) (uint32, error) {
	if fileSize < HeaderSize {
		return 0, errors.Wrap(nvshader.ErrInvalidCacheFile, "file shorter than header")
	}

	payload := uint64(fileSize - HeaderSize)
	if payload%uint64(hdr.EntrySize) != 0 {
		return 0, errors.Wrapf(nvshader.ErrInvalidCacheFile,
			"payload size %d not a multiple of entry size %d", payload, hdr.EntrySize)
	}

	return uint32(payload / uint64(hdr.EntrySize)), nil
}
