package bundle

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
	"github.com/pkg/xattr"
	log "github.com/sirupsen/logrus"
)

// copyBufSize is the chunk size for file copies, matching the transfer
// protocol's chunking.
const copyBufSize = 64 * 1024

// copyFile copies src to dst in fixed-size chunks and returns the number of
// bytes written and the hex SHA-256 of the content.
func copyFile(src, dst string) (uint64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", errors.Wrap(err, "Open")
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, "", errors.Wrap(err, "OpenFile")
	}

	h := sha256.New()
	buf := make([]byte, copyBufSize)
	var written uint64

	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				_ = out.Close()
				return written, "", errors.Wrap(werr, "Write")
			}
			_, _ = h.Write(buf[:n])
			written += uint64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = out.Close()
			return written, "", errors.Wrap(rerr, "Read")
		}
	}

	if err := out.Close(); err != nil {
		return written, "", errors.Wrap(err, "Close")
	}

	return written, hex.EncodeToString(h.Sum(nil)), nil
}

// copyTree recursively copies the directory tree at src to dst and returns
// the byte total of the copied files.
func copyTree(src, dst string) (uint64, error) {
	var total uint64

	err := filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		n, _, err := copyFile(path, target)
		total += n
		return err
	})

	return total, err
}

// fileXattrs captures the user-namespace extended attributes of path.
// Attribute listing failures are best effort and yield nil.
func fileXattrs(path string) map[string][]byte {
	names, err := xattr.LList(path)
	if err != nil || len(names) == 0 {
		return nil
	}

	attrs := make(map[string][]byte)
	for _, name := range names {
		val, err := xattr.LGet(path, name)
		if err != nil {
			continue
		}
		attrs[name] = val
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// restoreXattrs reapplies captured attributes, logging failures instead of
// surfacing them.
func restoreXattrs(path string, attrs map[string][]byte) {
	for name, val := range attrs {
		if err := xattr.LSet(path, name, val); err != nil {
			log.Debugf("xattr %v on %v: %v", name, path, err)
		}
	}
}
