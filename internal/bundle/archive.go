// Package bundle serializes cache entries into portable on-disk bundles and
// restores them. A bundle is a directory holding manifest.json and a cache/
// subtree with one stored blob (file or copied tree) per exported entry.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ManifestVersion is the only bundle format this build reads and writes.
const ManifestVersion = 1

// Entry describes one stored artifact in a bundle manifest.
type Entry struct {
	CacheType    string            `json:"cache_type"`
	OriginalPath string            `json:"original_path"`
	StoredPath   string            `json:"stored_path"`
	IsDirectory  bool              `json:"is_directory"`
	SizeBytes    uint64            `json:"size_bytes"`
	SHA256       string            `json:"sha256,omitempty"`
	Xattrs       map[string][]byte `json:"xattrs,omitempty"`
}

// Manifest is the bundle's top-level metadata document.
type Manifest struct {
	Version   int     `json:"version"`
	CreatedAt int64   `json:"created_at"`
	Game      string  `json:"game,omitempty"`
	Entries   []Entry `json:"entries"`
}

// Export writes the given entries into a new bundle directory at dest. The
// bundle is created atomically: content lands in a partial directory that is
// renamed into place only once complete. A single entry failing to copy is
// logged and dropped from the manifest; it does not abort the bundle.
func Export(dest, game string, entries []*nvshader.CacheEntry) (*Manifest, error) {
	if fs.Exists(dest) {
		return nil, errors.Errorf("bundle %v already exists", dest)
	}

	tmp := fmt.Sprintf("%s.partial-%s", dest, uuid.NewString())
	if err := fs.MkdirAll(filepath.Join(tmp, "cache"), 0755); err != nil {
		return nil, errors.Wrap(err, "MkdirAll")
	}
	defer func() { _ = fs.RemoveAll(tmp) }()

	manifest := &Manifest{
		Version:   ManifestVersion,
		CreatedAt: nowUnix(),
		Game:      game,
	}

	for i, e := range entries {
		stored := fmt.Sprintf("%d_%s", i, filepath.Base(e.Path))
		target := filepath.Join(tmp, "cache", stored)

		me := Entry{
			CacheType:    e.Kind.Short(),
			OriginalPath: e.Path,
			StoredPath:   stored,
			IsDirectory:  e.IsDirectory,
		}

		if e.IsDirectory {
			n, err := copyTree(e.Path, target)
			if err != nil {
				log.Warnf("export %v: %v", e.Path, err)
				continue
			}
			me.SizeBytes = n
		} else {
			n, sum, err := copyFile(e.Path, target)
			if err != nil {
				log.Warnf("export %v: %v", e.Path, err)
				continue
			}
			me.SizeBytes = n
			me.SHA256 = sum
			me.Xattrs = fileXattrs(e.Path)
		}

		manifest.Entries = append(manifest.Entries, me)
	}

	if err := writeManifest(filepath.Join(tmp, "manifest.json"), manifest); err != nil {
		return nil, err
	}

	if err := fs.Rename(tmp, dest); err != nil {
		return nil, errors.Wrap(err, "Rename")
	}

	log.Infof("exported %d entries to %v", len(manifest.Entries), dest)
	return manifest, nil
}

// Import restores every entry of the bundle at dir. Entries return to their
// original paths, or to override/<basename> when override is non-empty.
func Import(dir, override string) (*Manifest, error) {
	manifest, err := ReadManifest(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, err
	}

	for _, e := range manifest.Entries {
		src := filepath.Join(dir, "cache", e.StoredPath)

		dst := e.OriginalPath
		if override != "" {
			dst = filepath.Join(override, filepath.Base(e.OriginalPath))
		}

		if err := restoreEntry(src, dst, &e); err != nil {
			return manifest, errors.Wrapf(err, "restore %v", e.StoredPath)
		}
	}

	return manifest, nil
}

// ReadManifest loads and validates a bundle manifest. Unknown versions are
// rejected before anything is restored.
func ReadManifest(path string) (*Manifest, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(nvshader.ErrInvalidManifest, err.Error())
	}

	var manifest Manifest
	if err := json.Unmarshal(buf, &manifest); err != nil {
		return nil, errors.Wrap(nvshader.ErrInvalidManifest, err.Error())
	}

	if manifest.Version != ManifestVersion {
		return nil, errors.Wrapf(nvshader.ErrUnsupportedManifest, "version %d", manifest.Version)
	}
	if manifest.Entries == nil {
		return nil, errors.Wrap(nvshader.ErrInvalidManifest, "missing entries")
	}

	return &manifest, nil
}

func restoreEntry(src, dst string, e *Entry) error {
	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrap(err, "MkdirAll")
	}

	if e.IsDirectory {
		_, err := copyTree(src, dst)
		return err
	}

	_, sum, err := copyFile(src, dst)
	if err != nil {
		return err
	}

	if e.SHA256 != "" && sum != e.SHA256 {
		log.Warnf("checksum mismatch restoring %v", dst)
	}
	restoreXattrs(dst, e.Xattrs)
	return nil
}

func writeManifest(path string, m *Manifest) error {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Marshal")
	}
	return errors.Wrap(os.WriteFile(path, append(buf, '\n'), 0644), "WriteFile")
}
