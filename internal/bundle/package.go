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

// PackageExt is the directory suffix of a shareable cache package.
const PackageExt = ".nvcache"

// PackageEntry is one stored artifact in a package manifest. Unlike plain
// bundle entries, the kind travels under "type".
type PackageEntry struct {
	Type         string            `json:"type"`
	OriginalPath string            `json:"original_path"`
	StoredPath   string            `json:"stored_path"`
	IsDirectory  bool              `json:"is_directory"`
	SizeBytes    uint64            `json:"size_bytes"`
	SHA256       string            `json:"sha256,omitempty"`
	Xattrs       map[string][]byte `json:"xattrs,omitempty"`
}

// PackageManifest augments the bundle manifest with the producing GPU so
// receivers can check compatibility before restoring anything.
type PackageManifest struct {
	Version   int                  `json:"version"`
	CreatedAt int64                `json:"created_at"`
	Game      string               `json:"game,omitempty"`
	GPU       *nvshader.GpuProfile `json:"gpu,omitempty"`
	Entries   []PackageEntry       `json:"entries"`
}

// ExportPackage writes a .nvcache package directory at dest, stamping it
// with the local GPU profile. The layout matches a plain bundle.
func ExportPackage(dest, game string, gpu *nvshader.GpuProfile, entries []*nvshader.CacheEntry) (*PackageManifest, error) {
	if fs.Exists(dest) {
		return nil, errors.Errorf("package %v already exists", dest)
	}

	tmp := fmt.Sprintf("%s.partial-%s", dest, uuid.NewString())
	if err := fs.MkdirAll(filepath.Join(tmp, "cache"), 0755); err != nil {
		return nil, errors.Wrap(err, "MkdirAll")
	}
	defer func() { _ = fs.RemoveAll(tmp) }()

	manifest := &PackageManifest{
		Version:   ManifestVersion,
		CreatedAt: nowUnix(),
		Game:      game,
		GPU:       gpu,
	}

	for i, e := range entries {
		stored := fmt.Sprintf("%d_%s", i, filepath.Base(e.Path))
		target := filepath.Join(tmp, "cache", stored)

		pe := PackageEntry{
			Type:         e.Kind.Short(),
			OriginalPath: e.Path,
			StoredPath:   stored,
			IsDirectory:  e.IsDirectory,
		}

		if e.IsDirectory {
			n, err := copyTree(e.Path, target)
			if err != nil {
				log.Warnf("package %v: %v", e.Path, err)
				continue
			}
			pe.SizeBytes = n
		} else {
			n, sum, err := copyFile(e.Path, target)
			if err != nil {
				log.Warnf("package %v: %v", e.Path, err)
				continue
			}
			pe.SizeBytes = n
			pe.SHA256 = sum
			pe.Xattrs = fileXattrs(e.Path)
		}

		manifest.Entries = append(manifest.Entries, pe)
	}

	if err := writePackageManifest(filepath.Join(tmp, "manifest.json"), manifest); err != nil {
		return nil, err
	}

	if err := fs.Rename(tmp, dest); err != nil {
		return nil, errors.Wrap(err, "Rename")
	}

	log.Infof("packaged %d entries to %v", len(manifest.Entries), dest)
	return manifest, nil
}

// ImportPackage restores a .nvcache package. An incompatible producing GPU
// is a warning, not a failure: the caches will simply be rebuilt by the
// driver if they do not fit.
func ImportPackage(dir, override string, local *nvshader.GpuProfile) (*PackageManifest, error) {
	manifest, err := ReadPackageManifest(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, err
	}

	if local != nil && manifest.GPU != nil && !local.Compatible(manifest.GPU) {
		log.Warnf("package was produced on %v (%v), local GPU is %v (%v); caches may be rebuilt",
			manifest.GPU.Architecture, manifest.GPU.DriverVersion,
			local.Architecture, local.DriverVersion)
	}

	for _, e := range manifest.Entries {
		src := filepath.Join(dir, "cache", e.StoredPath)

		dst := e.OriginalPath
		if override != "" {
			dst = filepath.Join(override, filepath.Base(e.OriginalPath))
		}

		entry := Entry{
			IsDirectory: e.IsDirectory,
			SHA256:      e.SHA256,
			Xattrs:      e.Xattrs,
		}
		if err := restoreEntry(src, dst, &entry); err != nil {
			return manifest, errors.Wrapf(err, "restore %v", e.StoredPath)
		}
	}

	return manifest, nil
}

// ReadPackageManifest loads and validates a package manifest.
func ReadPackageManifest(path string) (*PackageManifest, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(nvshader.ErrInvalidPackage, err.Error())
	}

	var manifest PackageManifest
	if err := json.Unmarshal(buf, &manifest); err != nil {
		return nil, errors.Wrap(nvshader.ErrInvalidPackage, err.Error())
	}

	if manifest.Version != ManifestVersion {
		return nil, errors.Wrapf(nvshader.ErrUnsupportedManifest, "version %d", manifest.Version)
	}
	if manifest.Entries == nil {
		return nil, errors.Wrap(nvshader.ErrInvalidPackage, "missing entries")
	}

	return &manifest, nil
}

func writePackageManifest(path string, m *PackageManifest) error {
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Marshal")
	}
	return errors.Wrap(os.WriteFile(path, append(buf, '\n'), 0644), "WriteFile")
}
