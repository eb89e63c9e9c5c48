package bundle

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// TarBundle packs an existing bundle directory into a single
// zstd-compressed tarball at outPath. Paths inside the archive are relative
// to the bundle root, so manifest.json sits at the top level.
func TarBundle(bundleDir, outPath string) error {
	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "OpenFile")
	}

	zw, err := zstd.NewWriter(out)
	if err != nil {
		_ = out.Close()
		return errors.Wrap(err, "zstd.NewWriter")
	}
	tw := tar.NewWriter(zw)

	err = filepath.WalkDir(bundleDir, func(path string, d os.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}

		rel, rerr := filepath.Rel(bundleDir, path)
		if rerr != nil {
			return rerr
		}
		if rel == "." {
			return nil
		}

		fi, ierr := d.Info()
		if ierr != nil {
			return ierr
		}

		hdr, herr := tar.FileInfoHeader(fi, "")
		if herr != nil {
			return herr
		}
		hdr.Name = rel
		if d.IsDir() {
			hdr.Name += "/"
		}

		if terr := tw.WriteHeader(hdr); terr != nil {
			return terr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		f, oerr := os.Open(path)
		if oerr != nil {
			return oerr
		}
		_, cerr := io.Copy(tw, f)
		_ = f.Close()
		return cerr
	})

	if err == nil {
		err = tw.Close()
	} else {
		_ = tw.Close()
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}

	return errors.Wrap(err, "TarBundle")
}

// UntarBundle unpacks a tarball produced by TarBundle into destDir, which
// must not already exist. Entries escaping the destination are rejected.
func UntarBundle(inPath, destDir string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return errors.Wrap(err, "Open")
	}
	defer func() { _ = in.Close() }()

	zr, err := zstd.NewReader(in)
	if err != nil {
		return errors.Wrap(err, "zstd.NewReader")
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return errors.Wrap(err, "MkdirAll")
	}

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "Next")
		}

		name := filepath.Clean(hdr.Name)
		if name == ".." || strings.HasPrefix(name, "../") || filepath.IsAbs(name) {
			return errors.Errorf("tar entry %q escapes bundle", hdr.Name)
		}
		target := filepath.Join(destDir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrap(err, "MkdirAll")
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrap(err, "MkdirAll")
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return errors.Wrap(err, "OpenFile")
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return errors.Wrap(err, "Copy")
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "Close")
			}
		}
	}
}

// ExportTar exports entries into a temporary bundle directory and packs it
// into one compressed file at outPath.
func ExportTar(outPath, game string, entries []*nvshader.CacheEntry) (*Manifest, error) {
	tmp := outPath + ".bundle-" + uuid.NewString()
	defer func() { _ = os.RemoveAll(tmp) }()

	manifest, err := Export(tmp, game, entries)
	if err != nil {
		return nil, err
	}

	if err := TarBundle(tmp, outPath); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ImportTar unpacks a compressed bundle to a temporary directory and runs
// the regular importer over it.
func ImportTar(inPath, override string) (*Manifest, error) {
	tmp := inPath + ".unpack-" + uuid.NewString()
	defer func() { _ = os.RemoveAll(tmp) }()

	if err := UntarBundle(inPath, tmp); err != nil {
		return nil, err
	}
	return Import(tmp, override)
}
