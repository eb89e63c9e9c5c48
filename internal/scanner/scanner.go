// Package scanner walks the resolved cache roots and produces cache entries.
// Scanning is best effort: unreadable items are reported through the Error
// callback and skipped, they never abort the walk.
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/GhostKellz/nvshader/internal/dxvk"
	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/GhostKellz/nvshader/internal/paths"
	log "github.com/sirupsen/logrus"
)

// ErrorFunc is called when an error occurs while scanning a single item.
// When nil is returned, the scanner continues, otherwise it stops the walk
// of the current root.
type ErrorFunc func(item string, err error) error

// Scanner enumerates cache artifacts under a set of resolved roots.
type Scanner struct {
	Paths *paths.CachePaths

	// Error is invoked for per-item failures. The default logs and
	// continues.
	Error ErrorFunc
}

// New returns a Scanner over the given cache roots.
func New(p *paths.CachePaths) *Scanner {
	return &Scanner{
		Paths: p,
		Error: func(item string, err error) error {
			log.Warnf("scan %v: %v", item, err)
			return nil
		},
	}
}

// Scan visits every resolved root and returns the discovered entries. Paths
// are unique within the returned set; a root reachable through two resolver
// slots contributes its entries once.
func (s *Scanner) Scan() []*nvshader.CacheEntry {
	var entries []*nvshader.CacheEntry
	seen := make(map[string]struct{})

	add := func(e *nvshader.CacheEntry) {
		if e == nil || e.SizeBytes == 0 {
			return
		}
		if _, ok := seen[e.Path]; ok {
			return
		}
		seen[e.Path] = struct{}{}
		entries = append(entries, e)
	}

	if s.Paths.Dxvk != "" {
		s.scanStateCaches(s.Paths.Dxvk, nvshader.KindDXVK, add)
	}
	if s.Paths.Vkd3d != "" {
		s.scanStateCaches(s.Paths.Vkd3d, nvshader.KindVKD3D, add)
	}
	if s.Paths.Fossilize != "" {
		s.scanFossilize(s.Paths.Fossilize, add)
	}
	if s.Paths.Nvidia != "" {
		s.scanNvidia(s.Paths.Nvidia, add)
	}
	if s.Paths.Mesa != "" {
		s.scanMesa(s.Paths.Mesa, add)
	}
	if s.Paths.Steam != "" {
		s.scanSteam(s.Paths.Steam, add)
	}

	log.Debugf("scan found %d entries", len(entries))
	return entries
}

// scanStateCaches walks a DXVK or vkd3d root for *.dxvk-cache files.
func (s *Scanner) scanStateCaches(root string, kind nvshader.CacheKind, add func(*nvshader.CacheEntry)) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return s.Error(path, err)
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), kind.Ext()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return s.Error(path, err)
		}

		_, count, err := dxvk.ParseHeader(path)
		if err != nil {
			return s.Error(path, err)
		}

		add(&nvshader.CacheEntry{
			Path:       path,
			Kind:       kind,
			SizeBytes:  uint64(fi.Size()),
			ModTime:    fi.ModTime().UnixNano(),
			GameName:   strings.TrimSuffix(d.Name(), kind.Ext()),
			EntryCount: count,
		})
		return nil
	})
}

// scanFossilize inspects the immediate children of the Fossilize root:
// *.foz files become file entries, non-empty subdirectories become
// directory entries.
func (s *Scanner) scanFossilize(root string, add func(*nvshader.CacheEntry)) {
	items, err := os.ReadDir(root)
	if err != nil {
		_ = s.Error(root, err)
		return
	}

	for _, d := range items {
		path := filepath.Join(root, d.Name())

		if d.IsDir() {
			size := fs.DirSize(path)
			if size == 0 {
				continue
			}
			mt := dirModTime(path)
			add(&nvshader.CacheEntry{
				Path:        path,
				Kind:        nvshader.KindFossilize,
				SizeBytes:   size,
				ModTime:     mt,
				GameName:    "Fossilize Cache " + d.Name(),
				IsDirectory: true,
			})
			continue
		}

		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), ".foz") {
			continue
		}
		fi, err := d.Info()
		if err != nil {
			if s.Error(path, err) != nil {
				return
			}
			continue
		}
		add(&nvshader.CacheEntry{
			Path:      path,
			Kind:      nvshader.KindFossilize,
			SizeBytes: uint64(fi.Size()),
			ModTime:   fi.ModTime().UnixNano(),
			GameName:  strings.TrimSuffix(d.Name(), ".foz"),
		})
	}
}

// scanNvidia emits one entry per non-empty subdirectory of the compute cache
// root. When the root has content but no such subdirectory, a single
// aggregate entry covers the root itself.
func (s *Scanner) scanNvidia(root string, add func(*nvshader.CacheEntry)) {
	items, err := os.ReadDir(root)
	if err != nil {
		_ = s.Error(root, err)
		return
	}

	found := false
	for _, d := range items {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(root, d.Name())
		size := fs.DirSize(path)
		if size == 0 {
			continue
		}
		found = true
		add(&nvshader.CacheEntry{
			Path:        path,
			Kind:        nvshader.KindNvidia,
			SizeBytes:   size,
			ModTime:     dirModTime(path),
			GameName:    "Compute Cache " + d.Name(),
			IsDirectory: true,
		})
	}

	if !found {
		if size := fs.DirSize(root); size > 0 {
			add(&nvshader.CacheEntry{
				Path:        root,
				Kind:        nvshader.KindNvidia,
				SizeBytes:   size,
				ModTime:     dirModTime(root),
				GameName:    "NVIDIA Driver Cache",
				IsDirectory: true,
			})
		}
	}
}

// scanMesa emits a single aggregate entry for the Mesa shader cache.
func (s *Scanner) scanMesa(root string, add func(*nvshader.CacheEntry)) {
	size := fs.DirSize(root)
	if size == 0 {
		return
	}
	add(&nvshader.CacheEntry{
		Path:        root,
		Kind:        nvshader.KindMesa,
		SizeBytes:   size,
		ModTime:     dirModTime(root),
		GameName:    "Mesa Shader Cache",
		IsDirectory: true,
	})
}

// scanSteam emits one Fossilize entry per non-empty per-app shadercache
// directory.
func (s *Scanner) scanSteam(root string, add func(*nvshader.CacheEntry)) {
	items, err := os.ReadDir(root)
	if err != nil {
		_ = s.Error(root, err)
		return
	}

	for _, d := range items {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(root, d.Name())
		size := fs.DirSize(path)
		if size == 0 {
			continue
		}
		add(&nvshader.CacheEntry{
			Path:        path,
			Kind:        nvshader.KindFossilize,
			SizeBytes:   size,
			ModTime:     dirModTime(path),
			GameName:    "Steam AppID " + d.Name(),
			IsDirectory: true,
		})
	}
}

// dirModTime returns the directory's own modification time in nanoseconds,
// or zero when it cannot be determined.
func dirModTime(path string) int64 {
	fi, err := fs.Stat(path)
	if err != nil {
		return 0
	}
	return fi.ModTime().UnixNano()
}
