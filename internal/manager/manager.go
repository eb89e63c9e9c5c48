// Package manager owns the scanned entry set and applies the retention,
// validation and association policies to it.
package manager

import (
	"time"

	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/GhostKellz/nvshader/internal/paths"
	"github.com/GhostKellz/nvshader/internal/scanner"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Options configures a Manager.
type Options struct {
	// Paths are the resolved cache roots. When nil, New resolves them.
	Paths *paths.CachePaths

	// Now is the clock used by retention policies. Defaults to time.Now.
	Now func() time.Time
}

// Manager holds the entries of the most recent scan and mutates them (and
// their on-disk artifacts) according to policy.
type Manager struct {
	paths   *paths.CachePaths
	now     func() time.Time
	entries []*nvshader.CacheEntry
}

// New creates a Manager. When opts.Paths is nil the cache roots are resolved
// from the environment.
func New(opts Options) (*Manager, error) {
	p := opts.Paths
	if p == nil {
		var err error
		p, err = paths.Resolve(paths.Config{})
		if err != nil {
			return nil, err
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{paths: p, now: now}, nil
}

// Paths returns the resolved cache roots.
func (m *Manager) Paths() *paths.CachePaths {
	return m.paths
}

// Entries returns the current entry set. The slice is owned by the manager;
// callers must not retain it across mutating calls.
func (m *Manager) Entries() []*nvshader.CacheEntry {
	return m.entries
}

// Scan discards the previous entry set and re-enumerates every cache root.
func (m *Manager) Scan() int {
	s := scanner.New(m.paths)
	m.entries = append(m.entries[:0], s.Scan()...)
	return len(m.entries)
}

// Stats aggregates the current entry set.
func (m *Manager) Stats() nvshader.CacheStats {
	return nvshader.AggregateStats(m.entries)
}

// CleanOlderThan deletes every entry whose modification time is more than
// the given number of days before now, removing the on-disk artifact and the
// entry. It returns the number of entries removed.
func (m *Manager) CleanOlderThan(days uint32) (int, error) {
	cutoff := m.now().UnixNano() - int64(days)*86_400*1e9

	removed := 0
	kept := m.entries[:0]
	var firstErr error

	for _, e := range m.entries {
		if e.ModTime >= cutoff {
			kept = append(kept, e)
			continue
		}
		if err := deleteArtifact(e); err != nil {
			log.Warnf("delete %v: %v", e.Path, err)
			if firstErr == nil {
				firstErr = err
			}
			kept = append(kept, e)
			continue
		}
		removed++
	}

	m.entries = kept
	return removed, firstErr
}

// ShrinkToSize deletes oldest entries first until the total size is at most
// maxBytes, returning the number of entries removed. Ties on modification
// time remove the earlier entry in list order first. The last remaining
// entry is never deleted just because it alone exceeds the limit; a cache
// that large is still better than no cache.
func (m *Manager) ShrinkToSize(maxBytes uint64) (int, error) {
	total := m.Stats().TotalSizeBytes
	removed := 0

	for total > maxBytes && len(m.entries) > 1 {
		oldest := 0
		for i, e := range m.entries {
			if e.ModTime < m.entries[oldest].ModTime {
				oldest = i
			}
		}

		victim := m.entries[oldest]
		if err := deleteArtifact(victim); err != nil {
			return removed, errors.Wrapf(err, "delete %v", victim.Path)
		}

		total -= victim.SizeBytes
		m.entries = append(m.entries[:oldest], m.entries[oldest+1:]...)
		removed++
	}

	return removed, nil
}

// ClearGameCache deletes every entry bound to the given game id. It returns
// ErrGameNotFound when no entry matches.
func (m *Manager) ClearGameCache(gameID string) (int, error) {
	removed := 0
	kept := m.entries[:0]

	for _, e := range m.entries {
		if e.GameID != gameID {
			kept = append(kept, e)
			continue
		}
		if err := deleteArtifact(e); err != nil {
			log.Warnf("delete %v: %v", e.Path, err)
			kept = append(kept, e)
			continue
		}
		removed++
	}

	m.entries = kept
	if removed == 0 {
		return 0, nvshader.ErrGameNotFound
	}
	return removed, nil
}

// deleteArtifact removes the entry's on-disk artifact: a recursive tree
// delete for directories, a single unlink otherwise.
func deleteArtifact(e *nvshader.CacheEntry) error {
	if e.IsDirectory {
		return fs.RemoveAll(e.Path)
	}
	return fs.Remove(e.Path)
}
