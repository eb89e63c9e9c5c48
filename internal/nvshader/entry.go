package nvshader

import "time"

// CacheEntry is one discovered cache artifact, file or directory.
type CacheEntry struct {
	Path      string
	Kind      CacheKind
	SizeBytes uint64

	// ModTime is the artifact's modification time in nanoseconds since the
	// unix epoch.
	ModTime int64

	// Association fields, empty until Associate binds the entry to a game.
	GameName   string
	GameID     string
	GameSource GameSource

	// EntryCount is the number of shader records in a typed cache file.
	// Only meaningful for file entries of kind dxvk or vkd3d.
	EntryCount uint32

	IsDirectory bool
}

// ModifiedAt returns the modification time as a time.Time.
func (e *CacheEntry) ModifiedAt() time.Time {
	return time.Unix(0, e.ModTime)
}

// Associated reports whether the entry is bound to a game.
func (e *CacheEntry) Associated() bool {
	return e.GameName != ""
}
