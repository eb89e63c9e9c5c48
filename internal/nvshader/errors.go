package nvshader

import "github.com/pkg/errors"

// Closed failure kinds surfaced by the cache engine. Callers match with
// errors.Is; wrapping adds context without losing the kind.
var (
	// ErrNoHomeDir is returned when $HOME is unset.
	ErrNoHomeDir = errors.New("HOME is not set")

	// ErrInvalidCacheFile is returned when a typed cache file's header or
	// payload does not meet the format invariants.
	ErrInvalidCacheFile = errors.New("invalid cache file")

	// ErrCacheTooLarge is returned when a cache payload exceeds what can be
	// held in memory on this platform.
	ErrCacheTooLarge = errors.New("cache file too large")

	// ErrInvalidManifest is returned when a bundle manifest is missing a
	// required field or cannot be decoded.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrUnsupportedManifest is returned for manifest versions this build
	// does not understand.
	ErrUnsupportedManifest = errors.New("unsupported manifest version")

	// ErrInvalidPackage is returned when a package's entry list is missing
	// or has the wrong shape.
	ErrInvalidPackage = errors.New("invalid package")

	// ErrFossilizeNotFound is returned when no fossilize_replay binary
	// could be located.
	ErrFossilizeNotFound = errors.New("fossilize_replay binary not found")

	// ErrGameNotFound is returned by per-game operations when no entry is
	// bound to the requested game.
	ErrGameNotFound = errors.New("game not found")

	// Socket-layer failures of the P2P node.
	ErrSocketCreateFailed = errors.New("socket creation failed")
	ErrBindFailed         = errors.New("bind failed")
	ErrListenFailed       = errors.New("listen failed")
	ErrConnectFailed      = errors.New("connect failed")
	ErrSendFailed         = errors.New("send failed")

	// ErrInvalidAddress is returned for a malformed dotted-quad address.
	ErrInvalidAddress = errors.New("invalid address")
)
