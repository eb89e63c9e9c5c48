package nvshader

// GameSource identifies the installer a game was detected from.
type GameSource string

const (
	SourceSteam  GameSource = "steam"
	SourceLutris GameSource = "lutris"
	SourceHeroic GameSource = "heroic"
	SourceManual GameSource = "manual"
)

// Game is one installed game from the unified catalog. IDs carry a source
// prefix ("steam:<appid>", "lutris:<slug>", ...) so cross-source collisions
// cannot occur.
type Game struct {
	Source      GameSource `json:"source"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	InstallPath string     `json:"install_path"`

	// CacheHints are filesystem paths known to hold this game's caches. A
	// hint binds an entry to the game when it is a path prefix of the
	// entry's location.
	CacheHints []string `json:"cache_hints,omitempty"`

	Tags []string `json:"tags,omitempty"`
}
