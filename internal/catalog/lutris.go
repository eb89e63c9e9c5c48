package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// LutrisDetector enumerates games from Lutris' per-game YAML configs.
type LutrisDetector struct {
	Home string
}

func (d *LutrisDetector) Name() string { return "lutris" }

// lutrisGame holds the recognized top-level fields of a Lutris game config.
// Everything else in the document is ignored.
type lutrisGame struct {
	Name      string `yaml:"name"`
	Slug      string `yaml:"slug"`
	Directory string `yaml:"directory"`
	Cache     string `yaml:"cache"`
	Runner    string `yaml:"runner"`
}

func (d *LutrisDetector) Detect() ([]nvshader.Game, error) {
	dirs := []string{
		filepath.Join(d.Home, ".local/share/lutris/games"),
		filepath.Join(d.Home, ".config/lutris/games"),
	}

	var games []nvshader.Game
	for _, dir := range dirs {
		items, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, item := range items {
			if item.IsDir() || !strings.HasSuffix(item.Name(), ".yml") {
				continue
			}
			path := filepath.Join(dir, item.Name())
			game, ok := d.parseGameConfig(path)
			if !ok {
				continue
			}
			games = append(games, game)
		}
	}

	return games, nil
}

// parseGameConfig reads one *.yml config. A game is emitted only when name,
// slug and directory are all present.
func (d *LutrisDetector) parseGameConfig(path string) (nvshader.Game, bool) {
	buf, err := os.ReadFile(path)
	if err != nil {
		log.Warnf("lutris config %v: %v", path, err)
		return nvshader.Game{}, false
	}

	var cfg lutrisGame
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		log.Warnf("lutris config %v: %v", path, err)
		return nvshader.Game{}, false
	}

	cfg.Name = trimQuotes(cfg.Name)
	cfg.Slug = trimQuotes(cfg.Slug)
	cfg.Directory = trimQuotes(cfg.Directory)

	if cfg.Name == "" || cfg.Slug == "" || cfg.Directory == "" {
		return nvshader.Game{}, false
	}

	game := nvshader.Game{
		Source:      nvshader.SourceLutris,
		ID:          "lutris:" + cfg.Slug,
		Name:        cfg.Name,
		InstallPath: cfg.Directory,
	}
	if cache := trimQuotes(cfg.Cache); cache != "" {
		game.CacheHints = append(game.CacheHints, cache)
	}
	if runner := trimQuotes(cfg.Runner); runner != "" {
		game.Tags = append(game.Tags, "runner:"+runner)
	}

	return game, true
}

// trimQuotes strips one level of surrounding ASCII double quotes, which some
// Lutris installers emit around values.
func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
