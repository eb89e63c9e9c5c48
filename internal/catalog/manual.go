package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
)

// manualConfigPath is the user-maintained game manifest, relative to $HOME.
const manualConfigPath = ".config/nvshader/games.json"

// ManualDetector reads the user-maintained game manifest.
type ManualDetector struct {
	Home string
}

func (d *ManualDetector) Name() string { return "manual" }

// manualConfig is the on-disk schema of games.json.
type manualConfig struct {
	Entries []manualEntry `json:"entries"`
}

type manualEntry struct {
	Name       string   `json:"name"`
	InstallPath string  `json:"install_path"`
	CachePaths []string `json:"cache_paths,omitempty"`
}

func (d *ManualDetector) Detect() ([]nvshader.Game, error) {
	buf, err := os.ReadFile(filepath.Join(d.Home, manualConfigPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "ReadFile")
	}

	var cfg manualConfig
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return nil, errors.Wrap(err, "Unmarshal")
	}

	var games []nvshader.Game
	for _, e := range cfg.Entries {
		if e.Name == "" || e.InstallPath == "" {
			continue
		}
		games = append(games, nvshader.Game{
			Source:      nvshader.SourceManual,
			ID:          "manual:" + filepath.Base(e.InstallPath),
			Name:        e.Name,
			InstallPath: e.InstallPath,
			CacheHints:  append([]string(nil), e.CachePaths...),
		})
	}

	return games, nil
}

// SaveManualGames writes the manual manifest in the schema Detect reads.
// Existing entries are replaced wholesale.
func SaveManualGames(home string, games []nvshader.Game) error {
	cfg := manualConfig{Entries: make([]manualEntry, 0, len(games))}
	for _, g := range games {
		cfg.Entries = append(cfg.Entries, manualEntry{
			Name:        g.Name,
			InstallPath: g.InstallPath,
			CachePaths:  g.CacheHints,
		})
	}

	buf, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "Marshal")
	}

	path := filepath.Join(home, manualConfigPath)
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "MkdirAll")
	}

	return errors.Wrap(os.WriteFile(path, append(buf, '\n'), 0644), "WriteFile")
}
