package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	log "github.com/sirupsen/logrus"
)

// HeroicDetector enumerates games installed through the Heroic launcher:
// GOG installs, Epic installs via legendary, and sideloaded titles.
type HeroicDetector struct {
	Home string
}

func (d *HeroicDetector) Name() string { return "heroic" }

// heroicSources maps each library file to its id flavor.
var heroicSources = []struct {
	flavor string
	path   string
}{
	{"gog", ".config/heroic/gog_store/installed.json"},
	{"legendary", ".config/legendary/installed.json"},
	{"sideload", ".config/heroic/sideload_apps/library.json"},
}

func (d *HeroicDetector) Detect() ([]nvshader.Game, error) {
	var games []nvshader.Game

	for _, src := range heroicSources {
		path := filepath.Join(d.Home, src.path)
		buf, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		objs, err := decodeObjects(buf)
		if err != nil {
			log.Warnf("heroic library %v: %v", path, err)
			continue
		}

		for _, obj := range objs {
			game, ok := heroicGame(src.flavor, obj)
			if !ok {
				continue
			}
			games = append(games, game)
		}
	}

	return games, nil
}

// decodeObjects accepts both Heroic library layouts: a JSON array of game
// objects, or an object mapping names to game objects. Both normalize to a
// flat object list.
func decodeObjects(buf []byte) ([]map[string]any, error) {
	var arr []map[string]any
	if err := json.Unmarshal(buf, &arr); err == nil {
		return arr, nil
	}

	var m map[string]map[string]any
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, err
	}

	objs := make([]map[string]any, 0, len(m))
	for _, obj := range m {
		objs = append(objs, obj)
	}
	return objs, nil
}

// heroicGame builds a game record from one library object. The object must
// carry an identity under one of the known keys.
func heroicGame(flavor string, obj map[string]any) (nvshader.Game, bool) {
	id := firstString(obj, "app_name", "appName", "title")
	if id == "" {
		return nvshader.Game{}, false
	}

	name := firstString(obj, "title", "app_name")
	if name == "" {
		name = id
	}

	game := nvshader.Game{
		Source:      nvshader.SourceHeroic,
		ID:          "heroic-" + flavor + ":" + id,
		Name:        name,
		InstallPath: firstString(obj, "install_path", "installPath", "folder_name"),
	}

	if platform := firstString(obj, "platform"); platform != "" {
		game.Tags = append(game.Tags, "platform:"+platform)
	}

	return game, true
}

// firstString returns the first of the named keys that holds a non-empty
// string value.
func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
