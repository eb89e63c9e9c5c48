package catalog

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// steamRootSuffixes are the canonical Steam install layouts, tried in order
// below $HOME.
var steamRootSuffixes = []string{
	".local/share/Steam",
	".steam/steam",
	".steam/root",
}

// SteamDetector enumerates installed Steam games from appmanifest files
// across all library folders.
type SteamDetector struct {
	Home string
}

func (d *SteamDetector) Name() string { return "steam" }

// FindSteamRoot returns the first existing Steam installation below home,
// or the empty string when Steam is not installed.
func FindSteamRoot(home string) string {
	for _, suffix := range steamRootSuffixes {
		root := filepath.Join(home, suffix)
		if fs.IsDir(root) {
			return root
		}
	}
	return ""
}

func (d *SteamDetector) Detect() ([]nvshader.Game, error) {
	root := FindSteamRoot(d.Home)
	if root == "" {
		return nil, nil
	}

	libraries := d.libraries(root)

	var games []nvshader.Game
	for _, lib := range libraries {
		apps, err := filepath.Glob(filepath.Join(lib, "steamapps", "appmanifest_*.acf"))
		if err != nil {
			continue
		}
		for _, manifest := range apps {
			game, err := d.parseAppManifest(root, lib, manifest)
			if err != nil {
				log.Warnf("steam manifest %v: %v", manifest, err)
				continue
			}
			games = append(games, *game)
		}
	}

	return games, nil
}

// libraries returns the canonicalised, deduplicated list of Steam library
// roots: the install root itself plus every "path" entry of
// libraryfolders.vdf.
func (d *SteamDetector) libraries(root string) []string {
	libs := []string{canonicalPath(root)}
	seen := map[string]struct{}{libs[0]: {}}

	f, err := fs.Open(filepath.Join(root, "steamapps", "libraryfolders.vdf"))
	if err != nil {
		return libs
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := vdfKeyValue(sc.Text())
		if !ok || key != "path" {
			continue
		}
		lib := canonicalPath(value)
		if _, dup := seen[lib]; dup {
			continue
		}
		seen[lib] = struct{}{}
		libs = append(libs, lib)
	}

	return libs
}

// parseAppManifest reads one appmanifest_*.acf with the tolerant VDF line
// scanner and builds the game record.
func (d *SteamDetector) parseAppManifest(root, lib, path string) (*nvshader.Game, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "Open")
	}
	defer func() { _ = f.Close() }()

	fields := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, ok := vdfKeyValue(sc.Text())
		if !ok {
			continue
		}
		switch key {
		case "appid", "name", "installdir", "SizeOnDisk", "LastPlayed":
			fields[key] = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "Scan")
	}

	appid := fields["appid"]
	name := fields["name"]
	if appid == "" || name == "" {
		return nil, errors.Errorf("missing appid or name")
	}

	game := &nvshader.Game{
		Source: nvshader.SourceSteam,
		ID:     "steam:" + appid,
		Name:   name,
	}

	if dir := fields["installdir"]; dir != "" {
		game.InstallPath = filepath.Join(lib, "steamapps", "common", dir)
	}

	shadercache := filepath.Join(root, "steamapps", "shadercache", appid)
	if fs.IsDir(shadercache) {
		game.CacheHints = append(game.CacheHints, shadercache)
	}

	if played := fields["LastPlayed"]; played != "" && played != "0" {
		game.Tags = append(game.Tags, "last-played:"+played)
	}
	if size := fields["SizeOnDisk"]; size != "" {
		log.Debugf("steam app %v size on disk %v", appid, size)
	}

	return game, nil
}

// vdfKeyValue extracts a quoted key/value pair from one VDF line. Lines that
// do not hold exactly a quoted key followed by a quoted value are skipped,
// which tolerates braces, comments and nesting without tracking them.
func vdfKeyValue(line string) (key, value string, ok bool) {
	parts := strings.SplitN(line, "\"", 5)
	if len(parts) < 5 {
		return "", "", false
	}
	// parts: before, key, between, value, rest
	if strings.TrimSpace(parts[2]) != "" {
		return "", "", false
	}
	return parts[1], parts[3], true
}

// canonicalPath resolves path to its real location by opening it and reading
// the /proc/self/fd symlink of the descriptor. This collapses symlinked
// Steam roots onto their target so the same library is never listed twice.
func canonicalPath(path string) string {
	f, err := fs.Open(path)
	if err != nil {
		return path
	}
	defer func() { _ = f.Close() }()

	real, err := fs.Readlink(fmt.Sprintf("/proc/self/fd/%d", f.Fd()))
	if err != nil {
		return path
	}
	return real
}
