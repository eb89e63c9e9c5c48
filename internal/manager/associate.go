package manager

import (
	"strings"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	log "github.com/sirupsen/logrus"
)

// Associate binds entries to catalog games. For each entry the match rules
// run in order and the first rule that produces a match wins:
//
//  1. exact game-id equality
//  2. case-insensitive name equality, then substring containment either way
//  3. highest-scoring cache-hint prefix match (install_path counts as a hint)
//  4. for Steam games, the appid appearing as a full path segment
//
// Running Associate twice over the same inputs is a no-op the second time.
func (m *Manager) Associate(games []nvshader.Game) {
	Associate(m.entries, games)
}

// Associate implements the entry/game binding rules over an explicit entry
// list.
func Associate(entries []*nvshader.CacheEntry, games []nvshader.Game) {
	for _, e := range entries {
		if game := matchGame(e, games); game != nil {
			log.Debugf("associate %v -> %v (%v)", e.Path, game.Name, game.ID)
			e.GameName = game.Name
			e.GameID = game.ID
			e.GameSource = game.Source
		}
	}
}

func matchGame(e *nvshader.CacheEntry, games []nvshader.Game) *nvshader.Game {
	// Rule 1: id equality.
	if e.GameID != "" {
		for i := range games {
			if games[i].ID == e.GameID {
				return &games[i]
			}
		}
	}

	// Rule 2: name equality, then containment either way.
	if e.GameName != "" {
		entryName := strings.ToLower(e.GameName)
		for i := range games {
			if strings.ToLower(games[i].Name) == entryName {
				return &games[i]
			}
		}
		for i := range games {
			gameName := strings.ToLower(games[i].Name)
			if strings.Contains(gameName, entryName) || strings.Contains(entryName, gameName) {
				return &games[i]
			}
		}
	}

	// Rule 3: best hint prefix.
	var best *nvshader.Game
	bestScore := 0
	for i := range games {
		g := &games[i]
		hints := g.CacheHints
		if g.InstallPath != "" {
			hints = append(append([]string(nil), hints...), g.InstallPath)
		}
		for _, hint := range hints {
			if score := hintScore(e.Path, hint); score > bestScore {
				best, bestScore = g, score
			}
		}
	}
	if best != nil {
		return best
	}

	// Rule 4: Steam appid as a full path segment.
	for i := range games {
		g := &games[i]
		if g.Source != nvshader.SourceSteam {
			continue
		}
		_, appid, ok := strings.Cut(g.ID, ":")
		if !ok || appid == "" {
			continue
		}
		if hasPathSegment(e.Path, appid) && len(appid) > bestScore {
			best, bestScore = g, len(appid)
		}
	}

	return best
}

// hintScore returns the hint's length when the entry path starts with the
// hint on a path-segment boundary, zero otherwise.
func hintScore(path, hint string) int {
	hint = strings.TrimRight(hint, "/")
	if hint == "" || !strings.HasPrefix(path, hint) {
		return 0
	}
	if len(path) > len(hint) && path[len(hint)] != '/' {
		return 0
	}
	return len(hint)
}

// hasPathSegment reports whether segment appears as one full component of
// path.
func hasPathSegment(path, segment string) bool {
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
