// Package catalog builds one unified list of installed games from the
// installers present on the system: Steam, Lutris, Heroic and a manual
// user-maintained manifest.
package catalog

import (
	"os"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	log "github.com/sirupsen/logrus"
)

// Detector enumerates games from one installer's on-disk state.
type Detector interface {
	// Name identifies the detector in logs.
	Name() string

	// Detect returns every game the installer knows about. An error means
	// the source could not be read at all; partial results are preferred.
	Detect() ([]nvshader.Game, error)
}

// DefaultDetectors returns the built-in detector set in merge order.
func DefaultDetectors() ([]Detector, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return nil, nvshader.ErrNoHomeDir
	}

	return []Detector{
		&SteamDetector{Home: home},
		&LutrisDetector{Home: home},
		&HeroicDetector{Home: home},
		&ManualDetector{Home: home},
	}, nil
}

// Merge runs each detector in order and concatenates the results. A failing
// detector is logged and skipped; it never aborts the merge. No cross-source
// deduplication is performed, IDs are source-prefixed.
func Merge(detectors []Detector) []nvshader.Game {
	var games []nvshader.Game

	for _, d := range detectors {
		found, err := d.Detect()
		if err != nil {
			log.Warnf("detector %v: %v", d.Name(), err)
			continue
		}
		log.Debugf("detector %v found %d games", d.Name(), len(found))
		games = append(games, found...)
	}

	return games
}

// Detect builds the unified catalog with the default detector set.
func Detect() ([]nvshader.Game, error) {
	detectors, err := DefaultDetectors()
	if err != nil {
		return nil, err
	}
	return Merge(detectors), nil
}
