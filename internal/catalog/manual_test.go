package catalog

import (
	"testing"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualSaveAndDetect(t *testing.T) {
	home := t.TempDir()

	in := []nvshader.Game{
		{Name: "Skyrim SE", InstallPath: "/games/skyrim-se", CacheHints: []string{"/games/skyrim-se/cache"}},
		{Name: "Factorio", InstallPath: "/games/factorio"},
	}
	require.NoError(t, SaveManualGames(home, in))

	d := &ManualDetector{Home: home}
	games, err := d.Detect()
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "manual:skyrim-se", games[0].ID)
	assert.Equal(t, nvshader.SourceManual, games[0].Source)
	assert.Equal(t, []string{"/games/skyrim-se/cache"}, games[0].CacheHints)
	assert.Equal(t, "manual:factorio", games[1].ID)
}

func TestManualMissingFileIsEmpty(t *testing.T) {
	d := &ManualDetector{Home: t.TempDir()}
	games, err := d.Detect()
	require.NoError(t, err)
	assert.Empty(t, games)
}

// failingDetector exercises the merge's tolerance of broken sources.
type failingDetector struct{}

func (failingDetector) Name() string                    { return "failing" }
func (failingDetector) Detect() ([]nvshader.Game, error) { return nil, errors.New("boom") }

type staticDetector struct {
	games []nvshader.Game
}

func (staticDetector) Name() string                      { return "static" }
func (d staticDetector) Detect() ([]nvshader.Game, error) { return d.games, nil }

func TestMergeOrderAndFailureTolerance(t *testing.T) {
	games := Merge([]Detector{
		staticDetector{games: []nvshader.Game{{ID: "steam:1", Source: nvshader.SourceSteam}}},
		failingDetector{},
		staticDetector{games: []nvshader.Game{{ID: "manual:x", Source: nvshader.SourceManual}}},
	})

	require.Len(t, games, 2)
	assert.Equal(t, "steam:1", games[0].ID)
	assert.Equal(t, "manual:x", games[1].ID)
}
