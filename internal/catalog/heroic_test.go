package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHeroicFile(t *testing.T, home, rel, content string) {
	t.Helper()
	path := filepath.Join(home, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestHeroicArrayForm(t *testing.T) {
	home := t.TempDir()

	writeHeroicFile(t, home, ".config/heroic/gog_store/installed.json", `[
		{"appName": "1207658930", "title": "Cyberpunk 2077", "install_path": "/games/cp2077", "platform": "windows"}
	]`)

	d := &HeroicDetector{Home: home}
	games, err := d.Detect()
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "heroic-gog:1207658930", g.ID)
	assert.Equal(t, "Cyberpunk 2077", g.Name)
	assert.Equal(t, "/games/cp2077", g.InstallPath)
	assert.Contains(t, g.Tags, "platform:windows")
}

func TestHeroicObjectForm(t *testing.T) {
	home := t.TempDir()

	writeHeroicFile(t, home, ".config/legendary/installed.json", `{
		"Fortnite": {"app_name": "Fortnite", "title": "Fortnite", "install_path": "/games/fortnite"}
	}`)

	d := &HeroicDetector{Home: home}
	games, err := d.Detect()
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "heroic-legendary:Fortnite", games[0].ID)
}

func TestHeroicKeyFallbacks(t *testing.T) {
	home := t.TempDir()

	// Only title and folder_name present.
	writeHeroicFile(t, home, ".config/heroic/sideload_apps/library.json", `[
		{"title": "Some Mod Manager", "folder_name": "/games/smm"}
	]`)

	d := &HeroicDetector{Home: home}
	games, err := d.Detect()
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "heroic-sideload:Some Mod Manager", games[0].ID)
	assert.Equal(t, "/games/smm", games[0].InstallPath)
}

func TestHeroicMalformedFileSkipped(t *testing.T) {
	home := t.TempDir()

	writeHeroicFile(t, home, ".config/heroic/gog_store/installed.json", `{"broken": 1}`)

	d := &HeroicDetector{Home: home}
	games, err := d.Detect()
	require.NoError(t, err)
	assert.Empty(t, games)
}
