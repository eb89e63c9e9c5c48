package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acfTemplate = `"AppState"
{
	"appid"		"570"
	"Universe"		"1"
	"name"		"Dota 2"
	"StateFlags"		"4"
	"installdir"		"dota 2 beta"
	"SizeOnDisk"		"44297416837"
	"LastPlayed"		"1714089600"
}
`

// newSteamHome lays out a real Steam root under home and returns it.
func newSteamHome(t *testing.T, home string) string {
	t.Helper()

	root := filepath.Join(home, ".local/share/Steam")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "steamapps"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "steamapps", "appmanifest_570.acf"), []byte(acfTemplate), 0644))
	return root
}

func TestSteamDetect(t *testing.T) {
	home := t.TempDir()
	root := newSteamHome(t, home)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "steamapps/shadercache/570"), 0755))

	d := &SteamDetector{Home: home}
	games, err := d.Detect()
	require.NoError(t, err)
	require.Len(t, games, 1)

	g := games[0]
	assert.Equal(t, "steam:570", g.ID)
	assert.Equal(t, "Dota 2", g.Name)
	assert.Contains(t, g.InstallPath, "steamapps/common/dota 2 beta")
	require.Len(t, g.CacheHints, 1)
	assert.Equal(t, filepath.Join(root, "steamapps/shadercache/570"), g.CacheHints[0])
	assert.Contains(t, g.Tags, "last-played:1714089600")
}

func TestSteamLibraryDeduplication(t *testing.T) {
	home := t.TempDir()
	root := newSteamHome(t, home)

	// A second Steam layout that is a symlink onto the first.
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".steam"), 0755))
	require.NoError(t, os.Symlink(root, filepath.Join(home, ".steam/steam")))

	// libraryfolders.vdf lists the real path of the root itself.
	vdf := `"libraryfolders"
{
	"0"
	{
		"path"		"` + root + `"
		"label"		""
	}
}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "steamapps", "libraryfolders.vdf"), []byte(vdf), 0644))

	d := &SteamDetector{Home: home}
	libs := d.libraries(filepath.Join(home, ".steam/steam"))

	require.Len(t, libs, 1, "symlinked root and vdf path collapse to one library")
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, resolved, libs[0])
}

func TestSteamExtraLibrary(t *testing.T) {
	home := t.TempDir()
	root := newSteamHome(t, home)

	extra := filepath.Join(home, "mnt-games")
	require.NoError(t, os.MkdirAll(filepath.Join(extra, "steamapps"), 0755))
	acf := `"AppState"
{
	"appid"		"1086940"
	"name"		"Baldur's Gate 3"
	"installdir"		"Baldurs Gate 3"
}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(extra, "steamapps", "appmanifest_1086940.acf"), []byte(acf), 0644))

	vdf := `"libraryfolders"
{
	"1"
	{
		"path"		"` + extra + `"
	}
}
`
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "steamapps", "libraryfolders.vdf"), []byte(vdf), 0644))

	d := &SteamDetector{Home: home}
	games, err := d.Detect()
	require.NoError(t, err)
	require.Len(t, games, 2)

	ids := []string{games[0].ID, games[1].ID}
	assert.Contains(t, ids, "steam:570")
	assert.Contains(t, ids, "steam:1086940")
}

func TestVdfKeyValue(t *testing.T) {
	key, value, ok := vdfKeyValue("\t\"path\"\t\t\"/mnt/games/SteamLibrary\"")
	require.True(t, ok)
	assert.Equal(t, "path", key)
	assert.Equal(t, "/mnt/games/SteamLibrary", value)

	_, _, ok = vdfKeyValue("{")
	assert.False(t, ok)

	_, _, ok = vdfKeyValue("\"libraryfolders\"")
	assert.False(t, ok)
}
