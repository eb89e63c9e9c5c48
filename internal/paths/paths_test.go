package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNoHome(t *testing.T) {
	t.Setenv("HOME", "")

	_, err := Resolve(Config{})
	assert.ErrorIs(t, err, nvshader.ErrNoHomeDir)
}

func TestResolveDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("DXVK_STATE_CACHE_PATH", "")
	t.Setenv("VKD3D_SHADER_CACHE_PATH", "")

	require.NoError(t, os.MkdirAll(filepath.Join(home, ".cache/dxvk"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".cache/mesa_shader_cache"), 0755))

	p, err := Resolve(Config{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".cache/dxvk"), p.Dxvk)
	assert.Equal(t, filepath.Join(home, ".cache/mesa_shader_cache"), p.Mesa)
	assert.Empty(t, p.Vkd3d, "no vkd3d directory exists")
	assert.Empty(t, p.Nvidia)
}

func TestResolveEnvOverride(t *testing.T) {
	home := t.TempDir()
	custom := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DXVK_STATE_CACHE_PATH", custom)

	// The default also exists; the environment must win.
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".cache/dxvk"), 0755))

	p, err := Resolve(Config{})
	require.NoError(t, err)
	assert.Equal(t, custom, p.Dxvk)
}

func TestResolveExplicitOverride(t *testing.T) {
	home := t.TempDir()
	explicit := t.TempDir()
	env := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DXVK_STATE_CACHE_PATH", env)

	p, err := Resolve(Config{DxvkRoot: explicit})
	require.NoError(t, err)
	assert.Equal(t, explicit, p.Dxvk)
}

func TestResolveMissingPathsStayEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DXVK_STATE_CACHE_PATH", filepath.Join(home, "does-not-exist"))

	p, err := Resolve(Config{})
	require.NoError(t, err)
	assert.Empty(t, p.Dxvk)
}

func TestXdgCacheHome(t *testing.T) {
	home := t.TempDir()
	xdg := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", xdg)

	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "mesa_shader_cache"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".cache/mesa_shader_cache"), 0755))

	p, err := Resolve(Config{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "mesa_shader_cache"), p.Mesa)
}
