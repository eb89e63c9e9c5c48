// Package paths locates the well-known shader cache roots on the local
// system. Each root resolves by precedence: explicit override, environment
// variable, then the first existing default location.
package paths

import (
	"os"
	"path/filepath"

	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	log "github.com/sirupsen/logrus"
)

// Config carries explicit per-root overrides, normally from CLI flags. An
// empty field means "use the environment and defaults".
type Config struct {
	DxvkRoot      string
	Vkd3dRoot     string
	NvidiaRoot    string
	MesaRoot      string
	FossilizeRoot string
	SteamRoot     string
}

// CachePaths holds the resolved cache roots. A root is the empty string when
// no candidate location exists on this system.
type CachePaths struct {
	Dxvk      string
	Vkd3d     string
	Nvidia    string
	Mesa      string
	Fossilize string
	Steam     string
}

// Resolve probes the environment and filesystem for every cache root.
// Only paths that currently exist are returned.
func Resolve(cfg Config) (*CachePaths, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return nil, nvshader.ErrNoHomeDir
	}

	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache == "" {
		xdgCache = filepath.Join(home, ".cache")
	}

	p := &CachePaths{
		Dxvk: resolve(cfg.DxvkRoot, os.Getenv("DXVK_STATE_CACHE_PATH"),
			filepath.Join(home, ".cache", "dxvk")),
		Vkd3d: resolve(cfg.Vkd3dRoot, os.Getenv("VKD3D_SHADER_CACHE_PATH"),
			filepath.Join(home, ".cache", "vkd3d-proton")),
		Nvidia: resolve(cfg.NvidiaRoot, "",
			filepath.Join(home, ".nv", "ComputeCache")),
		Mesa: resolve(cfg.MesaRoot, "",
			filepath.Join(xdgCache, "mesa_shader_cache"),
			filepath.Join(home, ".cache", "mesa_shader_cache")),
		Fossilize: resolve(cfg.FossilizeRoot, "",
			filepath.Join(home, ".local/share/Steam/steamapps/shadercache"),
			filepath.Join(home, ".var/app/com.valvesoftware.Steam/.local/share/Steam/steamapps/shadercache")),
		Steam: resolve(cfg.SteamRoot, "",
			filepath.Join(home, ".local/share/Steam/steamapps/shadercache"),
			filepath.Join(home, ".steam/steam/steamapps/shadercache"),
			filepath.Join(home, ".steam/root/steamapps/shadercache")),
	}

	log.Debugf("resolved cache paths: %+v", p)
	return p, nil
}

// resolve returns the first existing candidate, trying the explicit override
// first, then the environment value, then the defaults.
func resolve(override, env string, defaults ...string) string {
	if override != "" && fs.Exists(override) {
		return override
	}
	if env != "" && fs.Exists(env) {
		return env
	}
	for _, d := range defaults {
		if fs.Exists(d) {
			return d
		}
	}
	return ""
}
