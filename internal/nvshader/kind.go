package nvshader

import "github.com/pkg/errors"

// CacheKind identifies the producer of a cache artifact.
type CacheKind int

const (
	KindDXVK CacheKind = iota
	KindVKD3D
	KindNvidia
	KindMesa
	KindFossilize
)

// AllKinds lists every kind in stable order.
var AllKinds = []CacheKind{KindDXVK, KindVKD3D, KindNvidia, KindMesa, KindFossilize}

type kindInfo struct {
	name  string
	short string
	ext   string
}

var kindTable = map[CacheKind]kindInfo{
	KindDXVK:      {name: "DXVK", short: "dxvk", ext: ".dxvk-cache"},
	KindVKD3D:     {name: "vkd3d-proton", short: "vkd3d", ext: ".dxvk-cache"},
	KindNvidia:    {name: "NVIDIA", short: "nvidia", ext: ""},
	KindMesa:      {name: "Mesa", short: "mesa", ext: ""},
	KindFossilize: {name: "Fossilize", short: "fossilize", ext: ".foz"},
}

func (k CacheKind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.name
	}
	return "unknown"
}

// Short returns the short identifier used in manifests and wire messages.
func (k CacheKind) Short() string {
	if info, ok := kindTable[k]; ok {
		return info.short
	}
	return "unknown"
}

// Ext returns the canonical file extension, empty for directory-based kinds.
func (k CacheKind) Ext() string {
	return kindTable[k].ext
}

// ParseKind converts a short identifier back into a CacheKind.
func ParseKind(s string) (CacheKind, error) {
	for k, info := range kindTable {
		if info.short == s {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown cache type %q", s)
}
