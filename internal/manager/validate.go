package manager

import (
	"github.com/GhostKellz/nvshader/internal/dxvk"
	"github.com/GhostKellz/nvshader/internal/fs"
	"github.com/GhostKellz/nvshader/internal/nvshader"
	log "github.com/sirupsen/logrus"
)

// ValidationResult counts the outcome of a validation pass.
type ValidationResult struct {
	Checked int
	Invalid int
}

// Validate re-checks every entry against its on-disk artifact: typed cache
// files are re-parsed, directory entries are checked for existence. The
// entry set is never modified.
func (m *Manager) Validate() ValidationResult {
	var res ValidationResult

	for _, e := range m.entries {
		res.Checked++

		switch {
		case e.Kind == nvshader.KindDXVK || e.Kind == nvshader.KindVKD3D:
			if err := dxvk.Validate(e.Path); err != nil {
				log.Debugf("validate %v: %v", e.Path, err)
				res.Invalid++
			}
		default:
			if !fs.Exists(e.Path) {
				res.Invalid++
			}
		}
	}

	return res
}
