package nvshader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchitectureForDevice(t *testing.T) {
	cases := []struct {
		device uint32
		arch   string
	}{
		{0x2684, "Ada Lovelace"}, // RTX 4090
		{0x2204, "Ampere"},       // RTX 3090
		{0x1e04, "Turing"},       // RTX 2080 Ti
		{0x1b06, "Pascal"},       // GTX 1080 Ti
		{0x1401, "Maxwell"},      // GTX 960
		{0x1180, "Kepler"},       // GTX 680
		{0x2b00, "Blackwell"},
		{0x1d81, "Volta"},
		{0x0001, "unknown"},
	}

	for _, c := range cases {
		assert.Equal(t, c.arch, ArchitectureForDevice(c.device), "%#04x", c.device)
	}
}

func TestGpuCompatibility(t *testing.T) {
	ada := &GpuProfile{VendorID: VendorNvidia, Architecture: "Ada Lovelace"}
	adaOther := &GpuProfile{VendorID: VendorNvidia, DeviceID: 0x2704, Architecture: "Ada Lovelace"}
	ampere := &GpuProfile{VendorID: VendorNvidia, Architecture: "Ampere"}
	amd := &GpuProfile{VendorID: 0x1002, Architecture: "unknown"}
	amd2 := &GpuProfile{VendorID: 0x1002, Architecture: "RDNA3"}

	assert.True(t, ada.Compatible(adaOther), "same architecture, different device")
	assert.False(t, ada.Compatible(ampere), "NVIDIA requires matching architecture")
	assert.False(t, ada.Compatible(amd), "vendors differ")
	assert.True(t, amd.Compatible(amd2), "non-NVIDIA only needs vendor match")
}
