package nvshader

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// VendorNvidia is the PCI vendor id of NVIDIA Corporation.
const VendorNvidia = 0x10de

// GpuProfile describes the local GPU for cache compatibility decisions.
type GpuProfile struct {
	VendorID      uint32 `json:"vendor_id"`
	DeviceID      uint32 `json:"device_id"`
	DriverVersion string `json:"driver_version"`
	Architecture  string `json:"architecture"`
	VramMB        uint32 `json:"vram_mb"`
}

// nvidiaArchRanges maps PCI device-id ranges to architecture labels. Ranges
// are inclusive and ordered newest first.
var nvidiaArchRanges = []struct {
	lo, hi uint32
	arch   string
}{
	{0x2900, 0x2fff, "Blackwell"},
	{0x2600, 0x28ff, "Ada Lovelace"},
	{0x2200, 0x25ff, "Ampere"},
	{0x1e00, 0x21ff, "Turing"},
	{0x1d81, 0x1dff, "Volta"},
	{0x1b00, 0x1d80, "Pascal"},
	{0x1340, 0x1aff, "Maxwell"},
	{0x0fc0, 0x133f, "Kepler"},
}

// ArchitectureForDevice maps an NVIDIA PCI device id to its architecture
// label, or "unknown" for ids outside every known range.
func ArchitectureForDevice(deviceID uint32) string {
	for _, r := range nvidiaArchRanges {
		if deviceID >= r.lo && deviceID <= r.hi {
			return r.arch
		}
	}
	return "unknown"
}

// Compatible reports whether caches from other can be used on p. Vendors must
// match; for NVIDIA the architecture must match exactly, while the device id
// may differ within the same architecture.
func (p *GpuProfile) Compatible(other *GpuProfile) bool {
	if p.VendorID != other.VendorID {
		return false
	}
	if p.VendorID == VendorNvidia {
		return p.Architecture == other.Architecture
	}
	return true
}

// DetectGPU probes the sysfs DRM cards in order and stops at the first NVIDIA
// card; without one, the profile describes the last card whose vendor and
// device ids could be read. Missing information degrades to zero values rather than failing; a machine
// without a GPU yields an all-unknown profile.
func DetectGPU() *GpuProfile {
	p := &GpuProfile{Architecture: "unknown", DriverVersion: "unknown"}

	cards, _ := filepath.Glob("/sys/class/drm/card[0-9]/device")
	for _, dev := range cards {
		vendor, err := readHexFile(filepath.Join(dev, "vendor"))
		if err != nil {
			continue
		}
		device, err := readHexFile(filepath.Join(dev, "device"))
		if err != nil {
			continue
		}

		p.VendorID = vendor
		p.DeviceID = device

		if vram, err := os.ReadFile(filepath.Join(dev, "mem_info_vram_total")); err == nil {
			if n, err := strconv.ParseUint(strings.TrimSpace(string(vram)), 10, 64); err == nil {
				p.VramMB = uint32(n / (1024 * 1024))
			}
		}

		// Prefer the NVIDIA card when several are present.
		if vendor == VendorNvidia {
			break
		}
	}

	if p.VendorID == VendorNvidia {
		p.Architecture = ArchitectureForDevice(p.DeviceID)
		if ver := nvidiaDriverVersion(); ver != "" {
			p.DriverVersion = ver
		}
	}

	log.Debugf("detected GPU vendor=%#04x device=%#04x arch=%s driver=%s",
		p.VendorID, p.DeviceID, p.Architecture, p.DriverVersion)
	return p
}

// IsNvidiaGPU reports whether an NVIDIA GPU is present on this host.
func IsNvidiaGPU() bool {
	return DetectGPU().VendorID == VendorNvidia
}

func readHexFile(path string) (uint32, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(buf))
	s = strings.TrimPrefix(s, "0x")
	n, err := strconv.ParseUint(s, 16, 32)
	return uint32(n), err
}

// nvidiaDriverVersion extracts the module version from
// /proc/driver/nvidia/version, e.g. "565.77".
func nvidiaDriverVersion() string {
	buf, err := os.ReadFile("/proc/driver/nvidia/version")
	if err != nil {
		return ""
	}
	fields := strings.Fields(string(buf))
	for i, f := range fields {
		if f == "Module" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}
