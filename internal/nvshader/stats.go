package nvshader

import "time"

// CacheStats aggregates a scanned entry set.
type CacheStats struct {
	TotalSizeBytes uint64
	FileCount      uint32
	GameCount      uint32

	DxvkSize      uint64
	Vkd3dSize     uint64
	NvidiaSize    uint64
	MesaSize      uint64
	FossilizeSize uint64

	// Oldest and Newest are zero when no entries were scanned.
	Oldest time.Time
	Newest time.Time
}

// KindSize returns the aggregated byte total for one kind.
func (s *CacheStats) KindSize(k CacheKind) uint64 {
	switch k {
	case KindDXVK:
		return s.DxvkSize
	case KindVKD3D:
		return s.Vkd3dSize
	case KindNvidia:
		return s.NvidiaSize
	case KindMesa:
		return s.MesaSize
	case KindFossilize:
		return s.FossilizeSize
	}
	return 0
}

func (s *CacheStats) addKindSize(k CacheKind, n uint64) {
	switch k {
	case KindDXVK:
		s.DxvkSize += n
	case KindVKD3D:
		s.Vkd3dSize += n
	case KindNvidia:
		s.NvidiaSize += n
	case KindMesa:
		s.MesaSize += n
	case KindFossilize:
		s.FossilizeSize += n
	}
}

// AggregateStats computes CacheStats over entries in a single pass.
func AggregateStats(entries []*CacheEntry) CacheStats {
	var s CacheStats

	for _, e := range entries {
		s.TotalSizeBytes += e.SizeBytes
		s.FileCount++
		if e.Associated() {
			s.GameCount++
		}
		s.addKindSize(e.Kind, e.SizeBytes)

		mt := e.ModifiedAt()
		if s.Oldest.IsZero() || mt.Before(s.Oldest) {
			s.Oldest = mt
		}
		if s.Newest.IsZero() || mt.After(s.Newest) {
			s.Newest = mt
		}
	}

	return s
}
