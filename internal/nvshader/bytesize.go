package nvshader

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// ParseByteSize decodes a size string of the form <digits>[kKmMgGtT].
// Suffixes are powers of 1024; no suffix means bytes. Values that overflow
// an unsigned 64-bit count are rejected.
func ParseByteSize(s string) (uint64, error) {
	if s == "" {
		return 0, errors.Errorf("empty size")
	}

	digits := s
	var shift uint
	switch s[len(s)-1] {
	case 'k', 'K':
		shift, digits = 10, s[:len(s)-1]
	case 'm', 'M':
		shift, digits = 20, s[:len(s)-1]
	case 'g', 'G':
		shift, digits = 30, s[:len(s)-1]
	case 't', 'T':
		shift, digits = 40, s[:len(s)-1]
	}

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid size %q", s)
	}

	if shift > 0 && n > math.MaxUint64>>shift {
		return 0, errors.Errorf("size %q overflows", s)
	}

	return n << shift, nil
}
