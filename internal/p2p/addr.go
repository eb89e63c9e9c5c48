package p2p

import (
	"strconv"
	"strings"

	"github.com/GhostKellz/nvshader/internal/nvshader"
	"github.com/pkg/errors"
)

// parseIPv4 decodes a dotted-quad address into its four octets. Anything
// other than four in-range decimal octets is ErrInvalidAddress.
func parseIPv4(s string) ([4]byte, error) {
	var addr [4]byte

	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return addr, errors.Wrapf(nvshader.ErrInvalidAddress, "%q", s)
	}

	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || part == "" || n < 0 || n > 255 {
			return addr, errors.Wrapf(nvshader.ErrInvalidAddress, "%q", s)
		}
		addr[i] = byte(n)
	}

	return addr, nil
}
