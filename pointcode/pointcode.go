// Package pointcode formats and parses signalling point codes in the
// structured notation operators actually write them in, generalizing
// network.go's Uint32ToIP/ipToUint32 byte-packing idiom from dotted IPv4 to
// dashed point codes: ITU's 14-bit 3-8-3 and ANSI's 24-bit 8-8-8
// network-cluster-member grouping.
package pointcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/creslin7/ss7stack/mtp3"
)

// Format renders pc in variant's conventional dashed grouping. ITU point
// codes are 14 bits wide (3-8-3); ANSI point codes are 24 bits wide
// (8-8-8, network-cluster-member).
func Format(variant mtp3.Variant, pc uint32) string {
	switch variant {
	case mtp3.ANSI:
		network := (pc >> 16) & 0xff
		cluster := (pc >> 8) & 0xff
		member := pc & 0xff
		return fmt.Sprintf("%d-%d-%d", network, cluster, member)
	default:
		a := (pc >> 11) & 0x7
		b := (pc >> 3) & 0xff
		c := pc & 0x7
		return fmt.Sprintf("%d-%d-%d", a, b, c)
	}
}

// Parse reads s as either a dashed point code in variant's notation or a
// bare decimal integer, so a config file can use whichever an operator
// finds natural.
func Parse(variant mtp3.Variant, s string) (uint32, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) == 1 {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("pointcode: %q is not a valid point code", s)
		}
		return uint32(n), nil
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("pointcode: %q is not a valid dashed point code", s)
	}
	vals := make([]uint32, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("pointcode: %q is not a valid dashed point code", s)
		}
		vals[i] = uint32(n)
	}
	switch variant {
	case mtp3.ANSI:
		if vals[0] > 0xff || vals[1] > 0xff || vals[2] > 0xff {
			return 0, fmt.Errorf("pointcode: %q out of range for an 8-8-8 ANSI point code", s)
		}
		return vals[0]<<16 | vals[1]<<8 | vals[2], nil
	default:
		if vals[0] > 0x7 || vals[1] > 0xff || vals[2] > 0x7 {
			return 0, fmt.Errorf("pointcode: %q out of range for a 3-8-3 ITU point code", s)
		}
		return vals[0]<<11 | vals[1]<<3 | vals[2], nil
	}
}
