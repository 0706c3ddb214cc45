// Package mtp3 implements the routing and link-management layer: routing
// label codec, adjacent signalling point and route state, link selection,
// Q.707 link test, changeover/changeback, inhibition and the network
// management message codec. It sits above mtp2 (dependency order Scheduler
// -> MTP2 -> MTP3 -> ISUP -> Facade) and knows nothing about ISUP messages.
package mtp3

import (
	"fmt"

	"github.com/creslin7/ss7stack/mtp2"
)

// Variant mirrors mtp2.Variant: the routing label layout differs between
// ITU and ANSI networks.
type Variant = mtp2.Variant

const (
	ITU  = mtp2.ITU
	ANSI = mtp2.ANSI
)

// Service indicator values carried in the low nibble of the SIO.
const (
	SIGNetMng    = 0x00
	SIGStdTest   = 0x01
	SIGSpecTest  = 0x02
	SIGSCCP      = 0x03
	SIGISUP      = 0x05
)

// NetworkIndicator is the two-bit NI field of the SIO.
type NetworkIndicator int

const (
	NIInternational      NetworkIndicator = 0
	NIInternationalSpare NetworkIndicator = 1
	NINational           NetworkIndicator = 2
	NINationalSpare      NetworkIndicator = 3
)

// RoutingLabel is the DPC/OPC/SLS triple carried in every MSU's SIF,
// immediately after the SIO. ANSI point codes are 24 bits; ITU point codes
// are 14 bits with a 4-bit SLS.
type RoutingLabel struct {
	DPC uint32
	OPC uint32
	SLS uint8
}

// EncodeSIO packs the network indicator, priority (ANSI only) and user
// part into the single SIO octet.
func EncodeSIO(ni NetworkIndicator, priority uint8, userPart uint8) byte {
	return byte(ni)<<6 | (priority&0x3)<<4 | (userPart & 0xf)
}

// DecodeSIO splits an SIO octet into its network indicator, priority and
// user part.
func DecodeSIO(sio byte) (ni NetworkIndicator, priority uint8, userPart uint8) {
	return NetworkIndicator((sio >> 6) & 0x3), (sio >> 4) & 0x3, sio & 0xf
}

// labelSize returns the wire size of a routing label for the given variant:
// 7 octets for ANSI (3+3+1), 4 octets for ITU (14+14+4 bits packed).
func labelSize(v Variant) int {
	if v == ANSI {
		return 7
	}
	return 4
}

// EncodeLabel writes rl's wire form for the given variant and returns it.
func EncodeLabel(v Variant, rl RoutingLabel) []byte {
	buf := make([]byte, labelSize(v))
	switch v {
	case ANSI:
		buf[0] = byte(rl.DPC)
		buf[1] = byte(rl.DPC >> 8)
		buf[2] = byte(rl.DPC >> 16)
		buf[3] = byte(rl.OPC)
		buf[4] = byte(rl.OPC >> 8)
		buf[5] = byte(rl.OPC >> 16)
		buf[6] = rl.SLS
	default: // ITU
		buf[0] = byte(rl.DPC)
		buf[1] = byte((rl.DPC>>8)&0x3f) | byte((rl.OPC<<6)&0xc0)
		buf[2] = byte((rl.OPC >> 2) & 0xff)
		buf[3] = byte((rl.OPC>>10)&0x0f) | byte((rl.SLS<<4)&0xf0)
	}
	return buf
}

// DecodeLabel parses a routing label from the front of sif and returns the
// label plus the number of octets it consumed.
func DecodeLabel(v Variant, sif []byte) (RoutingLabel, int, error) {
	n := labelSize(v)
	if len(sif) < n {
		return RoutingLabel{}, 0, fmt.Errorf("mtp3: short routing label: %d bytes, need %d", len(sif), n)
	}
	var rl RoutingLabel
	switch v {
	case ANSI:
		rl.DPC = uint32(sif[0]) | uint32(sif[1])<<8 | uint32(sif[2])<<16
		rl.OPC = uint32(sif[3]) | uint32(sif[4])<<8 | uint32(sif[5])<<16
		rl.SLS = sif[6]
	default: // ITU
		rl.DPC = (uint32(sif[0]) | uint32(sif[1])<<8) & 0x3fff
		rl.OPC = (uint32(sif[1])>>6 | uint32(sif[2])<<2 | uint32(sif[3])<<10) & 0x3fff
		rl.SLS = sif[3] >> 4
	}
	return rl, n, nil
}
