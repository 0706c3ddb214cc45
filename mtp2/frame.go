package mtp2

import "fmt"

// Signal unit kinds, derived from the length indicator (LI) carried in
// every SU header: 0 is a FISU, 1-2 is an LSSU, 3..63 is an MSU (63 means
// "63 or more", see MTP2_LI_MAX in the original).
type suKind int

const (
	kindFISU suKind = iota
	kindLSSU
	kindMSU
)

// liMax is the wire value meaning "true SIF length is >= this many octets".
const liMax = 63

// maxSIFSize is the largest ISUP/user-part payload a single MSU carries.
const maxSIFSize = 272

// LSSU status codes, the bottom 3 bits of an LSSU's single status octet.
type LSSUStatus int

const (
	StatusSIO  LSSUStatus = 0 // out of alignment
	StatusSIN  LSSUStatus = 1 // normal alignment
	StatusSIE  LSSUStatus = 2 // emergency alignment
	StatusSIOS LSSUStatus = 3 // out of service
	StatusSIPO LSSUStatus = 4 // MTP2 cannot reach MTP3
	StatusSIB  LSSUStatus = 5 // MTP2 congestion
)

func (s LSSUStatus) String() string {
	switch s {
	case StatusSIO:
		return "SIO"
	case StatusSIN:
		return "SIN"
	case StatusSIE:
		return "SIE"
	case StatusSIOS:
		return "SIOS"
	case StatusSIPO:
		return "SIPO"
	case StatusSIB:
		return "SIB"
	default:
		return fmt.Sprintf("LSSU(%d)", int(s))
	}
}

// suHeader is the 3-octet common header on every signal unit:
// BSN:7|BIB:1, FSN:7|FIB:1, LI:6|spare:2.
type suHeader struct {
	bsn uint8
	bib bool
	fsn uint8
	fib bool
	li  uint8
}

const suHeaderSize = 3

func encodeHeader(h suHeader) [suHeaderSize]byte {
	var out [suHeaderSize]byte
	out[0] = h.bsn & 0x7f
	if h.bib {
		out[0] |= 0x80
	}
	out[1] = h.fsn & 0x7f
	if h.fib {
		out[1] |= 0x80
	}
	out[2] = h.li & 0x3f
	return out
}

func decodeHeader(b []byte) (suHeader, error) {
	if len(b) < suHeaderSize {
		return suHeader{}, fmt.Errorf("mtp2: short SU header: %d bytes", len(b))
	}
	return suHeader{
		bsn: b[0] & 0x7f,
		bib: b[0]&0x80 != 0,
		fsn: b[1] & 0x7f,
		fib: b[1]&0x80 != 0,
		li:  b[2] & 0x3f,
	}, nil
}

func (h suHeader) kind() suKind {
	switch {
	case h.li == 0:
		return kindFISU
	case h.li <= 2:
		return kindLSSU
	default:
		return kindMSU
	}
}

// encodeFISU builds a bare fill-in signal unit.
func encodeFISU(h suHeader) []byte {
	h.li = 0
	hdr := encodeHeader(h)
	return hdr[:]
}

// encodeLSSU builds a link-status signal unit carrying status.
func encodeLSSU(h suHeader, status LSSUStatus) []byte {
	h.li = 1
	hdr := encodeHeader(h)
	return append(hdr[:], byte(status))
}

// encodeMSU builds a message signal unit wrapping an SIF payload (already
// including the routing label and user-part data built by MTP3).
func encodeMSU(h suHeader, sif []byte) ([]byte, error) {
	if len(sif) == 0 {
		return nil, fmt.Errorf("mtp2: empty MSU payload")
	}
	if len(sif) > maxSIFSize {
		return nil, fmt.Errorf("mtp2: MSU payload %d exceeds max %d", len(sif), maxSIFSize)
	}
	li := len(sif)
	if li >= liMax {
		li = liMax
	}
	h.li = uint8(li)
	hdr := encodeHeader(h)
	out := make([]byte, 0, suHeaderSize+len(sif))
	out = append(out, hdr[:]...)
	out = append(out, sif...)
	return out, nil
}

// decodedSU is a parsed signal unit read off the wire.
type decodedSU struct {
	header suHeader
	kind   suKind
	status LSSUStatus // valid when kind == kindLSSU
	sif    []byte     // valid when kind == kindMSU
}

func decodeSU(frame []byte) (decodedSU, error) {
	h, err := decodeHeader(frame)
	if err != nil {
		return decodedSU{}, err
	}
	su := decodedSU{header: h, kind: h.kind()}
	switch su.kind {
	case kindFISU:
	case kindLSSU:
		if len(frame) < suHeaderSize+1 {
			return decodedSU{}, fmt.Errorf("mtp2: short LSSU: %d bytes", len(frame))
		}
		su.status = LSSUStatus(frame[suHeaderSize] & 0x07)
	case kindMSU:
		if len(frame) < suHeaderSize+1 {
			return decodedSU{}, fmt.Errorf("mtp2: short MSU: %d bytes", len(frame))
		}
		su.sif = frame[suHeaderSize:]
	}
	return su, nil
}
