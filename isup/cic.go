package isup

import "github.com/creslin7/ss7stack/mtp3"

// cicMask returns the per-variant CIC mask: 12 bits under ITU, 14 under
// ANSI, ported from isup_send's "mh->cic[1] & 0x0f" (ITU) vs "& 0x3f" (ANSI)
// split in trunk/isup.c.
func cicMask(v mtp3.Variant) uint16 {
	if v == mtp3.ANSI {
		return 0x3fff
	}
	return 0x0fff
}

// EncodeCIC writes cic (already masked to the variant's width) as the
// 2-octet little-endian field preceding the message type.
func EncodeCIC(v mtp3.Variant, cic uint16) []byte {
	cic &= cicMask(v)
	return []byte{byte(cic), byte(cic >> 8)}
}

// DecodeCIC reads the 2-octet CIC field, masking to the variant's width.
func DecodeCIC(v mtp3.Variant, b []byte) uint16 {
	return (uint16(b[0]) | uint16(b[1])<<8) & cicMask(v)
}
