package isup

// MaxNumberLen mirrors ISUP_MAX_NUM: the largest digit string any number
// parameter carries.
const MaxNumberLen = 64

// char2digit maps a dialled digit character onto its 4-bit BCD code,
// ported from isup.c's char2digit: 0-9 map directly, '#' maps to 0xf, and
// anything else is treated as 0 (the original's silent default).
func char2digit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c == '#':
		return 0xf
	default:
		return 0
	}
}

// digit2char is char2digit's inverse, ported from isup.c's digit2char.
// Nibble values with no assigned digit decode to 0, which callers trim as
// a string terminator the way the original null-terminates dest[].
func digit2char(d byte) byte {
	switch d & 0xf {
	case 0, 1, 2, 3, 4, 5, 6, 7, 8, 9:
		return '0' + (d & 0xf)
	case 0xf:
		return '#'
	default:
		return 0
	}
}

// EncodeDigits packs a digit string into BCD, low nibble first, per
// isup_put_number: odd-length numbers get a trailing unused high nibble in
// the final octet. Returns the packed bytes and whether the length was odd.
func EncodeDigits(digits string) (packed []byte, odd bool) {
	n := len(digits)
	odd = n%2 == 1
	size := n / 2
	if odd {
		size++
	}
	packed = make([]byte, size)
	for i := 0; i < n; i++ {
		nib := char2digit(digits[i])
		if i%2 == 0 {
			packed[i/2] |= nib
		} else {
			packed[i/2] |= nib << 4
		}
	}
	return packed, odd
}

// DecodeDigits unpacks a BCD digit string, ported from isup_get_number's
// BCD branch (oddeven < 2): odd trims the final high nibble that
// EncodeDigits left unused.
func DecodeDigits(packed []byte, odd bool) string {
	n := len(packed) * 2
	if odd {
		n--
	}
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		var nib byte
		if i%2 == 0 {
			nib = packed[i/2] & 0xf
		} else {
			nib = packed[i/2] >> 4
		}
		c := digit2char(nib)
		if c == 0 {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
