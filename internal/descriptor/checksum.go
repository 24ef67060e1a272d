package descriptor

import "strings"

// inputCharset is the full character set a descriptor body may use, in the
// fixed order the BIP-380 checksum algorithm assigns symbol values over.
const inputCharset = "0123456789()[],'/*abcdefgh@:$%{}IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "

// checksumCharset is the base-32 alphabet the 8-character checksum itself is
// rendered in.
const checksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

func polymod(c uint64, val uint64) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ val
	if c0&1 != 0 {
		c ^= 0xf5dee51989
	}
	if c0&2 != 0 {
		c ^= 0xa9fdca3312
	}
	if c0&4 != 0 {
		c ^= 0x1bab10e32d
	}
	if c0&8 != 0 {
		c ^= 0x3706b1677a
	}
	if c0&16 != 0 {
		c ^= 0x644d626ffd
	}
	return c
}

// checksum computes the 8-character BIP-380 descriptor checksum of body
// (the descriptor string with any existing "#xxxxxxxx" suffix already
// stripped).
func checksum(body string) (string, error) {
	c := uint64(1)
	cls := uint64(0)
	clsCount := 0

	for _, r := range body {
		idx := strings.IndexRune(inputCharset, r)
		if idx < 0 {
			return "", &Error{Reason: "descriptor contains a character outside the checksum charset"}
		}
		c = polymod(c, uint64(idx&31))
		cls = cls*3 + uint64(idx>>5)
		clsCount++
		if clsCount == 3 {
			c = polymod(c, cls)
			cls = 0
			clsCount = 0
		}
	}
	if clsCount > 0 {
		c = polymod(c, cls)
	}
	for i := 0; i < 8; i++ {
		c = polymod(c, 0)
	}
	c ^= 1

	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = checksumCharset[(c>>(5*(7-i)))&31]
	}
	return string(out), nil
}

// splitChecksum separates a trailing "#xxxxxxxx" checksum suffix from a
// descriptor string, if present.
func splitChecksum(expr string) (body, suffix string) {
	idx := strings.LastIndexByte(expr, '#')
	if idx < 0 {
		return expr, ""
	}
	return expr[:idx], expr[idx+1:]
}

// verifyChecksum validates a descriptor string's optional checksum suffix.
// A descriptor with no suffix is accepted without enforcement, per spec.
func verifyChecksum(expr string) (body string, err error) {
	body, suffix := splitChecksum(expr)
	if suffix == "" {
		return body, nil
	}
	want, err := checksum(body)
	if err != nil {
		return "", err
	}
	if suffix != want {
		return "", &Error{Reason: "descriptor checksum mismatch: expected #" + want}
	}
	return body, nil
}

// withChecksum appends the canonical "#xxxxxxxx" checksum suffix to body.
func withChecksum(body string) (string, error) {
	sum, err := checksum(body)
	if err != nil {
		return "", err
	}
	return body + "#" + sum, nil
}
