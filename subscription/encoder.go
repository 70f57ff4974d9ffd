package subscription

import "strings"

// Encoder percent-encodes free-form values for use in a request URL.
type Encoder interface {
	Escape(s string) string
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(s string) string

// Escape implements Encoder.
func (f EncoderFunc) Escape(s string) string { return f(s) }

// PercentEncoder escapes every byte outside the RFC 3986 unreserved set
// (ALPHA / DIGIT / "-" / "." / "_" / "~") as %XX with upper-case hex digits.
// Multi-byte UTF-8 sequences are escaped byte by byte.
var PercentEncoder Encoder = EncoderFunc(percentEncode)

const upperHex = "0123456789ABCDEF"

func percentEncode(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isUnreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)

			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperHex[c>>4])
		sb.WriteByte(upperHex[c&0x0f])
	}

	return sb.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}

	return false
}

// escapes each comma separated element of s, keeping the commas.
func escapeEach(enc Encoder, s string) string {
	if !strings.Contains(s, ",") {
		return enc.Escape(s)
	}

	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = enc.Escape(p)
	}

	return strings.Join(parts, ",")
}
