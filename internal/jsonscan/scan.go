package jsonscan

// Span is a half-open byte range [Start, End) into a buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	if s.End <= s.Start {
		return 0
	}

	return s.End - s.Start
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool {
	return s.Start >= s.End
}

// Valid reports whether the span lies within a buffer of length n.
func (s Span) Valid(n int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= n
}

// Bytes returns the bytes of buf covered by the span, or nil when the span does
// not fit inside buf. The result aliases buf.
func (s Span) Bytes(buf []byte) []byte {
	if s.Empty() || !s.Valid(len(buf)) {
		return nil
	}

	return buf[s.Start:s.End:s.End]
}

// Status tags the outcome of a lookup.
type Status int

const (
	// Found means the key exists and the returned span holds its value.
	Found Status = iota

	// NotFound means the object was scanned completely without a match.
	NotFound

	// Malformed means the object could not be scanned: it does not start with '{',
	// a key or value is broken, or a delimiter is missing before the range ends.
	Malformed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ObjectValue finds the value of key in the JSON object at obj.
//
// Only the top nesting level of the object is searched and the first match wins.
// For string values the returned span includes the surrounding quotes; nested
// objects and arrays include their delimiters; other scalars are the raw token.
// Keys are compared byte for byte without unescaping.
//
// Parameters:
//   - buf: Buffer holding the JSON text
//   - obj: Span of the object; leading whitespace is allowed
//   - key: Field name to look up
//
// Returns:
//   - Span: The value span when the status is Found, zero otherwise
//   - Status: Found, NotFound, or Malformed
func ObjectValue(buf []byte, obj Span, key string) (Span, Status) {
	end := clampEnd(buf, obj.End)
	if obj.Start < 0 {
		return Span{}, Malformed
	}

	i := skipSpace(buf, obj.Start, end)
	if i >= end || buf[i] != '{' {
		return Span{}, Malformed
	}
	i++

	for {
		i = skipSpace(buf, i, end)
		if i >= end {
			return Span{}, Malformed
		}
		if buf[i] == '}' {
			return Span{}, NotFound
		}
		if buf[i] != '"' {
			return Span{}, Malformed
		}

		keyEnd, ok := stringEnd(buf, i, end)
		if !ok {
			return Span{}, Malformed
		}
		match := string(buf[i+1:keyEnd]) == key

		i = skipSpace(buf, keyEnd+1, end)
		if i >= end || buf[i] != ':' {
			return Span{}, Malformed
		}
		i = skipSpace(buf, i+1, end)
		if i >= end {
			return Span{}, Malformed
		}

		valEnd, ok := valueEnd(buf, i, end)
		if !ok {
			return Span{}, Malformed
		}
		if match {
			return Span{Start: i, End: valEnd}, Found
		}

		i = skipSpace(buf, valEnd, end)
		if i >= end {
			return Span{}, Malformed
		}
		switch buf[i] {
		case ',':
			i++
		case '}':
			return Span{}, NotFound
		default:
			return Span{}, Malformed
		}
	}
}

// FindEndComplex returns the index of the delimiter closing the object or array
// that opens at buf[start].
//
// Nesting is tracked across both {} and [] and string literals are skipped,
// honoring backslash escapes, so `"{"` or `"\"}"` inside a value never ends the
// scan early.
//
// Parameters:
//   - buf: Buffer holding the JSON text
//   - start: Index of the opening '{' or '['
//   - end: Exclusive scan limit (clamped to len(buf))
//
// Returns:
//   - int: Index of the matching closer, or end when there is none
//   - bool: false when buf[start] is not an opener or the closer is missing
func FindEndComplex(buf []byte, start, end int) (int, bool) {
	end = clampEnd(buf, end)
	if start < 0 || start >= end {
		return end, false
	}
	if c := buf[start]; c != '{' && c != '[' {
		return end, false
	}

	depth := 0
	inString := false
	for i := start; i < end; i++ {
		c := buf[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return end, false
}

// SkipSpace returns the index of the first non-whitespace byte at or after i,
// or end if there is none.
func SkipSpace(buf []byte, i, end int) int {
	return skipSpace(buf, i, clampEnd(buf, end))
}

// IsString reports whether the span holds a quoted string token.
func IsString(buf []byte, sp Span) bool {
	if sp.Len() < 2 || !sp.Valid(len(buf)) {
		return false
	}

	return buf[sp.Start] == '"' && buf[sp.End-1] == '"'
}

// Unquote strips the surrounding quotes of a string token.
//
// Returns:
//   - Span: The span of the string contents (escapes are left as-is)
//   - bool: false when sp is not a quoted string
func Unquote(buf []byte, sp Span) (Span, bool) {
	if !IsString(buf, sp) {
		return Span{}, false
	}

	return Span{Start: sp.Start + 1, End: sp.End - 1}, true
}

// EqualsString reports whether sp is a quoted string whose raw contents equal s.
func EqualsString(buf []byte, sp Span, s string) bool {
	inner, ok := Unquote(buf, sp)
	if !ok {
		return false
	}

	return string(buf[inner.Start:inner.End]) == s
}

// ParseInt parses a decimal integer token with an optional leading '-'.
//
// The whole span must be consumed; fractions, exponents, quotes, or overflow
// make the result invalid.
func ParseInt(buf []byte, sp Span) (int, bool) {
	if sp.Empty() || !sp.Valid(len(buf)) {
		return 0, false
	}

	i := sp.Start
	neg := false
	if buf[i] == '-' {
		neg = true
		i++
	}
	if i >= sp.End {
		return 0, false
	}

	const maxInt = int(^uint(0) >> 1)
	n := 0
	for ; i < sp.End; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int(c - '0')
		if n > (maxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	if neg {
		n = -n
	}

	return n, true
}

// valueEnd returns the exclusive end of the value starting at buf[i].
func valueEnd(buf []byte, i, end int) (int, bool) {
	switch buf[i] {
	case '{', '[':
		closeIdx, ok := FindEndComplex(buf, i, end)
		if !ok || !closes(buf[i], buf[closeIdx]) {
			return end, false
		}

		return closeIdx + 1, true
	case '"':
		q, ok := stringEnd(buf, i, end)
		if !ok {
			return end, false
		}

		return q + 1, true
	}

	j := i
	for j < end && !isDelimiter(buf[j]) {
		j++
	}
	if j == i {
		return end, false
	}

	return j, true
}

// closes reports whether closer is the delimiter matching opener.
func closes(opener, closer byte) bool {
	return (opener == '{' && closer == '}') || (opener == '[' && closer == ']')
}

// stringEnd returns the index of the quote closing the string opened at buf[i].
func stringEnd(buf []byte, i, end int) (int, bool) {
	for j := i + 1; j < end; j++ {
		switch buf[j] {
		case '\\':
			j++
		case '"':
			return j, true
		}
	}

	return end, false
}

func skipSpace(buf []byte, i, end int) int {
	for i < end && isSpace(buf[i]) {
		i++
	}

	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelimiter(c byte) bool {
	return c == ',' || c == '}' || c == ']' || isSpace(c)
}

func clampEnd(buf []byte, end int) int {
	if end > len(buf) {
		return len(buf)
	}

	return end
}
