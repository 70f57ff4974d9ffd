// Package jsonscan navigates JSON text by byte offsets.
//
// It is not a JSON parser: nothing is decoded, validated, or allocated. Given a
// buffer and a Span known to hold an object, ObjectValue scans the object's top
// level once and returns the Span of the first value whose key matches.
// FindEndComplex locates the delimiter closing an object or array while skipping
// over string literals, so braces inside strings never count as structure.
//
// Results are tagged with a Status so callers can tell an absent field
// (NotFound) from a broken or truncated one (Malformed).
package jsonscan
