// Package normalize decides whether two file contents differ in a way that
// is worth synchronizing. Whitespace-only edits (re-indentation, trailing
// newlines, blank lines) are not.
package normalize

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

// Strip returns b with every whitespace character removed
func Strip(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if !unicode.IsSpace(r) || (r == utf8.RuneError && size == 1) {
			out = append(out, b[:size]...)
		}
		b = b[size:]
	}
	return out
}

// IsSignificantlyDifferent reports whether a and b still differ once all
// whitespace is removed from both.
func IsSignificantlyDifferent(a, b []byte) bool {
	if bytes.Equal(a, b) {
		return false
	}
	return !bytes.Equal(Strip(a), Strip(b))
}

// Kind classifies a pair of contents for logging
type Kind string

const (
	Identical      Kind = "identical"
	WhitespaceOnly Kind = "whitespace-only"
	Significant    Kind = "significant"
)

// Classify returns the Kind of difference between a and b
func Classify(a, b []byte) Kind {
	switch {
	case bytes.Equal(a, b):
		return Identical
	case IsSignificantlyDifferent(a, b):
		return Significant
	default:
		return WhitespaceOnly
	}
}
