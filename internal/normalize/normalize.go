// Package normalize canonicalizes document text for rule matching.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalized is the canonical form of a piece of text: uppercased and
// stripped of diacritics. Spaced keeps the original whitespace; Compact drops
// every whitespace rune so that keywords rendered letter-by-letter in a PDF
// ("E C A D") still match. Both forms are derived once and read-only.
type Normalized struct {
	Spaced  string
	Compact string
}

// Normalize canonicalizes raw text. It never fails: empty input yields the
// zero value, and undecodable bytes pass through unchanged. The function does
// no I/O and keeps no state.
func Normalize(raw string) Normalized {
	if raw == "" {
		return Normalized{}
	}

	// Decompose so accented letters split into base rune + combining mark,
	// then drop the marks. The transformer chain carries internal buffers,
	// so build it per call rather than sharing one across goroutines.
	strip := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	spaced, _, err := transform.String(strip, raw)
	if err != nil {
		spaced = raw
	}

	// Uppercase after decomposition: NFKD expands compatibility characters
	// like the "ﬁ" ligature into plain lowercase letters, which ToUpper
	// would otherwise never see.
	spaced = strings.ToUpper(spaced)

	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, spaced)

	return Normalized{Spaced: spaced, Compact: compact}
}

// IsZero reports whether n holds no text at all.
func (n Normalized) IsZero() bool {
	return n.Spaced == "" && n.Compact == ""
}
