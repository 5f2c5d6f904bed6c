// Package normalize canonicalizes free-text entity names into comparable keys.
//
// A Strategy pairs a transform for the incoming spreadsheet text with a
// transform for the known entity name. Resolvers try strategies in order
// and stop at the first hit, so new strategies can be appended without
// touching call sites.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Strategy derives lookup keys for one matching pass.
type Strategy struct {
	Name  string
	Query func(raw string) string  // key for the text being resolved
	Index func(name string) string // key for a known entity name
}

var (
	// Canonical: NFC, lowercase, whitespace runs collapsed to one space.
	Canonical = Strategy{Name: "canonical", Query: CanonicalKey, Index: CanonicalKey}

	// Plain skips Unicode canonicalization on both sides. NFC composes some
	// lowercase sequences that have no uppercase precomposed form ("J\u030c"
	// stays decomposed, "j\u030c" becomes U+01F0), so a name stored in
	// decomposed form can miss under Canonical and still match here.
	Plain = Strategy{Name: "plain", Query: PlainKey, Index: PlainKey}

	// Compact drops every whitespace and invisible separator on both sides.
	Compact = Strategy{Name: "compact", Query: CompactKey, Index: CompactKey}
)

// Default returns the account matching strategies in priority order.
func Default() []Strategy {
	return []Strategy{Canonical, Plain, Compact}
}

// Normalize returns the query key of raw under s.
func Normalize(s Strategy, raw string) string {
	return s.Query(raw)
}

// CanonicalKey applies NFC, lowercases and collapses whitespace.
func CanonicalKey(s string) string {
	return PlainKey(norm.NFC.String(s))
}

// PlainKey lowercases and collapses whitespace without Unicode canonicalization.
func PlainKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CompactKey applies NFC, lowercases and removes all whitespace.
func CompactKey(s string) string {
	return strings.Map(func(r rune) rune {
		if isBlank(r) {
			return -1
		}
		return r
	}, strings.ToLower(norm.NFC.String(s)))
}

// isBlank reports spaces plus the zero-width characters spreadsheets leak.
func isBlank(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return unicode.IsSpace(r)
}
