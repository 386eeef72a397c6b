// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm canonicalizes raw publication text for matching.
// Implements: prd002-normalization (R1-R4);
//
//	docs/ARCHITECTURE § Normalization.
//
// Normalize is a pure function: it lowercases and accent-folds text,
// collapses whitespace and punctuation into token boundaries, and
// preserves the cased form of candidate acronym runs so the matcher can
// test acronym terms case-sensitively against the same text.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents removes combining marks after NFD decomposition, so
// "Elías" folds to "Elias" before lowercasing.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

const (
	// Candidate acronym runs are all-uppercase alphabetic tokens of
	// length 2-6 ("AD", "MMSE", "CORSIA"). Per prd002-normalization R2.1.
	minAcronymLen = 2
	maxAcronymLen = 6
)

// Token is one word of normalized text. Folded is the lowercased,
// accent-stripped form used for phrase matching. Cased preserves the
// original casing for candidate acronyms and equals Folded otherwise.
type Token struct {
	Folded  string
	Cased   string
	Acronym bool
}

// NormalizedText is the tokenized canonical form of a text field.
// Word boundaries are explicit: "art" can never match inside "heart".
type NormalizedText struct {
	Tokens []Token
}

// Empty reports whether the text contained no tokens.
func (n NormalizedText) Empty() bool { return len(n.Tokens) == 0 }

// Folded returns the lowercased token sequence.
func (n NormalizedText) Folded() []string {
	out := make([]string, len(n.Tokens))
	for i, t := range n.Tokens {
		out[i] = t.Folded
	}
	return out
}

// Canonical returns the single-spaced canonical string: folded words,
// with candidate acronyms keeping their case. Normalize(Canonical()) is
// idempotent (R4.1).
func (n NormalizedText) Canonical() string {
	parts := make([]string, len(n.Tokens))
	for i, t := range n.Tokens {
		parts[i] = t.Cased
	}
	return strings.Join(parts, " ")
}

// Normalize converts raw text into NormalizedText. It is deterministic
// and never fails: nil-equivalent output for empty input (R3.1).
func Normalize(raw string) NormalizedText {
	if raw == "" {
		return NormalizedText{}
	}

	folded, _, err := transform.String(stripAccents, raw)
	if err != nil {
		// Transform errors only occur on invalid UTF-8; fall back to
		// the raw bytes rather than failing normalization.
		folded = raw
	}

	var (
		tokens []Token
		b      strings.Builder
	)
	flush := func() {
		if b.Len() == 0 {
			return
		}
		word := b.String()
		b.Reset()
		tokens = append(tokens, newToken(word))
	}

	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return NormalizedText{Tokens: tokens}
}

// newToken classifies a word and produces its folded and cased views.
func newToken(word string) Token {
	if isAcronymRun(word) {
		return Token{Folded: strings.ToLower(word), Cased: word, Acronym: true}
	}
	lower := strings.ToLower(word)
	return Token{Folded: lower, Cased: lower}
}

// isAcronymRun reports whether word is an all-uppercase alphabetic run
// of acronym length.
func isAcronymRun(word string) bool {
	n := 0
	for _, r := range word {
		if !unicode.IsUpper(r) || !unicode.IsLetter(r) {
			return false
		}
		n++
	}
	return n >= minAcronymLen && n <= maxAcronymLen
}

// FoldTokens returns the folded token sequence of raw text. Taxonomy
// loading uses it to precompute phrase tokens.
func FoldTokens(raw string) []string {
	return Normalize(raw).Folded()
}

// Fingerprint returns a fully folded, single-spaced form of raw text.
// The ranker uses it as the duplicate-grouping key for records without
// a stable identifier (prd005-ranking R2.2).
func Fingerprint(raw string) string {
	return strings.Join(FoldTokens(raw), " ")
}
