// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match finds taxonomy term occurrences in normalized text.
// Implements: prd003-matching (R1-R4);
//
//	docs/ARCHITECTURE § Matching.
//
// Matching is exact-token only: phrases must appear as contiguous
// folded token sequences, acronyms as case-sensitive exact tokens.
// Approximate (fuzzy or stemmed) matching is an explicit non-goal.
package match

import (
	"github.com/pdiddy/pubscreen/internal/taxonomy"
	"github.com/pdiddy/pubscreen/internal/textnorm"
)

// TermMatch records the occurrences of one keyword entry in one field.
// Counts and positions are kept for explainability; the scorer counts
// each entry once per field regardless of Count (R3.2).
type TermMatch struct {
	// Entry is the index into Taxonomy.Entries.
	Entry int

	// Count is the number of occurrences in the field.
	Count int

	// Positions holds the token index of each occurrence's first token.
	Positions []int
}

// MatchResult groups one category's term matches for one field.
// Ephemeral: produced and consumed within a single scoring pass.
type MatchResult struct {
	// Category is the index into Taxonomy.Categories.
	Category int

	// Terms lists matched entries in taxonomy declaration order.
	Terms []TermMatch
}

// Match scans text for every taxonomy entry and returns one MatchResult
// per category with at least one hit, in category declaration order.
// A single text span may satisfy entries in different categories; there
// is no exclusivity between overlapping matches (R2.3). Empty text or
// no matches yield an empty result, never an error (R4.1).
func Match(text textnorm.NormalizedText, tax *taxonomy.Taxonomy) []MatchResult {
	if text.Empty() {
		return nil
	}

	perCategory := make(map[int][]TermMatch)
	for ei := range tax.Entries {
		entry := &tax.Entries[ei]

		var positions []int
		if entry.Acronym {
			positions = acronymPositions(text.Tokens, entry.Term)
		} else {
			positions = phrasePositions(text.Tokens, entry.Tokens)
		}
		if len(positions) == 0 {
			continue
		}

		perCategory[entry.Category] = append(perCategory[entry.Category], TermMatch{
			Entry:     ei,
			Count:     len(positions),
			Positions: positions,
		})
	}

	// Emit categories in declaration order for determinism.
	var results []MatchResult
	for ci := range tax.Categories {
		if terms, ok := perCategory[ci]; ok {
			results = append(results, MatchResult{Category: ci, Terms: terms})
		}
	}
	return results
}

// acronymPositions finds case-sensitive exact-token occurrences of an
// acronym term against the preserved-case view (R2.1). Only candidate
// acronym runs keep their case, so "mmse" in text never matches "MMSE".
func acronymPositions(tokens []textnorm.Token, term string) []int {
	var positions []int
	for i, tok := range tokens {
		if tok.Acronym && tok.Cased == term {
			positions = append(positions, i)
		}
	}
	return positions
}

// phrasePositions finds contiguous folded-token occurrences of a
// phrase (R2.2). Internal hyphens and spacing were already collapsed
// by normalization, so "life-review therapy" and "life review therapy"
// scan identically.
func phrasePositions(tokens []textnorm.Token, phrase []string) []int {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return nil
	}
	var positions []int
scan:
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		for j, want := range phrase {
			if tokens[i+j].Folded != want {
				continue scan
			}
		}
		positions = append(positions, i)
	}
	return positions
}
