// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score aggregates match results into relevance scores and
// category assignments.
// Implements: prd004-scoring (R1-R4);
//
//	docs/ARCHITECTURE § Scoring.
//
// Scoring is pure: the taxonomy and policy are passed in explicitly,
// the input record is never mutated, and the same inputs always produce
// the same ScoredPublication. Adding a distinct keyword occurrence can
// only raise the total score, never lower it.
package score

import (
	"sort"

	"github.com/pdiddy/pubscreen/internal/match"
	"github.com/pdiddy/pubscreen/internal/taxonomy"
	"github.com/pdiddy/pubscreen/pkg/types"
)

// withDefaults fills unset policy fields with the deterministic
// defaults (title 2.0, abstract 1.0, no roll-up). Per prd004-scoring
// R2.1: the ratio is configurable but a default must always exist.
func withDefaults(cfg types.ScoringConfig) types.ScoringConfig {
	def := types.DefaultScoringConfig()
	if cfg.TitleMultiplier <= 0 {
		cfg.TitleMultiplier = def.TitleMultiplier
	}
	if cfg.AbstractMultiplier <= 0 {
		cfg.AbstractMultiplier = def.AbstractMultiplier
	}
	if cfg.InheritanceFactor < 0 {
		cfg.InheritanceFactor = def.InheritanceFactor
	}
	return cfg
}

// Score combines per-field match results for one publication into a
// ScoredPublication. Title matches count at cfg.TitleMultiplier,
// abstract matches at cfg.AbstractMultiplier; each keyword entry
// contributes at most once per field (the matcher reports occurrence
// counts, but repeated words must not inflate scores, R2.2). A zero
// total is valid output: thresholding is the caller's policy (R1.4).
func Score(
	rec types.PublicationRecord,
	title, abstract []match.MatchResult,
	tax *taxonomy.Taxonomy,
	cfg types.ScoringConfig,
) types.ScoredPublication {
	cfg = withDefaults(cfg)

	sub := make([]float64, len(tax.Categories))
	termsByCategory := make(map[int]map[string]struct{})

	addField := func(results []match.MatchResult, multiplier float64) {
		for _, mr := range results {
			for _, tm := range mr.Terms {
				entry := tax.Entries[tm.Entry]
				sub[mr.Category] += entry.Weight * multiplier
				set := termsByCategory[mr.Category]
				if set == nil {
					set = make(map[string]struct{})
					termsByCategory[mr.Category] = set
				}
				set[entry.Term] = struct{}{}
			}
		}
	}
	addField(title, cfg.TitleMultiplier)
	addField(abstract, cfg.AbstractMultiplier)

	// Roll-up: children are visited before parents, so inherited
	// fractions cascade up the forest in one pass (R2.3).
	if cfg.InheritanceFactor > 0 {
		for _, ci := range tax.RollupOrder() {
			parent := tax.Categories[ci].Parent
			if parent >= 0 && sub[ci] > 0 {
				sub[parent] += cfg.InheritanceFactor * sub[ci]
			}
		}
	}

	scored := types.ScoredPublication{
		PublicationRecord: rec,
		MatchType:         matchType(title, abstract),
	}

	for ci, s := range sub {
		if s <= 0 {
			continue
		}
		scored.TotalScore += s
		scored.Categories = append(scored.Categories, types.CategoryScore{
			Category:     tax.CategoryName(ci),
			Score:        s,
			MatchedTerms: sortedTerms(termsByCategory[ci]),
		})
	}

	// Descending by sub-score; the stable sort preserves declaration
	// order on ties, which selects the primary category (R4.1).
	sort.SliceStable(scored.Categories, func(i, j int) bool {
		return scored.Categories[i].Score > scored.Categories[j].Score
	})
	if len(scored.Categories) > 0 {
		scored.PrimaryCategory = scored.Categories[0].Category
	}

	scored.MatchedKeywords = allTerms(termsByCategory)
	return scored
}

// matchType reports which fields produced hits (Title, Abstract, Both,
// or empty). Restores the original review-table column.
func matchType(title, abstract []match.MatchResult) types.MatchType {
	switch {
	case len(title) > 0 && len(abstract) > 0:
		return types.MatchBoth
	case len(title) > 0:
		return types.MatchTitle
	case len(abstract) > 0:
		return types.MatchAbstract
	default:
		return types.MatchNone
	}
}

func sortedTerms(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	terms := make([]string, 0, len(set))
	for term := range set {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func allTerms(byCategory map[int]map[string]struct{}) []string {
	union := make(map[string]struct{})
	for _, set := range byCategory {
		for term := range set {
			union[term] = struct{}{}
		}
	}
	return sortedTerms(union)
}
