// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank deduplicates and orders scored publications.
// Implements: prd005-ranking (R1-R3);
//
//	docs/ARCHITECTURE § Ranking.
//
// The same paper frequently appears under several roster searches and
// backends. Rank groups such records, keeps the best one, and produces
// the final sorted dataset. Merging is a maximum under a total order,
// so the result never depends on input order.
package rank

import (
	"sort"
	"strings"

	"github.com/pdiddy/pubscreen/internal/textnorm"
	"github.com/pdiddy/pubscreen/pkg/types"
)

// Rank deduplicates scored publications and sorts them into a
// RankedDataset. Empty input yields an empty dataset with zero merges
// (R3.1). It is the single synchronization point of the pipeline:
// merge decisions need global knowledge of duplicates.
func Rank(pubs []types.ScoredPublication) types.RankedDataset {
	seen := make(map[string]int) // group key → index in kept
	var kept []types.ScoredPublication
	merged := 0

	for _, p := range pubs {
		key := groupKey(p.PublicationRecord)
		if key == "" {
			// No identifier and no title: nothing to group on.
			kept = append(kept, p)
			continue
		}
		if idx, ok := seen[key]; ok {
			kept[idx] = merge(kept[idx], p)
			merged++
			continue
		}
		seen[key] = len(kept)
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return orderBefore(kept[i], kept[j])
	})

	return types.RankedDataset{Publications: kept, DuplicatesMerged: merged}
}

// groupKey returns the duplicate-grouping key: the external identifier
// when present, otherwise a normalized-title fingerprint (R1.1, R1.2).
func groupKey(r types.PublicationRecord) string {
	if r.Identifier != "" {
		return "id:" + r.Identifier
	}
	if fp := textnorm.Fingerprint(r.Title); fp != "" {
		return "title:" + fp
	}
	return ""
}

// merge keeps the better of two duplicate records and unions their
// provenance. "Better" is a total order (see better), which makes the
// merge commutative and associative: rank(shuffle(x)) == rank(x).
func merge(a, b types.ScoredPublication) types.ScoredPublication {
	winner, loser := a, b
	if better(b, a) {
		winner, loser = b, a
	}

	// Provenance accumulates across duplicates; sorted union keeps the
	// result order-independent.
	winner.Source = unionCSV(winner.Source, loser.Source)
	winner.AuthorQueries = unionStrings(winner.AuthorQueries, loser.AuthorQueries)
	return winner
}

// better reports whether a should survive a merge against b: higher
// total score first; on equal scores the record with a non-empty
// abstract wins (more complete metadata, R2.1, R2.2); remaining ties
// fall back to longer abstract, then identifier, then title, so two
// distinct records never compare equal both ways.
func better(a, b types.ScoredPublication) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	aHas, bHas := a.Abstract != "", b.Abstract != ""
	if aHas != bHas {
		return aHas
	}
	if len(a.Abstract) != len(b.Abstract) {
		return len(a.Abstract) > len(b.Abstract)
	}
	if a.Identifier != b.Identifier {
		return a.Identifier < b.Identifier
	}
	return a.Title < b.Title
}

// orderBefore is the final dataset ordering: score descending, ties by
// identifier then title, lexicographic, for determinism (R3.2).
func orderBefore(a, b types.ScoredPublication) bool {
	if a.TotalScore != b.TotalScore {
		return a.TotalScore > b.TotalScore
	}
	if a.Identifier != b.Identifier {
		return a.Identifier < b.Identifier
	}
	return a.Title < b.Title
}

// unionCSV merges two comma-separated source lists into a sorted,
// deduplicated comma-separated list.
func unionCSV(a, b string) string {
	parts := append(splitCSV(a), splitCSV(b)...)
	return strings.Join(dedupeSorted(parts), ",")
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	return dedupeSorted(append(append([]string(nil), a...), b...))
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, s := range in[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
