// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pubscreen pipeline.
// Implements: prd006-search (PublicationRecord, R4.1);
//
//	prd004-scoring (ScoredPublication, CategoryScore, R1-R4);
//	prd005-ranking (RankedDataset, R1.1-R1.4).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

// PublicationRecord is a candidate publication produced by the search
// collaborators. The core treats it as read-only: scoring derives a
// ScoredPublication and never mutates the record in place.
type PublicationRecord struct {
	// Identifier is the canonical ID from the source (Semantic Scholar
	// paper ID, DOI, OpenAlex work ID, or PubMed ID). May be empty for
	// sources that do not expose a stable identifier.
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the publication title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the publication abstract. Frequently absent in
	// real-world records; an empty abstract is not an error.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the publication authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// AuthorQueries lists the roster names whose searches surfaced this
	// record. A publication found under several searches carries all of
	// them after deduplication, sorted.
	AuthorQueries []string `json:"author_queries,omitempty" yaml:"author_queries,omitempty"`

	// Affiliations lists institutional affiliations reported by the
	// source for the queried author.
	Affiliations []string `json:"affiliations,omitempty" yaml:"affiliations,omitempty"`

	// Year is the publication year, or zero if unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Source identifies which backends returned this record
	// (e.g. "semantic_scholar", "openalex,pubmed" after a merge).
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Raw is the source metadata blob, passed through untouched for
	// downstream review tooling.
	Raw map[string]any `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// MatchType records which fields of a publication contained taxonomy
// hits. Per prd004-scoring R4.2.
type MatchType string

const (
	MatchTitle    MatchType = "Title"
	MatchAbstract MatchType = "Abstract"
	MatchBoth     MatchType = "Both"
	MatchNone     MatchType = ""
)

// CategoryScore is one category's contribution to a publication's
// relevance, with the matched terms retained so a reviewer can see why
// the category fired. Per prd004-scoring R3.1-R3.3.
type CategoryScore struct {
	// Category is the taxonomy category name.
	Category string `json:"category" yaml:"category"`

	// Score is the category sub-score after roll-up.
	Score float64 `json:"score" yaml:"score"`

	// MatchedTerms lists the distinct taxonomy terms that matched,
	// sorted for determinism.
	MatchedTerms []string `json:"matched_terms,omitempty" yaml:"matched_terms,omitempty"`
}

// ScoredPublication is a PublicationRecord plus its relevance scoring.
// Immutable once produced. Per prd004-scoring R1-R4.
type ScoredPublication struct {
	PublicationRecord `yaml:",inline"`

	// TotalScore is the sum of all category sub-scores after roll-up.
	// Zero is a valid score; thresholding is the caller's policy.
	TotalScore float64 `json:"total_score" yaml:"total_score"`

	// Categories holds per-category sub-scores, descending by score
	// with ties broken by taxonomy declaration order.
	Categories []CategoryScore `json:"categories,omitempty" yaml:"categories,omitempty"`

	// PrimaryCategory is the highest-scoring category, or empty when
	// nothing matched.
	PrimaryCategory string `json:"primary_category,omitempty" yaml:"primary_category,omitempty"`

	// MatchType reports whether hits came from the title, the
	// abstract, or both.
	MatchType MatchType `json:"match_type,omitempty" yaml:"match_type,omitempty"`

	// MatchedKeywords lists every distinct matched term across all
	// categories, sorted.
	MatchedKeywords []string `json:"matched_keywords,omitempty" yaml:"matched_keywords,omitempty"`
}

// RankedDataset is the deduplicated, sorted output of the pipeline and
// the terminal artifact of the core. Per prd005-ranking R1.4.
type RankedDataset struct {
	// Publications is ordered by total score descending, ties broken
	// by identifier then title.
	Publications []ScoredPublication `json:"publications" yaml:"publications"`

	// DuplicatesMerged counts records merged away during deduplication.
	DuplicatesMerged int `json:"duplicates_merged" yaml:"duplicates_merged"`
}
