// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubscreen/0.1"). Per prd006-search R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the publication search stage.
// Per prd006-search R1.4, R2.3, R5.1-R5.5.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of publications fetched per
	// author per backend (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// EnablePubMed controls whether the PubMed backend is used.
	EnablePubMed bool `json:"enable_pubmed" yaml:"enable_pubmed"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// NCBIAPIKey is an optional NCBI E-utilities key for the PubMed backend.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// AuthorDelay is the delay between consecutive author queries
	// against the same backend (default 3s, matching API rate limits).
	AuthorDelay time.Duration `json:"author_delay" yaml:"author_delay"`
}

// ScoringConfig holds the relevance scoring policy. All values have
// deterministic defaults; see DefaultScoringConfig.
// Per prd004-scoring R2.1-R2.4.
type ScoringConfig struct {
	// TitleMultiplier weights matches found in the title (default 2.0).
	// A title hit is a stronger relevance signal than an abstract hit.
	TitleMultiplier float64 `json:"title_multiplier" yaml:"title_multiplier"`

	// AbstractMultiplier weights matches found in the abstract (default 1.0).
	AbstractMultiplier float64 `json:"abstract_multiplier" yaml:"abstract_multiplier"`

	// InheritanceFactor is the fraction of a child category's sub-score
	// rolled up into its parent (default 0, no roll-up).
	InheritanceFactor float64 `json:"inheritance_factor" yaml:"inheritance_factor"`

	// Workers is the scoring worker pool size (default: NumCPU).
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultScoringConfig returns the scoring policy defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TitleMultiplier:    2.0,
		AbstractMultiplier: 1.0,
		InheritanceFactor:  0.0,
	}
}

// TaxonomyConfig holds settings for taxonomy loading.
// Per prd001-taxonomy R1.1.
type TaxonomyConfig struct {
	// Path is the taxonomy YAML file. Empty selects the built-in
	// dementia/reminiscence-therapy taxonomy.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ExportConfig holds settings for the review dataset export stage.
// Per prd007-export R1.1-R1.3.
type ExportConfig struct {
	// DatasetDir is the base directory for the review dataset
	// (contains index/screening.db and exported files).
	DatasetDir string `json:"dataset_dir" yaml:"dataset_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Scoring  ScoringConfig  `json:"scoring" yaml:"scoring"`
	Taxonomy TaxonomyConfig `json:"taxonomy" yaml:"taxonomy"`
	Export   ExportConfig   `json:"export" yaml:"export"`
}
