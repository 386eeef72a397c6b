// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/pubscreen/internal/httputil"
	"github.com/pdiddy/pubscreen/pkg/types"
)

// OpenAlex endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	openAlexAuthorsBase = "https://api.openalex.org/authors"
	openAlexWorksBase   = "https://api.openalex.org/works"
)

// OpenAlexBackend queries the OpenAlex API (R2.2). Like the Semantic
// Scholar backend it resolves the roster name to an author entity
// first, then filters the works index by that author ID.
type OpenAlexBackend struct {
	Client *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// PublicationsByAuthor fetches the author's works from OpenAlex.
func (b *OpenAlexBackend) PublicationsByAuthor(ctx context.Context, author string, cfg types.SearchConfig) ([]types.PublicationRecord, error) {
	match, err := b.resolveAuthor(ctx, author, cfg)
	if err != nil {
		return nil, err
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}
	if maxResults > 200 {
		maxResults = 200
	}

	params := url.Values{
		// Works accept the bare entity ID (A…) in author filters.
		"filter":   {"author.id:" + shortOpenAlexID(match.ID)},
		"per_page": {fmt.Sprintf("%d", maxResults)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var oar openAlexWorksResponse
	if err := b.getJSON(ctx, openAlexWorksBase+"?"+params.Encode(), cfg, &oar); err != nil {
		return nil, err
	}

	var records []types.PublicationRecord
	for _, work := range oar.Results {
		if work.Title == "" {
			continue
		}
		r := types.PublicationRecord{
			Title:        work.Title,
			Abstract:     reconstructAbstract(work.AbstractInvertedIndex),
			Year:         work.PublicationYear,
			Affiliations: match.institutionNames(),
			Source:       b.Name(),
		}
		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				r.Authors = append(r.Authors, authorship.Author.DisplayName)
			}
		}
		// Prefer DOI as identifier since OpenAlex is DOI-centric; strip
		// the https://doi.org/ prefix to get the bare DOI (R4.2).
		if work.DOI != "" {
			r.Identifier = strings.TrimPrefix(work.DOI, "https://doi.org/")
		} else if work.ID != "" {
			r.Identifier = work.ID
		}
		records = append(records, r)
	}
	return records, nil
}

// resolveAuthor finds the OpenAlex author entity for a roster name.
func (b *OpenAlexBackend) resolveAuthor(ctx context.Context, author string, cfg types.SearchConfig) (openAlexAuthorEntity, error) {
	params := url.Values{
		"search":   {author},
		"per_page": {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	var ar openAlexAuthorsResponse
	if err := b.getJSON(ctx, openAlexAuthorsBase+"?"+params.Encode(), cfg, &ar); err != nil {
		return openAlexAuthorEntity{}, err
	}
	if len(ar.Results) == 0 {
		return openAlexAuthorEntity{}, fmt.Errorf("no OpenAlex author match for %q", author)
	}
	return ar.Results[0], nil
}

// getJSON performs a GET with retry and decodes the body.
func (b *OpenAlexBackend) getJSON(ctx context.Context, reqURL string, cfg types.SearchConfig, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

// shortOpenAlexID strips the https://openalex.org/ prefix from an
// entity URL, leaving the bare ID used in filter expressions.
func shortOpenAlexID(id string) string {
	return strings.TrimPrefix(id, "https://openalex.org/")
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back
// to plain text. The inverted index maps each word to the positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexAuthorsResponse struct {
	Meta    openAlexMeta           `json:"meta"`
	Results []openAlexAuthorEntity `json:"results"`
}

type openAlexAuthorEntity struct {
	ID                    string                 `json:"id"`
	DisplayName           string                 `json:"display_name"`
	WorksCount            int                    `json:"works_count"`
	LastKnownInstitutions []openAlexInstitution  `json:"last_known_institutions"`
}

func (a openAlexAuthorEntity) institutionNames() []string {
	var names []string
	for _, inst := range a.LastKnownInstitutions {
		if inst.DisplayName != "" {
			names = append(names, inst.DisplayName)
		}
	}
	return names
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
}

type openAlexWorksResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
