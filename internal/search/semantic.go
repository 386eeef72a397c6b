// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/pubscreen/internal/httputil"
	"github.com/pdiddy/pubscreen/pkg/types"
)

// Semantic Scholar Graph API endpoints. Declared as vars so tests can
// substitute an httptest server.
var (
	semanticAuthorSearchBase = "https://api.semanticscholar.org/graph/v1/author/search"
	semanticAuthorPapersBase = "https://api.semanticscholar.org/graph/v1/author/%s/papers"
)

const (
	semanticAuthorFields = "name,affiliations,paperCount"
	semanticPaperFields  = "title,abstract,year,externalIds"
)

// SemanticScholarBackend queries the Semantic Scholar Graph API (R2.1).
// Author lookup runs in two steps: resolve the roster name to an author
// ID, then page through that author's publications.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// PublicationsByAuthor resolves the author name and fetches their
// publication list (R2.1). An author with no API match is an error so
// the caller can surface the roster entry as unresolved.
func (b *SemanticScholarBackend) PublicationsByAuthor(ctx context.Context, author string, cfg types.SearchConfig) ([]types.PublicationRecord, error) {
	match, err := b.resolveAuthor(ctx, author, cfg)
	if err != nil {
		return nil, err
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	params := url.Values{
		"fields": {semanticPaperFields},
		"limit":  {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := fmt.Sprintf(semanticAuthorPapersBase, url.PathEscape(match.AuthorID)) + "?" + params.Encode()

	var pr semanticPapersResponse
	if err := b.getJSON(ctx, reqURL, cfg, &pr); err != nil {
		return nil, err
	}

	var records []types.PublicationRecord
	for _, paper := range pr.Data {
		if paper.Title == "" {
			continue
		}
		r := types.PublicationRecord{
			Title:        paper.Title,
			Abstract:     paper.Abstract,
			Year:         paper.Year,
			Authors:      []string{match.Name},
			Affiliations: match.Affiliations,
			Source:       b.Name(),
		}
		// Prefer the DOI so duplicates line up across backends (R4.2).
		if paper.ExternalIDs.DOI != "" {
			r.Identifier = paper.ExternalIDs.DOI
		} else if paper.PaperID != "" {
			r.Identifier = "s2:" + paper.PaperID
		}
		records = append(records, r)
	}
	return records, nil
}

// resolveAuthor maps a roster name to the best-matching author profile.
// The API ranks matches by relevance; the first hit wins.
func (b *SemanticScholarBackend) resolveAuthor(ctx context.Context, author string, cfg types.SearchConfig) (semanticAuthorMatch, error) {
	params := url.Values{
		"query":  {author},
		"fields": {semanticAuthorFields},
		"limit":  {"1"},
	}
	reqURL := semanticAuthorSearchBase + "?" + params.Encode()

	var sr semanticAuthorResponse
	if err := b.getJSON(ctx, reqURL, cfg, &sr); err != nil {
		return semanticAuthorMatch{}, err
	}
	if len(sr.Data) == 0 {
		return semanticAuthorMatch{}, fmt.Errorf("no Semantic Scholar author match for %q", author)
	}
	return sr.Data[0], nil
}

// getJSON performs an authenticated GET with retry and decodes the body.
func (b *SemanticScholarBackend) getJSON(ctx context.Context, reqURL string, cfg types.SearchConfig, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return nil
}

// Semantic Scholar API JSON structures.
type semanticAuthorResponse struct {
	Total int                   `json:"total"`
	Data  []semanticAuthorMatch `json:"data"`
}

type semanticAuthorMatch struct {
	AuthorID     string   `json:"authorId"`
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations"`
	PaperCount   int      `json:"paperCount"`
}

type semanticPapersResponse struct {
	Offset int             `json:"offset"`
	Next   int             `json:"next"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID     string              `json:"paperId"`
	Title       string              `json:"title"`
	Abstract    string              `json:"abstract"`
	Year        int                 `json:"year"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	PubMed   string `json:"PubMed"`
	CorpusID int    `json:"CorpusId"`
}
