// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pubscreen/internal/httputil"
	"github.com/pdiddy/pubscreen/pkg/types"
)

// NCBI E-utilities endpoints. Declared as vars so tests can substitute
// an httptest server.
var (
	pubmedSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedFetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// PubMedBackend queries PubMed through the NCBI E-utilities (R2.3).
// The API has no author-entity resolution, so the roster name goes
// straight into an esearch [Author] field query and the matching PMIDs
// are hydrated with a single efetch call.
type PubMedBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return "pubmed" }

// PublicationsByAuthor searches PubMed for the author's publications.
func (b *PubMedBackend) PublicationsByAuthor(ctx context.Context, author string, cfg types.SearchConfig) ([]types.PublicationRecord, error) {
	ids, err := b.searchIDs(ctx, author, cfg)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return b.fetchArticles(ctx, ids, cfg)
}

// searchIDs runs esearch and returns the matching PMIDs.
func (b *PubMedBackend) searchIDs(ctx context.Context, author string, cfg types.SearchConfig) ([]string, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {author + "[Author]"},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"retmode": {"json"},
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}

	resp, err := b.get(ctx, pubmedSearchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sr pubmedSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed esearch response: %w", err)
	}
	return sr.ESearchResult.IDList, nil
}

// fetchArticles hydrates PMIDs into publication records via efetch.
func (b *PubMedBackend) fetchArticles(ctx context.Context, ids []string, cfg types.SearchConfig) ([]types.PublicationRecord, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	if b.APIKey != "" {
		params.Set("api_key", b.APIKey)
	}

	resp, err := b.get(ctx, pubmedFetchBase+"?"+params.Encode(), cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing PubMed efetch response: %w", err)
	}

	var records []types.PublicationRecord
	for _, article := range set.Articles {
		title := strings.TrimSpace(article.Citation.Article.Title)
		if title == "" {
			continue
		}
		r := types.PublicationRecord{
			Identifier: "pmid:" + article.Citation.PMID,
			Title:      title,
			Abstract:   article.Citation.Article.Abstract.text(),
			Source:     b.Name(),
		}
		if year, convErr := strconv.Atoi(article.Citation.Article.Journal.Issue.PubDate.Year); convErr == nil {
			r.Year = year
		}
		for _, a := range article.Citation.Article.AuthorList.Authors {
			if name := a.fullName(); name != "" {
				r.Authors = append(r.Authors, name)
			}
			for _, aff := range a.Affiliations {
				if aff = strings.TrimSpace(aff); aff != "" {
					r.Affiliations = append(r.Affiliations, aff)
				}
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// get performs a GET with retry and checks the status code.
func (b *PubMedBackend) get(ctx context.Context, reqURL string, cfg types.SearchConfig) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed API request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("PubMed API returned HTTP %d", resp.StatusCode)
	}
	return resp, nil
}

// PubMed esearch JSON structure.
type pubmedSearchResponse struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// PubMed efetch XML structures.
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation pubmedCitation `xml:"MedlineCitation"`
}

type pubmedCitation struct {
	PMID    string           `xml:"PMID"`
	Article pubmedArticleXML `xml:"Article"`
}

type pubmedArticleXML struct {
	Title      string           `xml:"ArticleTitle"`
	Abstract   pubmedAbstract   `xml:"Abstract"`
	AuthorList pubmedAuthorList `xml:"AuthorList"`
	Journal    pubmedJournal    `xml:"Journal"`
}

type pubmedJournal struct {
	Issue struct {
		PubDate struct {
			Year string `xml:"Year"`
		} `xml:"PubDate"`
	} `xml:"JournalIssue"`
}

type pubmedAbstract struct {
	// Structured abstracts carry one AbstractText per section.
	Sections []string `xml:"AbstractText"`
}

func (a pubmedAbstract) text() string {
	var parts []string
	for _, s := range a.Sections {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

type pubmedAuthorList struct {
	Authors []pubmedAuthor `xml:"Author"`
}

type pubmedAuthor struct {
	LastName       string   `xml:"LastName"`
	ForeName       string   `xml:"ForeName"`
	CollectiveName string   `xml:"CollectiveName"`
	Affiliations   []string `xml:"AffiliationInfo>Affiliation"`
}

func (a pubmedAuthor) fullName() string {
	if a.CollectiveName != "" {
		return a.CollectiveName
	}
	return strings.TrimSpace(a.ForeName + " " + a.LastName)
}
