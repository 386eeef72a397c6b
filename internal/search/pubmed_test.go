// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

// newPubMedServer serves canned esearch and efetch responses and
// rewires the endpoint vars to point at it.
func newPubMedServer(t *testing.T, searchJSON, fetchXML string, capture func(*http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			capture(r)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchJSON)
	})
	mux.HandleFunc("/efetch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			capture(r)
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, fetchXML)
	})
	ts := httptest.NewServer(mux)

	oldSearch, oldFetch := pubmedSearchBase, pubmedFetchBase
	pubmedSearchBase = ts.URL + "/esearch.fcgi"
	pubmedFetchBase = ts.URL + "/efetch.fcgi"
	t.Cleanup(func() {
		pubmedSearchBase = oldSearch
		pubmedFetchBase = oldFetch
		ts.Close()
	})
	return ts
}

const pubmedSearchJSON = `{"esearchresult":{"count":"2","idlist":["11111","22222"]}}`

const pubmedFetchXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>11111</PMID>
      <Article>
        <Journal><JournalIssue><PubDate><Year>2021</Year></PubDate></JournalIssue></Journal>
        <ArticleTitle>Reminiscence therapy outcomes</ArticleTitle>
        <Abstract>
          <AbstractText>BACKGROUND text.</AbstractText>
          <AbstractText>RESULTS text.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author>
            <LastName>McCurry</LastName>
            <ForeName>Susan</ForeName>
            <AffiliationInfo><Affiliation>University of Washington</Affiliation></AffiliationInfo>
          </Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>22222</PMID>
      <Article>
        <ArticleTitle>Sleep in dementia caregivers</ArticleTitle>
        <AuthorList>
          <Author><CollectiveName>AD Sleep Study Group</CollectiveName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestPubMedPublicationsByAuthor(t *testing.T) {
	ts := newPubMedServer(t, pubmedSearchJSON, pubmedFetchXML, nil)

	b := &PubMedBackend{Client: ts.Client()}
	records, err := b.PublicationsByAuthor(context.Background(), "Susan McCurry", testCfg())
	if err != nil {
		t.Fatalf("PublicationsByAuthor: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r := records[0]
	if r.Identifier != "pmid:11111" {
		t.Errorf("Identifier = %q, want pmid:11111", r.Identifier)
	}
	if r.Title != "Reminiscence therapy outcomes" {
		t.Errorf("Title = %q", r.Title)
	}
	// Structured abstract sections are joined into one text.
	if r.Abstract != "BACKGROUND text. RESULTS text." {
		t.Errorf("Abstract = %q", r.Abstract)
	}
	if r.Year != 2021 {
		t.Errorf("Year = %d, want 2021", r.Year)
	}
	if want := []string{"Susan McCurry"}; !reflect.DeepEqual(r.Authors, want) {
		t.Errorf("Authors = %v, want %v", r.Authors, want)
	}
	if want := []string{"University of Washington"}; !reflect.DeepEqual(r.Affiliations, want) {
		t.Errorf("Affiliations = %v, want %v", r.Affiliations, want)
	}

	// Collective author names are kept as-is; missing year stays zero.
	if want := []string{"AD Sleep Study Group"}; !reflect.DeepEqual(records[1].Authors, want) {
		t.Errorf("Authors = %v, want %v", records[1].Authors, want)
	}
	if records[1].Year != 0 {
		t.Errorf("Year = %d, want 0", records[1].Year)
	}
}

func TestPubMedRequestParams(t *testing.T) {
	var reqs []*http.Request
	ts := newPubMedServer(t, pubmedSearchJSON, pubmedFetchXML, func(r *http.Request) {
		reqs = append(reqs, r.Clone(context.Background()))
	})

	cfg := testCfg()
	cfg.MaxResults = 30

	b := &PubMedBackend{Client: ts.Client(), APIKey: "ncbi-key"}
	if _, err := b.PublicationsByAuthor(context.Background(), "Susan McCurry", cfg); err != nil {
		t.Fatalf("PublicationsByAuthor: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2 (esearch, efetch)", len(reqs))
	}

	search := reqs[0].URL.Query()
	if got := search.Get("term"); got != "Susan McCurry[Author]" {
		t.Errorf("term param = %q", got)
	}
	if got := search.Get("retmax"); got != "30" {
		t.Errorf("retmax param = %q, want 30", got)
	}
	if got := search.Get("db"); got != "pubmed" {
		t.Errorf("db param = %q", got)
	}

	fetch := reqs[1].URL.Query()
	if got := fetch.Get("id"); got != "11111,22222" {
		t.Errorf("id param = %q", got)
	}
	if got := fetch.Get("retmode"); got != "xml" {
		t.Errorf("retmode param = %q", got)
	}

	for i, r := range reqs {
		if got := r.URL.Query().Get("api_key"); got != "ncbi-key" {
			t.Errorf("request %d: api_key = %q", i, got)
		}
	}
}

// An author with no PubMed matches is an empty result, not an error:
// efetch must not be called with an empty ID list.
func TestPubMedNoMatches(t *testing.T) {
	fetchCalled := false
	ts := newPubMedServer(t, `{"esearchresult":{"count":"0","idlist":[]}}`, pubmedFetchXML,
		func(r *http.Request) {
			if strings.Contains(r.URL.Path, "efetch") {
				fetchCalled = true
			}
		})

	b := &PubMedBackend{Client: ts.Client()}
	records, err := b.PublicationsByAuthor(context.Background(), "Nobody Atall", testCfg())
	if err != nil {
		t.Fatalf("PublicationsByAuthor: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
	if fetchCalled {
		t.Error("efetch should not be called when esearch returns no IDs")
	}
}

func TestPubMedHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	old := pubmedSearchBase
	pubmedSearchBase = ts.URL
	defer func() { pubmedSearchBase = old }()

	b := &PubMedBackend{Client: ts.Client()}
	_, err := b.PublicationsByAuthor(context.Background(), "Susan McCurry", testCfg())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("error = %q, want substring 'HTTP 502'", err.Error())
	}
}

func TestPubMedMalformedXML(t *testing.T) {
	ts := newPubMedServer(t, pubmedSearchJSON, `<PubmedArticleSet><broken`, nil)

	b := &PubMedBackend{Client: ts.Client()}
	_, err := b.PublicationsByAuthor(context.Background(), "Susan McCurry", testCfg())
	if err == nil {
		t.Fatal("expected error for malformed XML")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("error = %q, want substring 'parsing'", err.Error())
	}
}

func TestPubMedBackendName(t *testing.T) {
	b := &PubMedBackend{}
	if got := b.Name(); got != "pubmed" {
		t.Errorf("Name() = %q, want %q", got, "pubmed")
	}
}
