// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic APIs for publications by the
// roster authors and returns raw PublicationRecords for scoring.
// Implements: prd006-search (R1-R5);
//
//	docs/ARCHITECTURE § Search.
//
// The scoring core never sees API wire formats: each backend extracts
// records into types.PublicationRecord before handing them over.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pdiddy/pubscreen/pkg/types"
)

// Backend fetches publications for a single author from one
// bibliographic API. Each backend (Semantic Scholar, OpenAlex, PubMed)
// implements this interface per the Strategy pattern (R2.5).
type Backend interface {
	Name() string
	PublicationsByAuthor(ctx context.Context, author string, cfg types.SearchConfig) ([]types.PublicationRecord, error)
}

// Output holds the fetched records and per-backend failure notes.
type Output struct {
	Records       []types.PublicationRecord
	BackendErrors []string
}

// Backends assembles the enabled backends from the configuration.
func Backends(cfg types.SearchConfig, client *http.Client) []Backend {
	var backends []Backend
	if cfg.EnableSemanticScholar {
		backends = append(backends, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	if cfg.EnablePubMed {
		backends = append(backends, &PubMedBackend{Client: client, APIKey: cfg.NCBIAPIKey})
	}
	return backends
}

// FetchAll queries every backend concurrently. Within a backend the
// roster is walked sequentially with cfg.AuthorDelay between authors
// to respect API rate limits (R1.3). A failing author or backend is a
// warning, not a fatal error: the run continues with what it has
// (R5.1). Record provenance (AuthorQueries, Source) is set here.
func FetchAll(ctx context.Context, authors []string, backends []Backend, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if len(authors) == 0 {
		return Output{}, fmt.Errorf("no authors to search: provide a roster file or --author")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends enabled")
	}

	type backendResult struct {
		records []types.PublicationRecord
		errs    []string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			records, errs := fetchBackend(ctx, b, authors, cfg, w)
			ch <- backendResult{records: records, errs: errs}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out Output
	for br := range ch {
		out.Records = append(out.Records, br.records...)
		out.BackendErrors = append(out.BackendErrors, br.errs...)
	}
	return out, nil
}

// fetchBackend walks the roster against one backend.
func fetchBackend(ctx context.Context, b Backend, authors []string, cfg types.SearchConfig, w io.Writer) ([]types.PublicationRecord, []string) {
	var records []types.PublicationRecord
	var errs []string

	for i, author := range authors {
		if i > 0 && cfg.AuthorDelay > 0 {
			select {
			case <-ctx.Done():
				errs = append(errs, fmt.Sprintf("%s: %v", b.Name(), ctx.Err()))
				return records, errs
			case <-time.After(cfg.AuthorDelay):
			}
		}

		batch, err := b.PublicationsByAuthor(ctx, author, cfg)
		if err != nil {
			msg := fmt.Sprintf("%s: %s: %v", b.Name(), author, err)
			errs = append(errs, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
			continue
		}

		for j := range batch {
			batch[j].AuthorQueries = []string{author}
			if batch[j].Source == "" {
				batch[j].Source = b.Name()
			}
		}
		fmt.Fprintf(w, "%s: %s: %d publications\n", b.Name(), author, len(batch))
		records = append(records, batch...)
	}
	return records, errs
}
