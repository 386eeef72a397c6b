// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export persists ranked datasets and writes review artifacts.
// Implements: prd007-export (R1-R6);
//
//	docs/ARCHITECTURE § Export.
//
// The store keeps every screened publication in a SQLite database with
// a full-text index over titles and abstracts, so a reviewer can search
// across screening runs without re-fetching anything. File writers
// (CSV, YAML, JSON, CSL) produce the artifacts the review workflow
// consumes.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pubscreen/internal/textnorm"
	"github.com/pdiddy/pubscreen/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "screening.db"
)

// Store manages the screening results SQLite database.
type Store struct {
	db         *sql.DB
	datasetDir string
	maxResults int
}

// NewStore opens or creates the screening database at
// datasetDir/index/screening.db. It creates the schema if it does not
// exist (R1.1, R1.2).
func NewStore(cfg types.ExportConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DatasetDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{
		db:         db,
		datasetDir: cfg.DatasetDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT NOT NULL UNIQUE,
			identifier TEXT,
			title TEXT NOT NULL,
			abstract TEXT,
			authors TEXT,
			author_queries TEXT,
			affiliations TEXT,
			year INTEGER,
			source TEXT,
			total_score REAL NOT NULL,
			primary_category TEXT,
			match_type TEXT,
			matched_keywords TEXT,
			categories TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_score ON publications(total_score)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_category ON publications(primary_category)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='publications_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE publications_fts USING fts5(title, abstract, content=publications, content_rowid=rowid)`,
			`CREATE TRIGGER publications_ai AFTER INSERT ON publications BEGIN
				INSERT INTO publications_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER publications_ad AFTER DELETE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER publications_au AFTER UPDATE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO publications_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a dataset ingestion run (R2.4).
type IngestSummary struct {
	Inserted int
	Updated  int
	Failed   int
}

// Total returns the number of publications processed.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Updated + s.Failed
}

// Ingest upserts a ranked dataset into the database. Publications are
// keyed by identifier (or normalized title when no identifier exists),
// so re-screening the same roster updates rows in place instead of
// duplicating them (R2.1-R2.3).
func (s *Store) Ingest(ctx context.Context, dataset types.RankedDataset, w io.Writer) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO publications
			(key, identifier, title, abstract, authors, author_queries, affiliations,
			 year, source, total_score, primary_category, match_type, matched_keywords, categories)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			identifier=excluded.identifier, title=excluded.title, abstract=excluded.abstract,
			authors=excluded.authors, author_queries=excluded.author_queries,
			affiliations=excluded.affiliations, year=excluded.year, source=excluded.source,
			total_score=excluded.total_score, primary_category=excluded.primary_category,
			match_type=excluded.match_type, matched_keywords=excluded.matched_keywords,
			categories=excluded.categories`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var summary IngestSummary
	for _, p := range dataset.Publications {
		key := storageKey(p.PublicationRecord)
		if key == "" {
			fmt.Fprintf(w, "failed  (untitled record with no identifier)\n")
			summary.Failed++
			continue
		}

		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM publications WHERE key = ?`, key,
		).Scan(&existing); err != nil {
			return summary, fmt.Errorf("checking key %s: %w", key, err)
		}

		authorsJSON, _ := json.Marshal(p.Authors)
		queriesJSON, _ := json.Marshal(p.AuthorQueries)
		affilJSON, _ := json.Marshal(p.Affiliations)
		keywordsJSON, _ := json.Marshal(p.MatchedKeywords)
		categoriesJSON, _ := json.Marshal(p.Categories)

		if _, err := stmt.ExecContext(ctx,
			key, p.Identifier, p.Title, p.Abstract,
			string(authorsJSON), string(queriesJSON), string(affilJSON),
			p.Year, p.Source, p.TotalScore, p.PrimaryCategory,
			string(p.MatchType), string(keywordsJSON), string(categoriesJSON),
		); err != nil {
			return summary, fmt.Errorf("upserting %s: %w", key, err)
		}

		if existing > 0 {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing ingest: %w", err)
	}

	fmt.Fprintf(w, "inserted: %d, updated: %d, failed: %d\n",
		summary.Inserted, summary.Updated, summary.Failed)
	return summary, nil
}

// storageKey mirrors the ranking group key: the external identifier
// when present, otherwise a normalized-title fingerprint.
func storageKey(r types.PublicationRecord) string {
	if r.Identifier != "" {
		return "id:" + r.Identifier
	}
	if fp := textnorm.Fingerprint(r.Title); fp != "" {
		return "title:" + fp
	}
	return ""
}
