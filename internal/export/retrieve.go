// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/pubscreen/pkg/types"
)

// QueryOptions holds parameters for screening database queries (R3).
type QueryOptions struct {
	// Query is the FTS5 full-text search string over titles and
	// abstracts (R3.1).
	Query string

	// Category filters to publications whose category list contains the
	// named category (R3.2).
	Category string

	// Author filters by roster query name (R3.3).
	Author string

	// MatchType filters by where the taxonomy hits occurred (R3.4).
	MatchType types.MatchType

	// MinScore drops publications scoring below the threshold (R3.5).
	MinScore float64

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.Author == "" &&
		q.MatchType == types.MatchNone && q.MinScore == 0
}

// Retrieve queries the screening database with optional full-text
// search and structured filters (R3). Full-text queries are ranked by
// FTS relevance; structured-only queries come back in screening order,
// total score descending (R3.6).
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]types.ScoredPublication, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	const columns = `p.identifier, p.title, p.abstract, p.authors, p.author_queries,
		p.affiliations, p.year, p.source, p.total_score, p.primary_category,
		p.match_type, p.matched_keywords, p.categories`

	if useFTS {
		qb.WriteString(`SELECT ` + columns + `
			FROM publications_fts
			JOIN publications p ON p.rowid = publications_fts.rowid
			WHERE publications_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + columns + `
			FROM publications p
			WHERE 1=1`)
	}

	if opts.Category != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(p.categories)
			WHERE json_extract(value, '$.category') = ?)`)
		args = append(args, opts.Category)
	}

	if opts.Author != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(p.author_queries) WHERE value = ?)`)
		args = append(args, opts.Author)
	}

	if opts.MatchType != types.MatchNone {
		qb.WriteString(` AND p.match_type = ?`)
		args = append(args, string(opts.MatchType))
	}

	if opts.MinScore > 0 {
		qb.WriteString(` AND p.total_score >= ?`)
		args = append(args, opts.MinScore)
	}

	if useFTS {
		qb.WriteString(` ORDER BY publications_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.total_score DESC, p.identifier, p.title`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying screening database: %w", err)
	}
	defer rows.Close()

	var results []types.ScoredPublication
	for rows.Next() {
		var (
			p            types.ScoredPublication
			abstract     sql.NullString
			authorsJSON  sql.NullString
			queriesJSON  sql.NullString
			affilJSON    sql.NullString
			source       sql.NullString
			primary      sql.NullString
			matchType    sql.NullString
			keywordsJSON sql.NullString
			catsJSON     sql.NullString
		)

		if err := rows.Scan(
			&p.Identifier, &p.Title, &abstract, &authorsJSON, &queriesJSON,
			&affilJSON, &p.Year, &source, &p.TotalScore, &primary,
			&matchType, &keywordsJSON, &catsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		p.Abstract = abstract.String
		p.Source = source.String
		p.PrimaryCategory = primary.String
		p.MatchType = types.MatchType(matchType.String)

		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		if queriesJSON.Valid {
			json.Unmarshal([]byte(queriesJSON.String), &p.AuthorQueries)
		}
		if affilJSON.Valid {
			json.Unmarshal([]byte(affilJSON.String), &p.Affiliations)
		}
		if keywordsJSON.Valid {
			json.Unmarshal([]byte(keywordsJSON.String), &p.MatchedKeywords)
		}
		if catsJSON.Valid {
			json.Unmarshal([]byte(catsJSON.String), &p.Categories)
		}

		results = append(results, p)
	}

	return results, rows.Err()
}
