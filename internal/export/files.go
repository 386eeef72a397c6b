// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubscreen/pkg/types"
)

// csvHeader is the review spreadsheet column layout (R4.2). The first
// columns match what the review team already annotates by hand; the
// scoring columns follow.
var csvHeader = []string{
	"professor_name",
	"affiliations",
	"paper_title",
	"paper_year",
	"paper_abstract",
	"match_type",
	"match_categories",
	"matched_keywords",
	"total_score",
	"primary_category",
	"identifier",
	"source",
}

// WriteCSV writes the ranked dataset as a review spreadsheet (R4.1).
func WriteCSV(dataset types.RankedDataset, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, p := range dataset.Publications {
		year := ""
		if p.Year > 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		row := []string{
			strings.Join(p.AuthorQueries, "; "),
			strings.Join(p.Affiliations, "; "),
			p.Title,
			year,
			p.Abstract,
			string(p.MatchType),
			strings.Join(categoryNames(p.Categories), "; "),
			strings.Join(p.MatchedKeywords, "; "),
			fmt.Sprintf("%g", p.TotalScore),
			p.PrimaryCategory,
			p.Identifier,
			p.Source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteYAML writes the ranked dataset as YAML to w (R4.3).
func WriteYAML(dataset types.RankedDataset, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(dataset)
}

// WriteJSON writes the ranked dataset as indented JSON to w (R4.4).
func WriteJSON(dataset types.RankedDataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dataset)
}

// FormatTable writes a human-readable summary table of the dataset to
// w (R4.5).
func FormatTable(dataset types.RankedDataset, w io.Writer) {
	if len(dataset.Publications) == 0 {
		fmt.Fprintln(w, "No publications found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-6s  %-8s  %-28s  %s\n",
		"Rank", "Title", "Score", "Match", "Primary Category", "Year")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, p := range dataset.Publications {
		title := p.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if p.Year > 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-6.2f  %-8s  %-28s  %s\n",
			i+1, title, p.TotalScore, p.MatchType, truncate(p.PrimaryCategory, 28), year)
	}

	fmt.Fprintf(w, "\n%d publications", len(dataset.Publications))
	if dataset.DuplicatesMerged > 0 {
		fmt.Fprintf(w, " (%d duplicates merged)", dataset.DuplicatesMerged)
	}
	fmt.Fprintln(w)
}

func categoryNames(cats []types.CategoryScore) []string {
	var names []string
	for _, c := range cats {
		names = append(names, c.Category)
	}
	return names
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
