package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubscreen/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.ExportConfig{DatasetDir: t.TempDir(), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDataset() types.RankedDataset {
	return types.RankedDataset{
		Publications: []types.ScoredPublication{
			{
				PublicationRecord: types.PublicationRecord{
					Identifier:    "10.1/a",
					Title:         "Reminiscence therapy for dementia",
					Abstract:      "Group reminiscence improved outcomes.",
					Authors:       []string{"Susan M. McCurry"},
					AuthorQueries: []string{"Susan McCurry"},
					Affiliations:  []string{"University of Washington"},
					Year:          2021,
					Source:        "semantic_scholar",
				},
				TotalScore:      16,
				PrimaryCategory: "Reminiscence therapy & variants",
				MatchType:       types.MatchBoth,
				MatchedKeywords: []string{"dementia", "reminiscence therapy"},
				Categories: []types.CategoryScore{
					{Category: "Reminiscence therapy & variants", Score: 12, MatchedTerms: []string{"reminiscence therapy"}},
					{Category: "Dementia-related", Score: 4, MatchedTerms: []string{"dementia"}},
				},
			},
			{
				PublicationRecord: types.PublicationRecord{
					Identifier:    "pmid:22222",
					Title:         "Sleep hygiene in older adults",
					AuthorQueries: []string{"Oleg Zaslavsky"},
					Year:          2019,
					Source:        "pubmed",
				},
				TotalScore: 0,
			},
		},
		DuplicatesMerged: 1,
	}
}

func ingestSample(t *testing.T, store *Store) IngestSummary {
	t.Helper()
	var buf bytes.Buffer
	summary, err := store.Ingest(context.Background(), sampleDataset(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store := testStore(t)

	tables := []string{"publications", "publications_fts"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

// --- ingest tests ---

func TestIngestInsertsAndCounts(t *testing.T) {
	store := testStore(t)
	summary := ingestSample(t, store)

	if summary.Inserted != 2 || summary.Updated != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 inserted", summary)
	}
	if summary.Total() != 2 {
		t.Errorf("Total() = %d, want 2", summary.Total())
	}
}

func TestIngestUpdatesInPlace(t *testing.T) {
	store := testStore(t)
	ingestSample(t, store)

	// Re-screening the same dataset updates rows instead of duplicating.
	dataset := sampleDataset()
	dataset.Publications[0].TotalScore = 20

	var buf bytes.Buffer
	summary, err := store.Ingest(context.Background(), dataset, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 2 || summary.Inserted != 0 {
		t.Errorf("summary = %+v, want 2 updated", summary)
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].TotalScore != 20 {
		t.Errorf("TotalScore = %g, want updated 20", results[0].TotalScore)
	}
}

func TestIngestKeysByTitleWhenNoIdentifier(t *testing.T) {
	store := testStore(t)

	dataset := types.RankedDataset{Publications: []types.ScoredPublication{
		{PublicationRecord: types.PublicationRecord{Title: "Attention Is All You Need"}, TotalScore: 1},
	}}
	var buf bytes.Buffer
	if _, err := store.Ingest(context.Background(), dataset, &buf); err != nil {
		t.Fatal(err)
	}

	// A punctuation variant of the same title hits the same row.
	dataset.Publications[0].Title = "attention is all you need!"
	summary, err := store.Ingest(context.Background(), dataset, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 || summary.Inserted != 0 {
		t.Errorf("summary = %+v, want 1 updated", summary)
	}
}

func TestIngestSkipsKeylessRecords(t *testing.T) {
	store := testStore(t)

	dataset := types.RankedDataset{Publications: []types.ScoredPublication{
		{PublicationRecord: types.PublicationRecord{Title: ""}, TotalScore: 1},
	}}
	var buf bytes.Buffer
	summary, err := store.Ingest(context.Background(), dataset, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 || summary.Inserted != 0 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
}

// --- retrieve tests ---

func TestRetrieveRoundTripsFields(t *testing.T) {
	store := testStore(t)
	ingestSample(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	want := sampleDataset().Publications[0]
	got := results[0]
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestRetrieveFullText(t *testing.T) {
	store := testStore(t)
	ingestSample(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "reminiscence"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Identifier != "10.1/a" {
		t.Errorf("Identifier = %q", results[0].Identifier)
	}
}

func TestRetrieveFilters(t *testing.T) {
	store := testStore(t)
	ingestSample(t, store)

	tests := []struct {
		name    string
		opts    QueryOptions
		wantIDs []string
	}{
		{"min score", QueryOptions{MinScore: 1}, []string{"10.1/a"}},
		{"category", QueryOptions{Category: "Dementia-related"}, []string{"10.1/a"}},
		{"author query", QueryOptions{Author: "Oleg Zaslavsky"}, []string{"pmid:22222"}},
		{"match type", QueryOptions{MatchType: types.MatchBoth}, []string{"10.1/a"}},
		{"no filter returns all", QueryOptions{}, []string{"10.1/a", "pmid:22222"}},
		{"unmatched category", QueryOptions{Category: "Nonexistent"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Retrieve(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, r := range results {
				ids = append(ids, r.Identifier)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestRetrieveOrdersByScore(t *testing.T) {
	store := testStore(t)
	ingestSample(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].TotalScore > results[i-1].TotalScore {
			t.Errorf("results not sorted by score: [%d]=%g > [%d]=%g",
				i, results[i].TotalScore, i-1, results[i-1].TotalScore)
		}
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options should be empty")
	}
	if (QueryOptions{MinScore: 2}).IsEmpty() {
		t.Error("options with a threshold should not be empty")
	}
}

// --- file writer tests ---

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(sampleDataset(), &buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header + 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0], csvHeader) {
		t.Errorf("header = %v", rows[0])
	}

	row := rows[1]
	if row[0] != "Susan McCurry" {
		t.Errorf("professor_name = %q", row[0])
	}
	if row[2] != "Reminiscence therapy for dementia" {
		t.Errorf("paper_title = %q", row[2])
	}
	if row[3] != "2021" {
		t.Errorf("paper_year = %q", row[3])
	}
	if row[5] != "Both" {
		t.Errorf("match_type = %q", row[5])
	}
	if row[6] != "Reminiscence therapy & variants; Dementia-related" {
		t.Errorf("match_categories = %q", row[6])
	}
	if row[7] != "dementia; reminiscence therapy" {
		t.Errorf("matched_keywords = %q", row[7])
	}
	if row[8] != "16" {
		t.Errorf("total_score = %q", row[8])
	}

	// Unknown year renders empty, not zero.
	if rows[2][3] != "2019" {
		t.Errorf("paper_year = %q", rows[2][3])
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(sampleDataset(), &buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	var got types.RankedDataset
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("parsing YAML back: %v", err)
	}
	if !reflect.DeepEqual(got, sampleDataset()) {
		t.Errorf("round trip mismatch")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(sampleDataset(), &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got types.RankedDataset
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("parsing JSON back: %v", err)
	}
	if got.DuplicatesMerged != 1 || len(got.Publications) != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleDataset(), &buf)
	out := buf.String()

	if !strings.Contains(out, "Reminiscence therapy for dementia") {
		t.Errorf("table missing title: %q", out)
	}
	if !strings.Contains(out, "2 publications (1 duplicates merged)") {
		t.Errorf("table missing summary: %q", out)
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(types.RankedDataset{}, &buf)
	if !strings.Contains(buf.String(), "No publications found.") {
		t.Errorf("output = %q", buf.String())
	}
}

// --- CSL tests ---

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatCSL(sampleDataset(), &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}

	var items []CSLItem
	if err := yaml.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("parsing CSL back: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	item := items[0]
	if item.ID != "10.1/a" || item.DOI != "10.1/a" {
		t.Errorf("item = %+v, want DOI set from identifier", item)
	}
	if item.Issued == nil || !reflect.DeepEqual(item.Issued.DateParts, [][]int{{2021}}) {
		t.Errorf("Issued = %+v", item.Issued)
	}
	if len(item.Author) != 1 || item.Author[0].Family != "McCurry" || item.Author[0].Given != "Susan M." {
		t.Errorf("Author = %+v", item.Author)
	}

	// Non-DOI identifiers do not populate the DOI field.
	if items[1].DOI != "" {
		t.Errorf("DOI = %q, want empty for pmid identifier", items[1].DOI)
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CSLName
	}{
		{"family and given", "Susan M. McCurry", CSLName{Given: "Susan M.", Family: "McCurry"}},
		{"single token", "Aristotle", CSLName{Literal: "Aristotle"}},
		{"empty", "", CSLName{}},
		{"surrounding space", "  Jane Doe  ", CSLName{Given: "Jane", Family: "Doe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAuthorName(tt.in); got != tt.want {
				t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
