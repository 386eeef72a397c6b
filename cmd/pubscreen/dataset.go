// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubscreen/internal/export"
	"github.com/pdiddy/pubscreen/internal/search"
	"github.com/pdiddy/pubscreen/pkg/types"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage the screening database (store, retrieve, export)",
	Long: `Dataset manages a local SQLite database of screened publications. Use
subcommands to ingest a scored dataset, query it with full-text search and
filters, or export it to review files.`,
}

// --- store subcommand ---

var datasetStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Ingest a scored query file into the screening database",
	Long: `Store scores a YAML query file saved by screen --save-records and
upserts the ranked dataset into the screening database. Re-ingesting the
same publications updates their rows in place.`,
	RunE: runDatasetStore,
}

func runDatasetStore(cmd *cobra.Command, args []string) error {
	recordsPath, _ := cmd.Flags().GetString("records")
	qf, err := search.ReadQueryFile(recordsPath)
	if err != nil {
		return err
	}

	dataset, err := scoreRecords(cmd, qf.Records)
	if err != nil {
		return err
	}

	store, err := export.NewStore(datasetConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), dataset, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d publication(s) failed ingestion", summary.Failed)
	}
	return nil
}

// --- retrieve subcommand ---

var datasetRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query the screening database with full-text search and filters",
	Long: `Retrieve searches the screening database using FTS5 full-text search
over titles and abstracts, structured filters (category, author, match type,
minimum score), or a combination of both.`,
	RunE: runDatasetRetrieve,
}

func runDatasetRetrieve(cmd *cobra.Command, args []string) error {
	store, err := export.NewStore(datasetConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	opts := datasetQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --category, --author, --match-type, or --min-score")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	export.FormatTable(types.RankedDataset{Publications: results}, os.Stdout)
	return nil
}

// --- export subcommand ---

var datasetExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the screening database to review files",
	Long: `Export writes the screening database (or a filtered subset) to
[dataset-dir]/export.[format]. Supports the same filter flags as retrieve
for partial exports.`,
	RunE: runDatasetExport,
}

func runDatasetExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg := datasetConfig(cmd)
	store, err := export.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := datasetQueryOpts(cmd, args)
	opts.MaxResults = exportAllLimit

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}
	dataset := types.RankedDataset{Publications: results}

	path := filepath.Join(cfg.DatasetDir, "export."+format)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	switch format {
	case "csv":
		err = export.WriteCSV(dataset, f)
	case "yaml":
		err = export.WriteYAML(dataset, f)
	case "json":
		err = export.WriteJSON(dataset, f)
	default:
		return fmt.Errorf("unsupported format %q: use csv, yaml, or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d publications to %s\n", len(results), path)
	return nil
}

const exportAllLimit = 100000

// --- shared helpers ---

func datasetConfig(cmd *cobra.Command) types.ExportConfig {
	datasetDir, _ := cmd.Flags().GetString("dataset-dir")
	if datasetDir == "" {
		datasetDir = "dataset"
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return types.ExportConfig{
		DatasetDir: datasetDir,
		MaxResults: maxResults,
	}
}

func datasetQueryOpts(cmd *cobra.Command, args []string) export.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	category, _ := cmd.Flags().GetString("category")
	author, _ := cmd.Flags().GetString("author")
	matchType, _ := cmd.Flags().GetString("match-type")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	limit, _ := cmd.Flags().GetInt("limit")

	return export.QueryOptions{
		Query:      queryText,
		Category:   category,
		Author:     author,
		MatchType:  types.MatchType(matchType),
		MinScore:   minScore,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	datasetCmd.PersistentFlags().String("dataset-dir", "dataset", "base directory for the screening dataset (contains index/)")
	datasetCmd.PersistentFlags().Int("max-results", 50, "maximum number of query results")

	// Store flags.
	datasetStoreCmd.Flags().String("records", "", "YAML query file saved by screen --save-records")
	datasetStoreCmd.MarkFlagRequired("records")
	addScoringFlags(datasetStoreCmd)

	// Retrieve flags.
	datasetRetrieveCmd.Flags().String("query", "", "full-text search query over titles and abstracts")
	datasetRetrieveCmd.Flags().String("category", "", "filter by taxonomy category")
	datasetRetrieveCmd.Flags().String("author", "", "filter by roster author name")
	datasetRetrieveCmd.Flags().String("match-type", "", "filter by match type: Title, Abstract, or Both")
	datasetRetrieveCmd.Flags().Float64("min-score", 0, "minimum total score")
	datasetRetrieveCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	datasetRetrieveCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	datasetExportCmd.Flags().String("format", "csv", "export format: csv, yaml, or json")
	datasetExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	datasetExportCmd.Flags().String("category", "", "filter by taxonomy category for partial export")
	datasetExportCmd.Flags().String("author", "", "filter by roster author name for partial export")
	datasetExportCmd.Flags().String("match-type", "", "filter by match type for partial export")
	datasetExportCmd.Flags().Float64("min-score", 0, "minimum total score for partial export")

	// Wire subcommands.
	datasetCmd.AddCommand(datasetStoreCmd)
	datasetCmd.AddCommand(datasetRetrieveCmd)
	datasetCmd.AddCommand(datasetExportCmd)

	rootCmd.AddCommand(datasetCmd)
}
