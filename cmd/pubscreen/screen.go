// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubscreen/internal/export"
	"github.com/pdiddy/pubscreen/internal/screen"
	"github.com/pdiddy/pubscreen/internal/search"
	"github.com/pdiddy/pubscreen/internal/secrets"
	"github.com/pdiddy/pubscreen/internal/taxonomy"
	"github.com/pdiddy/pubscreen/pkg/types"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Fetch, score, and rank publications for a roster of authors",
	Long: `Screen runs the full pipeline: it queries the enabled bibliographic
backends for every author on the roster, scores each publication against the
taxonomy, deduplicates across backends and authors, and writes the ranked
dataset in the requested format.

Fetched records can be saved with --save-records and re-scored later with
the score command, without touching the APIs again.`,
	RunE: runScreen,
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	authors, err := rosterFromFlags(cmd)
	if err != nil {
		return err
	}

	searchCfg := searchConfigFromFlags(cmd)
	secrets.ApplyToSearch(loadedSecrets, &searchCfg)

	client := &http.Client{Timeout: searchCfg.Timeout}
	backends := search.Backends(searchCfg, client)

	out, err := search.FetchAll(ctx, authors, backends, searchCfg, os.Stderr)
	if err != nil {
		return err
	}

	if recordsPath, _ := cmd.Flags().GetString("save-records"); recordsPath != "" {
		if err := search.WriteQueryFile(recordsPath, authors, backends, searchCfg, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d records to %s\n", len(out.Records), recordsPath)
	}

	dataset, err := scoreRecords(cmd, out.Records)
	if err != nil {
		return err
	}

	return writeDataset(cmd, dataset)
}

// scoreRecords runs the scoring pipeline over fetched records.
func scoreRecords(cmd *cobra.Command, records []types.PublicationRecord) (types.RankedDataset, error) {
	taxPath, _ := cmd.Flags().GetString("taxonomy")
	if taxPath == "" {
		taxPath = viper.GetString("taxonomy.path")
	}
	tax, err := taxonomy.Load(taxPath)
	if err != nil {
		return types.RankedDataset{}, err
	}

	return screen.Run(records, tax, scoringConfigFromFlags(cmd), os.Stderr)
}

// rosterFromFlags resolves the author list from --author flags or a
// roster file.
func rosterFromFlags(cmd *cobra.Command) ([]string, error) {
	authors, _ := cmd.Flags().GetStringArray("author")
	if len(authors) > 0 {
		return authors, nil
	}
	rosterPath, _ := cmd.Flags().GetString("roster")
	if rosterPath == "" {
		rosterPath = viper.GetString("search.roster")
	}
	if rosterPath == "" {
		return nil, fmt.Errorf("no authors: provide --roster or --author")
	}
	return search.LoadRoster(rosterPath)
}

func searchConfigFromFlags(cmd *cobra.Command) types.SearchConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	delay, _ := cmd.Flags().GetDuration("delay")
	backendList, _ := cmd.Flags().GetString("backends")

	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "pubscreen/" + version,
		},
		MaxResults:            maxResults,
		AuthorDelay:           delay,
		SemanticScholarAPIKey: viper.GetString("search.semantic_scholar_api_key"),
		NCBIAPIKey:            viper.GetString("search.ncbi_api_key"),
		OpenAlexEmail:         viper.GetString("search.openalex_email"),
	}

	for _, name := range strings.Split(backendList, ",") {
		switch strings.TrimSpace(name) {
		case "semantic_scholar":
			cfg.EnableSemanticScholar = true
		case "openalex":
			cfg.EnableOpenAlex = true
		case "pubmed":
			cfg.EnablePubMed = true
		case "":
		default:
			fmt.Fprintf(os.Stderr, "warning: unknown backend %q ignored\n", name)
		}
	}
	return cfg
}

func scoringConfigFromFlags(cmd *cobra.Command) types.ScoringConfig {
	cfg := types.DefaultScoringConfig()

	if viper.IsSet("scoring.title_multiplier") {
		cfg.TitleMultiplier = viper.GetFloat64("scoring.title_multiplier")
	}
	if viper.IsSet("scoring.abstract_multiplier") {
		cfg.AbstractMultiplier = viper.GetFloat64("scoring.abstract_multiplier")
	}
	if viper.IsSet("scoring.inheritance_factor") {
		cfg.InheritanceFactor = viper.GetFloat64("scoring.inheritance_factor")
	}

	// Flags win over the config file.
	if cmd.Flags().Changed("title-multiplier") {
		cfg.TitleMultiplier, _ = cmd.Flags().GetFloat64("title-multiplier")
	}
	if cmd.Flags().Changed("abstract-multiplier") {
		cfg.AbstractMultiplier, _ = cmd.Flags().GetFloat64("abstract-multiplier")
	}
	if cmd.Flags().Changed("inheritance-factor") {
		cfg.InheritanceFactor, _ = cmd.Flags().GetFloat64("inheritance-factor")
	}
	cfg.Workers, _ = cmd.Flags().GetInt("workers")
	return cfg
}

// writeDataset renders the ranked dataset to --output (or stdout) in
// the --format encoding.
func writeDataset(cmd *cobra.Command, dataset types.RankedDataset) error {
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	w := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "table", "":
		export.FormatTable(dataset, w)
		return nil
	case "csv":
		return export.WriteCSV(dataset, w)
	case "yaml":
		return export.WriteYAML(dataset, w)
	case "json":
		return export.WriteJSON(dataset, w)
	case "csl":
		return export.FormatCSL(dataset, w)
	default:
		return fmt.Errorf("unsupported format %q: use table, csv, yaml, json, or csl", format)
	}
}

// addScoringFlags registers the scoring policy flags shared by screen
// and score.
func addScoringFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("title-multiplier", 2.0, "weight for taxonomy matches in the title")
	cmd.Flags().Float64("abstract-multiplier", 1.0, "weight for taxonomy matches in the abstract")
	cmd.Flags().Float64("inheritance-factor", 0.0, "fraction of child category scores rolled into parents")
	cmd.Flags().Int("workers", 0, "scoring worker pool size (0 = number of CPUs)")
	cmd.Flags().String("taxonomy", "", "taxonomy YAML file (default: built-in taxonomy)")
}

// addOutputFlags registers the dataset output flags shared by screen,
// score, and dataset retrieve.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "table", "output format: table, csv, yaml, json, or csl")
	cmd.Flags().String("output", "", "output file (default: stdout)")
}

func init() {
	screenCmd.Flags().String("roster", "", "YAML roster of author names")
	screenCmd.Flags().StringArray("author", nil, "author name to search (repeatable, overrides --roster)")
	screenCmd.Flags().String("backends", "semantic_scholar,openalex,pubmed", "comma-separated backends to query")
	screenCmd.Flags().Int("max-results", 100, "maximum publications per author per backend")
	screenCmd.Flags().Duration("delay", 3*time.Second, "delay between author queries on one backend")
	screenCmd.Flags().String("save-records", "", "save fetched records to a YAML query file")
	addScoringFlags(screenCmd)
	addOutputFlags(screenCmd)

	rootCmd.AddCommand(screenCmd)
}
