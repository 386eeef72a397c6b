// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/pubscreen/internal/search"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Re-score previously fetched records without touching the APIs",
	Long: `Score reads a YAML query file saved by screen --save-records and runs
the scoring pipeline over it. Useful for iterating on the taxonomy or the
scoring policy: the same records can be re-scored as often as needed with
no network traffic.`,
	RunE: runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	recordsPath, _ := cmd.Flags().GetString("records")
	qf, err := search.ReadQueryFile(recordsPath)
	if err != nil {
		return err
	}

	dataset, err := scoreRecords(cmd, qf.Records)
	if err != nil {
		return err
	}

	return writeDataset(cmd, dataset)
}

func init() {
	scoreCmd.Flags().String("records", "", "YAML query file saved by screen --save-records")
	scoreCmd.MarkFlagRequired("records")
	addScoringFlags(scoreCmd)
	addOutputFlags(scoreCmd)

	rootCmd.AddCommand(scoreCmd)
}
