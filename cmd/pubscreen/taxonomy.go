// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubscreen/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Inspect and validate the keyword taxonomy",
}

var taxonomyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a taxonomy YAML file",
	Long: `Validate parses and validates a taxonomy file: category names must be
unique, parent references must resolve without cycles, every keyword must
belong to at least one category, and weights must be positive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("taxonomy")
		tax, err := taxonomy.Load(path)
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Println("Built-in taxonomy is valid.")
		} else {
			fmt.Printf("%s is valid.\n", path)
		}
		fmt.Printf("%d categories, %d keyword entries\n", len(tax.Categories), len(tax.Entries))
		return nil
	},
}

var taxonomyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the taxonomy categories and their keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("taxonomy")
		tax, err := taxonomy.Load(path)
		if err != nil {
			return err
		}

		for ci, cat := range tax.Categories {
			if cat.Parent >= 0 {
				fmt.Fprintf(os.Stdout, "%s (parent: %s)\n", cat.Name, tax.Categories[cat.Parent].Name)
			} else {
				fmt.Fprintln(os.Stdout, cat.Name)
			}

			for _, e := range tax.Entries {
				if e.Category != ci {
					continue
				}
				kind := "phrase"
				if e.Acronym {
					kind = "acronym"
				}
				fmt.Fprintf(os.Stdout, "  %-40s  %-8s  weight %g\n", e.Term, kind, e.Weight)
			}
		}
		return nil
	},
}

func init() {
	taxonomyCmd.PersistentFlags().String("taxonomy", "", "taxonomy YAML file (default: built-in taxonomy)")

	taxonomyCmd.AddCommand(taxonomyValidateCmd)
	taxonomyCmd.AddCommand(taxonomyShowCmd)

	rootCmd.AddCommand(taxonomyCmd)
}
