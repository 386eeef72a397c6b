// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubscreen CLI.
// Implements: prd006-search, prd004-scoring, prd005-ranking,
//             prd007-export (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubscreen/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the pubscreen CLI.
var rootCmd = &cobra.Command{
	Use:   "pubscreen",
	Short: "Screen faculty publications for therapy research relevance",
	Long: `pubscreen discovers publications by a roster of researchers and scores
each one against a keyword taxonomy of reminiscence-therapy and dementia-care
topics. The output is a ranked, deduplicated dataset a review team can
annotate.

The pipeline stages are subcommands: screen fetches and scores in one run,
score re-scores previously fetched records, taxonomy inspects the keyword
configuration, and dataset manages the screening database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubscreen.yaml or ~/.config/pubscreen/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubscreen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubscreen"))
		}
	}

	viper.SetEnvPrefix("PUBSCREEN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
