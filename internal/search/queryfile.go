// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubscreen/pkg/types"
)

// QueryFile is the on-disk representation of a roster fetch and its
// results. The researcher can save a fetch to a file and re-score it
// later without re-querying APIs.
// Implements: prd006-search R3.1, R3.2.
type QueryFile struct {
	Authors []string                  `yaml:"authors"`
	Config  QueryFileConfig           `yaml:"config"`
	Records []types.PublicationRecord `yaml:"records"`
	Summary QuerySummary              `yaml:"summary"`
}

// QueryFileConfig stores the search configuration that produced the
// records.
type QueryFileConfig struct {
	MaxResults int      `yaml:"max_results"`
	Backends   []string `yaml:"backends,omitempty"`
}

// QuerySummary stores record statistics and a timestamp.
type QuerySummary struct {
	Total         int       `yaml:"total"`
	BackendErrors []string  `yaml:"backend_errors,omitempty"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the roster, configuration, and fetched records
// to a YAML file.
func WriteQueryFile(path string, authors []string, backends []Backend, cfg types.SearchConfig, out Output) error {
	qf := QueryFile{
		Authors: authors,
		Config:  QueryFileConfig{MaxResults: cfg.MaxResults},
		Records: out.Records,
		Summary: QuerySummary{
			Total:         len(out.Records),
			BackendErrors: out.BackendErrors,
			Timestamp:     time.Now(),
		},
	}
	for _, b := range backends {
		qf.Config.Backends = append(qf.Config.Backends, b.Name())
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
