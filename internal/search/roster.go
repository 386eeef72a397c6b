// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// rosterFile is the YAML shape of an author roster.
type rosterFile struct {
	Authors []string `yaml:"authors"`
}

// LoadRoster reads a YAML roster of author names. Blank entries are
// dropped, surrounding whitespace is trimmed, and exact duplicates are
// removed while preserving order. An empty roster is an error.
func LoadRoster(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var authors []string
	for _, name := range rf.Authors {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		authors = append(authors, name)
	}
	if len(authors) == 0 {
		return nil, fmt.Errorf("roster %s lists no authors", path)
	}
	return authors, nil
}
