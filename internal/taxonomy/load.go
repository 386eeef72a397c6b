// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// File is the on-disk YAML representation of a taxonomy.
// Category order in the file is the declaration order used for
// deterministic tie-breaks, so File preserves it as a list rather
// than a map. Per prd001-taxonomy R1.2.
type File struct {
	Categories []CategorySpec `yaml:"categories"`

	// Terms optionally declares keywords outside category blocks;
	// each must name at least one owning category.
	Terms []TermSpec `yaml:"terms,omitempty"`
}

// Parse builds a validated Taxonomy from YAML bytes.
func Parse(data []byte) (*Taxonomy, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaxonomy, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories declared", ErrInvalidTaxonomy)
	}
	return New(f.Categories, f.Terms)
}

// Load reads and validates a taxonomy YAML file. An empty path selects
// the built-in dementia/reminiscence-therapy taxonomy (R1.1).
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return t, nil
}
