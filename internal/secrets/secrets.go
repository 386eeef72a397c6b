// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: semantic-scholar-api-key, ncbi-api-key, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pubscreen/pkg/types"
)

// Key file names recognized by ApplyToSearch.
const (
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyNCBI            = "ncbi-api-key"
	KeyOpenAlexEmail   = "openalex-email"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// ApplyToSearch copies recognized secrets into the search configuration.
// Values already set on cfg (e.g. from environment variables) win over
// the secrets directory.
func ApplyToSearch(secrets map[string]string, cfg *types.SearchConfig) {
	if cfg.SemanticScholarAPIKey == "" {
		cfg.SemanticScholarAPIKey = secrets[KeySemanticScholar]
	}
	if cfg.NCBIAPIKey == "" {
		cfg.NCBIAPIKey = secrets[KeyNCBI]
	}
	if cfg.OpenAlexEmail == "" {
		cfg.OpenAlexEmail = secrets[KeyOpenAlexEmail]
	}
}
