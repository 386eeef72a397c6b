// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taxonomy loads and validates the keyword taxonomy used for
// relevance matching.
// Implements: prd001-taxonomy (R1-R4);
//
//	docs/ARCHITECTURE § Taxonomy.
//
// A Taxonomy is built once per run and read-only afterwards, so it is
// safe to share across concurrent scoring tasks without locking.
package taxonomy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/pubscreen/internal/textnorm"
)

// ErrInvalidTaxonomy is the sentinel wrapped by every taxonomy
// validation failure. A broken taxonomy aborts the run before any
// scoring begins (R3.1).
var ErrInvalidTaxonomy = errors.New("invalid taxonomy")

// Specific validation failures, all wrapping ErrInvalidTaxonomy.
var (
	ErrDuplicateCategory = fmt.Errorf("%w: duplicate category name", ErrInvalidTaxonomy)
	ErrUnknownParent     = fmt.Errorf("%w: unknown parent category", ErrInvalidTaxonomy)
	ErrCategoryCycle     = fmt.Errorf("%w: category parent cycle", ErrInvalidTaxonomy)
	ErrUnownedKeyword    = fmt.Errorf("%w: keyword assigned to zero categories", ErrInvalidTaxonomy)
	ErrNonPositiveWeight = fmt.Errorf("%w: non-positive keyword weight", ErrInvalidTaxonomy)
	ErrEmptyTerm         = fmt.Errorf("%w: empty keyword term", ErrInvalidTaxonomy)
	ErrBadAcronym        = fmt.Errorf("%w: malformed acronym", ErrInvalidTaxonomy)
)

// Category is one node of the taxonomy forest. Parent is an index into
// Taxonomy.Categories, or -1 for roots; storing parents as indexes
// rather than live references keeps validation cheap and rules out
// reference cycles surviving construction (R2.2).
type Category struct {
	// Name is unique within the taxonomy.
	Name string

	// Parent is the parent category index, or -1.
	Parent int
}

// KeywordEntry is one matchable taxonomy term. Immutable after load.
type KeywordEntry struct {
	// Term is the term as declared; acronyms are canonicalized to
	// uppercase at load.
	Term string

	// Acronym selects case-sensitive exact-token matching. Phrase
	// entries match case-insensitively as contiguous token sequences.
	Acronym bool

	// Weight is the positive scoring weight.
	Weight float64

	// Category is the owning category index.
	Category int

	// Tokens is the precomputed folded token sequence for phrases, or
	// the single cased token for acronyms.
	Tokens []string
}

// Taxonomy is the validated category forest plus a flat index from
// normalized term text to entry indexes. Entries appear in declaration
// order, which the scorer uses as the deterministic tie-break (R4.2).
type Taxonomy struct {
	Categories []Category
	Entries    []KeywordEntry

	index       map[string][]int
	rollupOrder []int
}

// Lookup returns the indexes of entries whose normalized term equals
// the normalized input, or nil. The same term may belong to several
// categories ("MT" is both music therapy and memory training in the
// default taxonomy).
func (t *Taxonomy) Lookup(term string) []int {
	return t.index[textnorm.Fingerprint(term)]
}

// CategoryName returns the name for a category index, or "" when out
// of range.
func (t *Taxonomy) CategoryName(i int) string {
	if i < 0 || i >= len(t.Categories) {
		return ""
	}
	return t.Categories[i].Name
}

// CategoryIndex returns the index of the named category, or -1.
func (t *Taxonomy) CategoryIndex(name string) int {
	for i, c := range t.Categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// RollupOrder returns category indexes deepest-first, so processing
// children before parents cascades inherited scores up the forest in
// a single pass (prd004-scoring R2.3).
func (t *Taxonomy) RollupOrder() []int {
	return t.rollupOrder
}

// EntrySpec declares one keyword with an optional weight override.
// A nil Weight inherits the category weight.
type EntrySpec struct {
	Term    string   `yaml:"term"`
	Weight  *float64 `yaml:"weight,omitempty"`
	Acronym bool     `yaml:"acronym,omitempty"`
}

// CategorySpec declares one category and its terms. Keywords and
// Acronyms are shorthand for Entries at the category default weight.
type CategorySpec struct {
	Name     string      `yaml:"name"`
	Parent   string      `yaml:"parent,omitempty"`
	Weight   *float64    `yaml:"weight,omitempty"`
	Keywords []string    `yaml:"keywords,omitempty"`
	Acronyms []string    `yaml:"acronyms,omitempty"`
	Entries  []EntrySpec `yaml:"entries,omitempty"`
}

// TermSpec declares one keyword owned by one or more named categories,
// as an alternative to listing it inside a category block.
type TermSpec struct {
	Term       string   `yaml:"term"`
	Weight     *float64 `yaml:"weight,omitempty"`
	Acronym    bool     `yaml:"acronym,omitempty"`
	Categories []string `yaml:"categories"`
}

const defaultWeight = 1.0

// New builds and validates a Taxonomy from category declarations and
// optional standalone terms. Declaration order is preserved (R4.2).
func New(cats []CategorySpec, terms []TermSpec) (*Taxonomy, error) {
	t := &Taxonomy{
		Categories: make([]Category, 0, len(cats)),
		index:      make(map[string][]int),
	}

	byName := make(map[string]int, len(cats))
	for _, spec := range cats {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category with empty name", ErrInvalidTaxonomy)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		byName[name] = len(t.Categories)
		t.Categories = append(t.Categories, Category{Name: name, Parent: -1})
	}

	// Resolve parents after all names are known, so a parent may be
	// declared later in the file.
	for i, spec := range cats {
		parent := strings.TrimSpace(spec.Parent)
		if parent == "" {
			continue
		}
		pi, ok := byName[parent]
		if !ok {
			return nil, fmt.Errorf("%w: %q (parent of %q)", ErrUnknownParent, parent, spec.Name)
		}
		if pi == i {
			return nil, fmt.Errorf("%w: %q is its own parent", ErrCategoryCycle, spec.Name)
		}
		t.Categories[i].Parent = pi
	}

	if err := t.checkCycles(); err != nil {
		return nil, err
	}

	for i, spec := range cats {
		catWeight, err := resolveWeight(spec.Weight, defaultWeight, spec.Name)
		if err != nil {
			return nil, err
		}
		for _, kw := range spec.Keywords {
			if err := t.addEntry(kw, false, catWeight, i); err != nil {
				return nil, err
			}
		}
		for _, ac := range spec.Acronyms {
			if err := t.addEntry(ac, true, catWeight, i); err != nil {
				return nil, err
			}
		}
		for _, e := range spec.Entries {
			w, err := resolveWeight(e.Weight, catWeight, e.Term)
			if err != nil {
				return nil, err
			}
			if err := t.addEntry(e.Term, e.Acronym, w, i); err != nil {
				return nil, err
			}
		}
	}

	for _, ts := range terms {
		if len(ts.Categories) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnownedKeyword, ts.Term)
		}
		w, err := resolveWeight(ts.Weight, defaultWeight, ts.Term)
		if err != nil {
			return nil, err
		}
		for _, name := range ts.Categories {
			ci, ok := byName[strings.TrimSpace(name)]
			if !ok {
				return nil, fmt.Errorf("%w: term %q names unknown category %q",
					ErrInvalidTaxonomy, ts.Term, name)
			}
			if err := t.addEntry(ts.Term, ts.Acronym, w, ci); err != nil {
				return nil, err
			}
		}
	}

	t.rollupOrder = computeRollupOrder(t.Categories)
	return t, nil
}

// addEntry validates one term, precomputes its tokens, and records it
// in the flat index.
func (t *Taxonomy) addEntry(term string, acronym bool, weight float64, category int) error {
	if category < 0 || category >= len(t.Categories) {
		return fmt.Errorf("%w: %q", ErrUnownedKeyword, term)
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return fmt.Errorf("%w (category %q)", ErrEmptyTerm, t.Categories[category].Name)
	}

	entry := KeywordEntry{Term: term, Acronym: acronym, Weight: weight, Category: category}

	if acronym {
		upper := strings.ToUpper(term)
		if !isAcronymTerm(upper) {
			return fmt.Errorf("%w: %q (want 2-6 letters)", ErrBadAcronym, term)
		}
		entry.Term = upper
		entry.Tokens = []string{upper}
	} else {
		entry.Tokens = textnorm.FoldTokens(term)
		if len(entry.Tokens) == 0 {
			return fmt.Errorf("%w: %q normalizes to nothing", ErrEmptyTerm, term)
		}
	}

	key := strings.ToLower(strings.Join(entry.Tokens, " "))
	t.index[key] = append(t.index[key], len(t.Entries))
	t.Entries = append(t.Entries, entry)
	return nil
}

// resolveWeight applies the inheritance default and rejects explicit
// non-positive weights (R3.3).
func resolveWeight(w *float64, fallback float64, subject string) (float64, error) {
	if w == nil {
		return fallback, nil
	}
	if *w <= 0 {
		return 0, fmt.Errorf("%w: %g for %q", ErrNonPositiveWeight, *w, subject)
	}
	return *w, nil
}

// checkCycles walks every parent chain; a chain longer than the
// category count has revisited itself (R3.4).
func (t *Taxonomy) checkCycles() error {
	for i := range t.Categories {
		steps := 0
		for j := t.Categories[i].Parent; j >= 0; j = t.Categories[j].Parent {
			steps++
			if steps > len(t.Categories) {
				return fmt.Errorf("%w: starting at %q", ErrCategoryCycle, t.Categories[i].Name)
			}
		}
	}
	return nil
}

// computeRollupOrder sorts category indexes by depth descending,
// stable by declaration order.
func computeRollupOrder(cats []Category) []int {
	depth := make([]int, len(cats))
	for i := range cats {
		for j := cats[i].Parent; j >= 0; j = cats[j].Parent {
			depth[i]++
		}
	}
	order := make([]int, len(cats))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return depth[order[a]] > depth[order[b]]
	})
	return order
}

// isAcronymTerm reports whether s is a valid canonical acronym:
// all-uppercase alphabetic, length 2-6. Matches the candidate-run rule
// in textnorm so declared acronyms are always reachable in text.
func isAcronymTerm(s string) bool {
	n := 0
	for _, r := range s {
		if !unicode.IsUpper(r) || !unicode.IsLetter(r) {
			return false
		}
		n++
	}
	return n >= 2 && n <= 6
}
