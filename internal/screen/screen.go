// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen orchestrates the scoring pipeline: normalize, match,
// and score each publication, then deduplicate and rank the batch.
// Implements: prd004-scoring (R5), prd005-ranking (R1);
//
//	docs/ARCHITECTURE § Pipeline.
//
// Publications are scored as independent tasks on a worker pool; the
// taxonomy and policy are immutable shared values, so no locking is
// needed. Ranking runs once after every task has finished, since merge
// decisions need the whole batch.
package screen

import (
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pdiddy/pubscreen/internal/match"
	"github.com/pdiddy/pubscreen/internal/rank"
	"github.com/pdiddy/pubscreen/internal/score"
	"github.com/pdiddy/pubscreen/internal/taxonomy"
	"github.com/pdiddy/pubscreen/internal/textnorm"
	"github.com/pdiddy/pubscreen/pkg/types"
)

// ScorePublication normalizes, matches, and scores a single record.
// Pure and safe for concurrent use with a shared taxonomy.
func ScorePublication(rec types.PublicationRecord, tax *taxonomy.Taxonomy, cfg types.ScoringConfig) types.ScoredPublication {
	titleMatches := match.Match(textnorm.Normalize(rec.Title), tax)
	abstractMatches := match.Match(textnorm.Normalize(rec.Abstract), tax)
	return score.Score(rec, titleMatches, abstractMatches, tax, cfg)
}

// Run scores every record concurrently and returns the deduplicated,
// ranked dataset. Each task writes to its own slot, so the output is
// identical to a sequential pass regardless of scheduling.
func Run(records []types.PublicationRecord, tax *taxonomy.Taxonomy, cfg types.ScoringConfig, w io.Writer) (types.RankedDataset, error) {
	if len(records) == 0 {
		return rank.Rank(nil), nil
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return types.RankedDataset{}, fmt.Errorf("creating scoring pool: %w", err)
	}
	defer pool.Release()

	scored := make([]types.ScoredPublication, len(records))
	var wg sync.WaitGroup

	for i := range records {
		i := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			scored[i] = ScorePublication(records[i], tax, cfg)
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return types.RankedDataset{}, fmt.Errorf("submitting scoring task: %w", submitErr)
		}
	}
	wg.Wait()

	dataset := rank.Rank(scored)

	matched := 0
	for _, p := range dataset.Publications {
		if p.TotalScore > 0 {
			matched++
		}
	}
	fmt.Fprintf(w, "scored %d publications: %d relevant, %d duplicates merged\n",
		len(records), matched, dataset.DuplicatesMerged)

	return dataset, nil
}
