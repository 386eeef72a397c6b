package score

import (
	"math"
	"reflect"
	"testing"

	"github.com/pdiddy/pubscreen/internal/match"
	"github.com/pdiddy/pubscreen/internal/taxonomy"
	"github.com/pdiddy/pubscreen/internal/textnorm"
	"github.com/pdiddy/pubscreen/pkg/types"
)

func weight(v float64) *float64 { return &v }

func scoreText(t *testing.T, tax *taxonomy.Taxonomy, title, abstract string, cfg types.ScoringConfig) types.ScoredPublication {
	t.Helper()
	rec := types.PublicationRecord{Title: title, Abstract: abstract}
	tm := match.Match(textnorm.Normalize(title), tax)
	am := match.Match(textnorm.Normalize(abstract), tax)
	return Score(rec, tm, am, tax, cfg)
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// The reference scenario: MMSE (weight 5) in the title at multiplier 2
// scores 10, "reminiscence therapy" (weight 3) scores 6, total 16,
// primary category Acronym Match.
func TestScoreReferenceScenario(t *testing.T) {
	tax, err := taxonomy.New([]taxonomy.CategorySpec{
		{Name: "Acronym Match", Weight: weight(5), Acronyms: []string{"MMSE"}},
		{Name: "Phrase Match", Weight: weight(3), Keywords: []string{"reminiscence therapy"}},
	}, nil)
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}

	got := scoreText(t, tax, "Using MMSE scores in reminiscence therapy studies", "", types.ScoringConfig{})

	if !almostEqual(got.TotalScore, 16) {
		t.Errorf("TotalScore = %g, want 16", got.TotalScore)
	}
	if got.PrimaryCategory != "Acronym Match" {
		t.Errorf("PrimaryCategory = %q, want Acronym Match", got.PrimaryCategory)
	}
	if len(got.Categories) != 2 {
		t.Fatalf("len(Categories) = %d, want 2", len(got.Categories))
	}
	if !almostEqual(got.Categories[0].Score, 10) || !almostEqual(got.Categories[1].Score, 6) {
		t.Errorf("sub-scores = %g, %g, want 10, 6", got.Categories[0].Score, got.Categories[1].Score)
	}
	if got.MatchType != types.MatchTitle {
		t.Errorf("MatchType = %q, want Title", got.MatchType)
	}
	if want := []string{"MMSE", "reminiscence therapy"}; !reflect.DeepEqual(got.MatchedKeywords, want) {
		t.Errorf("MatchedKeywords = %v, want %v", got.MatchedKeywords, want)
	}
}

func TestScoreFieldMultipliers(t *testing.T) {
	tax, err := taxonomy.New([]taxonomy.CategorySpec{
		{Name: "C", Weight: weight(1), Keywords: []string{"dementia"}},
	}, nil)
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}

	title := scoreText(t, tax, "dementia", "", types.ScoringConfig{})
	abstract := scoreText(t, tax, "", "dementia", types.ScoringConfig{})
	if !almostEqual(title.TotalScore, 2*abstract.TotalScore) {
		t.Errorf("title score %g should be twice abstract score %g", title.TotalScore, abstract.TotalScore)
	}

	custom := types.ScoringConfig{TitleMultiplier: 5, AbstractMultiplier: 1}
	boosted := scoreText(t, tax, "dementia", "", custom)
	if !almostEqual(boosted.TotalScore, 5) {
		t.Errorf("custom multiplier score = %g, want 5", boosted.TotalScore)
	}
}

func TestScoreOncePerField(t *testing.T) {
	tax, err := taxonomy.New([]taxonomy.CategorySpec{
		{Name: "C", Weight: weight(1), Keywords: []string{"dementia"}},
	}, nil)
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}

	// Repeating a word within a field must not inflate the score;
	// the same word in title AND abstract counts once per field.
	once := scoreText(t, tax, "dementia", "", types.ScoringConfig{})
	repeated := scoreText(t, tax, "dementia dementia dementia", "", types.ScoringConfig{})
	if !almostEqual(once.TotalScore, repeated.TotalScore) {
		t.Errorf("repeated word changed score: %g vs %g", once.TotalScore, repeated.TotalScore)
	}

	both := scoreText(t, tax, "dementia", "dementia", types.ScoringConfig{})
	if !almostEqual(both.TotalScore, 3) { // 1×2 title + 1×1 abstract
		t.Errorf("both fields score = %g, want 3", both.TotalScore)
	}
	if both.MatchType != types.MatchBoth {
		t.Errorf("MatchType = %q, want Both", both.MatchType)
	}
}

func TestScoreRollup(t *testing.T) {
	tax, err := taxonomy.New([]taxonomy.CategorySpec{
		{Name: "Interventions"},
		{Name: "Music", Parent: "Interventions", Weight: weight(4), Keywords: []string{"music therapy"}},
	}, nil)
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}

	// Default factor 0: no roll-up.
	flat := scoreText(t, tax, "music therapy", "", types.ScoringConfig{})
	if len(flat.Categories) != 1 || !almostEqual(flat.TotalScore, 8) {
		t.Errorf("no-rollup result = %+v, want single category, total 8", flat)
	}

	// Factor 0.5: parent inherits half the child's sub-score.
	rolled := scoreText(t, tax, "music therapy", "", types.ScoringConfig{InheritanceFactor: 0.5})
	if len(rolled.Categories) != 2 {
		t.Fatalf("rollup categories = %+v, want 2", rolled.Categories)
	}
	if rolled.PrimaryCategory != "Music" {
		t.Errorf("PrimaryCategory = %q, want Music", rolled.PrimaryCategory)
	}
	if !almostEqual(rolled.TotalScore, 8+4) {
		t.Errorf("rollup total = %g, want 12", rolled.TotalScore)
	}
	for _, cs := range rolled.Categories {
		if cs.Category == "Interventions" && !almostEqual(cs.Score, 4) {
			t.Errorf("parent sub-score = %g, want 4", cs.Score)
		}
	}
}

func TestScoreRollupCascades(t *testing.T) {
	tax, err := taxonomy.New([]taxonomy.CategorySpec{
		{Name: "root"},
		{Name: "mid", Parent: "root"},
		{Name: "leaf", Parent: "mid", Weight: weight(8), Keywords: []string{"dementia"}},
	}, nil)
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}

	got := scoreText(t, tax, "dementia", "", types.ScoringConfig{InheritanceFactor: 0.5})
	// leaf 16, mid 8, root 4.
	want := map[string]float64{"leaf": 16, "mid": 8, "root": 4}
	if len(got.Categories) != 3 {
		t.Fatalf("categories = %+v, want 3", got.Categories)
	}
	for _, cs := range got.Categories {
		if !almostEqual(cs.Score, want[cs.Category]) {
			t.Errorf("%s sub-score = %g, want %g", cs.Category, cs.Score, want[cs.Category])
		}
	}
}

func TestScorePrimaryTieBreak(t *testing.T) {
	tax, err := taxonomy.New([]taxonomy.CategorySpec{
		{Name: "First", Weight: weight(2), Keywords: []string{"alpha term"}},
		{Name: "Second", Weight: weight(2), Keywords: []string{"beta term"}},
	}, nil)
	if err != nil {
		t.Fatalf("taxonomy.New: %v", err)
	}

	// Equal sub-scores: first declared category wins.
	got := scoreText(t, tax, "beta term and alpha term", "", types.ScoringConfig{})
	if got.PrimaryCategory != "First" {
		t.Errorf("PrimaryCategory = %q, want First (declaration order)", got.PrimaryCategory)
	}
}

func TestScoreEmptyPublication(t *testing.T) {
	tax := taxonomy.Default()
	got := scoreText(t, tax, "", "", types.ScoringConfig{})

	if got.TotalScore != 0 {
		t.Errorf("TotalScore = %g, want 0", got.TotalScore)
	}
	if len(got.Categories) != 0 {
		t.Errorf("Categories = %+v, want empty", got.Categories)
	}
	if got.PrimaryCategory != "" || got.MatchType != types.MatchNone {
		t.Errorf("empty publication should have no primary category or match type")
	}
}

func TestScoreDeterminism(t *testing.T) {
	tax := taxonomy.Default()
	title := "Reminiscence therapy and MMSE outcomes in dementia"
	abstract := "A randomized trial of group reminiscence and cognitive stimulation."

	a := scoreText(t, tax, title, abstract, types.ScoringConfig{InheritanceFactor: 0.25})
	b := scoreText(t, tax, title, abstract, types.ScoringConfig{InheritanceFactor: 0.25})
	if !reflect.DeepEqual(a, b) {
		t.Errorf("scoring is not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestScoreMonotonicity(t *testing.T) {
	tax := taxonomy.Default()

	base := scoreText(t, tax, "reminiscence therapy", "", types.ScoringConfig{})
	more := scoreText(t, tax, "reminiscence therapy for dementia", "", types.ScoringConfig{})
	if more.TotalScore < base.TotalScore {
		t.Errorf("adding a distinct match lowered the score: %g -> %g",
			base.TotalScore, more.TotalScore)
	}

	withAbstract := scoreText(t, tax, "reminiscence therapy", "music therapy helps", types.ScoringConfig{})
	if withAbstract.TotalScore < base.TotalScore {
		t.Errorf("adding an abstract match lowered the score: %g -> %g",
			base.TotalScore, withAbstract.TotalScore)
	}
}
