package rouge

import (
	"errors"
	"math"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

const epsilon = 1e-12

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRougeNCatOnTheMatUnigrams(t *testing.T) {
	// candidate unigrams {the:2, cat:1, sat:1, on:1, mat:1} (6 total),
	// reference unigrams {the:2, cat:1, sat:1, on:1, rug:1} (6 total),
	// clipped overlap = 5 → P = R = F1 = 5/6.
	score, err := RougeN("the cat sat on the mat", []string{"the cat sat on the rug"}, 1, AggregationMax)
	if err != nil {
		t.Fatalf("RougeN failed: %v", err)
	}
	want := 5.0 / 6.0
	if !approxEqual(score.Precision, want) || !approxEqual(score.Recall, want) || !approxEqual(score.F1, want) {
		t.Errorf("expected P=R=F1=%v, got %+v", want, score)
	}
}

func TestRougeNCatOnTheMatBigrams(t *testing.T) {
	// 5 bigrams each side, 4 shared (the-mat vs the-rug differ) → 4/5.
	score, err := RougeN("the cat sat on the mat", []string{"the cat sat on the rug"}, 2, AggregationMax)
	if err != nil {
		t.Fatalf("RougeN failed: %v", err)
	}
	want := 4.0 / 5.0
	if !approxEqual(score.Precision, want) || !approxEqual(score.Recall, want) || !approxEqual(score.F1, want) {
		t.Errorf("expected P=R=F1=%v, got %+v", want, score)
	}
}

func TestRougeNIdenticalTexts(t *testing.T) {
	text := "exact match yields perfect scores across orders"
	for n := 1; n <= 7; n++ {
		score, err := RougeN(text, []string{text}, n, AggregationMax)
		if err != nil {
			t.Fatalf("n=%d: RougeN failed: %v", n, err)
		}
		if !approxEqual(score.Precision, 1) || !approxEqual(score.Recall, 1) || !approxEqual(score.F1, 1) {
			t.Errorf("n=%d: expected perfect score, got %+v", n, score)
		}
	}
}

func TestRougeNNoOverlap(t *testing.T) {
	score, err := RougeN("alpha beta gamma", []string{"delta epsilon zeta"}, 1, AggregationMax)
	if err != nil {
		t.Fatalf("RougeN failed: %v", err)
	}
	if score.Precision != 0 || score.Recall != 0 || score.F1 != 0 {
		t.Errorf("expected zero score for disjoint texts, got %+v", score)
	}
}

func TestRougeNEmptyCandidate(t *testing.T) {
	score, err := RougeN("", []string{"a non empty reference"}, 1, AggregationMax)
	if err != nil {
		t.Fatalf("empty candidate must not error: %v", err)
	}
	if score.Precision != 0 || score.Recall != 0 || score.F1 != 0 {
		t.Errorf("expected zero score for empty candidate, got %+v", score)
	}
}

func TestRougeNCandidateShorterThanN(t *testing.T) {
	score, err := RougeN("two words", []string{"a much longer reference text here"}, 3, AggregationMax)
	if err != nil {
		t.Fatalf("short candidate must not error: %v", err)
	}
	if score.Precision != 0 || score.Recall != 0 || score.F1 != 0 {
		t.Errorf("expected zero score, got %+v", score)
	}
}

func TestRougeNInvalidArguments(t *testing.T) {
	tests := []struct {
		name       string
		references []string
		n          int
	}{
		{"empty references", nil, 1},
		{"zero n", []string{"ref"}, 0},
		{"negative n", []string{"ref"}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RougeN("candidate text", tt.references, tt.n, AggregationMax)
			if !errors.Is(err, apperrors.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRougeNScoresInUnitInterval(t *testing.T) {
	candidates := []string{
		"", "one", "the the the the",
		"a quick brown fox jumps over the lazy dog",
		"repetition repetition repetition of the same phrase repetition",
	}
	references := [][]string{
		{"one two three"},
		{"the quick brown fox", "a lazy dog sleeps"},
		{"completely unrelated words here"},
	}
	for _, cand := range candidates {
		for _, refs := range references {
			for n := 1; n <= 4; n++ {
				for _, agg := range []Aggregation{AggregationMax, AggregationAverage} {
					score, err := RougeN(cand, refs, n, agg)
					if err != nil {
						t.Fatalf("RougeN(%q, %v, %d, %v) failed: %v", cand, refs, n, agg, err)
					}
					for name, v := range map[string]float64{"precision": score.Precision, "recall": score.Recall, "f1": score.F1} {
						if v < 0 || v > 1 {
							t.Errorf("%s out of [0,1]: %v (cand=%q refs=%v n=%d agg=%v)", name, v, cand, refs, n, agg)
						}
					}
				}
			}
		}
	}
}

func TestRougeNSingleReferenceAggregationIdentity(t *testing.T) {
	candidate := "the cat sat on the mat"
	refs := []string{"the cat sat on the rug"}

	maxScore, err := RougeN(candidate, refs, 1, AggregationMax)
	if err != nil {
		t.Fatalf("RougeN max failed: %v", err)
	}
	avgScore, err := RougeN(candidate, refs, 1, AggregationAverage)
	if err != nil {
		t.Fatalf("RougeN average failed: %v", err)
	}
	if maxScore != avgScore {
		t.Errorf("single-reference aggregation must be identity: max=%+v avg=%+v", maxScore, avgScore)
	}
}

func TestRougeNMultiReferenceMax(t *testing.T) {
	candidate := "the cat sat on the mat"
	refs := []string{
		"the cat sat on the mat", // exact match
		"a dog ran in the park",  // poor match
	}
	score, err := RougeN(candidate, refs, 1, AggregationMax)
	if err != nil {
		t.Fatalf("RougeN failed: %v", err)
	}
	if !approxEqual(score.Precision, 1) || !approxEqual(score.Recall, 1) || !approxEqual(score.F1, 1) {
		t.Errorf("max aggregation must pick the best reference: got %+v", score)
	}
}

func TestRougeNMultiReferenceAverage(t *testing.T) {
	candidate := "the cat sat on the mat"
	refs := []string{
		"the cat sat on the mat",
		"alpha beta gamma delta epsilon zeta",
	}
	// Per-reference: (1, 1, 1) and (0, 0, 0) → average (0.5, 0.5, 0.5).
	score, err := RougeN(candidate, refs, 1, AggregationAverage)
	if err != nil {
		t.Fatalf("RougeN failed: %v", err)
	}
	if !approxEqual(score.Precision, 0.5) || !approxEqual(score.Recall, 0.5) || !approxEqual(score.F1, 0.5) {
		t.Errorf("expected averaged score of 0.5, got %+v", score)
	}
}

// Max aggregation takes the per-metric maximum, so the aggregated triple may
// mix values from different references.
func TestRougeNMaxIsPerMetric(t *testing.T) {
	candidate := "a b"
	refs := []string{
		"a b c d", // precision 1, recall 0.5
		"a x",     // precision 0.5, recall 0.5
	}
	score, err := RougeN(candidate, refs, 1, AggregationMax)
	if err != nil {
		t.Fatalf("RougeN failed: %v", err)
	}
	if !approxEqual(score.Precision, 1) {
		t.Errorf("expected max precision 1, got %v", score.Precision)
	}
	if !approxEqual(score.Recall, 0.5) {
		t.Errorf("expected max recall 0.5, got %v", score.Recall)
	}
}

func TestParseAggregation(t *testing.T) {
	tests := []struct {
		in      string
		want    Aggregation
		wantErr bool
	}{
		{"", AggregationMax, false},
		{"max", AggregationMax, false},
		{"avg", AggregationAverage, false},
		{"average", AggregationAverage, false},
		{"median", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseAggregation(tt.in)
		if tt.wantErr {
			if !errors.Is(err, apperrors.ErrInvalidArgument) {
				t.Errorf("ParseAggregation(%q): expected ErrInvalidArgument, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAggregation(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAggregation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestF1HarmonicMean(t *testing.T) {
	tests := []struct {
		p, r, want float64
	}{
		{1, 1, 1},
		{0, 0, 0},
		{1, 0, 0},
		{0.5, 0.5, 0.5},
		{0.8, 0.4, 2 * 0.8 * 0.4 / 1.2},
	}
	for _, tt := range tests {
		if got := f1(tt.p, tt.r); !approxEqual(got, tt.want) {
			t.Errorf("f1(%v, %v) = %v, want %v", tt.p, tt.r, got, tt.want)
		}
	}
}
