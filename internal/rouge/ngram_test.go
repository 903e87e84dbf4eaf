package rouge

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

func TestExtractNgramsUnigrams(t *testing.T) {
	tokens := tokenizer.Tokenize("the cat sat on the mat")
	ngrams, err := ExtractNgrams(tokens, 1)
	if err != nil {
		t.Fatalf("ExtractNgrams failed: %v", err)
	}

	want := Multiset{"the": 2, "cat": 1, "sat": 1, "on": 1, "mat": 1}
	if len(ngrams) != len(want) {
		t.Fatalf("expected %d distinct unigrams, got %d", len(want), len(ngrams))
	}
	for key, count := range want {
		if ngrams[key] != count {
			t.Errorf("unigram %q: expected count %d, got %d", key, count, ngrams[key])
		}
	}
	if total := TotalCount(ngrams); total != 6 {
		t.Errorf("expected total count 6, got %d", total)
	}
}

func TestExtractNgramsBigrams(t *testing.T) {
	tokens := tokenizer.Tokenize("the cat sat on the mat")
	ngrams, err := ExtractNgrams(tokens, 2)
	if err != nil {
		t.Fatalf("ExtractNgrams failed: %v", err)
	}

	wantKeys := []string{"the cat", "cat sat", "sat on", "on the", "the mat"}
	if len(ngrams) != len(wantKeys) {
		t.Fatalf("expected %d distinct bigrams, got %d", len(wantKeys), len(ngrams))
	}
	for _, key := range wantKeys {
		if ngrams[key] != 1 {
			t.Errorf("bigram %q: expected count 1, got %d", key, ngrams[key])
		}
	}
}

// Total count must equal max(0, L-n+1) for a token sequence of length L.
func TestExtractNgramsWindowCount(t *testing.T) {
	for length := 0; length <= 12; length++ {
		tokens := strings.Fields(strings.Repeat("w ", length))
		for n := 1; n <= 14; n++ {
			ngrams, err := ExtractNgrams(tokens, n)
			if err != nil {
				t.Fatalf("ExtractNgrams(len=%d, n=%d) failed: %v", length, n, err)
			}
			want := length - n + 1
			if want < 0 {
				want = 0
			}
			if got := TotalCount(ngrams); got != want {
				t.Errorf("len=%d n=%d: expected total %d, got %d", length, n, want, got)
			}
		}
	}
}

func TestExtractNgramsShortInput(t *testing.T) {
	ngrams, err := ExtractNgrams([]string{"only", "two"}, 3)
	if err != nil {
		t.Fatalf("ExtractNgrams failed: %v", err)
	}
	if len(ngrams) != 0 {
		t.Errorf("expected empty multiset for input shorter than n, got %v", ngrams)
	}
}

func TestExtractNgramsInvalidN(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := ExtractNgrams([]string{"a", "b"}, n)
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Errorf("n=%d: expected ErrInvalidArgument, got %v", n, err)
		}
	}
}

func TestClippedOverlapSelf(t *testing.T) {
	tokens := tokenizer.Tokenize("to be or not to be")
	ngrams, err := ExtractNgrams(tokens, 1)
	if err != nil {
		t.Fatalf("ExtractNgrams failed: %v", err)
	}
	if got, want := ClippedOverlap(ngrams, ngrams), TotalCount(ngrams); got != want {
		t.Errorf("self-overlap: expected %d, got %d", want, got)
	}
}

func TestClippedOverlapClipsRepeats(t *testing.T) {
	// Candidate repeats "the" three times; reference has it once. Clipping
	// credits the repeat only once.
	candidate := Multiset{"the": 3, "cat": 1}
	reference := Multiset{"the": 1, "dog": 2}
	if got := ClippedOverlap(candidate, reference); got != 1 {
		t.Errorf("expected clipped overlap 1, got %d", got)
	}
}

func TestClippedOverlapDisjoint(t *testing.T) {
	candidate := Multiset{"alpha": 2, "beta": 1}
	reference := Multiset{"gamma": 1, "delta": 4}
	if got := ClippedOverlap(candidate, reference); got != 0 {
		t.Errorf("expected 0 overlap for disjoint multisets, got %d", got)
	}
}

func TestClippedOverlapReferenceOnlyKeysIgnored(t *testing.T) {
	candidate := Multiset{"shared": 1}
	reference := Multiset{"shared": 5, "extra": 10}
	if got := ClippedOverlap(candidate, reference); got != 1 {
		t.Errorf("reference-only n-grams must not contribute: expected 1, got %d", got)
	}
}

func TestTotalCountEmpty(t *testing.T) {
	if got := TotalCount(Multiset{}); got != 0 {
		t.Errorf("expected 0 for empty multiset, got %d", got)
	}
}
