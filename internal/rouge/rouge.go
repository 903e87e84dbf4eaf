// Package rouge implements the ROUGE-N n-gram overlap metric used to score
// machine-generated text against human references.
//
// Text flows one way through the package: text → tokens → n-gram multiset →
// clipped overlap counts → precision/recall/F1. Every call builds fresh local
// state and returns an immutable Score, so independent scoring calls are safe
// to run concurrently with no coordination.
package rouge

import (
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

// RougeN scores candidate against one or more references using n-gram
// overlap, collapsing per-reference results with the given aggregation
// policy.
//
// It fails with ErrInvalidArgument when references is empty or n < 1. An
// empty candidate, or a candidate/reference shorter than n tokens, is not an
// error: the affected metrics are 0 by the zero-denominator convention.
func RougeN(candidate string, references []string, n int, agg Aggregation) (Score, error) {
	if len(references) == 0 {
		return Score{}, apperrors.New(apperrors.ErrInvalidArgument, 400, "at least one reference is required")
	}

	candidateNgrams, err := ExtractNgrams(tokenizer.Tokenize(candidate), n)
	if err != nil {
		return Score{}, err
	}
	candidateTotal := TotalCount(candidateNgrams)

	scores := make([]Score, 0, len(references))
	for _, reference := range references {
		referenceNgrams, err := ExtractNgrams(tokenizer.Tokenize(reference), n)
		if err != nil {
			return Score{}, err
		}
		overlap := ClippedOverlap(candidateNgrams, referenceNgrams)
		scores = append(scores, scoreCounts(overlap, candidateTotal, TotalCount(referenceNgrams)))
	}

	return aggregate(scores, agg)
}
