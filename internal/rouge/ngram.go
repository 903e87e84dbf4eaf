package rouge

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

// ngramSeparator joins the tokens of an n-gram into its multiset key.
// Tokens come from a whitespace split and therefore never contain a space,
// so the joined form identifies the token sequence unambiguously.
const ngramSeparator = " "

// Multiset maps each distinct n-gram to its occurrence count. A key absent
// from the map has count zero; every present key has count >= 1.
type Multiset map[string]int

// ExtractNgrams slides a window of width n across tokens with stride 1 and
// counts each produced n-gram. A token sequence shorter than n yields an
// empty multiset. n must be at least 1.
func ExtractNgrams(tokens []string, n int) (Multiset, error) {
	if n < 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, 400, "ngram size must be >= 1, got %d", n)
	}
	ngrams := make(Multiset)
	for i := 0; i+n <= len(tokens); i++ {
		key := strings.Join(tokens[i:i+n], ngramSeparator)
		ngrams[key]++
	}
	return ngrams, nil
}

// ClippedOverlap sums min(candidate count, reference count) over every
// distinct n-gram in candidate. Clipping caps the credit a repeated
// candidate n-gram can earn at the number of times the reference actually
// contains it.
func ClippedOverlap(candidate, reference Multiset) int {
	overlap := 0
	for key, candCount := range candidate {
		refCount := reference[key]
		if refCount < candCount {
			overlap += refCount
		} else {
			overlap += candCount
		}
	}
	return overlap
}

// TotalCount returns the number of n-gram instances in the multiset, i.e.
// the sum of all counts rather than the number of distinct keys.
func TotalCount(m Multiset) int {
	total := 0
	for _, count := range m {
		total += count
	}
	return total
}

// String renders the multiset in a stable-ish debug form.
func (m Multiset) String() string {
	return fmt.Sprintf("Multiset(distinct=%d, total=%d)", len(m), TotalCount(m))
}
