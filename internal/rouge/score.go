package rouge

// Score holds the precision/recall/F1 triple for one scored pair. All three
// values lie in [0, 1].
type Score struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// scoreCounts derives a Score from raw overlap and total counts. A zero
// denominator yields a zero metric rather than an error: a candidate or
// reference too short to produce n-grams legitimately scores 0.
func scoreCounts(overlap, candidateTotal, referenceTotal int) Score {
	var s Score
	if candidateTotal > 0 {
		s.Precision = float64(overlap) / float64(candidateTotal)
	}
	if referenceTotal > 0 {
		s.Recall = float64(overlap) / float64(referenceTotal)
	}
	s.F1 = f1(s.Precision, s.Recall)
	return s
}

// f1 is the harmonic mean of precision and recall, defined as 0 when both
// inputs are 0.
func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
