package rouge

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

// Aggregation selects how per-reference score triples collapse into one
// result when a candidate is scored against multiple references.
type Aggregation int

const (
	// AggregationMax takes, independently per metric, the maximum value
	// across references. This is the published ROUGE multi-reference
	// convention and the default.
	AggregationMax Aggregation = iota
	// AggregationAverage takes the arithmetic mean per metric.
	AggregationAverage
)

func (a Aggregation) String() string {
	switch a {
	case AggregationMax:
		return "max"
	case AggregationAverage:
		return "average"
	default:
		return "unknown"
	}
}

// ParseAggregation maps the wire form ("max", "avg", "average", or empty for
// the default) to an Aggregation value.
func ParseAggregation(s string) (Aggregation, error) {
	switch s {
	case "", "max":
		return AggregationMax, nil
	case "avg", "average":
		return AggregationAverage, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrInvalidArgument, 400, "unknown aggregation %q", s)
	}
}

// aggregate collapses per-reference scores into a single triple according to
// the chosen policy. scores must be non-empty.
func aggregate(scores []Score, agg Aggregation) (Score, error) {
	switch agg {
	case AggregationMax:
		result := scores[0]
		for _, s := range scores[1:] {
			if s.Precision > result.Precision {
				result.Precision = s.Precision
			}
			if s.Recall > result.Recall {
				result.Recall = s.Recall
			}
			if s.F1 > result.F1 {
				result.F1 = s.F1
			}
		}
		return result, nil
	case AggregationAverage:
		var result Score
		for _, s := range scores {
			result.Precision += s.Precision
			result.Recall += s.Recall
			result.F1 += s.F1
		}
		n := float64(len(scores))
		result.Precision /= n
		result.Recall /= n
		result.F1 /= n
		return result, nil
	default:
		return Score{}, fmt.Errorf("invalid aggregation %d", agg)
	}
}
