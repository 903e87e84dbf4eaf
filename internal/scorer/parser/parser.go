package parser

import (
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/rouge"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
)

// MetricSpec is the parsed form of a metric spec string such as "rouge-1"
// or "rouge-2:avg".
type MetricSpec struct {
	N           int
	Aggregation rouge.Aggregation
	Raw         string
}

// Canonical returns the normalized spec string for use as a cache key and
// metric label, e.g. "rouge-2:max".
func (s MetricSpec) Canonical() string {
	return "rouge-" + strconv.Itoa(s.N) + ":" + s.Aggregation.String()
}

// Parse parses a metric spec of the form "rouge-<n>[:max|:avg]". The
// aggregation suffix is optional and defaults to max.
func Parse(spec string) (MetricSpec, error) {
	raw := strings.TrimSpace(strings.ToLower(spec))
	if raw == "" {
		return MetricSpec{}, apperrors.New(apperrors.ErrInvalidArgument, 400, "metric spec is empty")
	}

	name := raw
	aggPart := ""
	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		name = raw[:idx]
		aggPart = raw[idx+1:]
	}

	orderPart, ok := strings.CutPrefix(name, "rouge-")
	if !ok {
		return MetricSpec{}, apperrors.Newf(apperrors.ErrInvalidArgument, 400, "unknown metric %q", spec)
	}
	n, err := strconv.Atoi(orderPart)
	if err != nil || n < 1 {
		return MetricSpec{}, apperrors.Newf(apperrors.ErrInvalidArgument, 400, "invalid n-gram order in metric %q", spec)
	}

	agg, err := rouge.ParseAggregation(aggPart)
	if err != nil {
		return MetricSpec{}, apperrors.Newf(apperrors.ErrInvalidArgument, 400, "invalid aggregation in metric %q", spec)
	}

	return MetricSpec{N: n, Aggregation: agg, Raw: raw}, nil
}
