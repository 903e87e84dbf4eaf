package analytics

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"
)

func dispatch(t *testing.T, agg *Aggregator, event any) {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshaling event: %v", err)
	}
	if err := HandleEvent(agg)(context.Background(), nil, payload); err != nil {
		t.Fatalf("handling event: %v", err)
	}
}

func scoreEvent(metric string, f1 float64, latencyMs int64, cacheHit bool) ScoreEvent {
	return ScoreEvent{
		Type:           EventScore,
		Metric:         metric,
		ReferenceCount: 1,
		Precision:      f1,
		Recall:         f1,
		F1:             f1,
		LatencyMs:      latencyMs,
		CacheHit:       cacheHit,
		Timestamp:      time.Now().UTC(),
	}
}

func TestAggregatorCountsScoreEvents(t *testing.T) {
	agg := NewAggregator()

	dispatch(t, agg, scoreEvent("rouge-1:max", 0.8, 10, false))
	dispatch(t, agg, scoreEvent("rouge-1:max", 0.6, 20, true))
	dispatch(t, agg, scoreEvent("rouge-2:max", 0.4, 30, false))

	stats := agg.Stats()
	if stats.TotalScores != 3 {
		t.Errorf("TotalScores = %d, want 3", stats.TotalScores)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 2 {
		t.Errorf("cache counters = %d/%d, want 1/2", stats.CacheHits, stats.CacheMisses)
	}
	if want := (0.8 + 0.6 + 0.4) / 3; math.Abs(stats.AvgF1-want) > 1e-12 {
		t.Errorf("AvgF1 = %v, want %v", stats.AvgF1, want)
	}
	if want := 20.0; stats.AvgLatencyMs != want {
		t.Errorf("AvgLatencyMs = %v, want %v", stats.AvgLatencyMs, want)
	}
}

func TestAggregatorCountsJobEvents(t *testing.T) {
	agg := NewAggregator()

	for i := 0; i < 4; i++ {
		dispatch(t, agg, JobEvent{
			Type:        EventJobScored,
			JobID:       "job-1",
			ShardID:     2,
			MetricCount: 3,
			LatencyMs:   15,
			Timestamp:   time.Now().UTC(),
		})
	}

	stats := agg.Stats()
	if stats.TotalJobsScored != 4 {
		t.Errorf("TotalJobsScored = %d, want 4", stats.TotalJobsScored)
	}
	if stats.TotalScores != 0 {
		t.Errorf("job events must not count as scores, got %d", stats.TotalScores)
	}
}

func TestAggregatorTracksZeroOverlap(t *testing.T) {
	agg := NewAggregator()

	dispatch(t, agg, scoreEvent("rouge-2:max", 0, 5, false))
	dispatch(t, agg, scoreEvent("rouge-2:max", 0, 5, false))
	dispatch(t, agg, scoreEvent("rouge-1:max", 0.9, 5, false))

	stats := agg.Stats()
	if stats.ZeroOverlapCount != 2 {
		t.Errorf("ZeroOverlapCount = %d, want 2", stats.ZeroOverlapCount)
	}
	if len(stats.ZeroOverlapBy) != 1 || stats.ZeroOverlapBy[0].Metric != "rouge-2:max" {
		t.Errorf("unexpected ZeroOverlapBy: %v", stats.ZeroOverlapBy)
	}
	if stats.ZeroOverlapBy[0].Count != 2 {
		t.Errorf("zero-overlap count for rouge-2:max = %d, want 2", stats.ZeroOverlapBy[0].Count)
	}
}

func TestAggregatorTopMetrics(t *testing.T) {
	agg := NewAggregator()

	for i := 0; i < 5; i++ {
		dispatch(t, agg, scoreEvent("rouge-1:max", 0.5, 1, false))
	}
	for i := 0; i < 3; i++ {
		dispatch(t, agg, scoreEvent("rouge-2:max", 0.5, 1, false))
	}
	dispatch(t, agg, scoreEvent("rouge-3:max", 0.5, 1, false))

	stats := agg.Stats()
	if len(stats.TopMetrics) != 3 {
		t.Fatalf("expected 3 metrics, got %d", len(stats.TopMetrics))
	}
	want := []string{"rouge-1:max", "rouge-2:max", "rouge-3:max"}
	for i, metric := range want {
		if stats.TopMetrics[i].Metric != metric {
			t.Errorf("position %d: expected %s, got %s", i, metric, stats.TopMetrics[i].Metric)
		}
	}
}

func TestAggregatorLatencyPercentiles(t *testing.T) {
	agg := NewAggregator()

	for i := int64(1); i <= 100; i++ {
		dispatch(t, agg, scoreEvent("rouge-1:max", 0.5, i, false))
	}

	stats := agg.Stats()
	if stats.P50LatencyMs < 45 || stats.P50LatencyMs > 55 {
		t.Errorf("P50 = %d, expected around 50", stats.P50LatencyMs)
	}
	if stats.P95LatencyMs < 90 || stats.P95LatencyMs > 100 {
		t.Errorf("P95 = %d, expected around 95", stats.P95LatencyMs)
	}
	if stats.P99LatencyMs < 95 || stats.P99LatencyMs > 100 {
		t.Errorf("P99 = %d, expected around 99", stats.P99LatencyMs)
	}
}

func TestAggregatorIgnoresMalformedEvents(t *testing.T) {
	agg := NewAggregator()

	payloads := [][]byte{
		[]byte(`not json`),
		[]byte(`{}`),
		[]byte(`{"something":"else"}`),
	}
	for _, payload := range payloads {
		if err := HandleEvent(agg)(context.Background(), nil, payload); err != nil {
			t.Errorf("malformed event must not fail the consumer: %v", err)
		}
	}

	stats := agg.Stats()
	if stats.TotalScores != 0 || stats.TotalJobsScored != 0 {
		t.Errorf("malformed events must not be counted: %+v", stats)
	}
}

func TestAggregatorEmptyStats(t *testing.T) {
	agg := NewAggregator()

	stats := agg.Stats()
	if stats.TotalScores != 0 || stats.AvgF1 != 0 || stats.AvgLatencyMs != 0 {
		t.Errorf("expected zero-valued stats, got %+v", stats)
	}
	if stats.P50LatencyMs != 0 || stats.P95LatencyMs != 0 || stats.P99LatencyMs != 0 {
		t.Errorf("expected zero percentiles, got %+v", stats)
	}
}
