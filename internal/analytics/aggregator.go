package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/kafka"
)

type AggregatedStats struct {
	TotalScores      int64         `json:"total_scores"`
	TotalJobsScored  int64         `json:"total_jobs_scored"`
	CacheHits        int64         `json:"cache_hits"`
	CacheMisses      int64         `json:"cache_misses"`
	ZeroOverlapCount int64         `json:"zero_overlap_count"`
	AvgLatencyMs     float64       `json:"avg_latency_ms"`
	P50LatencyMs     int64         `json:"p50_latency_ms"`
	P95LatencyMs     int64         `json:"p95_latency_ms"`
	P99LatencyMs     int64         `json:"p99_latency_ms"`
	AvgF1            float64       `json:"avg_f1"`
	TopMetrics       []MetricCount `json:"top_metrics"`
	ZeroOverlapBy    []MetricCount `json:"zero_overlap_metrics"`
	ScoresPerMinute  float64       `json:"scores_per_minute"`
}
type MetricCount struct {
	Metric string `json:"metric"`
	Count  int64  `json:"count"`
}
type Aggregator struct {
	mu              sync.RWMutex
	totalScores     atomic.Int64
	totalJobsScored atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	zeroOverlaps    atomic.Int64
	latencies       []int64
	f1Sum           float64
	metricCounts    map[string]int64
	zeroOverlapBy   map[string]int64
	startTime       time.Time

	logger *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:     make([]int64, 0, 10000),
		metricCounts:  make(map[string]int64),
		zeroOverlapBy: make(map[string]int64),
		startTime:     time.Now(),
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ScoreEvent](value)
		if err != nil || event.Metric == "" {
			jobEvent, jobErr := kafka.DecodeJSON[JobEvent](value)
			if jobErr != nil || jobEvent.JobID == "" {
				agg.logger.Error("failed to decode analytics event",
					"error", err,
				)
				return nil
			}
			agg.recordJobEvent(jobEvent)
			return nil
		}
		agg.recordScoreEvent(event)
		return nil
	}
}

func (a *Aggregator) recordScoreEvent(event ScoreEvent) {
	a.totalScores.Add(1)

	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}

	zeroOverlap := event.Precision == 0 && event.Recall == 0
	if zeroOverlap {
		a.zeroOverlaps.Add(1)
	}

	a.mu.Lock()
	a.latencies = append(a.latencies, event.LatencyMs)
	a.f1Sum += event.F1
	a.metricCounts[event.Metric]++
	if zeroOverlap {
		a.zeroOverlapBy[event.Metric]++
	}
	a.mu.Unlock()
}

func (a *Aggregator) recordJobEvent(event JobEvent) {
	a.totalJobsScored.Add(1)
}
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalScores:      a.totalScores.Load(),
		TotalJobsScored:  a.totalJobsScored.Load(),
		CacheHits:        a.cacheHits.Load(),
		CacheMisses:      a.cacheMisses.Load(),
		ZeroOverlapCount: a.zeroOverlaps.Load(),
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	if stats.TotalScores > 0 {
		stats.AvgF1 = a.f1Sum / float64(stats.TotalScores)
	}
	stats.TopMetrics = topN(a.metricCounts, 10)
	stats.ZeroOverlapBy = topN(a.zeroOverlapBy, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.ScoresPerMinute = float64(stats.TotalScores) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []MetricCount {
	result := make([]MetricCount, 0, len(counts))
	for metric, count := range counts {
		result = append(result, MetricCount{Metric: metric, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Metric < result[j].Metric
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
