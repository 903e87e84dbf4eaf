package analytics

import "time"

type EventType string

const (
	EventScore       EventType = "score"
	EventCacheHit    EventType = "cache_hit"
	EventCacheMiss   EventType = "cache_miss"
	EventJobScored   EventType = "job_scored"
	EventZeroOverlap EventType = "zero_overlap"
)

// ScoreEvent describes one ad-hoc scoring request served by the scorer.
type ScoreEvent struct {
	Type           EventType `json:"type"`
	Metric         string    `json:"metric"`
	ReferenceCount int       `json:"reference_count"`
	Precision      float64   `json:"precision"`
	Recall         float64   `json:"recall"`
	F1             float64   `json:"f1"`
	LatencyMs      int64     `json:"latency_ms"`
	CacheHit       bool      `json:"cache_hit"`
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id"`
}

// JobEvent describes one evaluation job scored by a worker shard.
type JobEvent struct {
	Type        EventType `json:"type"`
	JobID       string    `json:"job_id"`
	ShardID     int       `json:"shard_id"`
	MetricCount int       `json:"metric_count"`
	LatencyMs   int64     `json:"latency_ms"`
	Timestamp   time.Time `json:"timestamp"`
}
