// Package proto defines the shared message types used for internal RPC
// communication between services in the Distributed Text Evaluation Platform.
//
// These types mirror the Protocol Buffer definitions in api/proto/ and are
// hand-written for zero-dependency usage. To regenerate from .proto files:
//
//	protoc --go_out=. --go-grpc_out=. api/proto/**/*.proto
//
// The hand-written types use JSON struct tags for serialization over the
// platform's lightweight JSON-over-TCP RPC layer (see pkg/rpc).
package proto

// ---------- Common ----------

// EvalJob represents an evaluation job across all services.
type EvalJob struct {
	ID             string   `json:"id"`
	Candidate      string   `json:"candidate"`
	References     []string `json:"references"`
	Metrics        []string `json:"metrics"`
	ContentHash    string   `json:"content_hash"`
	ShardID        int32    `json:"shard_id"`
	Status         string   `json:"status"`
	CreatedAt      int64    `json:"created_at"`
	CompletedAt    int64    `json:"completed_at,omitempty"`
}

// Pagination controls limit/offset for list endpoints.
type Pagination struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

// HealthCheckResponse mirrors the gRPC health check spec.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// ---------- Scoring ----------

// ScoreRequest is the input to the Score RPC. Metric is a spec string such
// as "rouge-1" or "rouge-2:avg".
type ScoreRequest struct {
	Candidate  string   `json:"candidate"`
	References []string `json:"references"`
	Metric     string   `json:"metric"`
}

// ScoreResponse is the output of the Score RPC.
type ScoreResponse struct {
	Metric    string  `json:"metric"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	LatencyMs int64   `json:"latency_ms"`
}

// BatchScoreRequest is the input to the Batch RPC.
type BatchScoreRequest struct {
	Pairs  []ScorePair `json:"pairs"`
	Metric string      `json:"metric"`
	TopK   int32       `json:"top_k"`
}

// ScorePair is one candidate/reference pairing within a batch.
type ScorePair struct {
	ID         string   `json:"id"`
	Candidate  string   `json:"candidate"`
	References []string `json:"references"`
}

// BatchScoreResponse is the output of the Batch RPC.
type BatchScoreResponse struct {
	Metric    string       `json:"metric"`
	Results   []PairResult `json:"results"`
	LatencyMs int64        `json:"latency_ms"`
}

// PairResult is a single scored pair in a batch result.
type PairResult struct {
	ID        string  `json:"id"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// ---------- Worker ----------

// StatsRequest optionally filters by shard (0 = all).
type StatsRequest struct {
	ShardID int32 `json:"shard_id"`
}

// StatsResponse contains worker-level statistics.
type StatsResponse struct {
	TotalJobs      int64       `json:"total_jobs"`
	TotalSegments  int64       `json:"total_segments"`
	TotalSizeBytes int64       `json:"total_size_bytes"`
	Shards         []ShardStat `json:"shards,omitempty"`
}

// ShardStat holds per-shard statistics.
type ShardStat struct {
	ShardID      int32 `json:"shard_id"`
	JobCount     int64 `json:"job_count"`
	SegmentCount int64 `json:"segment_count"`
	SizeBytes    int64 `json:"size_bytes"`
}

// FlushRequest triggers a result archive flush.
type FlushRequest struct {
	ShardID int32 `json:"shard_id"`
}

// FlushResponse confirms the flush.
type FlushResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
