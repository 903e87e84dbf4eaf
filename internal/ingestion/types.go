// Package ingestion defines the request/response types and Kafka event schemas
// used by the evaluation job ingestion pipeline.
package ingestion

import "time"

// EvalRequest is the JSON body accepted by the evaluation submission endpoint.
// Metrics holds metric spec strings such as "rouge-1" or "rouge-2:avg".
type EvalRequest struct {
	Candidate      string   `json:"candidate"`
	References     []string `json:"references"`
	Metrics        []string `json:"metrics"`
	IdempotencyKey string   `json:"idempotency_key"`
}

// EvalResponse is returned to the caller after a job is accepted.
type EvalResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	ShardID int    `json:"shard_id"`
}

// EvalJobEvent is the Kafka message payload produced after a job is
// persisted and ready for scoring.
type EvalJobEvent struct {
	JobID       string    `json:"job_id"`
	Candidate   string    `json:"candidate"`
	References  []string  `json:"references"`
	Metrics     []string  `json:"metrics"`
	ShardID     int       `json:"shard_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}
