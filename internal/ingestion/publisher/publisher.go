// Package publisher persists evaluation jobs to PostgreSQL and publishes job
// events to Kafka for downstream scoring. It performs content-hash-based
// shard assignment and supports idempotent writes.
package publisher

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/postgres"
)

// defaultShards is used when no shard count is configured.
const defaultShards = 8

// Publisher coordinates job persistence and Kafka event production.
type Publisher struct {
	db        *postgres.Client
	producer  *kafka.Producer
	numShards int
	logger    *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
// numShards must match the worker deployment's shard count; values below 1
// fall back to the default.
func New(db *postgres.Client, producer *kafka.Producer, numShards int) *Publisher {
	if numShards < 1 {
		numShards = defaultShards
	}
	return &Publisher{
		db:        db,
		producer:  producer,
		numShards: numShards,
		logger:    slog.Default().With("component", "publisher"),
	}
}

// Submit persists the evaluation job in PostgreSQL, assigns a shard, and
// publishes an EvalJobEvent to Kafka. Duplicate idempotency keys are detected
// and returned without re-insertion.
func (p *Publisher) Submit(ctx context.Context, req *ingestion.EvalRequest) (*ingestion.EvalResponse, error) {
	contentHash := hashRequest(req)
	if req.IdempotencyKey != "" {
		existing, err := p.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			p.logger.Info("duplicate submission detected",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.JobID,
			)
			return existing, nil
		}
	}

	shardID := assignShard(contentHash, p.numShards)
	var jobID string
	err := p.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO eval_jobs (candidate, references_json, metrics, content_hash, shard_id, idempotency_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id`,
			req.Candidate, encodeReferences(req.References), strings.Join(req.Metrics, ","),
			contentHash, shardID, nullableString(req.IdempotencyKey)).Scan(&jobID)
		if err == sql.ErrNoRows {
			return apperrors.New(apperrors.ErrIdempotencyConflict, 409, "idempotency key already in use")
		}
		return err
	})

	if err != nil {
		return nil, fmt.Errorf("inserting eval job: %w", err)
	}

	event := kafka.Event{
		Key: strconv.Itoa(shardID),
		Value: ingestion.EvalJobEvent{
			JobID:       jobID,
			Candidate:   req.Candidate,
			References:  req.References,
			Metrics:     req.Metrics,
			ShardID:     shardID,
			SubmittedAt: time.Now().UTC(),
		},
	}

	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish to kafka, job stuck in PENDING",
			"job_id", jobID,
			"shard_id", shardID,
			"error", err,
		)
	}
	return &ingestion.EvalResponse{
		JobID:   jobID,
		Status:  "PENDING",
		ShardID: shardID,
	}, nil
}

// findByIdempotencyKey checks if a job with the given idempotency key
// already exists and returns its status.
func (p *Publisher) findByIdempotencyKey(ctx context.Context, key string) (*ingestion.EvalResponse, error) {
	var resp ingestion.EvalResponse
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT id, status, shard_id FROM eval_jobs WHERE idempotency_key=$1`, key).Scan(&resp.JobID, &resp.Status, &resp.ShardID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return &resp, nil
}

// hashRequest produces a stable content hash covering the candidate and all
// references, used for shard assignment.
func hashRequest(req *ingestion.EvalRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Candidate))
	for _, ref := range req.References {
		h.Write([]byte{0})
		h.Write([]byte(ref))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// encodeReferences stores the reference list as a unit-separator-joined
// string. References are free text, so a control character is used as the
// delimiter.
func encodeReferences(refs []string) string {
	return strings.Join(refs, "\x1f")
}

// DecodeReferences is the inverse of the storage encoding used by Submit.
func DecodeReferences(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\x1f")
}

// assignShard deterministically maps a content hash to a shard ID.
func assignShard(contentHash string, numShards int) int {
	var hash uint64
	for i := 0; i < 8 && i < len(contentHash); i++ {
		hash = hash<<8 | uint64(contentHash[i])
	}
	return int(hash % uint64(numShards))
}

// nullableString converts a Go string to a sql.NullString, treating the
// empty string as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
