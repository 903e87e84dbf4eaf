// Package store persists computed metric records to PostgreSQL so result
// queries survive worker restarts. Writes are wrapped in retry with backoff
// because result persistence competes with job ingestion on the same
// database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/results"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/resilience"
)

// Store writes metric records into the eval_results table.
type Store struct {
	db          *postgres.Client
	maxAttempts int
	logger      *slog.Logger
}

// New creates a Store. maxAttempts bounds the retry loop for each write.
func New(db *postgres.Client, maxAttempts int) *Store {
	return &Store{
		db:          db,
		maxAttempts: maxAttempts,
		logger:      slog.Default().With("component", "result-store"),
	}
}

// SaveRecords upserts all records of a job in one transaction, retrying
// transient failures with exponential backoff.
func (s *Store) SaveRecords(ctx context.Context, jobID string, records []results.Record) error {
	if len(records) == 0 {
		return nil
	}
	retryCfg := resilience.RetryConfig{
		MaxAttempts:  s.maxAttempts,
		InitialDelay: 50 * time.Millisecond,
	}
	err := resilience.Retry(ctx, "save-records", retryCfg, func() error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			for _, rec := range records {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO eval_results (job_id, metric, precision_score, recall_score, f1_score, scored_at)
				VALUES ($1, $2, $3, $4, $5, to_timestamp($6))
				ON CONFLICT (job_id, metric) DO UPDATE
				SET precision_score = EXCLUDED.precision_score,
				    recall_score = EXCLUDED.recall_score,
				    f1_score = EXCLUDED.f1_score,
				    scored_at = EXCLUDED.scored_at`,
					rec.JobID, rec.Metric, rec.Precision, rec.Recall, rec.F1, rec.ScoredAt,
				)
				if err != nil {
					return fmt.Errorf("inserting result for metric %s: %w", rec.Metric, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("saving records for job %s: %w", jobID, err)
	}
	s.logger.Debug("records saved",
		"job_id", jobID,
		"record_count", len(records),
	)
	return nil
}

// GetRecords returns all persisted records for a job, ordered by metric.
func (s *Store) GetRecords(ctx context.Context, jobID string) ([]results.Record, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT job_id, metric, precision_score, recall_score, f1_score, extract(epoch FROM scored_at)::bigint
	FROM eval_results WHERE job_id = $1 ORDER BY metric`, jobID)
	if err != nil {
		return nil, fmt.Errorf("querying results for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var records []results.Record
	for rows.Next() {
		var rec results.Record
		if err := rows.Scan(&rec.JobID, &rec.Metric, &rec.Precision, &rec.Recall, &rec.F1, &rec.ScoredAt); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
