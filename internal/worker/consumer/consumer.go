// Package consumer reads evaluation job events from Kafka and scores them
// via the worker engine, optionally routing jobs through the shard router
// for partitioned processing.
package consumer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/shard"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/store"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/kafka"
)

// JobConsumer wraps a Kafka consumer to drive the scoring pipeline.
type JobConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a JobConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *JobConsumer {
	return &JobConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "job-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (jc *JobConsumer) Start(ctx context.Context) error {
	jc.logger.Info("job consumer starting")
	return jc.consumer.Start(ctx)
}

// HandleMessageSharded returns a Kafka MessageHandler that routes each job
// event to the correct shard engine via the Router before scoring.
// If db is non-nil, the job status is updated from PENDING to SCORED in
// PostgreSQL after a successful scoring pass. If resultStore is non-nil,
// the computed records are persisted as well. If bc is non-nil, a JobEvent
// is emitted for the analytics pipeline.
func HandleMessageSharded(router *shard.Router, db *sql.DB, resultStore *store.Store, bc *collector.BatchCollector) kafka.MessageHandler {
	logger := slog.Default().With("component", "job-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		start := time.Now()
		event, err := kafka.DecodeJSON[ingestion.EvalJobEvent](value)
		if err != nil {
			logger.Error("failed to decode job event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		engine, err := router.Route(event.ShardID)
		if err != nil {
			return fmt.Errorf("routing shard %d: %w", event.ShardID, err)
		}

		logger.Debug("processing job event",
			"job_id", event.JobID,
			"shard_id", event.ShardID,
		)

		records, err := engine.ScoreJob(event.JobID, event.Candidate, event.References, event.Metrics)
		if err != nil {
			updateJobStatus(ctx, db, event.JobID, "FAILED", logger)
			return fmt.Errorf("scoring job %s in shard %d: %w", event.JobID, event.ShardID, err)
		}

		if resultStore != nil {
			if err := resultStore.SaveRecords(ctx, event.JobID, records); err != nil {
				logger.Error("failed to persist records, archive copy remains",
					"job_id", event.JobID,
					"error", err,
				)
			}
		}
		updateJobStatus(ctx, db, event.JobID, "SCORED", logger)

		if bc != nil {
			bc.Track(event.JobID, analytics.JobEvent{
				Type:        analytics.EventJobScored,
				JobID:       event.JobID,
				ShardID:     event.ShardID,
				MetricCount: len(records),
				LatencyMs:   time.Since(start).Milliseconds(),
				Timestamp:   time.Now().UTC(),
			})
		}

		logger.Info("job scored",
			"job_id", event.JobID,
			"shard_id", event.ShardID,
			"metric_count", len(records),
		)
		return nil
	}
}

// HandleMessage returns a Kafka MessageHandler that scores every job event
// on a single (non-sharded) Engine.
// If db is non-nil, the job status is updated after scoring.
func HandleMessage(engine *worker.Engine, db *sql.DB, resultStore *store.Store) kafka.MessageHandler {
	logger := slog.Default().With("component", "job-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.EvalJobEvent](value)
		if err != nil {
			logger.Error("failed to decode job event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		logger.Debug("processing job event",
			"job_id", event.JobID,
			"shard_id", event.ShardID,
		)
		records, err := engine.ScoreJob(event.JobID, event.Candidate, event.References, event.Metrics)
		if err != nil {
			updateJobStatus(ctx, db, event.JobID, "FAILED", logger)
			return fmt.Errorf("scoring job %s: %w", event.JobID, err)
		}

		if resultStore != nil {
			if err := resultStore.SaveRecords(ctx, event.JobID, records); err != nil {
				logger.Error("failed to persist records, archive copy remains",
					"job_id", event.JobID,
					"error", err,
				)
			}
		}
		updateJobStatus(ctx, db, event.JobID, "SCORED", logger)

		logger.Info("job scored",
			"job_id", event.JobID,
			"shard_id", event.ShardID,
			"metric_count", len(records),
		)
		return nil
	}
}

// updateJobStatus updates the job's status and completed_at timestamp in
// PostgreSQL. If db is nil, the update is silently skipped.
func updateJobStatus(ctx context.Context, db *sql.DB, jobID, status string, logger *slog.Logger) {
	if db == nil {
		return
	}
	_, err := db.ExecContext(ctx,
		`UPDATE eval_jobs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, jobID,
	)
	if err != nil {
		logger.Error("failed to update job status",
			"job_id", jobID,
			"status", status,
			"error", err,
		)
	}
}
