// Command worker starts the evaluation worker service.
//
// The worker consumes evaluation job events from Kafka, routes each job to a
// shard engine that computes the requested ROUGE metrics, archives the
// results in on-disk segments, and persists them to PostgreSQL. It also
// serves a JSON-over-TCP RPC endpoint for stats and flush control.
//
// Usage:
//
//	go run ./cmd/worker [-config configs/development.yaml]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/consumer"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/shard"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/worker/store"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/rpc"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting worker service", "num_shards", cfg.Worker.NumShards)

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(ctx)
		}()
	}

	router, err := shard.NewRouter(cfg.Worker, cfg.Worker.NumShards)
	if err != nil {
		slog.Error("failed to create shard router", "error", err)
		os.Exit(1)
	}
	defer router.Close()
	m.ActiveShards.Set(float64(router.NumShards()))

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	resultStore := store.New(db, cfg.Worker.StoreMaxAttempts)

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer analyticsProducer.Close()
	bc := collector.NewBatchCollector(analyticsProducer, 100, 5*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bc.Start(ctx)
	for shardID, engine := range router.GetAllEngines() {
		engine.StartFlushLoop(ctx)
		slog.Info("flush loop started", "shard_id", shardID)
	}

	rpcServer := rpc.NewServer()
	registerRPC(rpcServer, router, m)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.RPCPort)
		if err := rpcServer.Serve(addr); err != nil {
			slog.Error("rpc server error", "error", err)
		}
	}()
	defer rpcServer.Stop()

	handler := consumer.HandleMessageSharded(router, db.DB, resultStore, bc)
	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.EvalJobs,
		handler,
	)

	jobConsumer := consumer.New(kafkaConsumer)

	slog.Info("worker service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.EvalJobs,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := jobConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("flushing all shards before shutdown")
	if err := router.FlushAll(); err != nil {
		m.ResultFlushesTotal.WithLabelValues("error").Inc()
		slog.Error("final flush failed", "error", err)
	} else {
		m.ResultFlushesTotal.WithLabelValues("ok").Inc()
	}
	bc.Close()

	slog.Info("worker service stopped")
}

// registerRPC exposes worker stats and flush control over the internal RPC
// endpoint.
func registerRPC(s *rpc.Server, router *shard.Router, m *metrics.Metrics) {
	s.Register("WorkerService.Stats", func(ctx context.Context, req json.RawMessage) (any, error) {
		var statsReq proto.StatsRequest
		if len(req) > 0 {
			if err := json.Unmarshal(req, &statsReq); err != nil {
				return nil, fmt.Errorf("decoding stats request: %w", err)
			}
		}
		resp := proto.StatsResponse{}
		for shardID, engine := range router.GetAllEngines() {
			jobs, _, segments, sizeBytes := engine.Stats()
			m.ShardJobCount.WithLabelValues(strconv.Itoa(shardID)).Set(float64(jobs))
			resp.TotalJobs += jobs
			resp.TotalSegments += int64(segments)
			resp.TotalSizeBytes += sizeBytes
			resp.Shards = append(resp.Shards, proto.ShardStat{
				ShardID:      int32(shardID),
				JobCount:     jobs,
				SegmentCount: int64(segments),
				SizeBytes:    sizeBytes,
			})
		}
		return &resp, nil
	})

	s.Register("WorkerService.Flush", func(ctx context.Context, req json.RawMessage) (any, error) {
		var flushReq proto.FlushRequest
		if len(req) > 0 {
			if err := json.Unmarshal(req, &flushReq); err != nil {
				return nil, fmt.Errorf("decoding flush request: %w", err)
			}
		}
		if err := router.FlushAll(); err != nil {
			m.ResultFlushesTotal.WithLabelValues("error").Inc()
			return &proto.FlushResponse{Success: false, Message: err.Error()}, nil
		}
		m.ResultFlushesTotal.WithLabelValues("ok").Inc()
		return &proto.FlushResponse{Success: true, Message: "all shards flushed"}, nil
	})
}
