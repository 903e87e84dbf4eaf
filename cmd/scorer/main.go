// Command scorer starts the ad-hoc scoring HTTP service.
//
// The service computes ROUGE scores on demand via POST /api/v1/score and
// POST /api/v1/score/batch, memoising results in Redis. It also serves the
// same operations over the internal JSON-over-TCP RPC endpoint.
//
// Usage:
//
//	go run ./cmd/scorer [-config configs/development.yaml]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/cache"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/executor"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/handler"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/parser"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/proto"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/redis"
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
	slog.Info("starting scorer service",
		"port", cfg.Server.Port,
		"rpc_port", cfg.Server.RPCPort,
	)

	m := metrics.New()
	exec := executor.New(cfg.Scorer.MaxBatchSize, cfg.Scorer.MaxConcurrentPairs, cfg.Scorer.LeaderboardSize)

	var scoreCache *cache.ScoreCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, score caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		scoreCache = cache.New(redisClient, cfg.Redis)
		slog.Info("score cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	checker := health.NewChecker()
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(exec, scoreCache, collector, m)

	rpcServer := rpc.NewServer()
	registerRPC(rpcServer, exec, cfg.Scorer.ScoreTimeout)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.RPCPort)
		if err := rpcServer.Serve(addr); err != nil {
			slog.Error("rpc server error", "error", err)
		}
	}()
	defer rpcServer.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/score", h.Score)
	mux.HandleFunc("POST /api/v1/score/batch", h.BatchScore)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("scorer service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("scorer service stopped")
}

// registerRPC exposes the scoring operations over the internal RPC endpoint
// for service-to-service callers that bypass the HTTP gateway.
func registerRPC(s *rpc.Server, exec *executor.Executor, timeout time.Duration) {
	s.Register("ScoreService.Score", func(ctx context.Context, req json.RawMessage) (any, error) {
		start := time.Now()
		var scoreReq proto.ScoreRequest
		if err := json.Unmarshal(req, &scoreReq); err != nil {
			return nil, fmt.Errorf("decoding score request: %w", err)
		}
		spec, err := parser.Parse(scoreReq.Metric)
		if err != nil {
			return nil, err
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		result, err := exec.Execute(callCtx, spec, scoreReq.Candidate, scoreReq.References)
		if err != nil {
			return nil, err
		}
		return &proto.ScoreResponse{
			Metric:    result.Metric,
			Precision: result.Precision,
			Recall:    result.Recall,
			F1:        result.F1,
			LatencyMs: time.Since(start).Milliseconds(),
		}, nil
	})

	s.Register("ScoreService.Batch", func(ctx context.Context, req json.RawMessage) (any, error) {
		start := time.Now()
		var batchReq proto.BatchScoreRequest
		if err := json.Unmarshal(req, &batchReq); err != nil {
			return nil, fmt.Errorf("decoding batch request: %w", err)
		}
		spec, err := parser.Parse(batchReq.Metric)
		if err != nil {
			return nil, err
		}
		pairs := make([]executor.Pair, len(batchReq.Pairs))
		for i, p := range batchReq.Pairs {
			pairs[i] = executor.Pair{ID: p.ID, Candidate: p.Candidate, References: p.References}
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		result, err := exec.ExecuteBatch(callCtx, spec, pairs, int(batchReq.TopK))
		if err != nil {
			return nil, err
		}
		resp := &proto.BatchScoreResponse{
			Metric:    result.Metric,
			LatencyMs: time.Since(start).Milliseconds(),
		}
		for _, entry := range result.Results {
			resp.Results = append(resp.Results, proto.PairResult{
				ID:        entry.ID,
				Precision: entry.Precision,
				Recall:    entry.Recall,
				F1:        entry.F1,
			})
		}
		return resp, nil
	})
}
