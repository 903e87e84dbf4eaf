package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/cache"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/executor"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/scorer/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/tracing"
)

// ScoreRequest is the JSON body accepted by the score endpoint.
type ScoreRequest struct {
	Candidate  string   `json:"candidate"`
	References []string `json:"references"`
	Metric     string   `json:"metric"`
}

// BatchRequest is the JSON body accepted by the batch score endpoint.
type BatchRequest struct {
	Pairs  []executor.Pair `json:"pairs"`
	Metric string          `json:"metric"`
	TopK   int             `json:"top_k"`
}

type Handler struct {
	executor  *executor.Executor
	cache     *cache.ScoreCache
	collector *analytics.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(exec *executor.Executor, scoreCache *cache.ScoreCache, collector *analytics.Collector, m *metrics.Metrics) *Handler {
	return &Handler{
		executor:  exec,
		cache:     scoreCache,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "score-handler"),
	}
}

func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	ctx, span := tracing.StartSpan(ctx, "score", middleware.GetRequestID(ctx))
	defer func() {
		span.End()
		span.Log()
	}()

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Metric == "" {
		req.Metric = "rouge-1"
	}
	spec, err := parser.Parse(req.Metric)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	if len(req.References) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one reference is required")
		return
	}
	span.SetAttr("metric", spec.Canonical())
	span.SetAttr("reference_count", len(req.References))

	var result *executor.ScoreResult
	cacheHit := false

	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, spec.Canonical(), req.Candidate, req.References, func() (*executor.ScoreResult, error) {
			computeCtx, computeSpan := tracing.StartChildSpan(ctx, "compute")
			defer computeSpan.End()
			return h.executor.Execute(computeCtx, spec, req.Candidate, req.References)
		})
	} else {
		result, err = h.executor.Execute(ctx, spec, req.Candidate, req.References)
	}

	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("scoring failed", "metric", req.Metric, "error", err)
		if h.metrics != nil {
			h.metrics.ScoresComputedTotal.WithLabelValues(spec.Canonical(), "error").Inc()
		}
		h.writeError(w, statusCode, "scoring failed")
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	h.recordScore(result, cacheHit, start)

	log.Info("score computed",
		"metric", result.Metric,
		"f1", result.F1,
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.collector != nil {
		eventType := analytics.EventCacheMiss
		if cacheHit {
			eventType = analytics.EventCacheHit
		}

		h.collector.Track(analytics.ScoreEvent{
			Type:           eventType,
			Metric:         result.Metric,
			ReferenceCount: len(req.References),
			Precision:      result.Precision,
			Recall:         result.Recall,
			F1:             result.F1,
			LatencyMs:      latencyMs,
			CacheHit:       cacheHit,
			Timestamp:      time.Now().UTC(),
			RequestID:      middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) BatchScore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	ctx, span := tracing.StartSpan(ctx, "batch-score", middleware.GetRequestID(ctx))
	defer func() {
		span.End()
		span.Log()
	}()

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Metric == "" {
		req.Metric = "rouge-1"
	}
	spec, err := parser.Parse(req.Metric)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	for _, pair := range req.Pairs {
		if len(pair.References) == 0 {
			h.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("pair %q has no references", pair.ID))
			return
		}
	}
	span.SetAttr("metric", spec.Canonical())
	span.SetAttr("pairs", len(req.Pairs))

	result, err := h.executor.ExecuteBatch(ctx, spec, req.Pairs, req.TopK)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("batch scoring failed",
			"metric", req.Metric,
			"pairs", len(req.Pairs),
			"error", err,
		)
		h.writeError(w, statusCode, "batch scoring failed")
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	if h.metrics != nil {
		for _, entry := range result.Results {
			outcome := "ok"
			if entry.Precision == 0 && entry.Recall == 0 {
				outcome = "zero_overlap"
			}
			h.metrics.ScoresComputedTotal.WithLabelValues(result.Metric, outcome).Inc()
			h.metrics.ScoreF1Distribution.WithLabelValues(result.Metric).Observe(entry.F1)
		}
	}

	log.Info("batch scored",
		"metric", result.Metric,
		"pairs", len(result.Results),
		"latency_ms", latencyMs,
	)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recordScore updates Prometheus counters for a single computed score.
func (h *Handler) recordScore(result *executor.ScoreResult, cacheHit bool, start time.Time) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if result.Precision == 0 && result.Recall == 0 {
		outcome = "zero_overlap"
	}
	h.metrics.ScoresComputedTotal.WithLabelValues(result.Metric, outcome).Inc()
	h.metrics.ScoreF1Distribution.WithLabelValues(result.Metric).Observe(result.F1)
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
		h.metrics.CacheHitsTotal.Inc()
	} else {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.ScoreLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
