package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/resilience"
)

// Config holds the URLs of backend services that the gateway proxies to.
type Config struct {
	IngestionURL string
	ScorerURL    string
	AnalyticsURL string
}

// Handler implements the API gateway's HTTP endpoints.
// It proxies requests to backend services behind per-upstream circuit
// breakers and provides direct evaluation lookup and API key management
// via PostgreSQL.
type Handler struct {
	ingestionProxy *httputil.ReverseProxy
	scorerProxy    *httputil.ReverseProxy
	analyticsProxy *httputil.ReverseProxy
	ingestionCB    *resilience.CircuitBreaker
	scorerCB       *resilience.CircuitBreaker
	analyticsCB    *resilience.CircuitBreaker
	db             *postgres.Client
	keyValidator   *apikey.Validator
	logger         *slog.Logger
}

// New creates a gateway Handler that proxies to the given backend URLs.
func New(cfg Config, db *postgres.Client, keyValidator *apikey.Validator) *Handler {
	return &Handler{
		ingestionProxy: newProxy(cfg.IngestionURL),
		scorerProxy:    newProxy(cfg.ScorerURL),
		analyticsProxy: newProxy(cfg.AnalyticsURL),
		ingestionCB:    resilience.NewCircuitBreaker("ingestion", resilience.CircuitBreakerConfig{}),
		scorerCB:       resilience.NewCircuitBreaker("scorer", resilience.CircuitBreakerConfig{}),
		analyticsCB:    resilience.NewCircuitBreaker("analytics", resilience.CircuitBreakerConfig{}),
		db:             db,
		keyValidator:   keyValidator,
		logger:         slog.Default().With("component", "gateway-handler"),
	}
}

func newProxy(target string) *httputil.ReverseProxy {
	u, _ := url.Parse(target)
	return httputil.NewSingleHostReverseProxy(u)
}

// ---------- Proxy handlers ----------

// proxyThrough runs the reverse proxy inside the upstream's circuit breaker.
// A 5xx from the upstream counts as a failure; an open circuit short-circuits
// the request with 503.
func (h *Handler) proxyThrough(cb *resilience.CircuitBreaker, proxy *httputil.ReverseProxy, w http.ResponseWriter, r *http.Request) {
	err := cb.Execute(func() error {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		proxy.ServeHTTP(rec, r)
		if rec.status >= http.StatusInternalServerError {
			return errors.New("upstream returned " + strconv.Itoa(rec.status))
		}
		return nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		h.writeError(w, http.StatusServiceUnavailable, "upstream temporarily unavailable")
	}
}

// statusRecorder captures the status code written by the reverse proxy.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// ProxySubmit forwards evaluation submissions to the ingestion service.
func (h *Handler) ProxySubmit(w http.ResponseWriter, r *http.Request) {
	h.proxyThrough(h.ingestionCB, h.ingestionProxy, w, r)
}

// ProxyScore forwards ad-hoc score requests to the scorer service.
func (h *Handler) ProxyScore(w http.ResponseWriter, r *http.Request) {
	h.proxyThrough(h.scorerCB, h.scorerProxy, w, r)
}

// ProxyAnalytics forwards analytics requests to the analytics service.
func (h *Handler) ProxyAnalytics(w http.ResponseWriter, r *http.Request) {
	h.proxyThrough(h.analyticsCB, h.analyticsProxy, w, r)
}

// ProxyCacheStats forwards cache stats requests to the scorer service.
func (h *Handler) ProxyCacheStats(w http.ResponseWriter, r *http.Request) {
	h.proxyThrough(h.scorerCB, h.scorerProxy, w, r)
}

// ProxyCacheInvalidate forwards cache invalidation requests to the scorer service.
func (h *Handler) ProxyCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	h.proxyThrough(h.scorerCB, h.scorerProxy, w, r)
}

// ---------- Direct data handlers ----------

// GetEvaluation retrieves a single evaluation job plus any persisted metric
// results from PostgreSQL by UUID.
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "evaluation id is required")
		return
	}

	var job struct {
		ID          string     `json:"id"`
		ContentHash string     `json:"content_hash"`
		Metrics     string     `json:"metrics"`
		ShardID     int        `json:"shard_id"`
		Status      string     `json:"status"`
		CreatedAt   time.Time  `json:"created_at"`
		CompletedAt *time.Time `json:"completed_at,omitempty"`
		Results     []result   `json:"results,omitempty"`
	}

	err := h.db.DB.QueryRowContext(r.Context(),
		`SELECT id, content_hash, metrics, shard_id, status, created_at, completed_at
		 FROM eval_jobs WHERE id = $1`, id,
	).Scan(&job.ID, &job.ContentHash, &job.Metrics,
		&job.ShardID, &job.Status, &job.CreatedAt, &job.CompletedAt)

	if err == sql.ErrNoRows {
		h.writeError(w, http.StatusNotFound, "evaluation not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch evaluation", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch evaluation")
		return
	}

	job.Results, err = h.fetchResults(r, id)
	if err != nil {
		h.logger.Error("failed to fetch results", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch evaluation")
		return
	}

	h.writeJSON(w, http.StatusOK, job)
}

type result struct {
	Metric    string  `json:"metric"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

func (h *Handler) fetchResults(r *http.Request, jobID string) ([]result, error) {
	rows, err := h.db.DB.QueryContext(r.Context(),
		`SELECT metric, precision_score, recall_score, f1_score
		 FROM eval_results WHERE job_id = $1 ORDER BY metric`, jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []result
	for rows.Next() {
		var res result
		if err := rows.Scan(&res.Metric, &res.Precision, &res.Recall, &res.F1); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListEvaluations returns a paginated list of evaluation job metadata.
func (h *Handler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	rows, err := h.db.DB.QueryContext(r.Context(),
		`SELECT id, metrics, shard_id, status, created_at
		 FROM eval_jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		h.logger.Error("failed to list evaluations", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}
	defer rows.Close()

	type jobSummary struct {
		ID        string    `json:"id"`
		Metrics   string    `json:"metrics"`
		ShardID   int       `json:"shard_id"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
	}

	jobs := make([]jobSummary, 0)
	for rows.Next() {
		var j jobSummary
		if err := rows.Scan(&j.ID, &j.Metrics, &j.ShardID, &j.Status, &j.CreatedAt); err != nil {
			h.logger.Error("failed to scan evaluation row", "error", err)
			continue
		}
		jobs = append(jobs, j)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"evaluations": jobs,
		"count":       len(jobs),
		"limit":       limit,
		"offset":      offset,
	})
}

// ---------- Admin handlers ----------

// CreateAPIKey creates a new API key and returns the raw key (shown once).
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
		ExpiresIn string `json:"expires_in,omitempty"` // Go duration, e.g. "720h"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.RateLimit <= 0 {
		req.RateLimit = 100
	}

	var expiresAt *time.Time
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid expires_in duration")
			return
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	key, err := h.keyValidator.CreateKey(r.Context(), req.Name, req.RateLimit, expiresAt)
	if err != nil {
		h.logger.Error("failed to create api key", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create api key")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"api_key": key,
		"name":    req.Name,
		"message": "store this key securely — it cannot be retrieved again",
	})
}

// ListAPIKeys returns all active API keys (without hashes).
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keyValidator.ListKeys(r.Context())
	if err != nil {
		h.logger.Error("failed to list api keys", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list api keys")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"count": len(keys),
	})
}

// ---------- Health ----------

// Health returns the gateway's health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "gateway"})
}

// ---------- Helpers ----------

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
