// Package router wires up all API gateway routes and applies the middleware
// chain (RequestID → CORS → Auth → RateLimit).
package router

import (
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/auth/ratelimit"
	gwhandler "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/gateway/handler"
	gwmw "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/internal/gateway/middleware"
	pkgmw "github.com/Adithya-Monish-Kumar-K/Distributed-Text-Evaluation-Platform/pkg/middleware"
)

// New builds the full gateway HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /api/v1/evaluations         → ingestion service (proxy)
//	GET    /api/v1/evaluations         → list evaluations  (direct DB)
//	GET    /api/v1/evaluations/{id}    → get evaluation    (direct DB)
//	POST   /api/v1/score               → scorer service    (proxy)
//	POST   /api/v1/score/batch         → scorer service    (proxy)
//	GET    /api/v1/analytics           → analytics service (proxy)
//	GET    /api/v1/cache/stats         → scorer service    (proxy)
//	POST   /api/v1/cache/invalidate    → scorer service    (proxy)
//	POST   /api/v1/admin/keys          → create API key    (direct DB)
//	GET    /api/v1/admin/keys          → list API keys     (direct DB)
//	GET    /health                     → gateway health
//
// Middleware chain (outermost first):
//
//	RequestID → CORS → Auth → RateLimit → handler
func New(h *gwhandler.Handler, validator *apikey.Validator, limiter *ratelimit.Limiter) http.Handler {
	mux := http.NewServeMux()

	// Health (unauthenticated)
	mux.HandleFunc("GET /health", h.Health)

	// Evaluation API
	mux.HandleFunc("POST /api/v1/evaluations", h.ProxySubmit)
	mux.HandleFunc("GET /api/v1/evaluations", h.ListEvaluations)
	mux.HandleFunc("GET /api/v1/evaluations/{id}", h.GetEvaluation)

	// Scoring API
	mux.HandleFunc("POST /api/v1/score", h.ProxyScore)
	mux.HandleFunc("POST /api/v1/score/batch", h.ProxyScore)

	// Analytics API
	mux.HandleFunc("GET /api/v1/analytics", h.ProxyAnalytics)

	// Cache API
	mux.HandleFunc("GET /api/v1/cache/stats", h.ProxyCacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.ProxyCacheInvalidate)

	// Admin API
	mux.HandleFunc("POST /api/v1/admin/keys", h.CreateAPIKey)
	mux.HandleFunc("GET /api/v1/admin/keys", h.ListAPIKeys)

	// Middleware chain — applied inside-out:
	// request → RequestID → CORS → Auth → RateLimit → mux
	var chain http.Handler = mux
	chain = gwmw.RateLimit(limiter)(chain)
	chain = gwmw.Auth(validator)(chain)
	chain = gwmw.CORS(gwmw.DefaultCORSConfig())(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
