package rpc

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheOnma/async-swap-hook/gateway/middleware"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
	"github.com/TheOnma/async-swap-hook/native/simpool"
)

// Server exposes the hook engine over HTTP. Mutating operations are
// serialized with a single mutex, matching the one-operation-at-a-time
// execution model the engine assumes.
type Server struct {
	mu      sync.Mutex
	engine  *asyncswap.Engine
	ledger  *asyncswap.Ledger
	router  *simpool.Router
	log     *slog.Logger
	limiter *middleware.RateLimiter
}

// NewServer wires the engine, ledger and swap router behind the HTTP API.
func NewServer(engine *asyncswap.Engine, ledger *asyncswap.Ledger, router *simpool.Router, logger *slog.Logger, limit middleware.RateLimit) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  engine,
		ledger:  ledger,
		router:  router,
		log:     logger,
		limiter: middleware.NewRateLimiter(limit),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1/swaps", func(r chi.Router) {
		r.Get("/", s.listSwaps)
		r.Get("/{id}", s.getSwap)
		r.Get("/{id}/can-execute", s.canExecute)
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware)
			r.Post("/", s.submitSwap)
			r.Post("/{id}/execute", s.executeSwap)
			r.Post("/{id}/cancel", s.cancelSwap)
		})
	})
	return r
}
