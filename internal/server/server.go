// Package server exposes the pool over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stakeline/stakeline/internal/domain"
	"github.com/stakeline/stakeline/internal/server/handler"
	"github.com/stakeline/stakeline/internal/server/middleware"
	"github.com/stakeline/stakeline/internal/server/ws"
)

// mutating endpoints share one rate limit bucket per client IP.
const (
	rateLimitRequests = 60
	rateLimitWindow   = time.Minute
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	AuthToken   string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health   *handler.HealthHandler
	Pool     *handler.PoolHandler
	Accounts *handler.AccountHandler
	Events   *handler.EventsHandler
}

// Server is the headless HTTP + WebSocket API server for the staking pool.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth, rate limiting) and attaches
// the WebSocket hub. The limiter may be nil to disable rate limiting.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Read-only queries require no caller identity.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/pool/stats", handlers.Pool.GetStats)
	mux.HandleFunc("GET /api/pool/token", handlers.Pool.GetToken)
	mux.HandleFunc("GET /api/accounts/{account}", handlers.Accounts.GetAccount)
	mux.HandleFunc("GET /api/accounts/{account}/balance", handlers.Accounts.GetBalance)
	mux.HandleFunc("GET /api/accounts/{account}/rewards", handlers.Accounts.GetRewards)
	mux.HandleFunc("GET /api/accounts/{account}/risk", handlers.Accounts.GetRisk)
	mux.HandleFunc("GET /api/accounts/{account}/coverage", handlers.Accounts.GetCoverage)
	mux.HandleFunc("GET /api/distributions", handlers.Events.ListDistributions)
	mux.HandleFunc("GET /api/events", handlers.Events.ListEvents)

	// State transitions. Caller identity comes from the X-Account header;
	// the core enforces owner-only operations.
	mutating := http.NewServeMux()
	mutating.HandleFunc("POST /api/pool/initialize", handlers.Pool.Initialize)
	mutating.HandleFunc("POST /api/pool/stake", handlers.Pool.Stake)
	mutating.HandleFunc("POST /api/pool/unstake", handlers.Pool.Unstake)
	mutating.HandleFunc("POST /api/pool/distribute", handlers.Pool.Distribute)
	mutating.HandleFunc("POST /api/pool/claim", handlers.Pool.Claim)
	mutating.HandleFunc("POST /api/pool/transfer", handlers.Pool.Transfer)
	mutating.HandleFunc("POST /api/pool/pause", handlers.Pool.Pause)
	mutating.HandleFunc("POST /api/pool/unpause", handlers.Pool.Unpause)
	mutating.HandleFunc("POST /api/pool/rate", handlers.Pool.UpdateRate)
	mutating.HandleFunc("POST /api/pool/insurance", handlers.Pool.ToggleInsurance)
	mutating.HandleFunc("POST /api/pool/token/uri", handlers.Pool.SetTokenURI)

	var mutatingChain http.Handler = mutating
	if limiter != nil {
		mutatingChain = middleware.RateLimit(limiter, rateLimitRequests, rateLimitWindow)(mutatingChain)
	}
	mux.Handle("POST /api/pool/", mutatingChain)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if AuthToken is empty).
	h = middleware.Auth(cfg.AuthToken)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
