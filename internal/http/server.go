// Package http exposes the JSON API over the record store: CRUD for the
// four record kinds plus derived views (dashboard, task statistics,
// financial summaries).
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"farmstead/internal/cache"
	applog "farmstead/internal/log"
	"farmstead/internal/query"
	"farmstead/internal/services"
	"farmstead/internal/store"
)

type Server struct {
	http.Server

	store store.Store
	farms *services.FarmService
	txs   *services.TransactionService
	dash  *services.DashboardService
	clock func() time.Time

	rateLimiter *rateLimiter

	// Derived views are cached between mutations.
	dashboardCache *cache.LRUCache[services.Dashboard]
	summaryCache   *cache.LRUCache[query.FinancialSummary]
	statsCache     *cache.LRUCache[query.TaskStatistics]
	cacheManager   *cache.Manager

	cacheCleanupInterval time.Duration

	shutdownOnce sync.Once
}

// Option configures optional server behavior.
type Option func(*Server)

// WithClock overrides the time source used for due-date ordering,
// today's tasks and summary windows.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// WithTrustedProxies sets the networks allowed to carry forwarding headers.
func WithTrustedProxies(cidrs []string) Option {
	return func(s *Server) { s.rateLimiter.setTrustedProxies(cidrs) }
}

// WithCacheCleanupInterval sets how often expired cache entries are swept.
func WithCacheCleanupInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.cacheCleanupInterval = d
		}
	}
}

// WithCacheTTL sets the TTL for cached derived views.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.dashboardCache = cache.NewLRUCache[services.Dashboard](10, ttl)
		s.summaryCache = cache.NewLRUCache[query.FinancialSummary](100, ttl)
		s.statsCache = cache.NewLRUCache[query.TaskStatistics](10, ttl)
	}
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, st store.Store, publisher services.RecordChangePublisher, opts ...Option) *Server {
	mux := http.NewServeMux()

	txs := services.NewTransactionService(st, publisher)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store: st,
		farms: services.NewFarmService(st),
		txs:   txs,
		dash:  services.NewDashboardService(st, txs),
		clock: time.Now,

		rateLimiter: newRateLimiter(),

		dashboardCache: cache.NewLRUCache[services.Dashboard](10, 30*time.Second),
		summaryCache:   cache.NewLRUCache[query.FinancialSummary](100, 30*time.Second),
		statsCache:     cache.NewLRUCache[query.TaskStatistics](10, 30*time.Second),
		cacheManager:   cache.NewManager(),

		cacheCleanupInterval: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.dash.SetClock(s.clock)

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.statsCache)
	s.cacheManager.StartCleanup(s.cacheCleanupInterval)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/farms", s.withMiddleware(s.handleListFarms))
	mux.HandleFunc("POST /api/farms", s.withMiddleware(s.handleCreateFarm))
	mux.HandleFunc("GET /api/farms/{id}", s.withMiddleware(s.handleGetFarm))
	mux.HandleFunc("GET /api/farms/{id}/active-crops", s.withMiddleware(s.handleActiveCropCount))
	mux.HandleFunc("PATCH /api/farms/{id}", s.withMiddleware(s.handleUpdateFarm))
	mux.HandleFunc("DELETE /api/farms/{id}", s.withMiddleware(s.handleDeleteFarm))

	mux.HandleFunc("GET /api/crops", s.withMiddleware(s.handleListCrops))
	mux.HandleFunc("POST /api/crops", s.withMiddleware(s.handleCreateCrop))
	mux.HandleFunc("GET /api/crops/{id}", s.withMiddleware(s.handleGetCrop))
	mux.HandleFunc("PATCH /api/crops/{id}", s.withMiddleware(s.handleUpdateCrop))
	mux.HandleFunc("DELETE /api/crops/{id}", s.withMiddleware(s.handleDeleteCrop))

	mux.HandleFunc("GET /api/tasks", s.withMiddleware(s.handleListTasks))
	mux.HandleFunc("POST /api/tasks", s.withMiddleware(s.handleCreateTask))
	mux.HandleFunc("GET /api/tasks/stats", s.withMiddleware(s.handleTaskStats))
	mux.HandleFunc("GET /api/tasks/today", s.withMiddleware(s.handleTodaysTasks))
	mux.HandleFunc("GET /api/tasks/{id}", s.withMiddleware(s.handleGetTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", s.withMiddleware(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.withMiddleware(s.handleDeleteTask))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/summary", s.withMiddleware(s.handleTransactionSummary))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpsertTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateDerived drops cached derived views after a mutation.
func (s *Server) invalidateDerived() {
	s.dashboardCache.Purge()
	s.summaryCache.Purge()
	s.statsCache.Purge()
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := s.rateLimiter.extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
