package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fatura/internal/billing"
	"fatura/internal/cache"
	applog "fatura/internal/log"
	"fatura/internal/services"
	"fatura/internal/store"
)

const (
	mutationsPerMinute = 60
	creditCacheSize    = 256
	summaryCacheSize   = 128
	cacheTTL           = 5 * time.Minute
)

// Server is the JSON API server. Reads of derived data (credit views,
// month summaries) are cached; every mutation invalidates the entries it
// touches, so cached reads never survive a write they depend on.
type Server struct {
	http.Server

	ledger *services.LedgerService
	engine *billing.Engine
	st     store.Store
	logger *applog.Logger

	rateLimiter *rateLimiter
	metrics     securityMetrics

	creditCache  *cache.LRUCache[CreditResponse]
	summaryCache *cache.LRUCache[SummaryResponse]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, engine *billing.Engine, st store.Store) *Server {
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           applog.Middleware(logger)(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:       ledger,
		engine:       engine,
		st:           st,
		logger:       logger,
		rateLimiter:  newRateLimiter(mutationsPerMinute),
		creditCache:  cache.NewLRUCache[CreditResponse](creditCacheSize, cacheTTL),
		summaryCache: cache.NewLRUCache[SummaryResponse](summaryCacheSize, cacheTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.creditCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/purchases", s.secure(s.handleCreatePurchase))
	mux.HandleFunc("GET /api/purchases", s.secure(s.handleListPurchases))
	mux.HandleFunc("DELETE /api/purchases/{id}", s.secure(s.handleDeletePurchase))

	mux.HandleFunc("POST /api/cards", s.secure(s.handleCreateCard))
	mux.HandleFunc("GET /api/cards", s.secure(s.handleListCards))
	mux.HandleFunc("GET /api/cards/{id}", s.secure(s.handleGetCard))
	mux.HandleFunc("POST /api/cards/{id}/block", s.secure(s.handleSetCardBlocked))
	mux.HandleFunc("POST /api/cards/{id}/active", s.secure(s.handleSetCardActive))
	mux.HandleFunc("GET /api/cards/{id}/credit", s.secure(s.handleGetCredit))
	mux.HandleFunc("GET /api/cards/{id}/invoice", s.secure(s.handleGetInvoice))

	mux.HandleFunc("POST /api/invoices/{id}/pay", s.secure(s.handlePayInvoice))

	mux.HandleFunc("POST /api/subscriptions", s.secure(s.handleCreateSubscription))
	mux.HandleFunc("GET /api/subscriptions", s.secure(s.handleListSubscriptions))
	mux.HandleFunc("GET /api/subscriptions/{id}", s.secure(s.handleGetSubscription))
	mux.HandleFunc("PUT /api/subscriptions/{id}", s.secure(s.handleUpdateSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.secure(s.handleDeleteSubscription))

	mux.HandleFunc("POST /api/categories", s.secure(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories", s.secure(s.handleListCategories))
	mux.HandleFunc("DELETE /api/categories/{id}", s.secure(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/budgets", s.secure(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.secure(s.handleListBudgets))
	mux.HandleFunc("PUT /api/budgets/{id}", s.secure(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.secure(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/summary", s.secure(s.handleSummary))

	return s
}

// Shutdown stops the server and its background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// secure wraps a handler with client identification, rate limiting,
// security headers and completion logging.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := r.Context()
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, &s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP, &s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				"rate_limit_hits", atomic.LoadInt64(&s.metrics.rateLimitHits))
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded",
				Code:  "rate_limited",
			})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		logFn := s.logger.InfoContext
		switch {
		case rw.statusCode >= 500:
			logFn = s.logger.ErrorContext
		case rw.statusCode >= 400:
			logFn = s.logger.WarnContext
		}
		fields := applog.NewFields().
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, r.UserAgent()).
			WithHTTPResponse(rw.statusCode, duration.Milliseconds(), rw.statusCode < 400)
		logFn(ctx, "Request completed", fields.ToSlice()...)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.st.ListCards(ctx); err != nil {
		s.logger.ErrorContext(r.Context(), "Readiness probe failed", applog.FieldError, err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func summaryCacheKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) invalidateCredit(cardID string) {
	if cardID != "" {
		s.creditCache.Delete(cardID)
	}
}

func (s *Server) invalidateSummary(year, month int) {
	s.summaryCache.Delete(summaryCacheKey(year, month))
}
