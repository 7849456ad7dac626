// Package http exposes the bookkeeping API over JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"daftar/internal/core"
	"daftar/internal/log"
	"daftar/internal/middleware/ratelimit"
	"daftar/internal/services"
)

type Server struct {
	http.Server

	users   *services.UserService
	ledgers *services.LedgerService
	limiter *ratelimit.Limiter
	logger  *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures all routes and returns a ready-to-run server.
func NewServer(addr string, users *services.UserService, ledgers *services.LedgerService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		users:   users,
		ledgers: ledgers,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:  logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Credential endpoints are the abuse target, so only they sit behind
	// the per-IP limiter.
	guard := s.limiter.Middleware(clientIP, s.onRateLimited)
	mux.Handle("POST /api/users", guard(http.HandlerFunc(s.handleRegister)))
	mux.Handle("POST /api/login", guard(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("DELETE /api/logout", s.requireAuth(s.handleLogout))

	// The payment and receive surfaces are mirrors of each other.
	for _, ledger := range core.Ledgers {
		base := "/api/" + string(ledger)
		mux.HandleFunc("POST "+base, s.requireAuth(s.handleAppend(ledger)))
		mux.HandleFunc("GET "+base, s.requireAuth(s.handleList(ledger)))
		mux.HandleFunc("PATCH "+base, s.requireAuth(s.handleUpdate(ledger)))
		mux.HandleFunc("GET "+base+"Sum", s.requireAuth(s.handleSum(ledger)))
		mux.HandleFunc("GET "+base+"/{date}", s.requireAuth(s.handleListByDate(ledger)))
		mux.HandleFunc("DELETE "+base+"/{id}", s.requireAuth(s.handleRemove(ledger)))
	}

	s.Handler = log.Middleware(s.logger)(s.withRequestLog(mux))
	return s
}

// withRequestLog tags each request with an id and logs start and outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		logger := log.FromContext(r.Context()).With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP(r))

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientIP(r),
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many requests")
}

// Shutdown stops the limiter's cleanup goroutine along with the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// responseWriter captures the status code for the completion log line.
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
