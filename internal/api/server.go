// Package api exposes the import pipeline and habit management over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexanderramin/lifelog/internal/config"
	"github.com/alexanderramin/lifelog/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// bodyOverhead is added to the per-file limit to bound a whole request body.
const bodyOverhead = 1 << 20

type Server struct {
	imports  service.ImportService
	habits   service.HabitService
	identity Identity
	limiter  *userLimiter
	logger   *slog.Logger
	cfg      config.ServerConfig
	maxBody  int64
}

type Option func(*Server)

func WithIdentity(id Identity) Option {
	return func(s *Server) { s.identity = id }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxFileBytes sizes the request body limit for imports. Up to three
// files plus per-habit files may be sent in one body.
func WithMaxFileBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = 4*n + bodyOverhead
		}
	}
}

func NewServer(imports service.ImportService, habits service.HabitService, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		imports:  imports,
		habits:   habits,
		identity: HeaderIdentity{},
		logger:   slog.Default(),
		cfg:      cfg,
		maxBody:  4*(10<<20) + bodyOverhead,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = newUserLimiter(cfg.RatePerMinute, cfg.RateBurst)
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(observeRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.With(s.rateLimit).Post("/import/habits", s.handleImport)

		r.Get("/habits", s.handleListHabits)
		r.Patch("/habits/{id}", s.handleRenameHabit)
		r.Delete("/habits/{id}", s.handleDeleteHabit)
		r.Post("/habits/recalculate", s.handleRecalculate)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
