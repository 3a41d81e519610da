package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"CryptoSentinel/internal/metrics"
	"CryptoSentinel/internal/recorder"
	"CryptoSentinel/internal/snapshot"
)

// Server exposes the latest report, coin history and metrics over HTTP.
// It is read-only.
type Server struct {
	router *mux.Router
	server *http.Server
	store  *snapshot.Store
	rec    recorder.Recorder
	logger *zap.Logger
}

// New builds the router. rec and reg may be nil.
func New(addr string, store *snapshot.Store, rec recorder.Recorder, reg *metrics.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	s := &Server{
		router: mux.NewRouter(),
		store:  store,
		rec:    rec,
		logger: logger,
	}
	s.setupRoutes(reg)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes(reg *metrics.Registry) {
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if reg != nil {
		s.router.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.HandleFunc("/report/latest", s.latestReport).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}", s.coin).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}/history", s.coinHistory).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if run := s.store.Latest(); run != nil {
		body["last_run"] = run.GeneratedAt
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) latestReport(w http.ResponseWriter, r *http.Request) {
	run := s.store.Latest()
	if run == nil {
		writeError(w, http.StatusNotFound, "no analysis run yet")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) coin(w http.ResponseWriter, r *http.Request) {
	run := s.store.Latest()
	if run == nil {
		writeError(w, http.StatusNotFound, "no analysis run yet")
		return
	}
	id := strings.ToLower(mux.Vars(r)["id"])
	c, ok := run.Report.Coins[id]
	if !ok {
		writeError(w, http.StatusNotFound, "coin not in latest run")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) coinHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.ToLower(mux.Vars(r)["id"])
	limit := 30
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}
	hist, err := s.rec.CoinHistory(id, limit)
	if err != nil {
		s.logger.Error("coin history", zap.String("coin", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if hist == nil {
		hist = []recorder.HistoryPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"coin": id, "history": hist})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
