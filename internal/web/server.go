// Package web serves the daemon-mode status endpoints.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chzzkwatch/internal/config"
	"chzzkwatch/internal/history"
	"chzzkwatch/internal/state"
	logx "chzzkwatch/pkg/logx"
)

var startTime = time.Now()

// Server exposes read-only monitor status over HTTP. Daemon mode only.
type Server struct {
	cfgMgr *config.Manager
	hist   history.Store // may be nil
	log    logx.Logger

	srv *http.Server
}

func NewServer(addr string, cfgMgr *config.Manager, hist history.Store, log logx.Logger) *Server {
	if addr == "" {
		addr = "127.0.0.1:8590"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{cfgMgr: cfgMgr, hist: hist, log: log}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/state", s.handleState)
	r.Get("/api/history", s.handleHistory)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the server until ctx is done.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shctx)
	}()
	s.log.Info("status server listening", logx.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Warn("status server stopped", logx.Err(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfgMgr.Get()
	n := 0
	if cfg != nil {
		n = len(cfg.Streamers)
	}
	writeJSON(w, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"streamer_count": n,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfgMgr.Get()
	if cfg == nil {
		http.Error(w, "no config loaded", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, state.Load(cfg.StatePath(), s.log))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.hist.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
