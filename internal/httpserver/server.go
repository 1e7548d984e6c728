// internal/httpserver/server.go
//
// Status and admin HTTP API of the quiz bot.
// Responsibilities:
//   - Router + middleware (JSON, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/status", "/history", "/rounds", "/metrics".
//   - Admin endpoints (JWT): POST /admin/login, POST /admin/command (see routes_admin.go).
//
// Notes:
//   - The status payload never includes the solution of the running round.
//   - /rounds answers 404 when the archive is disabled.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/usobak/mastodon-image-quiz-bot/internal/archive"
	"github.com/usobak/mastodon-image-quiz-bot/internal/bot"
)

const (
	handlerTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	defaultRounds   = 20
	maxRounds       = 200
)

// Machine is the part of the state machine exposed over HTTP.
type Machine interface {
	Snapshot() bot.Status
	Enqueue(cmd bot.Command) bool
}

// HistoryView lists the screenshots used by recent rounds.
type HistoryView interface {
	Entries() []string
	Capacity() int
}

// RoundLog reads the round archive.
type RoundLog interface {
	Recent(ctx context.Context, limit int) ([]archive.Round, error)
	Stats(ctx context.Context) (archive.Stats, error)
}

// Options configure the server. Rounds and Gatherer may be nil.
type Options struct {
	Machine  Machine
	History  HistoryView
	Rounds   RoundLog
	Gatherer prometheus.Gatherer
	Admin    AdminConfig
}

// Server bundles the router and the views it serves.
type Server struct {
	r    *chi.Mux
	opts Options
	now  func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{r: chi.NewRouter(), opts: opts, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)               // add X-Request-ID
	s.r.Use(chimw.RealIP)                  // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)               // recover from panics
	s.r.Use(chimw.Timeout(handlerTimeout)) // bound handler time
	s.r.Use(jsonContentType)               // default JSON responses

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"quizbot","endpoints":["/health","/status","/history","/rounds","/metrics","POST /admin/login","POST /admin/command"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Get("/status", s.handleStatus)
	s.r.Get("/history", s.handleHistory)
	s.r.Get("/rounds", s.handleRounds)

	if opts.Gatherer != nil {
		s.r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.mountAdminRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Start serves HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: handlerTimeout}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("status server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
// /metrics overrides it with the exposition format.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ STATUS -------------------------------------

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Machine.Snapshot())
}

type historyRes struct {
	Capacity int      `json:"capacity"`
	Entries  []string `json:"entries"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.opts.History.Entries()
	if entries == nil {
		entries = []string{}
	}
	writeJSON(w, http.StatusOK, historyRes{Capacity: s.opts.History.Capacity(), Entries: entries})
}

type roundsRes struct {
	Stats  archive.Stats   `json:"stats"`
	Rounds []archive.Round `json:"rounds"`
}

// handleRounds lists archived rounds, newest first. ?limit=N caps the list.
func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	if s.opts.Rounds == nil {
		writeError(w, http.StatusNotFound, "archive_disabled")
		return
	}

	limit := defaultRounds
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = min(n, maxRounds)
	}

	rounds, err := s.opts.Rounds.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list rounds")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	stats, err := s.opts.Rounds.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("round stats")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if rounds == nil {
		rounds = []archive.Round{}
	}
	writeJSON(w, http.StatusOK, roundsRes{Stats: stats, Rounds: rounds})
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
