// Package handlers serves the HTTP API and the game websocket.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/john-pickett/card-heist-sub000/engine/sim"
	"github.com/john-pickett/card-heist-sub000/service/internal/auth"
	"github.com/john-pickett/card-heist-sub000/service/internal/cache"
	"github.com/john-pickett/card-heist-sub000/service/internal/history"
)

// Options wires a Server to its collaborators. Nil History, Cache and
// Runner get in-process defaults.
type Options struct {
	Log     logrus.FieldLogger
	Signer  *auth.Signer
	History history.Recorder
	Cache   *cache.SimCache
	Runner  *sim.Runner

	// Pacing of each live game. Zero pursuer delays run the pursuer inline.
	PursuerThink  time.Duration
	PursuerReveal time.Duration
	PlayerIdle    time.Duration

	// OriginPatterns are passed to the websocket handshake. Empty accepts
	// same-origin requests only.
	OriginPatterns []string
}

// Server handles HTTP requests.
type Server struct {
	Options
}

// NewServer creates a new API server.
func NewServer(o Options) *Server {
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.History == nil {
		o.History = history.NewMemoryRecorder()
	}
	if o.Cache == nil {
		o.Cache = cache.New(nil, 0)
	}
	if o.Runner == nil {
		o.Runner = sim.NewRunner(0, o.Log)
	}
	return &Server{Options: o}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.Log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	// The game socket outlives any request timeout.
	r.Get("/ws/game", s.handleGameSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Post("/tokens", s.handleIssueToken)
		r.Post("/simulate", s.handleSimulate)
		r.Get("/sweep", s.handleSweep)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Log.WithError(err).Warn("failed writing response")
	}
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
