package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/john-pickett/card-heist-sub000/engine/sim"
	"github.com/john-pickett/card-heist-sub000/service/internal/models"
)

const (
	defaultSimGames = 1000
	maxSimGames     = 200000
	maxSweepGames   = 20000
	maxHistory      = 200
)

type tokenRequest struct {
	Username string `json:"username"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}
	if s.Signer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "tokens are disabled")
		return
	}
	user := models.User{Username: req.Username}
	token, err := s.Signer.IssueToken(user)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Read the id back so the response matches the token.
	user, err = s.Signer.ParseToken(token)
	if err != nil {
		s.Log.WithError(err).Error("issued token does not parse")
		s.writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

type simulateRequest struct {
	Games  int        `json:"games"`
	Seed   uint64     `json:"seed"`
	Config sim.Config `json:"config"`
}

type simulateResponse struct {
	Result sim.Result `json:"result"`
	Cached bool       `json:"cached"`
}

// handleSimulate runs a simulation. Seeded runs are served from the cache
// when possible.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}
	if req.Games == 0 {
		req.Games = defaultSimGames
	}
	if req.Games < 0 || req.Games > maxSimGames {
		s.writeError(w, http.StatusBadRequest, "games must be between 1 and "+strconv.Itoa(maxSimGames))
		return
	}
	if err := req.Config.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Seed != 0 {
		req.Config.Seed = req.Seed
	}
	seed := req.Config.Seed
	log := s.Log.WithField("games", req.Games).WithField("seed", seed)

	if seed != 0 {
		res, ok, err := s.Cache.GetResult(r.Context(), req.Config, req.Games, seed)
		if err != nil {
			log.WithError(err).Warn("simulation cache read failed")
		} else if ok {
			s.writeJSON(w, http.StatusOK, simulateResponse{Result: res, Cached: true})
			return
		}
	}

	res, err := s.Runner.Run(r.Context(), req.Games, req.Config)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	if seed != 0 {
		if err := s.Cache.PutResult(r.Context(), req.Config, req.Games, seed, res); err != nil {
			log.WithError(err).Warn("simulation cache write failed")
		}
	}
	s.writeJSON(w, http.StatusOK, simulateResponse{Result: res})
}

// handleSweep runs every variant. format=yaml returns the YAML report.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	games, err := queryInt(q.Get("games"), defaultSimGames)
	if err != nil || games < 1 || games > maxSweepGames {
		s.writeError(w, http.StatusBadRequest, "games must be between 1 and "+strconv.Itoa(maxSweepGames))
		return
	}
	var seed uint64
	if v := q.Get("seed"); v != "" {
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid seed")
			return
		}
	}

	entries, err := s.Runner.Sweep(r.Context(), games, seed)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	if q.Get("format") == sim.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if err := sim.WriteReport(w, entries, sim.FormatYAML); err != nil {
			s.Log.WithError(err).Warn("failed writing sweep report")
		}
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, "simulation timed out")
	case errors.Is(err, context.Canceled):
		s.writeError(w, http.StatusServiceUnavailable, "simulation cancelled")
	default:
		s.Log.WithError(err).Error("simulation failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query().Get("limit"), 50)
	if err != nil || limit < 1 {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	limit = min(limit, maxHistory)
	recs, err := s.History.Recent(r.Context(), limit)
	if err != nil {
		s.Log.WithError(err).Error("history query failed")
		s.writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, recs)
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
