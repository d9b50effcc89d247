package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	engine "github.com/john-pickett/card-heist-sub000/engine"
	"github.com/john-pickett/card-heist-sub000/service/internal/game"
	"github.com/john-pickett/card-heist-sub000/service/internal/history"
	"github.com/john-pickett/card-heist-sub000/service/internal/models"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
)

// handleGameSocket runs one single-player game over a websocket. The token
// query parameter identifies the player; seed optionally fixes the deal.
func (s *Server) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	if s.Signer == nil {
		s.writeError(w, http.StatusServiceUnavailable, "tokens are disabled")
		return
	}
	user, err := s.Signer.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	var seed uint64
	if v := r.URL.Query().Get("seed"); v != "" {
		if seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid seed")
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.OriginPatterns})
	if err != nil {
		s.Log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	player := &models.Player{ID: user.ID, User: &user, Connected: true, Conn: conn}
	g := s.newGame(player, seed)
	log := s.Log.WithFields(logrus.Fields{"game_id": g.ID, "user": user.Username})

	events := make(chan game.GameEvent, eventBuffer)
	g.BroadcastFn = func(ev game.GameEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	go s.writeEvents(ctx, cancel, conn, events, log)

	if err := g.Start(); err != nil {
		log.WithError(err).Error("game failed to start")
		conn.Close(websocket.StatusInternalError, "game failed to start")
		return
	}

	for {
		var action models.GameAction
		if err := wsjson.Read(ctx, conn, &action); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.WithError(err).Debug("websocket read ended")
			}
			break
		}
		g.Mu.Lock()
		g.HandlePlayerAction(action)
		g.Mu.Unlock()
	}

	cancel()
	g.Mu.Lock()
	g.HandleDisconnect()
	g.Mu.Unlock()
	log.Info("player disconnected")
}

// writeEvents forwards game events to the socket until ctx ends or a write
// fails.
func (s *Server) writeEvents(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, events <-chan game.GameEvent, log logrus.FieldLogger) {
	defer cancel()
	for {
		select {
		case ev := <-events:
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, ev)
			wcancel()
			if err != nil {
				log.WithError(err).WithField("event", ev.Type).Debug("websocket write failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) newGame(player *models.Player, seed uint64) *game.GetawayGame {
	g := game.NewGetawayGame(player, seed)
	g.ThinkDelay = s.PursuerThink
	g.RevealDelay = s.PursuerReveal
	g.IdleTimeout = s.PlayerIdle
	g.Log = s.Log
	g.Actions = s.Cache
	g.OnGameEnd = s.recordGame
	return g
}

// recordGame stores the finished game. It runs under the game lock, so the
// write happens in the background.
func (s *Server) recordGame(g *game.GetawayGame, summary engine.Summary, abandoned bool) {
	rec := history.FromSummary(g.ID, g.Seed, summary, abandoned)
	if g.Player != nil && g.Player.User != nil {
		rec.UserID = g.Player.User.ID
		rec.Username = g.Player.User.Username
	}
	finished := time.Now().UTC()
	rec.FinishedAt = finished
	rec.DurationMs = finished.Sub(g.StartedAt).Milliseconds()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.History.Record(ctx, rec); err != nil {
			s.Log.WithError(err).WithField("game_id", rec.GameID).Error("failed recording game")
		}
	}()
}
