// internal/game/game.go
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	engine "github.com/john-pickett/card-heist-sub000/engine"
	"github.com/john-pickett/card-heist-sub000/service/internal/models"
)

// OnGameEndFunc is called once when a game finishes. abandoned is true when
// the player left before a win or loss.
type OnGameEndFunc func(g *GetawayGame, summary engine.Summary, abandoned bool)

// ActionPublisher receives the game's action log.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, rec models.GameActionRecord) error
}

// GameEventType represents the type of a game event sent over the websocket.
type GameEventType string

const (
	EventGameStart        GameEventType = "game_start"
	EventSyncState        GameEventType = "sync_state"
	EventSelectionChanged GameEventType = "selection_changed"
	EventPlayerMeld       GameEventType = "player_meld"
	EventPlayerDiscard    GameEventType = "player_discard"
	EventInvalidAction    GameEventType = "invalid_action"
	EventPursuerThinking  GameEventType = "pursuer_thinking"
	EventPursuerMeld      GameEventType = "pursuer_meld"
	EventPursuerDiscard   GameEventType = "pursuer_discard"
	EventPlayerTurn       GameEventType = "player_turn"
	EventDeckReshuffle    GameEventType = "deck_reshuffle"
	EventHint             GameEventType = "hint"
	EventGameEnd          GameEventType = "game_end"
)

// Action types accepted from the client.
const (
	ActionToggleSelect   = "action_toggle_select"
	ActionClearSelection = "action_clear_selection"
	ActionLayMeld        = "action_lay_meld"
	ActionDiscard        = "action_discard"
	ActionHint           = "action_hint"
	ActionDismiss        = "action_dismiss_message"
	ActionSync           = "action_sync"
)

// EventCard identifies a card within a GameEvent payload.
type EventCard struct {
	ID    uuid.UUID `json:"id"`
	Rank  string    `json:"rank,omitempty"`
	Suit  string    `json:"suit,omitempty"`
	Value int       `json:"value,omitempty"`
}

// GameEvent is the structure sent to the client for every state change.
type GameEvent struct {
	Type     GameEventType `json:"type"`
	Cards    []EventCard   `json:"cards,omitempty"`
	Drawn    []EventCard   `json:"drawn,omitempty"`
	MeldType string        `json:"meldType,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`

	State *ObfGameState `json:"state,omitempty"`
}

// GetawayGame is one live getaway session bound to a single player.
type GetawayGame struct {
	ID     uuid.UUID
	Player *models.Player

	Rules   engine.Rules
	Seed    uint64
	Session *engine.Session

	CardTracker CardUUIDTracker

	// TurnID increments on every phase change; timers compare it before acting.
	TurnID int
	// ThinkDelay and RevealDelay pace the pursuer's turn. Zero runs it inline.
	ThinkDelay  time.Duration
	RevealDelay time.Duration
	// IdleTimeout auto-plays the player's turn with the greedy policy. Zero disables it.
	IdleTimeout time.Duration

	pursuerTimer *time.Timer
	idleTimer    *time.Timer
	actionIndex  int

	Started   bool
	GameOver  bool
	abandoned bool
	StartedAt time.Time

	Mu sync.Mutex

	BroadcastFn func(ev GameEvent)
	OnGameEnd   OnGameEndFunc
	Actions     ActionPublisher
	Log         logrus.FieldLogger
}

// NewGetawayGame creates a game for player with the live rules. Seed 0 is
// replaced by a time-based seed when the game starts.
func NewGetawayGame(player *models.Player, seed uint64) *GetawayGame {
	id, _ := uuid.NewRandom()
	return &GetawayGame{
		ID:          id,
		Player:      player,
		Rules:       engine.DefaultRules(),
		Seed:        seed,
		ThinkDelay:  900 * time.Millisecond,
		RevealDelay: 1500 * time.Millisecond,
		Log:         logrus.StandardLogger(),
	}
}

func (g *GetawayGame) logger() logrus.FieldLogger {
	fields := logrus.Fields{"game_id": g.ID}
	if g.Session != nil {
		fields["phase"] = g.Session.Phase().String()
	}
	return g.Log.WithFields(fields)
}

// Start deals the cards and opens the player's first turn.
func (g *GetawayGame) Start() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Started || g.GameOver {
		g.logger().Warn("start called on a running or finished game")
		return nil
	}
	if g.Seed == 0 {
		g.Seed = uint64(time.Now().UnixNano())
	}
	s, err := engine.NewSession(g.Rules, g.Seed)
	if err != nil {
		return err
	}
	g.Session = s
	g.initCardTracker()
	g.Started = true
	g.StartedAt = time.Now()

	g.logger().WithField("seed", g.Seed).Info("game started")
	g.logAction(g.playerID(), string(EventGameStart), map[string]interface{}{"seed": g.Seed})

	state := g.GetCurrentObfuscatedGameState()
	g.fireEvent(GameEvent{Type: EventGameStart, State: &state})
	g.scheduleIdleTimer()
	return nil
}

// HandlePlayerAction routes a client action to the session.
// Assumes lock is held by the caller.
func (g *GetawayGame) HandlePlayerAction(action models.GameAction) {
	if g.GameOver || !g.Started {
		g.logger().WithField("action", action.ActionType).Debug("action ignored, game not running")
		return
	}

	switch action.ActionType {
	case ActionToggleSelect:
		g.handleToggleSelect(action.Payload)
	case ActionClearSelection:
		g.handleClearSelection()
	case ActionLayMeld:
		g.handleLayMeld()
	case ActionDiscard:
		g.handleDiscard()
	case ActionHint:
		g.handleHint()
	case ActionDismiss:
		g.Session.ClearMessage()
		g.sendSyncState()
	case ActionSync:
		g.sendSyncState()
	default:
		g.logger().WithField("action", action.ActionType).Warn("unknown action type")
		g.fireInvalid(action.ActionType, "unknown action type")
	}
}

// HandleDisconnect ends a running game as abandoned.
// Assumes lock is held by caller.
func (g *GetawayGame) HandleDisconnect() {
	if g.Player != nil {
		g.Player.Connected = false
		g.Player.Conn = nil
	}
	g.logAction(g.playerID(), "player_disconnect", nil)
	if g.Started && !g.GameOver {
		g.abandoned = true
		g.EndGame()
	}
}

// EndGame stops the timers, reports the summary and fires the end callback.
// Assumes lock is held by caller.
func (g *GetawayGame) EndGame() {
	if g.GameOver {
		return
	}
	g.GameOver = true
	g.stopTimers()

	summary := g.Session.Summary()
	payload := map[string]interface{}{
		"won":       summary.Won,
		"abandoned": g.abandoned,
		"summary":   summary,
		"duration":  time.Since(g.StartedAt).Milliseconds(),
	}
	g.logAction(g.playerID(), string(EventGameEnd), payload)

	state := g.GetCurrentObfuscatedGameState()
	g.fireEvent(GameEvent{Type: EventGameEnd, Payload: payload, State: &state})

	if g.OnGameEnd != nil {
		g.OnGameEnd(g, summary, g.abandoned)
	}
	g.logger().WithFields(logrus.Fields{
		"won":       summary.Won,
		"abandoned": g.abandoned,
		"turns":     summary.Counters.Turns,
	}).Info("game ended")
}

func (g *GetawayGame) stopTimers() {
	if g.pursuerTimer != nil {
		g.pursuerTimer.Stop()
		g.pursuerTimer = nil
	}
	if g.idleTimer != nil {
		g.idleTimer.Stop()
		g.idleTimer = nil
	}
}

// fireEvent sends ev through BroadcastFn.
// Assumes lock is held by caller.
func (g *GetawayGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn == nil {
		g.logger().WithField("event", ev.Type).Warn("BroadcastFn is nil, event dropped")
		return
	}
	g.BroadcastFn(ev)
}

func (g *GetawayGame) fireInvalid(action, message string) {
	g.fireEvent(GameEvent{
		Type:    EventInvalidAction,
		Payload: map[string]interface{}{"action": action, "message": message},
	})
}

// sendSyncState sends the full client view.
// Assumes lock is held by caller.
func (g *GetawayGame) sendSyncState() {
	state := g.GetCurrentObfuscatedGameState()
	g.fireEvent(GameEvent{Type: EventSyncState, State: &state})
}

func (g *GetawayGame) playerID() uuid.UUID {
	if g.Player == nil {
		return uuid.Nil
	}
	return g.Player.ID
}

// logAction publishes an action record asynchronously. The action index
// keeps records ordered.
// Assumes lock is held by caller.
func (g *GetawayGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.Actions == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := models.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	pub, log := g.Actions, g.logger()
	go func(rec models.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := pub.PublishGameAction(ctx, rec); err != nil {
			log.WithError(err).WithField("action", rec.ActionType).Error("failed publishing action")
		}
	}(rec)
}
