// engine_adapter.go: bridge between engine.Session and GetawayGame.
package game

import (
	"errors"
	"time"

	"github.com/google/uuid"

	engine "github.com/john-pickett/card-heist-sub000/engine"
	"github.com/john-pickett/card-heist-sub000/engine/agent"
	"github.com/john-pickett/card-heist-sub000/service/internal/models"
)

// CardUUIDTracker maps engine instance ids to the UUIDs the client sees.
// Ids are minted lazily the first time a card is shown.
type CardUUIDTracker struct {
	byInstance map[engine.InstanceID]uuid.UUID
	byUUID     map[uuid.UUID]engine.InstanceID

	// Registry maps UUID to full card details for event payloads.
	Registry map[uuid.UUID]*models.Card
}

func (t *CardUUIDTracker) reset() {
	t.byInstance = make(map[engine.InstanceID]uuid.UUID)
	t.byUUID = make(map[uuid.UUID]engine.InstanceID)
	t.Registry = make(map[uuid.UUID]*models.Card)
}

// uuidFor returns the client id of ci, minting one if needed.
func (t *CardUUIDTracker) uuidFor(ci engine.CardInstance) uuid.UUID {
	if id, ok := t.byInstance[ci.ID]; ok {
		return id
	}
	id, _ := uuid.NewRandom()
	t.byInstance[ci.ID] = id
	t.byUUID[id] = ci.ID
	t.Registry[id] = engineCardToDetails(ci.Card, id)
	return id
}

// instanceFor resolves a client id.
func (t *CardUUIDTracker) instanceFor(id uuid.UUID) (engine.InstanceID, bool) {
	inst, ok := t.byUUID[id]
	return inst, ok
}

// engineCardToDetails converts an engine.Card to a service *models.Card with the given UUID.
func engineCardToDetails(c engine.Card, id uuid.UUID) *models.Card {
	return &models.Card{
		ID:    id,
		Rank:  engine.RankName(c.Rank()),
		Suit:  engine.SuitName(c.Suit()),
		Value: c.Value(),
	}
}

// initCardTracker assigns UUIDs to the dealt player hand.
func (g *GetawayGame) initCardTracker() {
	g.CardTracker.reset()
	for _, ci := range g.Session.PlayerHand() {
		g.CardTracker.uuidFor(ci)
	}
}

func (g *GetawayGame) eventCards(cards []engine.CardInstance) []EventCard {
	out := make([]EventCard, len(cards))
	for i, ci := range cards {
		out[i] = EventCard{
			ID:    g.CardTracker.uuidFor(ci),
			Rank:  engine.RankName(ci.Card.Rank()),
			Suit:  engine.SuitName(ci.Card.Suit()),
			Value: ci.Card.Value(),
		}
	}
	return out
}

// handOutcome splits a hand change into the cards that left and the cards drawn.
func handOutcome(before, after []engine.CardInstance) (left, drawn []engine.CardInstance) {
	inAfter := make(map[engine.InstanceID]bool, len(after))
	for _, ci := range after {
		inAfter[ci.ID] = true
	}
	inBefore := make(map[engine.InstanceID]bool, len(before))
	for _, ci := range before {
		inBefore[ci.ID] = true
		if !inAfter[ci.ID] {
			left = append(left, ci)
		}
	}
	for _, ci := range after {
		if !inBefore[ci.ID] {
			drawn = append(drawn, ci)
		}
	}
	return left, drawn
}

// rejectAction reports a failed session call. Wrong-phase calls are caller
// ordering bugs and are logged; rule violations carry the session message.
func (g *GetawayGame) rejectAction(action string, err error) {
	msg := g.Session.Message()
	if errors.Is(err, engine.ErrWrongPhase) {
		g.logger().WithError(err).WithField("action", action).Warn("action in wrong phase")
		msg = "wait for your turn"
	} else if msg == "" {
		msg = err.Error()
	}
	g.fireInvalid(action, msg)
}

// ---------------------------------------------------------------------------
// Player actions
// ---------------------------------------------------------------------------

func (g *GetawayGame) handleToggleSelect(payload map[string]interface{}) {
	raw, _ := payload["cardId"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		g.fireInvalid(ActionToggleSelect, "invalid card id")
		return
	}
	inst, ok := g.CardTracker.instanceFor(id)
	if !ok {
		g.fireInvalid(ActionToggleSelect, engine.MsgUnknownCard)
		return
	}
	if err := g.Session.ToggleSelect(inst); err != nil {
		g.rejectAction(ActionToggleSelect, err)
		return
	}
	g.fireSelection()
}

func (g *GetawayGame) handleClearSelection() {
	if err := g.Session.ClearSelection(); err != nil {
		g.rejectAction(ActionClearSelection, err)
		return
	}
	g.fireSelection()
}

func (g *GetawayGame) fireSelection() {
	sel := g.Session.Selection()
	ids := make([]string, len(sel))
	for i, inst := range sel {
		ids[i] = g.CardTracker.byInstance[inst].String()
	}
	g.fireEvent(GameEvent{
		Type:    EventSelectionChanged,
		Payload: map[string]interface{}{"selected": ids},
	})
}

func (g *GetawayGame) handleLayMeld() {
	before := g.Session.PlayerHand()
	res, err := g.Session.LayMeld()
	if err != nil {
		g.rejectAction(ActionLayMeld, err)
		return
	}
	melded, drawn := handOutcome(before, g.Session.PlayerHand())
	pos, _ := g.Session.Positions()
	g.logAction(g.playerID(), string(EventPlayerMeld), map[string]interface{}{
		"meldType": res.Type.String(),
		"cards":    len(melded),
		"position": pos,
	})
	g.fireEvent(GameEvent{
		Type:     EventPlayerMeld,
		Cards:    g.eventCards(melded),
		Drawn:    g.eventCards(drawn),
		MeldType: res.Type.String(),
		Payload:  map[string]interface{}{"playerPosition": pos, "message": g.Session.Message()},
	})
	g.afterPlayerMove()
}

func (g *GetawayGame) handleDiscard() {
	before := g.Session.PlayerHand()
	if err := g.Session.Discard(); err != nil {
		g.rejectAction(ActionDiscard, err)
		return
	}
	discarded, drawn := handOutcome(before, g.Session.PlayerHand())
	g.logAction(g.playerID(), string(EventPlayerDiscard), map[string]interface{}{"cards": len(discarded)})
	g.fireEvent(GameEvent{
		Type:  EventPlayerDiscard,
		Cards: g.eventCards(discarded),
		Drawn: g.eventCards(drawn),
	})
	g.afterPlayerMove()
}

func (g *GetawayGame) handleHint() {
	ids, d := agent.Suggest(g.Session, agent.Greedy{})
	hand := g.Session.PlayerHand()
	var cards []engine.CardInstance
	for _, want := range ids {
		for _, ci := range hand {
			if ci.ID == want {
				cards = append(cards, ci)
			}
		}
	}
	ev := GameEvent{
		Type:    EventHint,
		Cards:   g.eventCards(cards),
		Payload: map[string]interface{}{"meld": d.Meld},
	}
	if d.Meld {
		ev.MeldType = d.Type.String()
	}
	g.fireEvent(ev)
}

// afterPlayerMove ends the player's half-turn: the game is over or the
// pursuer starts thinking.
func (g *GetawayGame) afterPlayerMove() {
	g.stopIdleTimer()
	g.fireReshuffleIfAny()
	g.TurnID++
	if g.Session.IsTerminal() {
		g.EndGame()
		return
	}
	g.fireEvent(GameEvent{
		Type:    EventPursuerThinking,
		Payload: map[string]interface{}{"turn": g.TurnID},
	})
	g.schedule(g.ThinkDelay, g.runPursuerTurn)
}

func (g *GetawayGame) fireReshuffleIfAny() {
	if !g.Session.LastActionReshuffled() {
		return
	}
	g.fireEvent(GameEvent{
		Type:    EventDeckReshuffle,
		Payload: map[string]interface{}{"drawPileSize": g.Session.DrawPileSize()},
	})
}

// ---------------------------------------------------------------------------
// Pursuer pacing
// ---------------------------------------------------------------------------

// schedule runs fn after delay if the turn has not moved on. A zero delay
// runs fn immediately.
// Assumes lock is held by caller.
func (g *GetawayGame) schedule(delay time.Duration, fn func()) {
	if delay <= 0 {
		fn()
		return
	}
	curTurnID := g.TurnID
	g.pursuerTimer = time.AfterFunc(delay, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.GameOver || g.TurnID != curTurnID {
			return
		}
		fn()
	})
}

func (g *GetawayGame) runPursuerTurn() {
	play, err := g.Session.RunPursuerTurn()
	if err != nil {
		g.logger().WithError(err).Warn("pursuer turn out of order")
		return
	}
	_, q := g.Session.Positions()
	ev := GameEvent{
		Type:  EventPursuerDiscard,
		Cards: g.eventCards(play.Cards),
		Payload: map[string]interface{}{
			"pursuerPosition": q,
			"caught":          play.Caught,
			"message":         g.Session.Message(),
		},
	}
	if play.Melded {
		ev.Type = EventPursuerMeld
		ev.MeldType = play.MeldType.String()
	}
	g.logAction(uuid.Nil, string(ev.Type), map[string]interface{}{"cards": len(play.Cards), "caught": play.Caught})
	g.fireEvent(ev)
	g.fireReshuffleIfAny()

	g.TurnID++
	if g.Session.IsTerminal() {
		g.EndGame()
		return
	}
	g.schedule(g.RevealDelay, g.endPursuerTurn)
}

func (g *GetawayGame) endPursuerTurn() {
	if err := g.Session.EndPursuerTurn(); err != nil {
		g.logger().WithError(err).Warn("end of pursuer turn out of order")
		return
	}
	g.TurnID++
	if g.Session.IsTerminal() {
		g.EndGame()
		return
	}
	state := g.GetCurrentObfuscatedGameState()
	g.fireEvent(GameEvent{
		Type:    EventPlayerTurn,
		Payload: map[string]interface{}{"turn": g.TurnID},
		State:   &state,
	})
	g.scheduleIdleTimer()
}

// ---------------------------------------------------------------------------
// Idle timeout
// ---------------------------------------------------------------------------

// scheduleIdleTimer arms the auto-play timer for the player's turn.
// Assumes lock is held by caller.
func (g *GetawayGame) scheduleIdleTimer() {
	g.stopIdleTimer()
	if g.IdleTimeout <= 0 || g.GameOver {
		return
	}
	curTurnID := g.TurnID
	g.idleTimer = time.AfterFunc(g.IdleTimeout, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.GameOver || g.TurnID != curTurnID || g.Session.Phase() != engine.PhasePlayerTurn {
			return
		}
		g.handleIdleTimeout()
	})
}

func (g *GetawayGame) stopIdleTimer() {
	if g.idleTimer != nil {
		g.idleTimer.Stop()
		g.idleTimer = nil
	}
}

// handleIdleTimeout plays the greedy choice on the player's behalf.
func (g *GetawayGame) handleIdleTimeout() {
	g.logger().WithField("turn", g.TurnID).Info("player idle, auto-playing")
	g.logAction(g.playerID(), "player_timeout", map[string]interface{}{"turn": g.TurnID})

	if err := g.Session.ClearSelection(); err != nil {
		g.rejectAction("auto_play", err)
		return
	}
	ids, d := agent.Suggest(g.Session, agent.Greedy{})
	for _, id := range ids {
		if err := g.Session.ToggleSelect(id); err != nil {
			g.rejectAction("auto_play", err)
			return
		}
	}
	if d.Meld {
		g.handleLayMeld()
		return
	}
	g.handleDiscard()
}
