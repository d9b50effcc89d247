// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"

	engine "github.com/john-pickett/card-heist-sub000/engine"
)

// ObfCard represents a card for client synchronization.
type ObfCard struct {
	ID       uuid.UUID `json:"id"`
	Rank     string    `json:"rank"`
	Suit     string    `json:"suit"`
	Value    int       `json:"value"`
	Selected bool      `json:"selected,omitempty"`
}

// ObfGameState is the client's view of the game. The pursuer's hand is
// reduced to its size and the cards it just played.
type ObfGameState struct {
	GameID          uuid.UUID       `json:"gameId"`
	Phase           string          `json:"phase"`
	TurnID          int             `json:"turnId"`
	GameOver        bool            `json:"gameOver"`
	Won             bool            `json:"won"`
	TrackLength     int             `json:"trackLength"`
	ExitPosition    int             `json:"exitPosition"`
	PlayerPosition  int             `json:"playerPosition"`
	PursuerPosition int             `json:"pursuerPosition"`
	Hand            []ObfCard       `json:"hand"`
	PursuerHandSize int             `json:"pursuerHandSize"`
	LastPursuerPlay []ObfCard       `json:"lastPursuerPlay,omitempty"`
	DrawPileSize    int             `json:"drawPileSize"`
	OutOfPlaySize   int             `json:"outOfPlaySize"`
	Message         string          `json:"message,omitempty"`
	LastMeldType    string          `json:"lastMeldType,omitempty"`
	LegalActions    []string        `json:"legalActions"`
	Counters        engine.Counters `json:"counters"`
}

// GetCurrentObfuscatedGameState builds the client view from the session.
// This function assumes the game lock is HELD by the caller.
func (g *GetawayGame) GetCurrentObfuscatedGameState() ObfGameState {
	s := g.Session
	p, q := s.Positions()
	rules := s.Rules()
	obf := ObfGameState{
		GameID:          g.ID,
		Phase:           s.Phase().String(),
		TurnID:          g.TurnID,
		GameOver:        s.IsTerminal() || g.GameOver,
		Won:             s.Phase() == engine.PhaseWon,
		TrackLength:     rules.TrackLength,
		ExitPosition:    rules.ExitPosition,
		PlayerPosition:  p,
		PursuerPosition: q,
		PursuerHandSize: s.PursuerHandSize(),
		DrawPileSize:    s.DrawPileSize(),
		OutOfPlaySize:   s.OutOfPlaySize(),
		Message:         s.Message(),
		Counters:        s.Counters(),
	}
	if mt := s.LastMeldType(); mt != engine.MeldNone {
		obf.LastMeldType = mt.String()
	}

	hand := s.PlayerHand()
	obf.Hand = make([]ObfCard, len(hand))
	for i, ci := range hand {
		obf.Hand[i] = g.obfCard(ci)
		obf.Hand[i].Selected = s.IsSelected(ci.ID)
	}
	for _, ci := range s.LastPursuerPlay() {
		obf.LastPursuerPlay = append(obf.LastPursuerPlay, g.obfCard(ci))
	}

	legal := s.LegalActions()
	obf.LegalActions = make([]string, len(legal))
	for i, a := range legal {
		obf.LegalActions[i] = a.String()
	}
	return obf
}

func (g *GetawayGame) obfCard(ci engine.CardInstance) ObfCard {
	return ObfCard{
		ID:    g.CardTracker.uuidFor(ci),
		Rank:  engine.RankName(ci.Card.Rank()),
		Suit:  engine.SuitName(ci.Card.Suit()),
		Value: ci.Card.Value(),
	}
}
