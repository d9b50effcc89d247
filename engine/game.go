// Package engine implements the rules of the getaway card race: card and meld
// model, draw/reshuffle, the pursuer's decision procedure, and the turn state
// machine driving one player against the pursuer.
//
// The rule functions (ValidateMeld, DrawWithReshuffle, DecidePursuer, ...)
// are pure and shared by the live Session and the headless simulator.
package engine

import "fmt"

// DeckSize is the number of cards in play at all times.
const DeckSize = 52

// Phase is the state of a Session.
type Phase uint8

const (
	PhasePlayerTurn      Phase = iota // 0: waiting for a player action
	PhasePursuerThinking              // 1: pursuer turn due
	PhasePursuerReveal                // 2: pursuer's play is on display
	PhaseWon                          // 3: terminal
	PhaseLost                         // 4: terminal
)

func (p Phase) String() string {
	switch p {
	case PhasePlayerTurn:
		return "player_turn"
	case PhasePursuerThinking:
		return "pursuer_thinking"
	case PhasePursuerReveal:
		return "pursuer_reveal"
	case PhaseWon:
		return "won"
	case PhaseLost:
		return "lost"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// IsTerminal reports whether the phase ends the game.
func (p Phase) IsTerminal() bool { return p == PhaseWon || p == PhaseLost }

// Counters are the per-session tallies reported at game end.
type Counters struct {
	Melds           int `json:"melds"`
	Sets            int `json:"sets"`
	Runs            int `json:"runs"`
	CardsDrawn      int `json:"cardsDrawn"`
	Discards        int `json:"discards"`
	Turns           int `json:"turns"`
	PursuerMelds    int `json:"pursuerMelds"`
	PursuerDiscards int `json:"pursuerDiscards"`
	Reshuffles      int `json:"reshuffles"`
}

// Session holds the complete state of one getaway game. It is owned by a
// single caller; nothing in it is safe for concurrent use.
type Session struct {
	rules Rules
	rng   Rand
	ids   IDGen

	phase       Phase
	playerHand  []CardInstance
	pursuerHand []CardInstance
	drawPile    []CardInstance
	outOfPlay   []CardInstance

	playerPos  int
	pursuerPos int

	selection []InstanceID // insertion order

	message         string
	lastMeldType    MeldType
	lastPursuerPlay []CardInstance
	lastReshuffled  bool

	counters Counters
}

// ---------------------------------------------------------------------------
// NewSession
// ---------------------------------------------------------------------------

// NewSession shuffles a fresh deck, deals both hands and places both sides
// at their starting positions. The seed drives every shuffle of the game.
func NewSession(rules Rules, seed uint64) (*Session, error) {
	return NewSessionWithRand(rules, NewXorshift(seed))
}

// NewSessionWithRand is NewSession with a caller-supplied generator.
func NewSessionWithRand(rules Rules, rng Rand) (*Session, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	s := &Session{
		rules:      rules,
		rng:        rng,
		phase:      PhasePlayerTurn,
		playerPos:  rules.PlayerStart,
		pursuerPos: rules.PursuerStart,
	}
	s.playerHand, s.pursuerHand, s.drawPile = Deal(&s.ids, rng, rules.PlayerHandSize, rules.PursuerHandSize)
	s.outOfPlay = []CardInstance{}
	return s, nil
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// Rules returns the rules the session was created with.
func (s *Session) Rules() Rules { return s.rules }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// IsTerminal reports whether the game is over.
func (s *Session) IsTerminal() bool { return s.phase.IsTerminal() }

// PlayerHand returns a copy of the player's hand.
func (s *Session) PlayerHand() []CardInstance {
	return append([]CardInstance(nil), s.playerHand...)
}

// PursuerHandSize returns how many cards the pursuer holds. The cards
// themselves are hidden.
func (s *Session) PursuerHandSize() int { return len(s.pursuerHand) }

// DrawPileSize returns the number of cards left to draw.
func (s *Session) DrawPileSize() int { return len(s.drawPile) }

// OutOfPlaySize returns the number of melded and discarded cards awaiting
// reshuffle.
func (s *Session) OutOfPlaySize() int { return len(s.outOfPlay) }

// Positions returns the player and pursuer positions.
func (s *Session) Positions() (player, pursuer int) { return s.playerPos, s.pursuerPos }

// Selection returns the selected instance ids in selection order.
func (s *Session) Selection() []InstanceID {
	return append([]InstanceID(nil), s.selection...)
}

// IsSelected reports whether id is in the selection.
func (s *Session) IsSelected(id InstanceID) bool {
	return indexOfID(s.selection, id) >= 0
}

// Message returns the transient error or info message, if any.
func (s *Session) Message() string { return s.message }

// LastMeldType returns the type of the player's most recent meld.
func (s *Session) LastMeldType() MeldType { return s.lastMeldType }

// LastPursuerPlay returns the cards the pursuer melded or discarded on its
// most recent turn. Cleared when the player's turn resumes.
func (s *Session) LastPursuerPlay() []CardInstance {
	return append([]CardInstance(nil), s.lastPursuerPlay...)
}

// LastActionReshuffled reports whether the most recent draw rebuilt the draw
// pile from the out-of-play pile.
func (s *Session) LastActionReshuffled() bool { return s.lastReshuffled }

// Counters returns the running tallies.
func (s *Session) Counters() Counters { return s.counters }

// CardCount returns the number of cards across all piles and hands. It is
// always DeckSize.
func (s *Session) CardCount() int {
	return len(s.drawPile) + len(s.outOfPlay) + len(s.playerHand) + len(s.pursuerHand)
}

// Summary is the plain-data end-of-game record.
type Summary struct {
	Won             bool     `json:"won"`
	Phase           string   `json:"phase"`
	PlayerPosition  int      `json:"playerPosition"`
	PursuerPosition int      `json:"pursuerPosition"`
	Counters        Counters `json:"counters"`
}

// Summary reports the outcome and counters. It may be called at any time;
// Won is only true once the game is won.
func (s *Session) Summary() Summary {
	return Summary{
		Won:             s.phase == PhaseWon,
		Phase:           s.phase.String(),
		PlayerPosition:  s.playerPos,
		PursuerPosition: s.pursuerPos,
		Counters:        s.counters,
	}
}

func indexOfID(ids []InstanceID, id InstanceID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
