package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWrongPhase is returned when an action is invoked outside the phase
	// that admits it. State is left untouched.
	ErrWrongPhase = errors.New("action not allowed in this phase")
	// ErrInvalidMeld is returned by LayMeld when the selection is not a meld.
	ErrInvalidMeld = errors.New("invalid meld")
	// ErrEmptySelection is returned by Discard when nothing is selected.
	ErrEmptySelection = errors.New("nothing selected")
	// ErrUnknownCard is returned by ToggleSelect for ids not in the player's hand.
	ErrUnknownCard = errors.New("card is not in the player's hand")
)

// Messages shown to the player for recoverable mistakes and outcomes.
const (
	MsgSelectToDiscard = "select at least one card to discard"
	MsgUnknownCard     = "that card is not in your hand"
	MsgEscaped         = "you reached the exit"
)

func (s *Session) requirePhase(want Phase, action string) error {
	if s.phase != want {
		return fmt.Errorf("%s during %s: %w", action, s.phase, ErrWrongPhase)
	}
	return nil
}

// ToggleSelect adds id to the selection, or removes it if already selected.
func (s *Session) ToggleSelect(id InstanceID) error {
	if err := s.requirePhase(PhasePlayerTurn, "toggle select"); err != nil {
		return err
	}
	if i := indexOfID(s.selection, id); i >= 0 {
		s.selection = append(s.selection[:i], s.selection[i+1:]...)
		return nil
	}
	if indexOfInstance(s.playerHand, id) < 0 {
		s.message = MsgUnknownCard
		return fmt.Errorf("select %d: %w", id, ErrUnknownCard)
	}
	s.selection = append(s.selection, id)
	return nil
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() error {
	if err := s.requirePhase(PhasePlayerTurn, "clear selection"); err != nil {
		return err
	}
	s.selection = nil
	return nil
}

// ClearMessage drops the transient message. Allowed in every phase.
func (s *Session) ClearMessage() { s.message = "" }

// LayMeld plays the selected cards as a meld. An invalid selection sets the
// message and returns ErrInvalidMeld without changing anything else. A valid
// meld moves the player one step (three cards) or two (four cards), refills
// the hand and hands the turn to the pursuer, or ends the game at the exit.
func (s *Session) LayMeld() (MeldResult, error) {
	if err := s.requirePhase(PhasePlayerTurn, "lay meld"); err != nil {
		return MeldResult{}, err
	}

	idx := s.selectionIndices()
	res := ValidateMeld(Pick(s.playerHand, idx))
	if !res.Valid {
		s.message = res.Reason
		return res, fmt.Errorf("%w: %s", ErrInvalidMeld, res.Reason)
	}

	kept, melded := RemoveIndices(s.playerHand, idx)
	s.playerHand = kept
	s.outOfPlay = append(s.outOfPlay, melded...)
	s.counters.CardsDrawn += len(melded)
	s.playerHand = s.draw(s.playerHand, len(melded))

	s.playerPos -= MeldAdvance(len(melded))
	if s.playerPos < s.rules.ExitPosition {
		s.playerPos = s.rules.ExitPosition
	}

	s.counters.Melds++
	s.counters.Turns++
	switch res.Type {
	case MeldSet:
		s.counters.Sets++
	case MeldRun:
		s.counters.Runs++
	}
	s.lastMeldType = res.Type
	s.selection = nil
	s.message = ""

	if s.playerPos <= s.rules.ExitPosition {
		s.phase = PhaseWon
		s.message = MsgEscaped
		return res, nil
	}
	s.phase = PhasePursuerThinking
	return res, nil
}

// Discard sends the selected cards out of play and draws the same number.
// The player does not move.
func (s *Session) Discard() error {
	if err := s.requirePhase(PhasePlayerTurn, "discard"); err != nil {
		return err
	}
	if len(s.selection) == 0 {
		s.message = MsgSelectToDiscard
		return fmt.Errorf("discard: %w", ErrEmptySelection)
	}

	kept, discarded := RemoveIndices(s.playerHand, s.selectionIndices())
	s.playerHand = kept
	s.outOfPlay = append(s.outOfPlay, discarded...)
	s.counters.CardsDrawn += len(discarded)
	s.playerHand = s.draw(s.playerHand, len(discarded))

	s.counters.Discards++
	s.counters.Turns++
	s.selection = nil
	s.message = ""
	s.phase = PhasePursuerThinking
	return nil
}

// PursuerPlay describes what the pursuer did on its turn.
type PursuerPlay struct {
	Melded   bool
	MeldType MeldType
	Cards    []CardInstance // melded cards, or the single discard
	Caught   bool
}

// RunPursuerTurn plays the pursuer's turn. A meld moves the pursuer forward
// and may catch the player; otherwise the pursuer discards its lowest card.
// Either way the pursuer's hand is refilled.
func (s *Session) RunPursuerTurn() (PursuerPlay, error) {
	if err := s.requirePhase(PhasePursuerThinking, "pursuer turn"); err != nil {
		return PursuerPlay{}, err
	}

	dec := DecidePursuer(s.pursuerHand)
	var play PursuerPlay
	if dec.IsMeld() {
		kept, melded := RemoveIndices(s.pursuerHand, dec.Meld)
		s.pursuerHand = kept
		s.outOfPlay = append(s.outOfPlay, melded...)
		s.pursuerHand = s.draw(s.pursuerHand, len(melded))
		s.pursuerPos -= s.rules.PursuerMeldAdvance
		s.counters.PursuerMelds++
		play = PursuerPlay{Melded: true, MeldType: dec.MeldType, Cards: melded}
	} else {
		kept, discarded := RemoveIndices(s.pursuerHand, []int{dec.DiscardIndex})
		s.pursuerHand = kept
		s.outOfPlay = append(s.outOfPlay, discarded...)
		s.pursuerHand = s.draw(s.pursuerHand, len(discarded))
		s.counters.PursuerDiscards++
		play = PursuerPlay{Cards: discarded}
	}
	s.lastPursuerPlay = play.Cards

	if s.caught() {
		play.Caught = true
		s.phase = PhaseLost
		s.message = "the pursuer played " + describePlay(play) + " and caught you"
		return play, nil
	}
	s.phase = PhasePursuerReveal
	if play.Melded {
		s.message = "the pursuer played " + describePlay(play) + " and closed in"
	} else {
		s.message = "the pursuer discarded " + describePlay(play)
	}
	return play, nil
}

// EndPursuerTurn closes the reveal. The catch condition is checked again
// before the player gets the turn back.
func (s *Session) EndPursuerTurn() error {
	if err := s.requirePhase(PhasePursuerReveal, "end pursuer turn"); err != nil {
		return err
	}
	if s.caught() {
		s.phase = PhaseLost
		return nil
	}
	s.phase = PhasePlayerTurn
	s.message = ""
	s.lastPursuerPlay = nil
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Session) caught() bool { return s.pursuerPos <= s.playerPos }

// draw refills hand with n cards. Running out of cards means the 52-card
// invariant is broken, which is a programming error.
func (s *Session) draw(hand []CardInstance, n int) []CardInstance {
	res, err := DrawWithReshuffle(s.drawPile, hand, n, s.outOfPlay, s.rng)
	if err != nil {
		panic(fmt.Sprintf("engine: invariant breach: %v", err))
	}
	s.drawPile = res.DrawPile
	s.outOfPlay = res.OutOfPlay
	s.lastReshuffled = res.Reshuffled
	if res.Reshuffled {
		s.counters.Reshuffles++
	}
	return res.Hand
}

// selectionIndices maps the selection to player-hand indices, in selection
// order. Selected ids always refer to cards in hand.
func (s *Session) selectionIndices() []int {
	idx := make([]int, 0, len(s.selection))
	for _, id := range s.selection {
		if i := indexOfInstance(s.playerHand, id); i >= 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

func indexOfInstance(hand []CardInstance, id InstanceID) int {
	for i, ci := range hand {
		if ci.ID == id {
			return i
		}
	}
	return -1
}

func describePlay(p PursuerPlay) string {
	names := make([]string, len(p.Cards))
	for i, ci := range p.Cards {
		names[i] = ci.Card.String()
	}
	if !p.Melded {
		return strings.Join(names, " ")
	}
	return "a " + p.MeldType.String() + " (" + strings.Join(names, " ") + ")"
}
