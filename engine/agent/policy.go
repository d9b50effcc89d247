// Package agent implements player policies for the getaway game: the greedy
// meld-preference heuristic the simulator uses to approximate skilled play,
// a uniform random baseline, and helpers to drive a live engine.Session with
// either.
package agent

import (
	"errors"
	"fmt"

	engine "github.com/john-pickett/card-heist-sub000/engine"
)

// Decision is one player turn: lay Indices as a meld of Type, or discard
// them when Meld is false. Indices refer to the hand the decision was made on.
type Decision struct {
	Meld    bool
	Type    engine.MeldType
	Indices []int
}

// Policy chooses the player's play for a hand.
type Policy interface {
	Decide(hand []engine.CardInstance) Decision
}

// ---------------------------------------------------------------------------
// Greedy
// ---------------------------------------------------------------------------

// Greedy plays the largest meld it can find, sets before runs, and otherwise
// discards its least useful card. It is deterministic for a given hand.
type Greedy struct{}

// Decide implements Policy.
func (Greedy) Decide(hand []engine.CardInstance) Decision {
	for _, size := range []int{engine.MaxMeldSize, engine.MinMeldSize} {
		if idx, ok := engine.FindSet(hand, size); ok {
			return Decision{Meld: true, Type: engine.MeldSet, Indices: idx}
		}
		if idx, ok := engine.FindRun(hand, size); ok {
			return Decision{Meld: true, Type: engine.MeldRun, Indices: idx}
		}
	}
	if i := LeastUseful(hand); i >= 0 {
		return Decision{Indices: []int{i}}
	}
	return Decision{}
}

// Usefulness scores hand[i] by how many other cards could meld with it:
// every card of the same rank, plus every card of the same suit one rank
// above or below.
func Usefulness(hand []engine.CardInstance, i int) int {
	c := hand[i].Card
	score := 0
	for j, other := range hand {
		if j == i {
			continue
		}
		o := other.Card
		switch {
		case o.Rank() == c.Rank():
			score++
		case o.Suit() == c.Suit() && (o.Rank()+1 == c.Rank() || c.Rank()+1 == o.Rank()):
			score++
		}
	}
	return score
}

// LeastUseful returns the index of the card with the lowest Usefulness,
// earliest in hand order on ties, or -1 for an empty hand.
func LeastUseful(hand []engine.CardInstance) int {
	best, bestScore := -1, 0
	for i := range hand {
		if s := Usefulness(hand, i); best < 0 || s < bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// ---------------------------------------------------------------------------
// Random
// ---------------------------------------------------------------------------

// Random melds whenever a 3-card meld happens to exist with probability
// MeldChance, and otherwise discards one uniformly chosen card. It is a
// lower bound for balance comparisons.
type Random struct {
	Rng        interface{ Float64() float64 }
	MeldChance float64
}

// Decide implements Policy.
func (r Random) Decide(hand []engine.CardInstance) Decision {
	if len(hand) == 0 {
		return Decision{}
	}
	u := r.Rng.Float64()
	if u < r.MeldChance {
		if idx, ok := engine.FindSet(hand, engine.MinMeldSize); ok {
			return Decision{Meld: true, Type: engine.MeldSet, Indices: idx}
		}
		if idx, ok := engine.FindRun(hand, engine.MinMeldSize); ok {
			return Decision{Meld: true, Type: engine.MeldRun, Indices: idx}
		}
	}
	i := int(r.Rng.Float64() * float64(len(hand)))
	if i >= len(hand) {
		i = len(hand) - 1
	}
	return Decision{Indices: []int{i}}
}

// ---------------------------------------------------------------------------
// Session driving
// ---------------------------------------------------------------------------

// Suggest returns the instance ids p would play from the session's hand and
// whether they form a meld. The session is not modified.
func Suggest(s *engine.Session, p Policy) ([]engine.InstanceID, Decision) {
	hand := s.PlayerHand()
	d := p.Decide(hand)
	ids := make([]engine.InstanceID, len(d.Indices))
	for k, i := range d.Indices {
		ids[k] = hand[i].ID
	}
	return ids, d
}

// PlayTurn selects the cards p chooses and lays or discards them. Any
// existing selection is cleared first.
func PlayTurn(s *engine.Session, p Policy) (Decision, error) {
	if err := s.ClearSelection(); err != nil {
		return Decision{}, err
	}
	ids, d := Suggest(s, p)
	if len(ids) == 0 {
		return d, errors.New("agent: policy chose no cards")
	}
	for _, id := range ids {
		if err := s.ToggleSelect(id); err != nil {
			return d, fmt.Errorf("select %d: %w", id, err)
		}
	}
	if d.Meld {
		if _, err := s.LayMeld(); err != nil {
			return d, err
		}
		return d, nil
	}
	return d, s.Discard()
}
