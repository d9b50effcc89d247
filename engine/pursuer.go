package engine

// PursuerDecision is what the pursuer does with its hand this turn: either
// play Meld (hand indices) or discard the card at DiscardIndex.
type PursuerDecision struct {
	Meld         []int
	MeldType     MeldType
	DiscardIndex int // -1 when melding
}

// IsMeld reports whether the decision plays a meld.
func (d PursuerDecision) IsMeld() bool { return len(d.Meld) > 0 }

// FindPursuerMeld looks for the pursuer's meld: the first same-rank triple,
// else the first three-card run. The pursuer only ever plays three cards.
func FindPursuerMeld(hand []CardInstance) ([]int, MeldType, bool) {
	if idx, ok := FindSet(hand, MinMeldSize); ok {
		return idx, MeldSet, true
	}
	if idx, ok := FindRun(hand, MinMeldSize); ok {
		return idx, MeldRun, true
	}
	return nil, MeldNone, false
}

// DecidePursuer applies the pursuer's greedy procedure. It is deterministic
// for a given hand: meld if possible, otherwise discard the lowest-value card.
func DecidePursuer(hand []CardInstance) PursuerDecision {
	if idx, mt, ok := FindPursuerMeld(hand); ok {
		return PursuerDecision{Meld: idx, MeldType: mt, DiscardIndex: -1}
	}
	return PursuerDecision{DiscardIndex: LowestValueIndex(hand)}
}
