package engine

import "sort"

const (
	MinMeldSize = 3
	MaxMeldSize = 4
)

// Rejection reasons reported by ValidateMeld. They are shown to the player
// verbatim.
const (
	ReasonMeldSize    = "a meld needs 3 or 4 cards"
	ReasonNotSetOrRun = "not a valid set or run"
	ReasonNotSequence = "cards must be in sequence"
)

// MeldResult is the outcome of ValidateMeld.
type MeldResult struct {
	Valid  bool
	Type   MeldType
	Reason string // empty when Valid
}

// ValidateMeld checks whether cards form a set (3–4 cards of one rank) or a
// run (3–4 cards of one suit with consecutive ace-low ranks; no wraparound).
func ValidateMeld(cards []CardInstance) MeldResult {
	if len(cards) < MinMeldSize || len(cards) > MaxMeldSize {
		return MeldResult{Reason: ReasonMeldSize}
	}

	sameRank, sameSuit := true, true
	for _, ci := range cards[1:] {
		if ci.Card.Rank() != cards[0].Card.Rank() {
			sameRank = false
		}
		if ci.Card.Suit() != cards[0].Card.Suit() {
			sameSuit = false
		}
	}
	if sameRank {
		return MeldResult{Valid: true, Type: MeldSet}
	}
	if !sameSuit {
		return MeldResult{Reason: ReasonNotSetOrRun}
	}

	ranks := make([]int, len(cards))
	for i, ci := range cards {
		ranks[i] = int(ci.Card.Rank())
	}
	sort.Ints(ranks)
	if !consecutive(ranks) {
		return MeldResult{Reason: ReasonNotSequence}
	}
	return MeldResult{Valid: true, Type: MeldRun}
}

// consecutive reports whether sorted ranks step by exactly one.
func consecutive(sorted []int) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			return false
		}
	}
	return true
}

// FindSet returns the hand indices of the first n cards sharing a rank.
// Ranks are scanned in ace-low order; within a rank, cards keep hand order.
func FindSet(hand []CardInstance, n int) ([]int, bool) {
	var byRank [NumRanks][]int
	for i, ci := range hand {
		r := ci.Card.Rank()
		if int(r) < NumRanks {
			byRank[r] = append(byRank[r], i)
		}
	}
	for _, group := range byRank {
		if len(group) >= n {
			return group[:n], true
		}
	}
	return nil, false
}

// FindRun returns the hand indices of the first n same-suit cards with
// consecutive ranks. Suits are scanned spades, hearts, diamonds, clubs; within
// a suit a window of n slides over the cards sorted by rank. Indices come back
// in rank order.
func FindRun(hand []CardInstance, n int) ([]int, bool) {
	if n <= 0 {
		return nil, false
	}
	var bySuit [NumSuits][]int
	for i, ci := range hand {
		s := ci.Card.Suit()
		if int(s) < NumSuits {
			bySuit[s] = append(bySuit[s], i)
		}
	}
	for _, group := range bySuit {
		if len(group) < n {
			continue
		}
		sort.SliceStable(group, func(a, b int) bool {
			return hand[group[a]].Card.Rank() < hand[group[b]].Card.Rank()
		})
		for start := 0; start+n <= len(group); start++ {
			window := group[start : start+n]
			ok := true
			for k := 1; k < n; k++ {
				if hand[window[k]].Card.Rank() != hand[window[k-1]].Card.Rank()+1 {
					ok = false
					break
				}
			}
			if ok {
				return append([]int(nil), window...), true
			}
		}
	}
	return nil, false
}

// Pick returns the cards of hand at the given indices, in index-list order.
func Pick(hand []CardInstance, idx []int) []CardInstance {
	out := make([]CardInstance, len(idx))
	for i, j := range idx {
		out[i] = hand[j]
	}
	return out
}
