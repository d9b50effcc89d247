package engine

// Value returns the discard value of the card.
//   - Ace → 1
//   - Two–Ten → face value
//   - Jack, Queen, King → 10
func (c Card) Value() int {
	r := c.Rank()
	switch {
	case r == RankAce:
		return 1
	case r <= RankTen:
		return int(r) + 1
	case r <= RankKing:
		return 10
	}
	return 0
}

// LowestValueIndex returns the index of the lowest-value card in hand.
// Ties go to the earliest card in hand order. Returns -1 for an empty hand.
func LowestValueIndex(hand []CardInstance) int {
	best := -1
	bestVal := 0
	for i, ci := range hand {
		v := ci.Card.Value()
		if best < 0 || v < bestVal {
			best = i
			bestVal = v
		}
	}
	return best
}
