package engine

import (
	"errors"
	"fmt"
)

// ErrPoolExhausted is returned when the draw pile and out-of-play pile
// together hold fewer cards than requested. With a conserved 52-card deck
// this cannot happen; callers treat it as a broken invariant.
var ErrPoolExhausted = errors.New("draw pool exhausted")

// DrawResult holds the piles after DrawWithReshuffle.
type DrawResult struct {
	Hand       []CardInstance
	DrawPile   []CardInstance
	OutOfPlay  []CardInstance
	Reshuffled bool
}

// DrawWithReshuffle draws count cards into hand from the head of drawPile.
// When drawPile is short, all of it is taken, the out-of-play pile is
// shuffled into a fresh draw pile and the remainder comes from its head.
// Inputs are never modified; the result holds freshly allocated slices.
func DrawWithReshuffle(drawPile, hand []CardInstance, count int, outOfPlay []CardInstance, rng Rand) (DrawResult, error) {
	if count < 0 {
		return DrawResult{}, fmt.Errorf("draw count %d is negative", count)
	}
	if len(drawPile)+len(outOfPlay) < count {
		return DrawResult{}, fmt.Errorf("%w: need %d, draw pile %d, out of play %d",
			ErrPoolExhausted, count, len(drawPile), len(outOfPlay))
	}

	newHand := make([]CardInstance, len(hand), len(hand)+count)
	copy(newHand, hand)

	if len(drawPile) >= count {
		newHand = append(newHand, drawPile[:count]...)
		return DrawResult{
			Hand:      newHand,
			DrawPile:  append([]CardInstance(nil), drawPile[count:]...),
			OutOfPlay: append([]CardInstance(nil), outOfPlay...),
		}, nil
	}

	// Take what is left, then rebuild the draw pile from out-of-play.
	newHand = append(newHand, drawPile...)
	need := count - len(drawPile)

	pool := append([]CardInstance(nil), outOfPlay...)
	Shuffle(pool, rng)

	newHand = append(newHand, pool[:need]...)
	return DrawResult{
		Hand:       newHand,
		DrawPile:   pool[need:],
		OutOfPlay:  []CardInstance{},
		Reshuffled: true,
	}, nil
}

// RemoveIndices splits hand into the cards kept and the cards at idx.
// Removed cards come back in idx order; kept cards keep hand order.
func RemoveIndices(hand []CardInstance, idx []int) (kept, removed []CardInstance) {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	kept = make([]CardInstance, 0, len(hand))
	for i, ci := range hand {
		if !drop[i] {
			kept = append(kept, ci)
		}
	}
	return kept, Pick(hand, idx)
}

// Deal mints and shuffles a fresh deck, then deals playerN and pursuerN
// cards from its head. The rest becomes the draw pile.
func Deal(ids *IDGen, rng Rand, playerN, pursuerN int) (player, pursuer, drawPile []CardInstance) {
	deck := ids.MintDeck()
	Shuffle(deck, rng)
	player = append([]CardInstance(nil), deck[:playerN]...)
	pursuer = append([]CardInstance(nil), deck[playerN:playerN+pursuerN]...)
	drawPile = append([]CardInstance(nil), deck[playerN+pursuerN:]...)
	return player, pursuer, drawPile
}
