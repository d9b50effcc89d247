package engine

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// splitDeck mints a deck and cuts it into hand, draw pile and out-of-play.
func splitDeck(handN, drawN int) (hand, draw, out []CardInstance) {
	var ids IDGen
	deck := ids.MintDeck()
	hand = deck[:handN]
	draw = deck[handN : handN+drawN]
	out = deck[handN+drawN:]
	return hand, draw, out
}

func TestDrawWithoutReshuffle(t *testing.T) {
	hand, draw, out := splitDeck(5, 20)
	res, err := DrawWithReshuffle(draw, hand, 3, out, NewXorshift(1))
	if err != nil {
		t.Fatalf("DrawWithReshuffle: %v", err)
	}
	if res.Reshuffled {
		t.Error("Reshuffled: want false with a full draw pile")
	}
	if len(res.Hand) != 8 {
		t.Errorf("hand size: want 8, got %d", len(res.Hand))
	}
	for i := 0; i < 3; i++ {
		if res.Hand[5+i] != draw[i] {
			t.Errorf("drawn card %d: want %v from the head, got %v", i, draw[i], res.Hand[5+i])
		}
	}
	if len(res.DrawPile) != 17 || len(res.OutOfPlay) != len(out) {
		t.Errorf("piles: want 17/%d, got %d/%d", len(out), len(res.DrawPile), len(res.OutOfPlay))
	}
}

func TestDrawWithReshuffle(t *testing.T) {
	hand, draw, out := splitDeck(5, 2)
	drawIDs := idSet(draw)
	res, err := DrawWithReshuffle(draw, hand, 4, out, NewXorshift(99))
	if err != nil {
		t.Fatalf("DrawWithReshuffle: %v", err)
	}
	if !res.Reshuffled {
		t.Fatal("Reshuffled: want true when the draw pile is short")
	}
	if len(res.OutOfPlay) != 0 {
		t.Errorf("out of play after reshuffle: want 0, got %d", len(res.OutOfPlay))
	}
	// Both remaining draw-pile cards are taken first.
	for _, ci := range res.Hand[5:7] {
		if !drawIDs[ci.ID] {
			t.Errorf("card %v should have come from the old draw pile", ci)
		}
	}
	// The two cards taken from the reshuffled pool are not left in the new draw pile.
	left := idSet(res.DrawPile)
	for _, ci := range res.Hand[7:] {
		if left[ci.ID] {
			t.Errorf("card %v drawn and still in the draw pile", ci)
		}
	}
	assertConserved(t, hand, draw, out, 4, res)
}

// TestDrawConservationRandom checks the conservation identity over random
// pile sizes and counts, including the reshuffle path.
func TestDrawConservationRandom(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for iter := 0; iter < 500; iter++ {
		handN := r.IntN(9)
		drawN := r.IntN(DeckSize - handN + 1)
		hand, draw, out := splitDeck(handN, drawN)
		count := r.IntN(min(len(draw)+len(out), 8) + 1)

		res, err := DrawWithReshuffle(draw, hand, count, out, r)
		if err != nil {
			t.Fatalf("iter %d: unexpected error with %d available: %v", iter, len(draw)+len(out), err)
		}
		assertConserved(t, hand, draw, out, count, res)
		if res.Reshuffled != (len(draw) < count) {
			t.Errorf("iter %d: Reshuffled=%v with draw %d, count %d", iter, res.Reshuffled, len(draw), count)
		}
	}
}

func TestDrawPoolExhausted(t *testing.T) {
	hand, draw, out := splitDeck(49, 1)
	before := append([]CardInstance(nil), draw...)
	_, err := DrawWithReshuffle(draw, hand, 4, out, NewXorshift(1))
	if !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("want ErrPoolExhausted, got %v", err)
	}
	if len(draw) != 1 || draw[0] != before[0] {
		t.Error("draw pile was modified on failure")
	}
}

func TestDrawDoesNotMutateInputs(t *testing.T) {
	hand, draw, out := splitDeck(3, 1)
	outBefore := append([]CardInstance(nil), out...)
	if _, err := DrawWithReshuffle(draw, hand, 5, out, NewXorshift(8)); err != nil {
		t.Fatalf("DrawWithReshuffle: %v", err)
	}
	for i := range out {
		if out[i] != outBefore[i] {
			t.Fatalf("out-of-play input reordered at %d", i)
		}
	}
}

func TestRemoveIndices(t *testing.T) {
	hand := instances(
		NewCard(SuitSpades, RankAce),
		NewCard(SuitSpades, RankTwo),
		NewCard(SuitSpades, RankThree),
		NewCard(SuitSpades, RankFour),
	)
	kept, removed := RemoveIndices(hand, []int{3, 1})
	if len(kept) != 2 || kept[0] != hand[0] || kept[1] != hand[2] {
		t.Errorf("kept: want [%v %v], got %v", hand[0], hand[2], kept)
	}
	if len(removed) != 2 || removed[0] != hand[3] || removed[1] != hand[1] {
		t.Errorf("removed: want [%v %v], got %v", hand[3], hand[1], removed)
	}
}

func TestDeal(t *testing.T) {
	var ids IDGen
	player, pursuer, draw := Deal(&ids, NewXorshift(42), 8, 7)
	if len(player) != 8 || len(pursuer) != 7 || len(draw) != DeckSize-15 {
		t.Fatalf("deal sizes: got %d/%d/%d", len(player), len(pursuer), len(draw))
	}
	all := append(append(append([]CardInstance(nil), player...), pursuer...), draw...)
	if len(idSet(all)) != DeckSize {
		t.Error("deal lost or duplicated a card")
	}
}

func idSet(cards []CardInstance) map[InstanceID]bool {
	m := make(map[InstanceID]bool, len(cards))
	for _, ci := range cards {
		m[ci.ID] = true
	}
	return m
}

func assertConserved(t *testing.T, hand, draw, out []CardInstance, count int, res DrawResult) {
	t.Helper()
	if got := len(res.Hand) - len(hand); got != count {
		t.Errorf("drawn: want %d, got %d", count, got)
	}
	before := len(hand) + len(draw) + len(out)
	after := len(res.Hand) + len(res.DrawPile) + len(res.OutOfPlay)
	if before != after {
		t.Errorf("card count: before %d, after %d", before, after)
	}
	union := append(append(append([]CardInstance(nil), res.Hand...), res.DrawPile...), res.OutOfPlay...)
	if len(idSet(union)) != after {
		t.Error("a card appears in more than one pile")
	}
}
