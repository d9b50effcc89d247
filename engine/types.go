package engine

import "strconv"

// Suit constants, packed into upper 4 bits of Card.
const (
	SuitSpades   uint8 = 0
	SuitHearts   uint8 = 1
	SuitDiamonds uint8 = 2
	SuitClubs    uint8 = 3
)

// NumSuits is the number of suits in the deck.
const NumSuits = 4

// Rank constants, packed into lower 4 bits of Card.
// The numeric value of a rank is also its ace-low run index.
const (
	RankAce   uint8 = 0
	RankTwo   uint8 = 1
	RankThree uint8 = 2
	RankFour  uint8 = 3
	RankFive  uint8 = 4
	RankSix   uint8 = 5
	RankSeven uint8 = 6
	RankEight uint8 = 7
	RankNine  uint8 = 8
	RankTen   uint8 = 9
	RankJack  uint8 = 10
	RankQueen uint8 = 11
	RankKing  uint8 = 12
)

// NumRanks is the number of ranks per suit.
const NumRanks = 13

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

var rankNames = [NumRanks]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

var suitNames = [NumSuits]string{"spades", "hearts", "diamonds", "clubs"}

var suitLetters = [NumSuits]string{"S", "H", "D", "C"}

// RankName returns the display name of a rank ("A", "2".."10", "J", "Q", "K").
func RankName(rank uint8) string {
	if int(rank) < len(rankNames) {
		return rankNames[rank]
	}
	return "?"
}

// SuitName returns the lower-case name of a suit.
func SuitName(suit uint8) string {
	if int(suit) < len(suitNames) {
		return suitNames[suit]
	}
	return "?"
}

// String renders the card as rank followed by suit letter, e.g. "10H", "QS".
func (c Card) String() string {
	s := c.Suit()
	if int(s) >= len(suitLetters) {
		return "??"
	}
	return RankName(c.Rank()) + suitLetters[s]
}

// NewDeck returns the 52 cards of a standard deck in suit-major order.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for suit := uint8(0); suit < NumSuits; suit++ {
		for rank := uint8(0); rank <= RankKing; rank++ {
			deck = append(deck, NewCard(suit, rank))
		}
	}
	return deck
}

// ---------------------------------------------------------------------------
// Card instances
// ---------------------------------------------------------------------------

// InstanceID identifies one physical card for the lifetime of a game.
type InstanceID uint32

// CardInstance is a Card bound to the id that was minted for it.
// Selecting, melding and discarding always refer to the id, never the face.
type CardInstance struct {
	ID   InstanceID
	Card Card
}

func (ci CardInstance) String() string {
	return ci.Card.String() + "#" + strconv.FormatUint(uint64(ci.ID), 10)
}

// IDGen mints instance ids. Each Session (and each simulated game) owns its
// own generator, so ids never collide within a game and no global counter is
// shared between concurrent games.
type IDGen struct {
	next InstanceID
}

// Mint binds a fresh id to c.
func (g *IDGen) Mint(c Card) CardInstance {
	g.next++
	return CardInstance{ID: g.next, Card: c}
}

// MintDeck mints one instance for every card of a fresh deck.
func (g *IDGen) MintDeck() []CardInstance {
	deck := NewDeck()
	out := make([]CardInstance, len(deck))
	for i, c := range deck {
		out[i] = g.Mint(c)
	}
	return out
}

// ---------------------------------------------------------------------------
// Meld types
// ---------------------------------------------------------------------------

// MeldType classifies a valid meld.
type MeldType uint8

const (
	MeldNone MeldType = iota // 0
	MeldSet                  // 1: same rank
	MeldRun                  // 2: same suit, consecutive ranks
)

func (m MeldType) String() string {
	switch m {
	case MeldSet:
		return "set"
	case MeldRun:
		return "run"
	default:
		return "none"
	}
}
