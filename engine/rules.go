package engine

import "fmt"

// Rules holds the balance constants of the getaway game.
// Positions run 1..TrackLength; lower is closer to the exit.
type Rules struct {
	TrackLength        int // positions on the path
	PlayerStart        int
	PursuerStart       int
	ExitPosition       int // player wins on reaching a position <= this
	PlayerHandSize     int
	PursuerHandSize    int
	PursuerMeldAdvance int // steps the pursuer moves per meld
}

// DefaultRules returns the live game's balance constants.
func DefaultRules() Rules {
	return Rules{
		TrackLength:        7,
		PlayerStart:        5,
		PursuerStart:       7,
		ExitPosition:       1,
		PlayerHandSize:     8,
		PursuerHandSize:    7,
		PursuerMeldAdvance: 1,
	}
}

// Validate rejects rule sets the engine cannot play.
func (r Rules) Validate() error {
	if r.TrackLength < 2 {
		return fmt.Errorf("track length %d is too short", r.TrackLength)
	}
	if r.PlayerStart < 1 || r.PlayerStart > r.TrackLength {
		return fmt.Errorf("player start %d outside track 1..%d", r.PlayerStart, r.TrackLength)
	}
	if r.PursuerStart < 1 || r.PursuerStart > r.TrackLength {
		return fmt.Errorf("pursuer start %d outside track 1..%d", r.PursuerStart, r.TrackLength)
	}
	if r.PursuerStart <= r.PlayerStart {
		return fmt.Errorf("pursuer start %d must be behind player start %d", r.PursuerStart, r.PlayerStart)
	}
	if r.ExitPosition < 1 {
		return fmt.Errorf("exit position %d outside track 1..%d", r.ExitPosition, r.TrackLength)
	}
	if r.ExitPosition >= r.PlayerStart {
		return fmt.Errorf("exit position %d must be ahead of player start %d", r.ExitPosition, r.PlayerStart)
	}
	if r.PlayerHandSize < MaxMeldSize || r.PursuerHandSize < MinMeldSize {
		return fmt.Errorf("hand sizes %d/%d too small to meld", r.PlayerHandSize, r.PursuerHandSize)
	}
	if r.PlayerHandSize+r.PursuerHandSize > DeckSize-MaxMeldSize {
		return fmt.Errorf("hand sizes %d/%d leave no draw pool", r.PlayerHandSize, r.PursuerHandSize)
	}
	if r.PursuerMeldAdvance < 1 {
		return fmt.Errorf("pursuer meld advance %d must be positive", r.PursuerMeldAdvance)
	}
	return nil
}

// MeldAdvance is how far a player meld of the given size moves the player:
// one step for three cards, two for four.
func MeldAdvance(size int) int {
	if size >= MaxMeldSize {
		return 2
	}
	return 1
}
