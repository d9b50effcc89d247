package sim

import (
	"fmt"

	engine "github.com/john-pickett/card-heist-sub000/engine"
	"github.com/john-pickett/card-heist-sub000/engine/agent"
)

// GameResult is the outcome of one simulated game.
type GameResult struct {
	Won               bool `json:"won" yaml:"won"`
	Turns             int  `json:"turns" yaml:"turns"`
	PlayerMelds       int  `json:"playerMelds" yaml:"player_melds"`
	PursuerMelds      int  `json:"pursuerMelds" yaml:"pursuer_melds"`
	CardsDrawn        int  `json:"cardsDrawn" yaml:"cards_drawn"`
	Reshuffles        int  `json:"reshuffles" yaml:"reshuffles"`
	TerminatedByLimit bool `json:"terminatedByLimit" yaml:"terminated_by_limit"`
}

// game is the per-run table. Nothing in it is shared between games.
type game struct {
	cfg    Config
	rng    *engine.Xorshift
	player agent.Policy

	playerHand  []engine.CardInstance
	pursuerHand []engine.CardInstance
	drawPile    []engine.CardInstance
	outOfPlay   []engine.CardInstance

	p, q int
	res  GameResult
}

// RunOneGame plays one game to completion or to the turn cap. cfg is
// normalized first; it must be valid.
func RunOneGame(cfg Config, seed uint64) GameResult {
	return newGame(cfg, seed).play()
}

func newGame(cfg Config, seed uint64) *game {
	cfg = cfg.Normalize()
	g := &game{
		cfg: cfg,
		rng: engine.NewXorshift(seed),
		p:   cfg.PlayerStart,
		q:   cfg.PursuerStart,
	}
	g.player = agent.Greedy{}
	if cfg.Player == PolicyRandom {
		g.player = agent.Random{Rng: g.rng, MeldChance: randomMeldChance}
	}
	var ids engine.IDGen
	g.playerHand, g.pursuerHand, g.drawPile = engine.Deal(&ids, g.rng, cfg.PlayerHandSize, cfg.PursuerHandSize)
	return g
}

func (g *game) play() GameResult {
	for turn := 1; turn <= g.cfg.TurnCap; turn++ {
		g.res.Turns = turn
		if g.playerTurn() {
			g.res.Won = true
			return g.res
		}
		g.pursuerTurn(turn)
		if g.q <= g.p {
			return g.res
		}
	}
	g.res.TerminatedByLimit = true
	return g.res
}

// playerTurn plays the policy's choice and reports whether the player escaped.
func (g *game) playerTurn() bool {
	d := g.player.Decide(g.playerHand)
	kept, played := engine.RemoveIndices(g.playerHand, d.Indices)
	g.outOfPlay = append(g.outOfPlay, played...)
	g.playerHand = g.draw(kept, len(played))
	if !d.Meld {
		return false
	}
	g.res.PlayerMelds++
	g.p -= engine.MeldAdvance(len(played))
	return g.p <= g.cfg.ExitPosition
}

func (g *game) pursuerTurn(turn int) {
	switch g.cfg.Model {
	case ModelAlertTable:
		if c := g.cfg.alertChance(turn); c > 0 && g.rng.Float64() < c {
			g.q--
		}
	default:
		dec := engine.DecidePursuer(g.pursuerHand)
		idx := []int{dec.DiscardIndex}
		if dec.IsMeld() {
			idx = dec.Meld
			g.q -= g.cfg.PursuerMeldAdvance
			g.res.PursuerMelds++
		}
		kept, played := engine.RemoveIndices(g.pursuerHand, idx)
		g.outOfPlay = append(g.outOfPlay, played...)
		g.pursuerHand = g.draw(kept, len(played))
	}
}

func (g *game) draw(hand []engine.CardInstance, n int) []engine.CardInstance {
	res, err := engine.DrawWithReshuffle(g.drawPile, hand, n, g.outOfPlay, g.rng)
	if err != nil {
		panic(fmt.Sprintf("sim: invariant breach: %v", err))
	}
	g.drawPile, g.outOfPlay = res.DrawPile, res.OutOfPlay
	g.res.CardsDrawn += n
	if res.Reshuffled {
		g.res.Reshuffles++
	}
	return res.Hand
}

// cardCount is the conservation total, for tests.
func (g *game) cardCount() int {
	return len(g.playerHand) + len(g.pursuerHand) + len(g.drawPile) + len(g.outOfPlay)
}
