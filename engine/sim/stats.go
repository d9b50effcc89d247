package sim

import "math"

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// Result aggregates a batch of games.
type Result struct {
	Config Config `json:"config" yaml:"config"`
	Seed   uint64 `json:"seed" yaml:"seed"`

	Games             int `json:"games" yaml:"games"`
	Escapes           int `json:"escapes" yaml:"escapes"`
	Captures          int `json:"captures" yaml:"captures"`
	TerminatedByLimit int `json:"terminatedByLimit" yaml:"terminated_by_limit"`

	// EscapePct and CapturePct are fractions of Games.
	EscapePct  float64 `json:"escapePct" yaml:"escape_pct"`
	CapturePct float64 `json:"capturePct" yaml:"capture_pct"`
	// CI95Low and CI95High bound EscapePct.
	CI95Low  float64 `json:"ci95Low" yaml:"ci95_low"`
	CI95High float64 `json:"ci95High" yaml:"ci95_high"`

	MeanTurns        float64 `json:"meanTurns" yaml:"mean_turns"`
	MeanPlayerMelds  float64 `json:"meanPlayerMelds" yaml:"mean_player_melds"`
	MeanPursuerMelds float64 `json:"meanPursuerMelds" yaml:"mean_pursuer_melds"`
	MeanCardsDrawn   float64 `json:"meanCardsDrawn" yaml:"mean_cards_drawn"`
	MeanReshuffles   float64 `json:"meanReshuffles" yaml:"mean_reshuffles"`
}

// Aggregate folds per-game results into a Result. Games stopped by the
// turn cap count as neither escapes nor captures.
func Aggregate(games []GameResult) Result {
	var r Result
	r.Games = len(games)
	if r.Games == 0 {
		return r
	}
	var turns, pm, qm, drawn, resh int
	for _, g := range games {
		switch {
		case g.TerminatedByLimit:
			r.TerminatedByLimit++
		case g.Won:
			r.Escapes++
		default:
			r.Captures++
		}
		turns += g.Turns
		pm += g.PlayerMelds
		qm += g.PursuerMelds
		drawn += g.CardsDrawn
		resh += g.Reshuffles
	}
	n := float64(r.Games)
	r.EscapePct = float64(r.Escapes) / n
	r.CapturePct = float64(r.Captures) / n
	r.CI95Low, r.CI95High = ConfidenceInterval(r.EscapePct, r.Games)
	r.MeanTurns = float64(turns) / n
	r.MeanPlayerMelds = float64(pm) / n
	r.MeanPursuerMelds = float64(qm) / n
	r.MeanCardsDrawn = float64(drawn) / n
	r.MeanReshuffles = float64(resh) / n
	return r
}

// ConfidenceInterval returns the 95% normal-approximation interval
// p ± 1.96·sqrt(p(1-p)/n), clamped to [0,1].
func ConfidenceInterval(p float64, n int) (lo, hi float64) {
	if n <= 0 {
		return 0, 1
	}
	half := z95 * math.Sqrt(p*(1-p)/float64(n))
	return math.Max(0, p-half), math.Min(1, p+half)
}
