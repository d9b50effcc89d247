package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	engine "github.com/john-pickett/card-heist-sub000/engine"
)

func TestDefaultConfigMatchesLiveRules(t *testing.T) {
	cfg := DefaultConfig()
	live := engine.DefaultRules()

	assert.Equal(t, ModelLegacyAI, cfg.Model)
	assert.Equal(t, PolicyGreedy, cfg.Player)
	assert.Equal(t, live.PlayerStart, cfg.PlayerStart)
	assert.Equal(t, live.PursuerStart, cfg.PursuerStart)
	assert.Equal(t, live.ExitPosition, cfg.ExitPosition)
	assert.Equal(t, live.PlayerHandSize, cfg.PlayerHandSize)
	assert.Equal(t, live.PursuerHandSize, cfg.PursuerHandSize)
	assert.Equal(t, live.PursuerMeldAdvance, cfg.PursuerMeldAdvance)
	assert.Equal(t, DefaultTurnCap, cfg.TurnCap)
	assert.Equal(t, DefaultAlertTable, cfg.AlertTable)
	assert.Equal(t, live, cfg.Rules())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{PursuerStart: 3}.Validate(), "pursuer ahead of the player")
	assert.Error(t, Config{AlertTable: []float64{0.5, 1.5}}.Validate())
	assert.Error(t, Config{Model: Model(9)}.Validate())
	assert.Error(t, Config{TurnCap: -1}.Validate())
	assert.Error(t, Config{AlertThreshold: -1}.Validate())
	assert.Error(t, Config{ExitPosition: -1}.Validate(), "exit off the track")
}

// TestZeroFieldsMeanDefault pins the zero-means-default rule and shows how to
// reach the lowest real values.
func TestZeroFieldsMeanDefault(t *testing.T) {
	cfg := Config{AlertThreshold: 0, ExitPosition: 0}.Normalize()
	assert.Equal(t, DefaultAlertThreshold, cfg.AlertThreshold)
	assert.Equal(t, engine.DefaultRules().ExitPosition, cfg.ExitPosition)

	// Threshold 1 is the earliest: turns are counted from 1.
	first := Config{AlertThreshold: 1, AlertTable: []float64{0.9}}.Normalize()
	assert.Equal(t, 0.9, first.alertChance(1))
	assert.Zero(t, DefaultConfig().alertChance(1))

	// An all-zero table turns auto-advance off.
	off := Config{AlertTable: []float64{0}}.Normalize()
	for turn := 1; turn <= 10; turn++ {
		assert.Zero(t, off.alertChance(turn))
	}
}

func TestAlertChance(t *testing.T) {
	cfg := Config{AlertThreshold: 2, AlertTable: []float64{0.1, 0.2, 0.3, 0.4}}.Normalize()
	assert.Zero(t, cfg.alertChance(1), "below threshold")
	assert.Equal(t, 0.3, cfg.alertChance(2))
	assert.Equal(t, 0.4, cfg.alertChance(3))
	assert.Equal(t, 0.4, cfg.alertChance(50), "last entry repeats")
}

func TestModelTextRoundTrip(t *testing.T) {
	b, err := json.Marshal(Config{Model: ModelAlertTable, Player: PolicyRandom})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"model":"alert_table"`)
	assert.Contains(t, string(b), `"player":"random"`)

	var cfg Config
	require.NoError(t, json.Unmarshal(b, &cfg))
	assert.Equal(t, ModelAlertTable, cfg.Model)
	assert.Equal(t, PolicyRandom, cfg.Player)

	assert.Error(t, json.Unmarshal([]byte(`{"model":"psychic"}`), &cfg))
}

// TestRunOneGameConservesCards steps games by hand and checks the deck after
// every half-turn for both pursuer models.
func TestRunOneGameConservesCards(t *testing.T) {
	for _, model := range []Model{ModelLegacyAI, ModelAlertTable} {
		for seed := uint64(1); seed <= 30; seed++ {
			g := newGame(Config{Model: model}, seed)
			lastP, lastQ := g.p, g.q
			for turn := 1; turn <= g.cfg.TurnCap; turn++ {
				melds := g.res.PlayerMelds
				if g.playerTurn() {
					break
				}
				require.Equal(t, engine.DeckSize, g.cardCount(), "model %v seed %d turn %d", model, seed, turn)
				if g.p < lastP {
					require.Greater(t, g.res.PlayerMelds, melds, "player moved without a meld")
				}
				g.pursuerTurn(turn)
				require.Equal(t, engine.DeckSize, g.cardCount(), "model %v seed %d turn %d", model, seed, turn)
				require.LessOrEqual(t, g.p, lastP)
				require.LessOrEqual(t, g.q, lastQ)
				require.Len(t, g.playerHand, g.cfg.PlayerHandSize)
				require.Len(t, g.pursuerHand, g.cfg.PursuerHandSize)
				lastP, lastQ = g.p, g.q
				if g.q <= g.p {
					break
				}
			}
		}
	}
}

func TestRunOneGameDeterministic(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		assert.Equal(t, RunOneGame(Config{}, seed), RunOneGame(Config{}, seed))
	}
}

func TestRunOneGameTurnCap(t *testing.T) {
	// The pursuer never moves and one turn cannot carry the player to the exit.
	cfg := Config{Model: ModelAlertTable, AlertTable: []float64{0}, TurnCap: 1}
	for seed := uint64(1); seed <= 10; seed++ {
		res := RunOneGame(cfg, seed)
		assert.True(t, res.TerminatedByLimit)
		assert.False(t, res.Won)
		assert.Equal(t, 1, res.Turns)
		assert.Zero(t, res.PursuerMelds, "alert-table pursuer never melds")
	}
}

// TestRunSimulationScenario: over 1000 default games the escape rate is
// strictly inside (0,1) and the interval brackets it.
func TestRunSimulationScenario(t *testing.T) {
	res, err := RunSimulation(context.Background(), 1000, Config{Seed: 12345})
	require.NoError(t, err)

	assert.Equal(t, 1000, res.Games)
	assert.Equal(t, res.Games, res.Escapes+res.Captures+res.TerminatedByLimit)
	assert.Greater(t, res.EscapePct, 0.0)
	assert.Less(t, res.EscapePct, 1.0)
	assert.GreaterOrEqual(t, res.CI95Low, 0.0)
	assert.LessOrEqual(t, res.CI95High, 1.0)
	assert.LessOrEqual(t, res.CI95Low, res.EscapePct)
	assert.GreaterOrEqual(t, res.CI95High, res.EscapePct)
	assert.Less(t, float64(res.TerminatedByLimit)/float64(res.Games), 0.01, "turn cap should be rare")
	assert.Greater(t, res.MeanTurns, 0.0)
	assert.Greater(t, res.MeanCardsDrawn, 0.0)
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	cfg := Config{Seed: 99}
	one, err := NewRunner(1, nil).Run(context.Background(), 300, cfg)
	require.NoError(t, err)
	many, err := NewRunner(7, nil).Run(context.Background(), 300, cfg)
	require.NoError(t, err)
	assert.Equal(t, one, many)
}

func TestRunUnseededDrawsSeed(t *testing.T) {
	res, err := RunSimulation(context.Background(), 10, Config{})
	require.NoError(t, err)
	assert.NotZero(t, res.Seed)
}

func TestRunErrors(t *testing.T) {
	_, err := RunSimulation(context.Background(), 0, Config{})
	assert.ErrorIs(t, err, ErrNoGames)

	_, err = RunSimulation(context.Background(), 10, Config{PlayerStart: 9})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunSimulation(ctx, 100, Config{Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfidenceInterval(t *testing.T) {
	lo, hi := ConfidenceInterval(0.5, 100)
	assert.InDelta(t, 0.402, lo, 1e-3)
	assert.InDelta(t, 0.598, hi, 1e-3)

	lo, hi = ConfidenceInterval(0.01, 10)
	assert.Equal(t, 0.0, lo, "clamped at zero")
	assert.Greater(t, hi, 0.01)

	lo, hi = ConfidenceInterval(1, 50)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestAggregate(t *testing.T) {
	res := Aggregate([]GameResult{
		{Won: true, Turns: 4, PlayerMelds: 4, CardsDrawn: 20},
		{Won: false, Turns: 6, PursuerMelds: 2, CardsDrawn: 10},
		{TerminatedByLimit: true, Turns: 500},
		{Won: true, Turns: 2, PlayerMelds: 2, Reshuffles: 1, CardsDrawn: 10},
	})
	assert.Equal(t, 4, res.Games)
	assert.Equal(t, 2, res.Escapes)
	assert.Equal(t, 1, res.Captures)
	assert.Equal(t, 1, res.TerminatedByLimit)
	assert.Equal(t, 0.5, res.EscapePct)
	assert.Equal(t, 0.25, res.CapturePct)
	assert.Equal(t, 128.0, res.MeanTurns)
	assert.Equal(t, 1.5, res.MeanPlayerMelds)
	assert.Equal(t, 10.0, res.MeanCardsDrawn)
	assert.Equal(t, 0.25, res.MeanReshuffles)

	assert.Zero(t, Aggregate(nil).Games)
}

func TestSweep(t *testing.T) {
	entries, err := NewRunner(4, nil).Sweep(context.Background(), 200, 7)
	require.NoError(t, err)
	require.Len(t, entries, len(Variants()))

	seen := map[string]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.Name], "duplicate variant %s", e.Name)
		seen[e.Name] = true
		assert.Equal(t, 200, e.Result.Games, e.Name)
		assert.Equal(t, e.Result.Config.Model.String(), e.Model)
		assert.Equal(t, uint64(7), e.Result.Seed)
	}
	assert.Equal(t, "legacy_ai", entries[0].Model)
	assert.Equal(t, "alert_table", entries[2].Model)
}

func TestWriteReport(t *testing.T) {
	entries, err := NewRunner(2, nil).Sweep(context.Background(), 50, 11)
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, WriteReport(&text, entries, FormatText))
	assert.Contains(t, text.String(), "variant")
	assert.Contains(t, text.String(), "alert-aggressive")

	var out bytes.Buffer
	require.NoError(t, WriteReport(&out, entries, FormatYAML))
	var decoded []SweepEntry
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, len(entries))
	assert.Equal(t, entries[1].Name, decoded[1].Name)
	assert.Equal(t, ModelAlertTable, decoded[1].Result.Config.Model)

	assert.Error(t, WriteReport(&out, entries, "csv"))
}
