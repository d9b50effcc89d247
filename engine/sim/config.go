// Package sim is the headless Monte Carlo harness for the getaway game. It
// replays the engine rules in a tight loop, with the greedy player policy
// and a configurable pursuer, and aggregates outcomes for balance tuning.
package sim

import (
	"fmt"

	engine "github.com/john-pickett/card-heist-sub000/engine"
)

// Model selects how the pursuer advances.
type Model uint8

const (
	// ModelLegacyAI is the live pursuer: meld or discard every turn,
	// advancing PursuerMeldAdvance per meld.
	ModelLegacyAI Model = iota
	// ModelAlertTable ignores the pursuer's cards. After each completed
	// player turn t >= AlertThreshold the pursuer advances one step with
	// probability AlertTable[min(t, len-1)].
	ModelAlertTable
)

func (m Model) String() string {
	switch m {
	case ModelLegacyAI:
		return "legacy_ai"
	case ModelAlertTable:
		return "alert_table"
	default:
		return fmt.Sprintf("model(%d)", uint8(m))
	}
}

// MarshalText encodes the model by name for JSON and YAML.
func (m Model) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText parses a model name.
func (m *Model) UnmarshalText(b []byte) error {
	switch string(b) {
	case "legacy_ai", "":
		*m = ModelLegacyAI
	case "alert_table":
		*m = ModelAlertTable
	default:
		return fmt.Errorf("unknown pursuer model %q", b)
	}
	return nil
}

// PlayerPolicy selects the simulated player.
type PlayerPolicy uint8

const (
	PolicyGreedy PlayerPolicy = iota // agent.Greedy
	PolicyRandom                     // agent.Random, a lower bound
)

func (p PlayerPolicy) String() string {
	switch p {
	case PolicyGreedy:
		return "greedy"
	case PolicyRandom:
		return "random"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// MarshalText encodes the policy by name.
func (p PlayerPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText parses a policy name.
func (p *PlayerPolicy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "greedy", "":
		*p = PolicyGreedy
	case "random":
		*p = PolicyRandom
	default:
		return fmt.Errorf("unknown player policy %q", b)
	}
	return nil
}

// Default simulator constants.
const (
	DefaultTurnCap        = 500
	DefaultAlertThreshold = 2
	randomMeldChance      = 0.5
)

// DefaultAlertTable is the escalating per-turn advance probability used by
// ModelAlertTable. The last entry applies to every later turn.
var DefaultAlertTable = []float64{0, 0, 0.15, 0.25, 0.35, 0.45, 0.55, 0.65}

// Config parameterizes a simulation. Zero fields take the live game's
// values, so the zero Config simulates the live rules.
//
// Zero always means "default", never a literal zero:
//   - Track positions start at 1, so ExitPosition 0 would be off the track.
//   - Turns are counted from 1, so AlertThreshold 1 applies the alert table
//     from the first completed turn. AlertThreshold 0 selects
//     DefaultAlertThreshold.
//   - An AlertTable of all zeros disables auto-advance; an empty table
//     selects DefaultAlertTable.
type Config struct {
	Model  Model        `json:"model" yaml:"model"`
	Player PlayerPolicy `json:"player" yaml:"player"`

	PlayerStart        int `json:"playerStart,omitempty" yaml:"player_start,omitempty"`
	PursuerStart       int `json:"pursuerStart,omitempty" yaml:"pursuer_start,omitempty"`
	ExitPosition       int `json:"exitPosition,omitempty" yaml:"exit_position,omitempty"`
	PlayerHandSize     int `json:"playerHandSize,omitempty" yaml:"player_hand_size,omitempty"`
	PursuerHandSize    int `json:"pursuerHandSize,omitempty" yaml:"pursuer_hand_size,omitempty"`
	PursuerMeldAdvance int `json:"pursuerMeldAdvance,omitempty" yaml:"pursuer_meld_advance,omitempty"`

	TurnCap        int       `json:"turnCap,omitempty" yaml:"turn_cap,omitempty"`
	AlertThreshold int       `json:"alertThreshold,omitempty" yaml:"alert_threshold,omitempty"`
	AlertTable     []float64 `json:"alertTable,omitempty" yaml:"alert_table,omitempty,flow"`

	// Seed fixes the per-game seeds. Zero draws a fresh seed per run.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultConfig returns the live defaults with every field filled in.
func DefaultConfig() Config { return Config{}.Normalize() }

// Normalize fills zero fields with defaults.
func (c Config) Normalize() Config {
	r := engine.DefaultRules()
	fill := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&c.PlayerStart, r.PlayerStart)
	fill(&c.PursuerStart, r.PursuerStart)
	fill(&c.ExitPosition, r.ExitPosition)
	fill(&c.PlayerHandSize, r.PlayerHandSize)
	fill(&c.PursuerHandSize, r.PursuerHandSize)
	fill(&c.PursuerMeldAdvance, r.PursuerMeldAdvance)
	fill(&c.TurnCap, DefaultTurnCap)
	fill(&c.AlertThreshold, DefaultAlertThreshold)
	if len(c.AlertTable) == 0 {
		c.AlertTable = append([]float64(nil), DefaultAlertTable...)
	}
	return c
}

// Rules converts a normalized config to engine rules. The track is long
// enough to hold both starting positions.
func (c Config) Rules() engine.Rules {
	r := engine.DefaultRules()
	r.PlayerStart = c.PlayerStart
	r.PursuerStart = c.PursuerStart
	r.ExitPosition = c.ExitPosition
	r.PlayerHandSize = c.PlayerHandSize
	r.PursuerHandSize = c.PursuerHandSize
	r.PursuerMeldAdvance = c.PursuerMeldAdvance
	if c.PursuerStart > r.TrackLength {
		r.TrackLength = c.PursuerStart
	}
	return r
}

// Validate normalizes c and reports whether it can be simulated.
func (c Config) Validate() error {
	n := c.Normalize()
	if err := n.Rules().Validate(); err != nil {
		return err
	}
	if c.AlertThreshold < 0 {
		return fmt.Errorf("alert threshold %d must not be negative", c.AlertThreshold)
	}
	if n.TurnCap < 1 {
		return fmt.Errorf("turn cap %d must be positive", n.TurnCap)
	}
	for i, p := range n.AlertTable {
		if p < 0 || p > 1 {
			return fmt.Errorf("alert table entry %d is %v, want [0,1]", i, p)
		}
	}
	if n.Model > ModelAlertTable {
		return fmt.Errorf("unknown pursuer model %v", n.Model)
	}
	if n.Player > PolicyRandom {
		return fmt.Errorf("unknown player policy %v", n.Player)
	}
	return nil
}

// alertChance is the probability of an auto-advance after completed turn t.
func (c Config) alertChance(t int) float64 {
	if t < c.AlertThreshold || len(c.AlertTable) == 0 {
		return 0
	}
	return c.AlertTable[min(t, len(c.AlertTable)-1)]
}
