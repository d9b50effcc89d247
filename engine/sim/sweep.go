package sim

import (
	"context"
	"fmt"
)

// Variant is a named configuration in the sweep menu.
type Variant struct {
	Name        string
	Description string
	Config      Config
}

// SweepEntry is one variant's result.
type SweepEntry struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Model       string `json:"model" yaml:"model"`
	Result      Result `json:"result" yaml:"result"`
}

// Variants returns the fixed sweep menu. Every variant names its pursuer
// model so legacy and alert-table results are never mixed up.
func Variants() []Variant {
	return []Variant{
		{
			Name:        "baseline",
			Description: "live rules, legacy pursuer AI",
			Config:      Config{Model: ModelLegacyAI},
		},
		{
			Name:        "alert-relaxed",
			Description: "alert table, slow escalation from turn 3",
			Config: Config{
				Model:          ModelAlertTable,
				AlertThreshold: 3,
				AlertTable:     []float64{0, 0, 0, 0.1, 0.15, 0.2, 0.25, 0.3},
			},
		},
		{
			Name:        "alert-default",
			Description: "alert table, default escalation",
			Config:      Config{Model: ModelAlertTable},
		},
		{
			Name:        "alert-aggressive",
			Description: "alert table, fast escalation from turn 1",
			Config: Config{
				Model:          ModelAlertTable,
				AlertThreshold: 1,
				AlertTable:     []float64{0, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8},
			},
		},
		{
			Name:        "player-head-start",
			Description: "legacy AI, player starts one step closer to the exit",
			Config:      Config{Model: ModelLegacyAI, PlayerStart: 4},
		},
		{
			Name:        "pursuer-close",
			Description: "legacy AI, pursuer starts one step behind the player",
			Config:      Config{Model: ModelLegacyAI, PursuerStart: 6},
		},
		{
			Name:        "pursuer-double-advance",
			Description: "legacy AI, pursuer melds move two steps",
			Config:      Config{Model: ModelLegacyAI, PursuerMeldAdvance: 2},
		},
		{
			Name:        "random-player",
			Description: "live rules against a random player, a lower bound",
			Config:      Config{Model: ModelLegacyAI, Player: PolicyRandom},
		},
	}
}

// RunSweep runs every variant for n games with the default runner.
func RunSweep(ctx context.Context, n int) ([]SweepEntry, error) {
	return defaultRunner.Sweep(ctx, n, 0)
}

// Sweep runs every variant for n games. A non-zero seed is applied to every
// variant so the sweep is reproducible.
func (r *Runner) Sweep(ctx context.Context, n int, seed uint64) ([]SweepEntry, error) {
	variants := Variants()
	entries := make([]SweepEntry, 0, len(variants))
	for _, v := range variants {
		cfg := v.Config
		cfg.Seed = seed
		res, err := r.Run(ctx, n, cfg)
		if err != nil {
			return nil, fmt.Errorf("sweep %s: %w", v.Name, err)
		}
		entries = append(entries, SweepEntry{
			Name:        v.Name,
			Description: v.Description,
			Model:       res.Config.Model.String(),
			Result:      res,
		})
	}
	return entries, nil
}
