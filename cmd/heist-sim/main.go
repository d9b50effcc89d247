// Command heist-sim runs Monte Carlo simulations of the getaway game.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/john-pickett/card-heist-sub000/engine/sim"
)

var (
	games      = flag.Int("n", 10000, "number of games to simulate")
	seed       = flag.Uint64("seed", 0, "run seed (0 draws one)")
	workers    = flag.Int("workers", 0, "worker goroutines (0 uses GOMAXPROCS)")
	model      = flag.String("model", "legacy_ai", "pursuer model: legacy_ai or alert_table")
	player     = flag.String("player", "greedy", "player policy: greedy or random")
	configFile = flag.String("config", "", "YAML file with a simulation config; overrides -model and -player")
	sweep      = flag.Bool("sweep", false, "run every built-in variant")
	format     = flag.String("format", sim.FormatText, "report format: text or yaml")
	verbose    = flag.Bool("verbose", false, "verbose/debug")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.WithError(err).Error("heist-sim failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logrus.Logger) error {
	runner := sim.NewRunner(*workers, log)

	var entries []sim.SweepEntry
	if *sweep {
		var err error
		if entries, err = runner.Sweep(ctx, *games, *seed); err != nil {
			return err
		}
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if *seed != 0 {
			cfg.Seed = *seed
		}
		res, err := runner.Run(ctx, *games, cfg)
		if err != nil {
			return err
		}
		entries = []sim.SweepEntry{{
			Name:        "custom",
			Description: describe(*configFile),
			Model:       res.Config.Model.String(),
			Result:      res,
		}}
	}
	return sim.WriteReport(os.Stdout, entries, *format)
}

func loadConfig() (sim.Config, error) {
	var cfg sim.Config
	if *configFile != "" {
		b, err := os.ReadFile(*configFile)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", *configFile, err)
		}
		return cfg, nil
	}
	if err := cfg.Model.UnmarshalText([]byte(*model)); err != nil {
		return cfg, err
	}
	if err := cfg.Player.UnmarshalText([]byte(*player)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func describe(path string) string {
	if path == "" {
		return "flags: model=" + *model + " player=" + *player
	}
	return "config file " + path
}
