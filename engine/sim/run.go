package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

// ErrNoGames is returned when a run is asked for fewer than one game.
var ErrNoGames = errors.New("sim: game count must be positive")

// cancelCheckEvery is how many games a worker plays between context checks.
const cancelCheckEvery = 64

// Runner runs simulations on a bounded worker pool.
type Runner struct {
	Workers int
	Log     logrus.FieldLogger
}

// NewRunner returns a runner with the given worker count; workers <= 0 uses
// GOMAXPROCS. A nil logger discards output.
func NewRunner(workers int, log logrus.FieldLogger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = discardLogger()
	}
	return &Runner{Workers: workers, Log: log}
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var defaultRunner = NewRunner(0, nil)

// RunSimulation runs n games with the default runner.
func RunSimulation(ctx context.Context, n int, cfg Config) (Result, error) {
	return defaultRunner.Run(ctx, n, cfg)
}

// Run plays n independent games and aggregates them. Game i is seeded from
// (cfg.Seed, i), so a fixed seed gives the same Result for any worker count.
func (r *Runner) Run(ctx context.Context, n int, cfg Config) (Result, error) {
	if n <= 0 {
		return Result{}, ErrNoGames
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("sim: invalid config: %w", err)
	}
	cfg = cfg.Normalize()
	seed := cfg.Seed
	if seed == 0 {
		seed = frand.Uint64n(math.MaxUint64) + 1
	}

	log := r.Log.WithFields(logrus.Fields{
		"games": n,
		"model": cfg.Model.String(),
		"seed":  seed,
	})
	start := time.Now()

	results := make([]GameResult, n)
	workers := min(max(r.Workers, 1), n)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < n; i += workers {
				if (i/workers)%cancelCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				results[i] = RunOneGame(cfg, GameSeed(seed, i))
				if results[i].TerminatedByLimit {
					log.WithField("game", i).Debug("game hit the turn cap")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Aggregate(results)
	res.Config = cfg
	res.Seed = seed
	log.WithFields(logrus.Fields{
		"escape_pct": res.EscapePct,
		"limit_hits": res.TerminatedByLimit,
		"elapsed":    time.Since(start).String(),
	}).Info("simulation finished")
	return res, nil
}

// GameSeed derives the seed of game i from a run seed with splitmix64.
func GameSeed(run uint64, i int) uint64 {
	z := run + uint64(i+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
