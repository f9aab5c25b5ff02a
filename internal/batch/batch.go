// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package batch repeats a simulation under many randomized orderings to
// estimate how sensitive its makespan is to the order in which jobs compete
// for resources.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"

	"github.com/petenewcomb/makespan-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Config controls a batch of runs.
type Config struct {
	// Runs is the number of simulations. Run i uses seed Seed+i.
	Runs int
	Seed uint64

	// Workers bounds the number of simulations in flight. Zero means
	// GOMAXPROCS.
	Workers int

	// MaxSteps is passed to every run with [makespan.WithMaxSteps].
	MaxSteps int

	Logger *zap.Logger

	// Options are added to those of every run.
	Options []makespan.Option

	// OnResult, if set, is called as each run finishes. It is called from
	// several goroutines at once.
	OnResult func(Run)
}

// Run is the outcome of one simulation of a batch.
type Run struct {
	Seed   uint64
	Result *makespan.Result
}

// Summary aggregates the makespans of a batch. Stalled runs have no finite
// makespan and are counted separately; the statistics cover the others and
// are NaN if there are none.
type Summary struct {
	Runs    []Run
	Stalled int

	Min, Max     float64
	Mean, StdDev float64
	Median       float64

	// Seeds of a run achieving Min and Max, for replaying it.
	BestSeed, WorstSeed uint64
}

// Execute runs the batch described by cfg against m. The model is only read
// and may be shared with other batches. The first failing run cancels the
// rest and its error is returned.
func Execute(ctx context.Context, m *makespan.Model, cfg Config) (*Summary, error) {
	if cfg.Runs < 1 {
		return nil, errors.New("batch needs at least one run")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	runs := make([]Run, cfg.Runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cfg.Runs {
		seed := cfg.Seed + uint64(i)
		g.Go(func() error {
			opts := append([]makespan.Option{
				makespan.WithOrdering(makespan.Randomized),
				makespan.WithSeed(seed),
				makespan.WithMaxSteps(cfg.MaxSteps),
				makespan.WithLogger(logger.With(zap.Uint64("seed", seed))),
			}, cfg.Options...)
			s, err := makespan.New(m, opts...)
			if err != nil {
				return err
			}
			r, err := s.Run(ctx)
			if err != nil {
				return fmt.Errorf("run with seed %d: %w", seed, err)
			}
			runs[i] = Run{Seed: seed, Result: r}
			if cfg.OnResult != nil {
				cfg.OnResult(runs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := summarize(runs)
	logger.Info("batch finished",
		zap.Int("runs", len(runs)),
		zap.Int("stalled", sum.Stalled),
		zap.Float64("min", sum.Min),
		zap.Float64("mean", sum.Mean),
		zap.Float64("max", sum.Max))
	return sum, nil
}

func summarize(runs []Run) *Summary {
	sum := &Summary{Runs: runs}
	var elapsed []float64
	var seeds []uint64
	for _, r := range runs {
		if r.Result.Stalled {
			sum.Stalled++
			continue
		}
		elapsed = append(elapsed, r.Result.Elapsed)
		seeds = append(seeds, r.Seed)
	}
	if len(elapsed) == 0 {
		nan := math.NaN()
		sum.Min, sum.Max, sum.Mean, sum.StdDev, sum.Median = nan, nan, nan, nan, nan
		return sum
	}

	sum.Min = floats.Min(elapsed)
	sum.Max = floats.Max(elapsed)
	sum.BestSeed = seeds[floats.MinIdx(elapsed)]
	sum.WorstSeed = seeds[floats.MaxIdx(elapsed)]
	if len(elapsed) > 1 {
		sum.Mean, sum.StdDev = stat.MeanStdDev(elapsed, nil)
	} else {
		sum.Mean = elapsed[0]
	}
	sorted := slices.Clone(elapsed)
	slices.Sort(sorted)
	sum.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return sum
}
