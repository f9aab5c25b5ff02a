// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command makespan simulates a model and prints how long its jobs take.
//
// Usage:
//
//	makespan [flags] MODEL_FILE...
//
// Model files are JSON or YAML and are merged in order. Every flag may also
// be given in the file named by --config or as a MAKESPAN_* environment
// variable, e.g. MAKESPAN_MAX_STEPS for --max-steps.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/petenewcomb/makespan-go"
	"github.com/petenewcomb/makespan-go/internal/batch"
	"github.com/petenewcomb/makespan-go/internal/metrics"
	"github.com/petenewcomb/makespan-go/internal/modelfile"
	"github.com/petenewcomb/makespan-go/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// exitStalled is the exit status of a single run that stalled.
const exitStalled = 3

func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "makespan [flags] MODEL_FILE...",
		Short:         "Estimate the makespan of dependent jobs on shared resources",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return readSettings(v, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := NewConfig(v, args)
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			logger := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()
			return run(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}

	addFlags(cmd.Flags())
	return cmd
}

func addFlags(f *pflag.FlagSet) {
	f.String("config", "", "read settings from this YAML, JSON, or TOML file")
	f.String("ordering", makespan.Deterministic.String(), "order in which jobs compete: deterministic or randomized")
	f.Uint64("seed", 0, "seed of a randomized ordering, or of the first run of a batch (default random)")
	f.Int("runs", 1, "number of randomized runs; more than one prints statistics")
	f.Int("workers", 0, "concurrent runs of a batch (default GOMAXPROCS)")
	f.Int("max-steps", 0, "abandon a run after this many steps (0 means no limit)")
	f.Bool("steps", false, "print a report of every step")
	f.String("metrics-file", "", "write Prometheus metrics to this file")
	f.Bool("no-color", false, "disable highlighting")
	f.String("log-level", "warn", "log level: debug, info, warn, or error")
	f.String("log-format", "console", "log format: console or json")
}

// readSettings layers flags over environment variables over the config file.
func readSettings(v *viper.Viper, cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix("MAKESPAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return &ExitError{Code: 2, Message: fmt.Sprintf("reading config: %v", err)}
		}
	}
	return nil
}

func run(ctx context.Context, cfg *Config, logger *zap.Logger, out io.Writer) error {
	model, err := modelfile.Load(cfg.ModelFiles...)
	if err != nil {
		return err
	}

	var rec *metrics.Recorder
	reg := prometheus.NewRegistry()
	if cfg.MetricsFile != "" {
		if rec, err = metrics.NewRecorder(reg); err != nil {
			return err
		}
	}

	if cfg.Runs > 1 {
		err = runBatch(ctx, cfg, model, logger, rec, out)
	} else {
		err = runSingle(ctx, cfg, model, logger, rec, out)
	}

	if rec != nil {
		if werr := prometheus.WriteToTextfile(cfg.MetricsFile, reg); werr != nil {
			return errors.Join(err, werr)
		}
		logger.Info("wrote metrics", zap.String("file", cfg.MetricsFile))
	}
	return err
}

func runSingle(ctx context.Context, cfg *Config, model *makespan.Model, logger *zap.Logger, rec *metrics.Recorder, out io.Writer) error {
	var p *report.Printer
	opts := []makespan.Option{
		makespan.WithOrdering(cfg.Ordering),
		makespan.WithMaxSteps(cfg.MaxSteps),
		makespan.WithLogger(logger),
	}
	if cfg.SeedSet {
		opts = append(opts, makespan.WithSeed(cfg.Seed))
	}
	if cfg.Steps {
		opts = append(opts, makespan.WithObserver(func(r *makespan.StepReport) { p.Step(r) }))
	}
	if rec != nil {
		opts = append(opts, rec.Options()...)
	}

	s, err := makespan.New(model, opts...)
	if err != nil {
		return err
	}
	p = report.New(out, s.Tree(), report.WithColor(useColor(cfg)))
	if cfg.Ordering == makespan.Randomized {
		logger.Info("randomized ordering", zap.Uint64("seed", s.Seed()))
	}

	r, err := s.Run(ctx)
	if err != nil {
		return err
	}
	if rec != nil {
		rec.Result(r)
	}
	p.Result(r)
	if err := p.Err(); err != nil {
		return err
	}
	if r.Stalled {
		return &ExitError{Code: exitStalled, Message: "simulation stalled"}
	}
	return nil
}

func runBatch(ctx context.Context, cfg *Config, model *makespan.Model, logger *zap.Logger, rec *metrics.Recorder, out io.Writer) error {
	bc := batch.Config{
		Runs:     cfg.Runs,
		Seed:     cfg.Seed,
		Workers:  cfg.Workers,
		MaxSteps: cfg.MaxSteps,
		Logger:   logger,
	}
	if !cfg.SeedSet {
		bc.Seed = rand.Uint64()
	}
	if rec != nil {
		bc.Options = rec.Options()
		bc.OnResult = func(r batch.Run) { rec.Result(r.Result) }
	}
	sum, err := batch.Execute(ctx, model, bc)
	if err != nil {
		return err
	}
	p := report.New(out, nil, report.WithColor(useColor(cfg)))
	p.Summary(sum)
	return p.Err()
}

func useColor(cfg *Config) bool {
	return !cfg.NoColor && color.SupportColor()
}
