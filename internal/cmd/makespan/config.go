// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petenewcomb/makespan-go"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config is the validated configuration of one invocation.
type Config struct {
	ModelFiles []string

	Ordering makespan.Ordering
	Seed     uint64
	SeedSet  bool
	Runs     int
	Workers  int
	MaxSteps int

	// Steps prints the report of every step of a single run.
	Steps       bool
	MetricsFile string
	NoColor     bool

	LogLevel  zapcore.Level
	LogFormat string
}

// NewConfig reads the settings bound into v, whatever their source, and
// checks them.
func NewConfig(v *viper.Viper, modelFiles []string) (*Config, error) {
	if len(modelFiles) == 0 {
		return nil, errors.New("at least one model file is required")
	}
	ordering, err := makespan.ParseOrdering(v.GetString("ordering"))
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		ModelFiles:  modelFiles,
		Ordering:    ordering,
		Seed:        v.GetUint64("seed"),
		SeedSet:     v.IsSet("seed"),
		Runs:        v.GetInt("runs"),
		Workers:     v.GetInt("workers"),
		MaxSteps:    v.GetInt("max-steps"),
		Steps:       v.GetBool("steps"),
		MetricsFile: v.GetString("metrics-file"),
		NoColor:     v.GetBool("no-color"),
		LogFormat:   strings.ToLower(v.GetString("log-format")),
	}

	switch {
	case cfg.Runs < 1:
		return nil, fmt.Errorf("runs must be at least 1, got %d", cfg.Runs)
	case cfg.Workers < 0:
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	case cfg.MaxSteps < 0:
		return nil, fmt.Errorf("max-steps must not be negative, got %d", cfg.MaxSteps)
	case cfg.Runs > 1 && cfg.Steps:
		return nil, errors.New("steps can only be printed for a single run")
	}
	if cfg.LogLevel, err = zapcore.ParseLevel(v.GetString("log-level")); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("invalid log-format %q: must be 'console' or 'json'", cfg.LogFormat)
	}
	return cfg, nil
}
