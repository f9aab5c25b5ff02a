// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package report_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/petenewcomb/makespan-go"
	"github.com/petenewcomb/makespan-go/internal/batch"
	"github.com/petenewcomb/makespan-go/internal/modelfile"
	"github.com/petenewcomb/makespan-go/internal/report"
	"github.com/stretchr/testify/require"
)

const model = `
resources:
  node:
    resources:
      core: {throughput: 10, time shared: true, multiplicity: 2}
      bus: {throughput: 8}
operations:
  copy:
    - {resource: node/core, require: 5}
    - {resource: node/bus, require: 4}
jobs:
  a: {name: copy}
  b: {name: copy}
`

func fields(out string) [][]string {
	var lines [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		lines = append(lines, strings.Fields(line))
	}
	return lines
}

func simulate(t *testing.T, opts ...report.Option) string {
	t.Helper()
	chk := require.New(t)
	m, err := modelfile.Merge([]byte(model))
	chk.NoError(err)

	var buf bytes.Buffer
	var p *report.Printer
	s, err := makespan.New(m, makespan.WithObserver(func(r *makespan.StepReport) { p.Step(r) }))
	chk.NoError(err)
	p = report.New(&buf, s.Tree(), opts...)
	r, err := s.Run(context.Background())
	chk.NoError(err)
	p.Result(r)
	chk.NoError(p.Err())
	return buf.String()
}

func TestPlainOutput(t *testing.T) {
	chk := require.New(t)
	out := simulate(t)
	chk.NotContains(out, "\x1b[")
	chk.Equal([][]string{
		{"step", "1", "start", "0", "duration", "0.5", "waiting", "0"},
		{"JOB", "OPERATION", "SPEED", "PLACEMENT", "DONE"},
		{"a", "copy", "2", "node/core[0]", "yes"},
		{"b", "copy", "0", "node/core[1]", "no"},
		{"RESOURCE", "INSTANCES", "MIN", "MEAN", "MAX"},
		{"node/bus", "1", "1", "1", "1"},
		{"node/core", "2", "1", "1", "1"},
		{},
		{"step", "2", "start", "0.5", "duration", "0.5", "waiting", "0"},
		{"JOB", "OPERATION", "SPEED", "PLACEMENT", "DONE"},
		{"b", "copy", "2", "node/core[0]", "yes"},
		{"RESOURCE", "INSTANCES", "MIN", "MEAN", "MAX"},
		{"node/bus", "1", "1", "1", "1"},
		{"node/core", "2", "0", "0.5", "1"},
		{},
		{"makespan", "1", "after", "2", "steps", "(converged)"},
	}, fields(out))
}

func TestColumnsAligned(t *testing.T) {
	chk := require.New(t)
	lines := strings.Split(simulate(t), "\n")
	chk.Equal(strings.Index(lines[1], "PLACEMENT"), strings.Index(lines[2], "node/core[0]"))
	chk.Equal(strings.Index(lines[1], "DONE"), strings.LastIndex(lines[3], "no"))
}

func TestResultStatus(t *testing.T) {
	chk := require.New(t)
	var buf bytes.Buffer
	p := report.New(&buf, nil)
	p.Result(&makespan.Result{Elapsed: 0.5, Steps: 1, Unfinished: []string{"x", "y"}})
	chk.Equal("makespan 0.5 after 1 steps (converged with unfinished jobs)\nunfinished: x, y\n", buf.String())

	buf.Reset()
	p.Result(&makespan.Result{Elapsed: makespan.Div(1, 0), Steps: 3, Stalled: true, Unfinished: []string{"x"}})
	chk.Contains(buf.String(), "makespan inf after 3 steps (stalled)")
}

func TestSummary(t *testing.T) {
	chk := require.New(t)
	var buf bytes.Buffer
	p := report.New(&buf, nil)
	p.Summary(&batch.Summary{
		Runs:      make([]batch.Run, 4),
		Min:       1.5,
		Median:    2,
		Mean:      2,
		StdDev:    0.5,
		Max:       2.5,
		BestSeed:  7,
		WorstSeed: 9,
	})
	chk.Equal([][]string{
		{"4", "runs,", "0", "stalled"},
		{"MIN", "MEDIAN", "MEAN", "STDDEV", "MAX"},
		{"1.5", "2", "2", "0.5", "2.5"},
		{"best", "seed", "7,", "worst", "seed", "9"},
	}, fields(buf.String()))

	buf.Reset()
	p.Summary(&batch.Summary{Runs: make([]batch.Run, 2), Stalled: 2})
	chk.Equal("2 runs, 2 stalled\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteErrorIsSticky(t *testing.T) {
	chk := require.New(t)
	p := report.New(failingWriter{}, nil)
	p.Result(&makespan.Result{})
	p.Step(&makespan.StepReport{Step: 1})
	chk.EqualError(p.Err(), "disk full")
}
