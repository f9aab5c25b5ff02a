// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package report renders simulation progress and results as text tables.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gookit/color"
	"github.com/petenewcomb/makespan-go"
	"github.com/petenewcomb/makespan-go/internal/batch"
)

// Thresholds above which a resource row is highlighted.
const (
	Busy      = 0.5
	Saturated = 0.9
)

type tone func(a ...any) string

// Printer writes step reports and results to a writer. The first write error
// is kept and all later output is skipped; see [Printer.Err].
type Printer struct {
	w     io.Writer
	tree  *makespan.Tree
	color bool
	err   error
}

// Option configures a [Printer].
type Option func(*Printer)

// WithColor enables or disables highlighting. It is off by default.
func WithColor(enabled bool) Option {
	return func(p *Printer) {
		p.color = enabled
	}
}

// New returns a printer for the simulation whose resource trees are given,
// used to name the instances jobs were placed on.
func New(w io.Writer, tree *makespan.Tree, opts ...Option) *Printer {
	p := &Printer{w: w, tree: tree}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Err returns the first error encountered while writing.
func (p *Printer) Err() error { return p.err }

// Step writes one step report. Its signature fits [makespan.WithObserver].
func (p *Printer) Step(r *makespan.StepReport) {
	p.printf("step %d  start %s  duration %s  waiting %d\n",
		r.Step, formatFloat(r.Start), formatFloat(r.StepTime), r.Waiting)

	jobs := [][]string{{"JOB", "OPERATION", "SPEED", "PLACEMENT", "DONE"}}
	jobTones := []tone{nil}
	for _, j := range r.Jobs {
		done := "no"
		if j.Done {
			done = "yes"
		}
		jobs = append(jobs, []string{j.Job, j.Operation, formatFloat(j.Speed), p.placement(j.Placement), done})
		var t tone
		if j.Speed == 0 {
			t = color.Red.Sprint
		}
		jobTones = append(jobTones, t)
	}
	p.table(jobs, jobTones)

	if len(r.Resources) > 0 {
		res := [][]string{{"RESOURCE", "INSTANCES", "MIN", "MEAN", "MAX"}}
		resTones := []tone{nil}
		for _, u := range r.Resources {
			res = append(res, []string{
				u.Resource.String(),
				strconv.Itoa(u.Instances),
				formatFloat(u.Min),
				formatFloat(u.Mean),
				formatFloat(u.Max),
			})
			resTones = append(resTones, utilizationTone(u.Max))
		}
		p.table(res, resTones)
	}
	p.printf("\n")
}

// Result writes the outcome of a run.
func (p *Printer) Result(r *makespan.Result) {
	var t tone
	status := "converged"
	switch {
	case r.Stalled:
		status = "stalled"
		t = color.Red.Sprint
	case len(r.Unfinished) > 0:
		status = "converged with unfinished jobs"
		t = color.Yellow.Sprint
	}
	p.line(t, fmt.Sprintf("makespan %s after %d steps (%s)", formatFloat(r.Elapsed), r.Steps, status))
	if len(r.Unfinished) > 0 {
		p.printf("unfinished: %s\n", strings.Join(r.Unfinished, ", "))
	}
}

// Summary writes the statistics of a batch of runs.
func (p *Printer) Summary(sum *batch.Summary) {
	var t tone
	if sum.Stalled > 0 {
		t = color.Red.Sprint
	}
	p.line(t, fmt.Sprintf("%d runs, %d stalled", len(sum.Runs), sum.Stalled))
	if sum.Stalled == len(sum.Runs) {
		return
	}
	p.table([][]string{
		{"MIN", "MEDIAN", "MEAN", "STDDEV", "MAX"},
		{formatFloat(sum.Min), formatFloat(sum.Median), formatFloat(sum.Mean), formatFloat(sum.StdDev), formatFloat(sum.Max)},
	}, []tone{nil, nil})
	p.printf("best seed %d, worst seed %d\n", sum.BestSeed, sum.WorstSeed)
}

func (p *Printer) placement(id makespan.InstanceID) string {
	if p.tree == nil || id < 0 || int(id) >= p.tree.InstanceCount() {
		return "-"
	}
	node := p.tree.Node(p.tree.Instance(id).Node())
	instances := node.Instances()
	if len(instances) == 1 {
		return node.Path().String()
	}
	return fmt.Sprintf("%s[%d]", node.Path(), slices.Index(instances, id))
}

// table aligns rows with a tabwriter and then highlights whole lines, so
// escape sequences never disturb the column widths.
func (p *Printer) table(rows [][]string, tones []tone) {
	if p.err != nil {
		return
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		p.err = err
		return
	}
	sc := bufio.NewScanner(&buf)
	for i := 0; sc.Scan(); i++ {
		p.line(tones[i], strings.TrimRight(sc.Text(), " "))
	}
}

func (p *Printer) line(t tone, s string) {
	if p.color && t != nil {
		s = t(s)
	}
	p.printf("%s\n", s)
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func utilizationTone(u float64) tone {
	switch {
	case u >= Saturated:
		return color.Red.Sprint
	case u >= Busy:
		return color.Yellow.Sprint
	default:
		return color.Green.Sprint
	}
}

func formatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}
