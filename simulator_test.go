// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan_test

import (
	"context"
	"math"
	"testing"

	"github.com/petenewcomb/makespan-go"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, model *makespan.Model, opts ...makespan.Option) *makespan.Result {
	t.Helper()
	chk := require.New(t)
	s, err := makespan.New(model, opts...)
	chk.NoError(err)
	r, err := s.Run(context.Background())
	chk.NoError(err)
	return r
}

func TestSingleJob(t *testing.T) {
	chk := require.New(t)
	r := run(t, singleResourceModel(1))
	chk.Equal(0.5, r.Elapsed)
	chk.Equal(1, r.Steps)
	chk.False(r.Stalled)
	chk.Empty(r.Unfinished)
}

func TestSequentialJobs(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Jobs["b"] = makespan.JobSpec{Operation: "work", Require: []string{"a"}}

	var reports []makespan.StepReport
	r := run(t, model, collect(&reports))
	chk.Equal(1.0, r.Elapsed)
	chk.Equal(2, r.Steps)
	chk.Len(reports, 2)
	chk.Equal("a", reports[0].Jobs[0].Job)
	chk.Equal(1, reports[0].Waiting)
	chk.Equal("b", reports[1].Jobs[0].Job)
	chk.Equal(0, reports[1].Waiting)
	chk.Equal(0.5, reports[1].Start)
}

func TestCompetingJobsOnDistinctInstances(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(2)
	model.Jobs["b"] = makespan.JobSpec{Operation: "work"}

	var reports []makespan.StepReport
	s, err := makespan.New(model, collect(&reports))
	chk.NoError(err)
	r, err := s.Run(context.Background())
	chk.NoError(err)
	chk.Equal(0.5, r.Elapsed)
	chk.Equal(1, r.Steps)

	cpu, err := s.Tree().Lookup(makespan.Path{"cpu"})
	chk.NoError(err)
	instances := s.Tree().Node(cpu).Instances()
	chk.Len(reports, 1)
	chk.Equal([]makespan.JobSpeed{
		{Job: "a", Operation: "work", Speed: 2, Placement: instances[0], Done: true},
		{Job: "b", Operation: "work", Speed: 2, Placement: instances[1], Done: true},
	}, reports[0].Jobs)
}

func TestCompetingJobsOnOneInstance(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Jobs["b"] = makespan.JobSpec{Operation: "work"}

	var reports []makespan.StepReport
	r := run(t, model, collect(&reports))

	// The first job claims the only instance whole; the second sees no
	// available throughput and makes no progress until the next step.
	chk.Len(reports, 2)
	chk.Equal(2.0, reports[0].Jobs[0].Speed)
	chk.Equal("b", reports[0].Jobs[1].Job)
	chk.Equal(makespan.Div(0, 5), reports[0].Jobs[1].Speed)
	chk.Equal(0.0, reports[0].Jobs[1].Speed)
	chk.False(reports[0].Jobs[1].Done)
	chk.Equal(0.5, reports[0].StepTime)

	chk.Equal(1.0, r.Elapsed)
	chk.Equal(2, r.Steps)
	chk.Empty(r.Unfinished)
}

func TestSharedBusBottleneck(t *testing.T) {
	chk := require.New(t)
	jobs := map[string]makespan.JobSpec{
		"a": {Operation: "copy"},
		"b": {Operation: "copy"},
	}

	// A bus of 8 is used up by the first job, so the second one stalls for a
	// step even though a core is free.
	var reports []makespan.StepReport
	r := run(t, nodeModel(8, jobs), collect(&reports))
	chk.Equal(1.0, r.Elapsed)
	chk.Len(reports, 2)
	chk.Equal(2.0, reports[0].Jobs[0].Speed)
	chk.Equal(0.0, reports[0].Jobs[1].Speed)

	chk.Equal([]makespan.Utilization{
		{Resource: makespan.Path{"node", "bus"}, Instances: 1, Min: 1, Mean: 1, Max: 1},
		{Resource: makespan.Path{"node", "core"}, Instances: 2, Min: 1, Mean: 1, Max: 1},
	}, reports[0].Resources)
	chk.Equal([]makespan.Utilization{
		{Resource: makespan.Path{"node", "bus"}, Instances: 1, Min: 1, Mean: 1, Max: 1},
		{Resource: makespan.Path{"node", "core"}, Instances: 2, Min: 0, Mean: 0.5, Max: 1},
	}, reports[1].Resources)

	// A bus of 16 carries both.
	r = run(t, nodeModel(16, jobs))
	chk.Equal(0.5, r.Elapsed)
	chk.Equal(1, r.Steps)
}

func TestOvercommittedBus(t *testing.T) {
	chk := require.New(t)
	model := nodeModel(8, map[string]makespan.JobSpec{
		"a": {Operation: "copy"},
		"b": {Operation: "copy"},
	})
	model.Operations["copy"] = []makespan.Requirement{
		{Resource: "node/bus", Require: 4},
		{Resource: "node/bus", Require: 4},
		{Resource: "node/core", Require: 5},
	}

	// The first job claims the bus twice, leaving it at -8, so the second
	// job gets a negative speed and the first step a negative duration.
	var reports []makespan.StepReport
	s, err := makespan.New(model, collect(&reports))
	chk.NoError(err)

	chk.True(s.Step())
	chk.Equal(-0.5, s.Elapsed())
	jobs := s.Jobs()
	chk.Equal(-1.0, jobs[0].Progress())
	chk.False(jobs[0].Done())
	chk.True(jobs[1].Done())
	chk.Equal(-2.0, jobs[1].Speed())
	chk.Equal(-0.5, reports[0].StepTime)
	chk.Equal(2.0, reports[0].Jobs[0].Speed)
	chk.Equal(-2.0, reports[0].Jobs[1].Speed)

	r, err := s.Run(context.Background())
	chk.NoError(err)
	chk.Equal(0.5, r.Elapsed)
	chk.Equal(2, r.Steps)
	chk.False(r.Stalled)
	chk.Empty(r.Unfinished)
	chk.Equal(1.0, reports[1].StepTime)
	chk.Equal(-0.5, reports[1].Start)
}

func TestCompletionTolerance(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(2)
	model.Operations["slow"] = []makespan.Requirement{{Resource: "cpu", Require: 5.5}}
	model.Jobs["b"] = makespan.JobSpec{Operation: "slow"}

	// After 0.5 the slow job has progress 10/11, leaving less than one unit
	// of the largest requirement, so it counts as done as well.
	var reports []makespan.StepReport
	r := run(t, model, collect(&reports))
	chk.Equal(0.5, r.Elapsed)
	chk.Equal(1, r.Steps)
	chk.True(reports[0].Jobs[1].Done)

	s, err := makespan.New(model)
	chk.NoError(err)
	_, err = s.Run(context.Background())
	chk.NoError(err)
	for _, j := range s.Jobs() {
		chk.True(j.Done())
		chk.Equal(1.0, j.Progress())
	}
}

func TestStall(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Resources["cpu"].Throughput = ptr(0.0)

	var reports []makespan.StepReport
	r := run(t, model, collect(&reports))
	chk.True(r.Stalled)
	chk.True(math.IsInf(r.Elapsed, 1))
	chk.Equal(1, r.Steps)
	chk.Equal([]string{"a"}, r.Unfinished)
	chk.Len(reports, 1)
	chk.True(math.IsInf(reports[0].StepTime, 1))
}

func TestUnsatisfiablePrerequisites(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Jobs["b"] = makespan.JobSpec{Operation: "work", Require: []string{"c"}}
	model.Jobs["c"] = makespan.JobSpec{Operation: "work", Require: []string{"b"}}

	r := run(t, model)
	chk.Equal(0.5, r.Elapsed)
	chk.False(r.Stalled)
	chk.Equal([]string{"b", "c"}, r.Unfinished)
}

func TestInertJobFields(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Jobs["a"] = makespan.JobSpec{
		Operation:    "work",
		Multiplicity: ptr(4),
		SplitFactor:  ptr(0.5),
		Pipe:         map[string]any{"to": "b"},
	}
	chk.Equal(0.5, run(t, model).Elapsed)
}

func TestNoJobs(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Jobs = map[string]makespan.JobSpec{}
	s, err := makespan.New(model)
	chk.NoError(err)
	chk.False(s.Running())
	chk.False(s.Step())
	r, err := s.Run(context.Background())
	chk.NoError(err)
	chk.Equal(0.0, r.Elapsed)
	chk.Equal(0, r.Steps)
}

func TestStepByStep(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Jobs["b"] = makespan.JobSpec{Operation: "work", Require: []string{"a"}}
	s, err := makespan.New(model)
	chk.NoError(err)

	chk.True(s.Running())
	chk.True(s.Step())
	chk.Equal(0.5, s.Elapsed())
	jobs := s.Jobs()
	chk.Equal("a", jobs[0].Name())
	chk.True(jobs[0].Done())
	chk.False(jobs[1].Done())
	chk.Equal(0.0, jobs[1].Progress())
	_, placed := jobs[1].Placement()
	chk.False(placed)

	chk.False(s.Step())
	chk.Equal(1.0, s.Elapsed())
	chk.True(jobs[1].Done())
	chk.Equal([]string{"a"}, jobs[1].Require())
	chk.Equal(2.0, jobs[1].Speed())

	// Capacity is renewed after every step.
	cpu, err := s.Tree().Lookup(makespan.Path{"cpu"})
	chk.NoError(err)
	chk.Equal(10.0, s.Tree().Instance(s.Tree().Node(cpu).Instances()[0]).Available())
}

func TestStepLimit(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	model.Jobs["b"] = makespan.JobSpec{Operation: "work", Require: []string{"a"}}
	model.Jobs["c"] = makespan.JobSpec{Operation: "work", Require: []string{"b"}}

	s, err := makespan.New(model, makespan.WithMaxSteps(2))
	chk.NoError(err)
	r, err := s.Run(context.Background())
	chk.ErrorIs(err, makespan.ErrStepLimit)
	chk.Equal(2, r.Steps)
	chk.Equal(1.0, r.Elapsed)
	chk.Equal([]string{"c"}, r.Unfinished)
}

func TestRunCancelled(t *testing.T) {
	chk := require.New(t)
	s, err := makespan.New(singleResourceModel(1))
	chk.NoError(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := s.Run(ctx)
	chk.ErrorIs(err, context.Canceled)
	chk.Equal(0, r.Steps)
}

func TestOrdering(t *testing.T) {
	chk := require.New(t)
	model := singleResourceModel(1)
	for _, name := range []string{"b", "c", "d", "e"} {
		model.Jobs[name] = makespan.JobSpec{Operation: "work"}
	}

	names := func(s *makespan.Simulation) []string {
		var ns []string
		for _, j := range s.Jobs() {
			ns = append(ns, j.Name())
		}
		return ns
	}

	s, err := makespan.New(model)
	chk.NoError(err)
	chk.Equal([]string{"a", "b", "c", "d", "e"}, names(s))

	s1, err := makespan.New(model, makespan.WithOrdering(makespan.Randomized), makespan.WithSeed(42))
	chk.NoError(err)
	s2, err := makespan.New(model, makespan.WithOrdering(makespan.Randomized), makespan.WithSeed(42))
	chk.NoError(err)
	chk.Equal(uint64(42), s1.Seed())
	chk.Equal(names(s1), names(s2))
	chk.ElementsMatch([]string{"a", "b", "c", "d", "e"}, names(s1))

	// Five jobs on one instance run one after another whatever the order.
	r, err := s1.Run(context.Background())
	chk.NoError(err)
	chk.Equal(2.5, r.Elapsed)
}

func TestParseOrdering(t *testing.T) {
	chk := require.New(t)
	for _, o := range []makespan.Ordering{makespan.Deterministic, makespan.Randomized} {
		parsed, err := makespan.ParseOrdering(o.String())
		chk.NoError(err)
		chk.Equal(o, parsed)
	}
	parsed, err := makespan.ParseOrdering("Random")
	chk.NoError(err)
	chk.Equal(makespan.Randomized, parsed)
	_, err = makespan.ParseOrdering("sorted")
	chk.Error(err)
}
