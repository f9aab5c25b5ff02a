// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/addrummond/heap"
	"go.uber.org/zap"
)

// Simulation advances the jobs of a model through discrete steps of constant
// resource allocation until none can run any more.
//
// Each step assigns resources to the executable jobs, advances every one of
// them for as long as it takes the first to finish at its current speed,
// renews all capacities, and reclassifies the jobs.
//
// A Simulation is not safe for concurrent use. Independent simulations share
// no state.
type Simulation struct {
	tree       *Tree
	ops        map[string]*operation
	jobs       []*Job
	maxRequest float64

	executable []*Job
	waiting    []*Job
	elapsed    float64
	steps      int
	stalled    bool

	ordering  Ordering
	seed      uint64
	maxSteps  int
	logger    *zap.Logger
	observers []func(*StepReport)
}

// Option configures a [Simulation].
type Option func(*Simulation)

// WithOrdering sets the order in which jobs compete for resources and
// resource instances are created. The default is [Deterministic].
func WithOrdering(o Ordering) Option {
	return func(s *Simulation) {
		s.ordering = o
	}
}

// WithSeed sets the seed of a [Randomized] ordering. Without it a seed is
// drawn at random; [Simulation.Seed] reports the one used.
func WithSeed(seed uint64) Option {
	return func(s *Simulation) {
		s.seed = seed
	}
}

// WithLogger sets the logger used for diagnostics. The default discards
// everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// WithObserver registers a function to be called with the report of each
// step.
func WithObserver(f func(*StepReport)) Option {
	return func(s *Simulation) {
		s.observers = append(s.observers, f)
	}
}

// WithMaxSteps bounds the number of steps [Simulation.Run] will take. Zero,
// the default, means no limit.
func WithMaxSteps(n int) Option {
	return func(s *Simulation) {
		s.maxSteps = n
	}
}

// Result is the outcome of a simulation.
type Result struct {
	// Elapsed is the simulated time until the last job finished. It is +Inf
	// if the simulation stalled.
	Elapsed float64

	Steps int

	// Stalled is set if a step was reached in which no executable job could
	// make progress.
	Stalled bool

	// Unfinished lists the jobs that never completed, in job order, which
	// happens when prerequisites cannot be satisfied or the run stalled.
	Unfinished []string
}

// New validates m, builds its resource trees, and returns a simulation
// positioned before its first step. All configuration errors are reported
// here and match [ErrConfiguration].
//
// Every operation is bound to concrete instances, whether or not a job uses
// it, so an operation whose requirements cannot be reached from each instance
// of its time-shared resource is rejected even if no job names it.
func New(m *Model, opts ...Option) (*Simulation, error) {
	s := &Simulation{
		seed:   rand.Uint64(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case m == nil:
		return nil, configErrorf("model", "no model")
	case m.Resources == nil:
		return nil, configErrorf("model", "missing %q", "resources")
	case m.Operations == nil:
		return nil, configErrorf("model", "missing %q", "operations")
	case m.Jobs == nil:
		return nil, configErrorf("model", "missing %q", "jobs")
	}

	o := newOrderer(s.ordering, s.seed)
	var err error
	if s.tree, err = buildTree(m.Resources, o); err != nil {
		return nil, err
	}
	s.logger.Debug("built resource trees",
		zap.Int("resource_types", s.tree.NodeCount()-1),
		zap.Int("instances", s.tree.InstanceCount()-1))

	if s.ops, s.maxRequest, err = prepareOperations(s.tree, m.Operations, o); err != nil {
		return nil, err
	}
	if s.jobs, err = prepareJobs(m.Jobs, s.ops, o); err != nil {
		return nil, err
	}
	s.executable, s.waiting = classify(s.jobs, nil, nil)
	s.logger.Debug("prepared model",
		zap.Stringer("ordering", s.ordering),
		zap.Uint64("seed", s.seed),
		zap.Int("operations", len(s.ops)),
		zap.Int("jobs", len(s.jobs)),
		zap.Float64("max_request", s.maxRequest))
	return s, nil
}

// Tree returns the simulation's resource trees.
func (s *Simulation) Tree() *Tree { return s.tree }

// Jobs returns the jobs in the order they compete for resources.
func (s *Simulation) Jobs() []*Job { return append([]*Job(nil), s.jobs...) }

// Elapsed returns the simulated time so far.
func (s *Simulation) Elapsed() float64 { return s.elapsed }

// Seed returns the seed of the simulation's ordering.
func (s *Simulation) Seed() uint64 { return s.seed }

// Running reports whether another step can be taken.
func (s *Simulation) Running() bool {
	return len(s.executable) > 0 && !s.stalled
}

// Step performs one simulation step and reports whether the simulation is
// still running afterwards. It does nothing and returns false once the
// simulation has finished.
func (s *Simulation) Step() bool {
	if !s.Running() {
		return false
	}
	s.steps++
	start := s.elapsed

	assign(s.tree, s.executable)

	// The step lasts until the earliest completion; equal times resolve to
	// the job that comes first in competition order.
	var events heap.Heap[completion, heap.Min]
	for i, j := range s.executable {
		heap.PushOrderable(&events, completion{at: Div(1-j.progress, j.speed), order: i})
	}
	next, _ := heap.Peek(&events)
	stepTime := next.at

	if math.IsInf(stepTime, 1) {
		s.stalled = true
		s.elapsed = math.Inf(1)
	} else {
		for _, j := range s.executable {
			j.progress += stepTime * j.speed
			if (1-j.progress)*s.maxRequest < 1 {
				j.progress = 1
				j.done = true
			}
		}
		s.elapsed += stepTime
	}

	s.logger.Debug("step",
		zap.Int("step", s.steps),
		zap.Float64("time", start),
		zap.Float64("step_time", stepTime),
		zap.Int("executable", len(s.executable)),
		zap.Int("waiting", len(s.waiting)))
	if s.stalled {
		s.logger.Warn("no executable job can make progress",
			zap.Int("step", s.steps),
			zap.Int("executable", len(s.executable)))
	}

	if len(s.observers) > 0 {
		r := s.report(start, stepTime)
		for _, f := range s.observers {
			f(r)
		}
	}

	s.tree.reset()
	s.executable, s.waiting = classify(s.jobs, s.executable, s.waiting)
	return s.Running()
}

func (s *Simulation) report(start, stepTime float64) *StepReport {
	r := &StepReport{
		Step:      s.steps,
		Start:     start,
		StepTime:  stepTime,
		Jobs:      make([]JobSpeed, len(s.executable)),
		Waiting:   len(s.waiting),
		Resources: s.tree.utilization(),
	}
	for i, j := range s.executable {
		r.Jobs[i] = JobSpeed{
			Job:       j.name,
			Operation: j.op.name,
			Speed:     j.speed,
			Placement: j.placement,
			Done:      j.done,
		}
	}
	return r
}

// Run steps the simulation until it converges or stalls. It stops early,
// returning the partial result, if ctx is cancelled or the step limit set
// with [WithMaxSteps] is reached.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	for s.Running() {
		if err := ctx.Err(); err != nil {
			return s.Result(), err
		}
		if s.maxSteps > 0 && s.steps >= s.maxSteps {
			return s.Result(), fmt.Errorf("%w after %d steps", ErrStepLimit, s.steps)
		}
		s.Step()
	}
	r := s.Result()
	s.logger.Info("simulation finished",
		zap.Float64("elapsed", r.Elapsed),
		zap.Int("steps", r.Steps),
		zap.Bool("stalled", r.Stalled),
		zap.Strings("unfinished", r.Unfinished))
	return r, nil
}

// Result returns the outcome of the simulation so far.
func (s *Simulation) Result() *Result {
	r := &Result{
		Elapsed: s.elapsed,
		Steps:   s.steps,
		Stalled: s.stalled,
	}
	for _, j := range s.jobs {
		if !j.done {
			r.Unfinished = append(r.Unfinished, j.name)
		}
	}
	return r
}

// completion is the time at which an executable job would finish if its
// speed stayed constant. order breaks ties in favor of the earlier job.
type completion struct {
	at    float64
	order int
}

func (a *completion) Cmp(b *completion) int {
	if c := cmp.Compare(a.at, b.at); c != 0 {
		return c
	}
	return cmp.Compare(a.order, b.order)
}
