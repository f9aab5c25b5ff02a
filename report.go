// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StepReport describes one simulation step. It is passed to the functions
// registered with [WithObserver] after progress has been advanced and before
// capacities are renewed for the next step. Observers must not retain it.
type StepReport struct {
	// Step counts from 1.
	Step int

	// Start is the simulated time at which the step began, and StepTime its
	// length. StepTime is +Inf for a step in which no job could progress.
	Start    float64
	StepTime float64

	// Jobs lists the executable jobs in the order they were assigned.
	Jobs []JobSpeed

	// Waiting counts the jobs held back by unfinished prerequisites.
	Waiting int

	// Resources lists every resource type with a throughput, in tree order.
	Resources []Utilization
}

// JobSpeed records the assignment made to one job during a step.
type JobSpeed struct {
	Job       string
	Operation string
	Speed     float64
	Placement InstanceID
	Done      bool
}

// Utilization summarizes the claimed fraction of throughput across the
// instances of one resource type.
type Utilization struct {
	Resource  Path
	Instances int
	Min       float64
	Mean      float64
	Max       float64
}

// utilization summarizes the current state of every resource type that has
// a throughput.
func (t *Tree) utilization() []Utilization {
	var us []Utilization
	var xs []float64
	for id := range t.nodes {
		n := &t.nodes[id]
		if NodeID(id) == RootNode || len(n.instances) == 0 || !t.instances[n.instances[0]].hasThroughput {
			continue
		}
		xs = xs[:0]
		for _, inst := range n.instances {
			xs = append(xs, t.instances[inst].Utilization())
		}
		us = append(us, Utilization{
			Resource:  n.Path(),
			Instances: len(xs),
			Min:       floats.Min(xs),
			Mean:      stat.Mean(xs, nil),
			Max:       floats.Max(xs),
		})
	}
	return us
}
