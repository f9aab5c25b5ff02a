// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

// assign routes each executable job, in order, onto the least loaded
// instance of its time-shared resource, computes its speed, and claims the
// capacity it will use during the step.
//
// The assignment is greedy and order dependent. A job that finds every
// instance of its time-shared resource already claimed gets speed zero for
// the step. Several jobs drawing on the same non-time-shared instance can
// drive its available throughput below zero; this is not corrected.
func assign(t *Tree, executable []*Job) {
	for _, j := range executable {
		op := j.op
		instances := t.nodes[op.shared].instances

		// Strictly greater, so the first of several equally loaded
		// instances wins.
		best := 0
		for i := 1; i < len(instances); i++ {
			if t.instances[instances[i]].available > t.instances[instances[best]].available {
				best = i
			}
		}
		shared := &t.instances[instances[best]]
		bound := op.bindings[best]

		speed := Div(shared.available, op.sharedRequire)
		for k, r := range op.others {
			if s := Div(t.instances[bound[k]].available, r.require); s < speed {
				speed = s
			}
		}

		j.speed = speed
		j.placement = instances[best]
		shared.available = 0
		for k, r := range op.others {
			t.instances[bound[k]].available -= speed * r.require
		}
	}
}
