// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan_test

import (
	"github.com/petenewcomb/makespan-go"
)

func ptr[T any](v T) *T {
	return &v
}

// singleResourceModel has one time-shared resource "cpu" of throughput 10
// with the given multiplicity, an operation "work" needing 5 of it, and a
// single job "a".
func singleResourceModel(multiplicity int) *makespan.Model {
	return &makespan.Model{
		Resources: map[string]*makespan.Resource{
			"cpu": {
				Throughput:   ptr(10.0),
				TimeShared:   true,
				Multiplicity: ptr(multiplicity),
			},
		},
		Operations: map[string][]makespan.Requirement{
			"work": {{Resource: "cpu", Require: 5}},
		},
		Jobs: map[string]makespan.JobSpec{
			"a": {Operation: "work"},
		},
	}
}

// nodeModel has one "node" containing two time-shared cores of throughput
// 10 and a bus of the given throughput. The "copy" operation needs 5 of a
// core and 4 of the bus.
func nodeModel(busThroughput float64, jobs map[string]makespan.JobSpec) *makespan.Model {
	return &makespan.Model{
		Resources: map[string]*makespan.Resource{
			"node": {
				Resources: map[string]*makespan.Resource{
					"core": {
						Throughput:   ptr(10.0),
						TimeShared:   true,
						Multiplicity: ptr(2),
					},
					"bus": {Throughput: ptr(busThroughput)},
				},
			},
		},
		Operations: map[string][]makespan.Requirement{
			"copy": {
				{Resource: "node/bus", Require: 4},
				{Resource: "node/core", Require: 5},
			},
		},
		Jobs: jobs,
	}
}

// collect returns an observer option that appends a copy of every step
// report to *reports.
func collect(reports *[]makespan.StepReport) makespan.Option {
	return makespan.WithObserver(func(r *makespan.StepReport) {
		*reports = append(*reports, *r)
	})
}
