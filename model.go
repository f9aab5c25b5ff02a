// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

// Model is the declarative input to a simulation: a resource topology, a
// library of operations, and the jobs to run. It is consumed already parsed
// and merged; see the modelfile package for loading it from disk.
type Model struct {
	Resources  map[string]*Resource     `json:"resources"`
	Operations map[string][]Requirement `json:"operations"`
	Jobs       map[string]JobSpec       `json:"jobs"`
}

// Resource describes one named kind of resource and, recursively, the kinds
// of resource it contains.
type Resource struct {
	// Throughput is the capacity of each instance in units per second. It may
	// be omitted only on resources that have sub-resources.
	Throughput *float64 `json:"throughput,omitempty"`

	// TimeShared resources are claimed whole by a single job per step.
	TimeShared bool `json:"time shared,omitempty"`

	// Multiplicity is the number of identical instances, default 1. Instances
	// of a resource with multiplicity greater than one cannot be addressed
	// individually by name.
	Multiplicity *int `json:"multiplicity,omitempty"`

	Resources map[string]*Resource `json:"resources,omitempty"`
}

// multiplicity returns the number of instances, applying the default.
func (r *Resource) multiplicity() int {
	if r.Multiplicity == nil {
		return 1
	}
	return *r.Multiplicity
}

// Requirement names a resource consumed by an operation and the amount of its
// throughput one instance of the operation needs to progress at full speed.
type Requirement struct {
	// Resource is a slash-separated path from the top of the resource tree.
	Resource string  `json:"resource"`
	Require  float64 `json:"require"`
}

// JobSpec declares one job of the model.
type JobSpec struct {
	// Operation names the entry of Model.Operations the job performs.
	Operation string `json:"name"`

	// Require lists the names of jobs that must finish before this one starts.
	Require []string `json:"require,omitempty"`

	// The remaining fields are accepted for compatibility with existing model
	// files but do not influence the simulation.
	Multiplicity *int     `json:"multiplicity,omitempty"`
	SplitFactor  *float64 `json:"split factor,omitempty"`
	Pipe         any      `json:"pipe,omitempty"`
}
