// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import "fmt"

// Job is the live state of one entry of Model.Jobs.
type Job struct {
	name      string
	op        *operation
	require   []string
	prereqs   []*Job
	progress  float64
	done      bool
	speed     float64
	placement InstanceID
}

// Name returns the job's key in Model.Jobs.
func (j *Job) Name() string { return j.name }

// Operation returns the name of the operation the job performs.
func (j *Job) Operation() string { return j.op.name }

// Require returns the names of the jobs this one waits for.
func (j *Job) Require() []string { return append([]string(nil), j.require...) }

// Progress returns the completed fraction of the job, from 0 to 1.
func (j *Job) Progress() float64 { return j.progress }

// Done reports whether the job has completed.
func (j *Job) Done() bool { return j.done }

// Speed returns the progress per second computed the last time the job was
// assigned resources.
func (j *Job) Speed() float64 { return j.speed }

// Placement returns the instance of the time-shared resource the job was
// assigned the last time it ran; ok is false if it never ran.
func (j *Job) Placement() (id InstanceID, ok bool) {
	return j.placement, j.placement != noInstance
}

// executable reports whether the job may run in the current step.
func (j *Job) executable() bool {
	if j.done {
		return false
	}
	for _, p := range j.prereqs {
		if !p.done {
			return false
		}
	}
	return true
}

// prepareJobs creates the jobs of the model in the orderer's order, which
// is then the order in which they compete for resources for the whole run.
func prepareJobs(specs map[string]JobSpec, ops map[string]*operation, o *orderer) ([]*Job, error) {
	names := keys(o, specs)
	jobs := make([]*Job, len(names))
	byName := make(map[string]*Job, len(names))
	for i, name := range names {
		spec := specs[name]
		op, ok := ops[spec.Operation]
		if !ok {
			return nil, configErrorf(fmt.Sprintf("job %q", name), "unknown operation %q", spec.Operation)
		}
		jobs[i] = &Job{
			name:      name,
			op:        op,
			require:   append([]string(nil), spec.Require...),
			placement: noInstance,
		}
		byName[name] = jobs[i]
	}
	for _, j := range jobs {
		for _, req := range j.require {
			p, ok := byName[req]
			if !ok {
				return nil, configErrorf(fmt.Sprintf("job %q", j.name), "requires unknown job %q", req)
			}
			j.prereqs = append(j.prereqs, p)
		}
	}
	return jobs, nil
}

// classify partitions the jobs that are not done into those whose
// prerequisites are all done and those still waiting, preserving job order.
// The result slices reuse the storage of the ones passed in.
func classify(jobs []*Job, executable, waiting []*Job) ([]*Job, []*Job) {
	executable = executable[:0]
	waiting = waiting[:0]
	for _, j := range jobs {
		switch {
		case j.done:
		case j.executable():
			executable = append(executable, j)
		default:
			waiting = append(waiting, j)
		}
	}
	return executable, waiting
}
