// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import "fmt"

// operation is an entry of Model.Operations validated against the resource
// tree.
type operation struct {
	name string

	// The one time-shared resource the operation runs on, and how much of
	// its throughput it needs.
	shared        NodeID
	sharedRequire float64

	// The remaining requirements, with paths relative to the time-shared
	// resource.
	others []requirement

	// bindings[i][j] is the instance satisfying others[j] when the operation
	// runs on the i-th instance of the time-shared resource.
	bindings [][]InstanceID
}

type requirement struct {
	node    NodeID
	path    Path
	require float64
}

// prepareOperations validates every operation and binds its requirements to
// concrete instances. It also returns the largest single amount required by
// any operation.
func prepareOperations(t *Tree, specs map[string][]Requirement, o *orderer) (map[string]*operation, float64, error) {
	ops := make(map[string]*operation, len(specs))
	maxRequest := 0.0
	for _, name := range keys(o, specs) {
		op, opMax, err := prepareOperation(t, name, specs[name])
		if err != nil {
			return nil, 0, err
		}
		ops[name] = op
		maxRequest = max(maxRequest, opMax)
	}
	return ops, maxRequest, nil
}

func prepareOperation(t *Tree, name string, reqs []Requirement) (*operation, float64, error) {
	subject := fmt.Sprintf("operation %q", name)
	if len(reqs) == 0 {
		return nil, 0, configErrorf(subject, "no resources listed")
	}

	type resolved struct {
		node    NodeID
		require float64
	}
	all := make([]resolved, 0, len(reqs))
	var shared []int
	maxRequest := 0.0
	for _, req := range reqs {
		id, err := t.Lookup(ParsePath(req.Resource))
		if err != nil {
			return nil, 0, &ConfigError{Subject: subject, Err: fmt.Errorf("resource %q: %w", req.Resource, err)}
		}
		if !(req.Require > 0) {
			return nil, 0, configErrorf(subject, "resource %q: require must be positive, got %v", req.Resource, req.Require)
		}
		n := t.Node(id)
		if _, ok := t.Instance(n.instances[0]).Throughput(); !ok {
			return nil, 0, configErrorf(subject, "resource %q has no throughput of its own", req.Resource)
		}
		if n.timeShared {
			shared = append(shared, len(all))
		}
		all = append(all, resolved{node: id, require: req.Require})
		maxRequest = max(maxRequest, req.Require)
	}

	if len(shared) != 1 {
		var names []string
		for _, i := range shared {
			names = append(names, t.Node(all[i].node).path.String())
		}
		return nil, 0, configErrorf(subject, "must name exactly one time-shared resource, found %d %v", len(shared), names)
	}

	ts := all[shared[0]]
	op := &operation{
		name:          name,
		shared:        ts.node,
		sharedRequire: ts.require,
	}
	// Canonical node paths are used so that Up steps in the model's own
	// paths cannot confuse relativization.
	sharedPath := t.Node(ts.node).path
	for i, r := range all {
		if i == shared[0] {
			continue
		}
		op.others = append(op.others, requirement{
			node:    r.node,
			path:    Relativize(sharedPath, t.Node(r.node).path),
			require: r.require,
		})
	}

	instances := t.Node(ts.node).instances
	op.bindings = make([][]InstanceID, len(instances))
	for i, inst := range instances {
		op.bindings[i] = make([]InstanceID, len(op.others))
		for j, r := range op.others {
			bound, err := t.LookupInstance(inst, r.path)
			if err != nil {
				return nil, 0, &ConfigError{
					Subject: subject,
					Err: fmt.Errorf("resource %q is not reachable by name from every instance of %q: %w",
						t.Node(r.node).path.String(), sharedPath.String(), err),
				}
			}
			op.bindings[i][j] = bound
		}
	}
	return op, maxRequest, nil
}
