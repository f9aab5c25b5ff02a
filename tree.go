// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gammazero/deque"
)

// NodeID identifies an [AbstractNode] within its [Tree].
type NodeID int32

// InstanceID identifies an [Instance] within its [Tree].
type InstanceID int32

const (
	// RootNode is the synthetic abstract node above all top-level resources.
	RootNode NodeID = 0

	// RootInstance is the synthetic instance above all top-level instances.
	RootInstance InstanceID = 0

	noNode     NodeID     = -1
	noInstance InstanceID = -1
)

// Tree holds the two parallel views of a model's resources. The abstract tree
// has one node per resource-type path and is always navigable by name. The
// concrete tree has one instance per unit of resource and tracks capacity;
// an instance is reachable by name from its parent only if its resource has
// multiplicity one, otherwise only through its abstract node.
//
// Nodes live in arenas owned by the Tree and refer to each other by index.
type Tree struct {
	nodes     []AbstractNode
	instances []Instance
}

// AbstractNode is a resource type. It owns the list of instances realizing
// it but holds no capacity itself.
type AbstractNode struct {
	name        string
	path        Path
	timeShared  bool
	parent      NodeID
	children    []NodeID
	childByName map[string]NodeID
	instances   []InstanceID
}

// Instance is one physically instantiated unit of a resource.
type Instance struct {
	node          NodeID
	throughput    float64
	hasThroughput bool
	available     float64
	timeShared    bool
	parent        InstanceID
	children      []InstanceID
	childByName   map[string]InstanceID
}

// buildTree expands the resource description into abstract and concrete
// trees. Child resources are visited in the orderer's order, breadth first,
// which yields for every abstract node the same instance order as a
// depth-first expansion would.
func buildTree(resources map[string]*Resource, o *orderer) (*Tree, error) {
	t := &Tree{}
	t.nodes = append(t.nodes, AbstractNode{
		parent:      noNode,
		childByName: make(map[string]NodeID),
		instances:   []InstanceID{RootInstance},
	})
	t.instances = append(t.instances, Instance{
		node:        RootNode,
		parent:      noInstance,
		childByName: make(map[string]InstanceID),
	})

	type expansion struct {
		resources map[string]*Resource
		node      NodeID
		instance  InstanceID
	}

	// The order of a description's children is drawn once, when its abstract
	// node is first expanded, and reused for every instance of that node.
	order := make(map[NodeID][]string)

	var work deque.Deque[expansion]
	work.PushBack(expansion{resources: resources, node: RootNode, instance: RootInstance})
	for work.Len() > 0 {
		e := work.PopFront()
		names, seen := order[e.node]
		if !seen {
			names = keys(o, e.resources)
			for _, name := range names {
				if err := validateResource(t.nodes[e.node].path, name, e.resources[name]); err != nil {
					return nil, err
				}
			}
			order[e.node] = names
		}
		for _, name := range names {
			r := e.resources[name]
			node, ok := t.nodes[e.node].childByName[name]
			if !ok {
				node = t.addNode(e.node, name, r.TimeShared)
			}
			m := r.multiplicity()
			for range m {
				inst := t.addInstance(node, e.instance, r)
				if m == 1 {
					t.instances[e.instance].childByName[name] = inst
				}
				if len(r.Resources) > 0 {
					work.PushBack(expansion{resources: r.Resources, node: node, instance: inst})
				}
			}
		}
	}
	return t, nil
}

func validateResource(parent Path, name string, r *Resource) error {
	subject := fmt.Sprintf("resource %q", append(slices.Clone(parent), name).String())
	switch {
	case name == "" || name == Up || strings.Contains(name, Separator):
		return configErrorf(subject, "invalid resource name")
	case r == nil:
		return configErrorf(subject, "empty resource description")
	case r.multiplicity() < 1:
		return configErrorf(subject, "multiplicity must be at least 1, got %d", r.multiplicity())
	case r.Throughput == nil && len(r.Resources) == 0:
		return configErrorf(subject, "throughput is required on resources without sub-resources")
	case r.Throughput != nil && (*r.Throughput < 0 || math.IsNaN(*r.Throughput)):
		return configErrorf(subject, "throughput must not be negative, got %v", *r.Throughput)
	}
	return nil
}

func (t *Tree) addNode(parent NodeID, name string, timeShared bool) NodeID {
	id := NodeID(len(t.nodes))
	p := &t.nodes[parent]
	t.nodes = append(t.nodes, AbstractNode{
		name:        name,
		path:        append(slices.Clone(p.path), name),
		timeShared:  timeShared,
		parent:      parent,
		childByName: make(map[string]NodeID),
	})
	// p may have moved when t.nodes grew
	p = &t.nodes[parent]
	p.children = append(p.children, id)
	p.childByName[name] = id
	return id
}

func (t *Tree) addInstance(node NodeID, parent InstanceID, r *Resource) InstanceID {
	id := InstanceID(len(t.instances))
	inst := Instance{
		node:       node,
		timeShared: r.TimeShared,
		parent:     parent,
	}
	if r.Throughput != nil {
		inst.throughput = *r.Throughput
		inst.available = *r.Throughput
		inst.hasThroughput = true
	}
	if len(r.Resources) > 0 {
		inst.childByName = make(map[string]InstanceID)
	}
	t.instances = append(t.instances, inst)
	t.nodes[node].instances = append(t.nodes[node].instances, id)
	p := &t.instances[parent]
	p.children = append(p.children, id)
	return id
}

// reset renews the available throughput of every instance.
func (t *Tree) reset() {
	for i := range t.instances {
		t.instances[i].available = t.instances[i].throughput
	}
}

// NodeCount returns the number of abstract nodes including the root.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// InstanceCount returns the number of instances including the root.
func (t *Tree) InstanceCount() int {
	return len(t.instances)
}

// Node returns the abstract node with the given id.
func (t *Tree) Node(id NodeID) *AbstractNode {
	return &t.nodes[id]
}

// Instance returns the instance with the given id.
func (t *Tree) Instance(id InstanceID) *Instance {
	return &t.instances[id]
}

// Lookup resolves p against the abstract tree starting at the root.
func (t *Tree) Lookup(p Path) (NodeID, error) {
	return t.LookupFrom(RootNode, p)
}

// LookupFrom resolves p against the abstract tree starting at from.
func (t *Tree) LookupFrom(from NodeID, p Path) (NodeID, error) {
	return resolve[NodeID](abstractNav{t}, from, p)
}

// LookupInstance resolves p against the concrete tree starting at from.
func (t *Tree) LookupInstance(from InstanceID, p Path) (InstanceID, error) {
	return resolve[InstanceID](concreteNav{t}, from, p)
}

type abstractNav struct{ t *Tree }

func (n abstractNav) child(at NodeID, name string) (NodeID, bool) {
	id, ok := n.t.nodes[at].childByName[name]
	return id, ok
}

func (n abstractNav) parent(at NodeID) (NodeID, bool) {
	p := n.t.nodes[at].parent
	return p, p != noNode
}

type concreteNav struct{ t *Tree }

func (n concreteNav) child(at InstanceID, name string) (InstanceID, bool) {
	id, ok := n.t.instances[at].childByName[name]
	return id, ok
}

func (n concreteNav) parent(at InstanceID) (InstanceID, bool) {
	p := n.t.instances[at].parent
	return p, p != noInstance
}

// Name returns the last step of the node's path, or "" for the root.
func (n *AbstractNode) Name() string { return n.name }

// Path returns the path of the node from the root.
func (n *AbstractNode) Path() Path { return slices.Clone(n.path) }

// TimeShared reports whether the resource type is exclusive to one job per
// instance and step.
func (n *AbstractNode) TimeShared() bool { return n.timeShared }

// Parent returns the parent node; ok is false for the root.
func (n *AbstractNode) Parent() (id NodeID, ok bool) {
	return n.parent, n.parent != noNode
}

// Children returns the child nodes in creation order.
func (n *AbstractNode) Children() []NodeID { return slices.Clone(n.children) }

// Child returns the child node with the given name.
func (n *AbstractNode) Child(name string) (NodeID, bool) {
	id, ok := n.childByName[name]
	return id, ok
}

// Instances returns every instance of this resource type in creation order.
func (n *AbstractNode) Instances() []InstanceID { return slices.Clone(n.instances) }

// Node returns the abstract node this instance realizes.
func (i *Instance) Node() NodeID { return i.node }

// Throughput returns the instance's capacity; ok is false for containers
// declared without one.
func (i *Instance) Throughput() (throughput float64, ok bool) {
	return i.throughput, i.hasThroughput
}

// Available returns the capacity not yet claimed in the current step.
func (i *Instance) Available() float64 { return i.available }

// TimeShared reports whether the instance serves at most one job per step.
func (i *Instance) TimeShared() bool { return i.timeShared }

// Parent returns the parent instance; ok is false for the root.
func (i *Instance) Parent() (id InstanceID, ok bool) {
	return i.parent, i.parent != noInstance
}

// Children returns all child instances, including those not reachable by
// name.
func (i *Instance) Children() []InstanceID { return slices.Clone(i.children) }

// Child returns the child instance registered under name. Instances of
// resources with multiplicity greater than one are never registered.
func (i *Instance) Child(name string) (InstanceID, bool) {
	id, ok := i.childByName[name]
	return id, ok
}

// Utilization returns the claimed fraction of the instance's throughput.
func (i *Instance) Utilization() float64 {
	return 1 - Div(i.available, i.throughput)
}
