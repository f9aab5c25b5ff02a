// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"fmt"
	"math"
	"slices"

	"github.com/petenewcomb/makespan-go"
	"pgregory.net/rapid"
)

// Model is a generated model together with a flat description of its
// resource types for tests to check the built trees against.
type Model struct {
	*makespan.Model
	Types []*Type
}

// Type describes one generated resource type.
type Type struct {
	Path          makespan.Path
	Multiplicity  int
	Instances     int // product of multiplicities along the path
	TimeShared    bool
	HasThroughput bool

	resource *makespan.Resource
}

type generator struct {
	t      *rapid.T
	config *Config
	model  *Model
	byPath map[string]*Type
}

// NewModel draws a random model. Every operation names exactly one
// time-shared resource and only resources reachable by name from each of
// its instances, so the model always passes validation.
func NewModel(t *rapid.T, config *Config) *Model {
	g := &generator{
		t:      t,
		config: config,
		model: &Model{
			Model: &makespan.Model{
				Operations: make(map[string][]makespan.Requirement),
				Jobs:       make(map[string]makespan.JobSpec),
			},
		},
		byPath: make(map[string]*Type),
	}
	depth := config.Resource.Depth.Draw(t, "Resources.Depth")
	g.model.Resources = g.resources(nil, 1, depth)

	shared := g.timeSharedTypes()
	ops := g.operations(shared)
	g.jobs(ops)

	t.Logf("generated %d resource types, %d operations, %d jobs",
		len(g.model.Types), len(g.model.Operations), len(g.model.Jobs))
	return g.model
}

func (g *generator) resources(parent makespan.Path, parentInstances int, depth int) map[string]*makespan.Resource {
	rc := &g.config.Resource
	label := "Resources"
	if len(parent) > 0 {
		label = parent.String()
	}
	n := rc.Fanout.Draw(g.t, label+".Fanout")
	rs := make(map[string]*makespan.Resource, n)
	for i := range n {
		path := append(slices.Clone(parent), fmt.Sprintf("r%d", i))
		name := path.String()

		m := rc.Multiplicity.Draw(g.t, name+".Multiplicity")
		r := &makespan.Resource{
			TimeShared: rc.TimeShared.Draw(g.t, name+".TimeShared"),
		}
		if m != 1 {
			r.Multiplicity = &m
		}
		typ := &Type{
			Path:         path,
			Multiplicity: m,
			Instances:    parentInstances * m,
			TimeShared:   r.TimeShared,
			resource:     r,
		}
		g.model.Types = append(g.model.Types, typ)
		g.byPath[name] = typ

		if depth > 1 && !(BiasedBoolConfig{Probability: 0.3}).Draw(g.t, name+".Leaf") {
			r.Resources = g.resources(path, typ.Instances, depth-1)
		}
		if len(r.Resources) == 0 || !rc.Container.Draw(g.t, name+".Container") {
			throughput := rc.Throughput.Draw(g.t, name+".Throughput")
			r.Throughput = &throughput
			typ.HasThroughput = true
		}
		rs[path[len(path)-1]] = r
	}
	return rs
}

// timeSharedTypes returns the types operations may run on, making one
// time-shared if the draw produced none.
func (g *generator) timeSharedTypes() []*Type {
	var shared, eligible []*Type
	for _, typ := range g.model.Types {
		if !typ.HasThroughput {
			continue
		}
		eligible = append(eligible, typ)
		if typ.TimeShared {
			shared = append(shared, typ)
		}
	}
	if len(shared) == 0 {
		typ := rapid.SampledFrom(eligible).Draw(g.t, "ForcedTimeShared")
		typ.TimeShared = true
		typ.resource.TimeShared = true
		shared = append(shared, typ)
	}
	return shared
}

// reachable reports whether every instance of from can name its way to the
// single instance of to that shares its ancestors: the part of to's path
// below the common ancestor must consist of resources with multiplicity one.
func (g *generator) reachable(from, to *Type) bool {
	k := 0
	for k < len(from.Path) && k < len(to.Path) && from.Path[k] == to.Path[k] {
		k++
	}
	for i := k; i < len(to.Path); i++ {
		if g.byPath[to.Path[:i+1].String()].Multiplicity != 1 {
			return false
		}
	}
	return true
}

func (g *generator) operations(shared []*Type) []string {
	oc := &g.config.Operation
	count := oc.Count.Draw(g.t, "Operations.Count")
	names := make([]string, count)
	for i := range count {
		name := fmt.Sprintf("op%d", i)
		names[i] = name

		ts := rapid.SampledFrom(shared).Draw(g.t, name+".TimeShared")
		var candidates []*Type
		for _, typ := range g.model.Types {
			if typ != ts && !typ.TimeShared && typ.HasThroughput && g.reachable(ts, typ) {
				candidates = append(candidates, typ)
			}
		}
		extra := min(oc.Extra.Draw(g.t, name+".Extra"), len(candidates))
		others := rapid.Permutation(candidates).Draw(g.t, name+".Others")[:extra]

		require := func(label string) float64 {
			return math.Ldexp(1, oc.RequireExponent.Draw(g.t, label))
		}
		reqs := make([]makespan.Requirement, 0, extra+1)
		for _, typ := range others {
			reqs = append(reqs, makespan.Requirement{
				Resource: typ.Path.String(),
				Require:  require(name + "." + typ.Path.String() + ".Require"),
			})
		}
		at := rapid.IntRange(0, len(reqs)).Draw(g.t, name+".TimeSharedPosition")
		reqs = slices.Insert(reqs, at, makespan.Requirement{
			Resource: ts.Path.String(),
			Require:  require(name + "." + ts.Path.String() + ".Require"),
		})
		g.model.Operations[name] = reqs
	}
	return names
}

func (g *generator) jobs(ops []string) {
	jc := &g.config.Job
	count := jc.Count.Draw(g.t, "Jobs.Count")
	names := make([]string, count)
	for i := range count {
		name := fmt.Sprintf("j%02d", i)
		names[i] = name
		spec := makespan.JobSpec{
			Operation: rapid.SampledFrom(ops).Draw(g.t, name+".Operation"),
		}
		// Only earlier jobs may be prerequisites, which rules out cycles.
		if i > 0 {
			k := min(jc.Prereqs.Draw(g.t, name+".PrereqCount"), i)
			spec.Require = rapid.Permutation(names[:i]).Draw(g.t, name+".Prereqs")[:k]
		}
		g.model.Jobs[name] = spec
	}
}
