// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
)

// Ordering selects the order in which a simulation visits the entries of the
// model's mappings. The order decides which job reaches a contended resource
// first and therefore affects the computed makespan.
type Ordering int

const (
	// Deterministic visits entries in lexicographic order of their names.
	Deterministic Ordering = iota

	// Randomized visits entries in an order drawn once per simulation from
	// its seed. See [WithSeed].
	Randomized
)

func (o Ordering) String() string {
	switch o {
	case Deterministic:
		return "deterministic"
	case Randomized:
		return "randomized"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering is the inverse of [Ordering.String]. Matching is
// case-insensitive.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(s) {
	case "deterministic":
		return Deterministic, nil
	case "randomized", "random":
		return Randomized, nil
	default:
		return Deterministic, fmt.Errorf("unknown ordering %q, want \"deterministic\" or \"randomized\"", s)
	}
}

// orderer produces the iteration order of mappings for one simulation.
type orderer struct {
	rand *rand.Rand // nil when deterministic
}

func newOrderer(o Ordering, seed uint64) *orderer {
	if o != Randomized {
		return &orderer{}
	}
	return &orderer{rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// keys returns the keys of m in the orderer's order. Keys are sorted before
// shuffling so a given seed always yields the same permutation.
func keys[V any](o *orderer, m map[string]V) []string {
	ks := slices.Sorted(maps.Keys(m))
	if o.rand != nil {
		o.rand.Shuffle(len(ks), func(i, j int) {
			ks[i], ks[j] = ks[j], ks[i]
		})
	}
	return ks
}
