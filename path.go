// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import (
	"fmt"
	"strings"
)

// Up is the path step that moves from a resource to its parent.
const Up = ".."

// Separator joins the steps of a path in its textual form.
const Separator = "/"

// Path is a sequence of steps through a resource tree. Each step is either the
// name of a child resource or [Up].
type Path []string

// ParsePath splits a slash-separated path into steps. Empty steps are
// dropped, so "a//b/" and "a/b" are the same path.
func ParsePath(s string) Path {
	var p Path
	for _, step := range strings.Split(s, Separator) {
		if step != "" {
			p = append(p, step)
		}
	}
	return p
}

// String returns the slash-separated form of the path.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Relativize returns the path that, followed from the node at ref, reaches
// the node at abs. Both arguments are taken relative to the same origin. The
// result climbs out of ref to the longest prefix it shares with abs and then
// descends along the remainder of abs.
func Relativize(ref, abs Path) Path {
	k := 0
	for k < len(ref) && k < len(abs) && ref[k] == abs[k] {
		k++
	}
	rel := make(Path, 0, len(ref)-k+len(abs)-k)
	for range len(ref) - k {
		rel = append(rel, Up)
	}
	return append(rel, abs[k:]...)
}

// navigator is the shape shared by the abstract and concrete resource trees:
// named edges to children plus an edge to the parent.
type navigator[ID comparable] interface {
	child(at ID, name string) (ID, bool)
	parent(at ID) (ID, bool)
}

// resolve walks p from the node at origin.
func resolve[ID comparable](nav navigator[ID], origin ID, p Path) (ID, error) {
	at := origin
	for i, step := range p {
		var next ID
		var ok bool
		if step == Up {
			next, ok = nav.parent(at)
		} else {
			next, ok = nav.child(at, step)
		}
		if !ok {
			return origin, fmt.Errorf("%w: step %d (%q) of %q", ErrPathResolution, i, step, p.String())
		}
		at = next
	}
	return at, nil
}
