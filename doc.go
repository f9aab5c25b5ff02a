// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package makespan estimates how long a set of dependent jobs takes to finish
// when the jobs compete for a hierarchy of shared, capacity-limited resources
// such as CPUs, cores, caches, buses, and network links.
//
// A [Model] declares three things. Resources form a tree in which each kind
// of resource has a throughput, a multiplicity, and optionally
// sub-resources. Operations list the resources an instance of the operation
// consumes and how much of each one's throughput it needs; exactly one of
// them must be time-shared, meaning a single job claims an instance of it
// whole. Jobs name an operation and the jobs they must wait for.
//
// [New] expands the resources into two parallel trees. The abstract tree
// has one node per kind of resource and is used for navigation and load
// balancing; the concrete tree has one instance per unit and tracks capacity.
// [Simulation.Run] then advances simulated time in steps. In each step every
// executable job is routed onto the least loaded instance of its time-shared
// resource and runs at the speed permitted by its scarcest resource, and time
// advances until the first of them would finish. The sum of the step times is
// the makespan.
//
// The assignment is greedy: it neither searches for a better schedule nor
// shares contended resources fairly. Jobs that lose a time-shared resource
// simply make no progress until a later step.
package makespan
