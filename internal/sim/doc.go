// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package sim generates random simulation models for property-based tests.
// A generated model has a resource tree of bounded depth and fan-out, a set of
// operations that each run on one time-shared resource and draw on others
// reachable from it, and a job graph whose prerequisites always point at
// earlier jobs, so the graph is acyclic. New models are generated according to
// a set of configuration parameters that determine their size and shape.
package sim
