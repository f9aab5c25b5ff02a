// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

var DefaultConfig = Config{
	Resource: ResourceConfig{
		Depth:        BiasedIntConfig{Min: 1, Med: 2, Max: 3},
		Fanout:       BiasedIntConfig{Min: 1, Med: 2, Max: 3},
		Multiplicity: BiasedIntConfig{Min: 1, Med: 1, Max: 4},
		Throughput:   BiasedFloatConfig{Min: 0.5, Med: 10, Max: 1000},
		TimeShared:   BiasedBoolConfig{Probability: 0.3},
		Container:    BiasedBoolConfig{Probability: 0.5},
	},
	Operation: OperationConfig{
		Count: BiasedIntConfig{Min: 1, Med: 2, Max: 5},
		Extra: BiasedIntConfig{Min: 0, Med: 1, Max: 3},
		// Requirements are powers of two, 2^-2 through 2^6, which keeps the
		// subtraction of claimed capacity exact.
		RequireExponent: BiasedIntConfig{Min: -2, Med: 2, Max: 6},
	},
	Job: JobConfig{
		Count:   BiasedIntConfig{Min: 1, Med: 5, Max: 15},
		Prereqs: BiasedIntConfig{Min: 0, Med: 1, Max: 3},
	},
}

type Config struct {
	Resource  ResourceConfig
	Operation OperationConfig
	Job       JobConfig
}

type ResourceConfig struct {
	Depth        BiasedIntConfig
	Fanout       BiasedIntConfig
	Multiplicity BiasedIntConfig
	Throughput   BiasedFloatConfig
	TimeShared   BiasedBoolConfig

	// Container is the probability that a resource with sub-resources has no
	// throughput of its own.
	Container BiasedBoolConfig
}

type OperationConfig struct {
	Count           BiasedIntConfig
	Extra           BiasedIntConfig
	RequireExponent BiasedIntConfig
}

type JobConfig struct {
	Count   BiasedIntConfig
	Prereqs BiasedIntConfig
}
