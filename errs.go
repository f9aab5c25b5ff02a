// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import "fmt"

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrConfiguration is matched (via [errors.Is]) by every error that rejects a
// model before simulation starts.
const ErrConfiguration = constError("invalid configuration")

// ErrPathResolution reports that a path step named neither a child nor the
// parent of the node reached so far.
const ErrPathResolution = constError("path does not resolve")

// ErrStepLimit is returned by [Simulation.Run] when the limit set with
// [WithMaxSteps] is reached before the simulation converges.
const ErrStepLimit = constError("step limit reached")

// ConfigError describes a configuration problem with a specific part of the
// model, for instance a resource, an operation, or a job.
type ConfigError struct {
	// Subject names the offending model element, e.g. `operation "copy"`.
	Subject string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConfiguration, e.Subject, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports ConfigError as an ErrConfiguration so callers need not know the
// concrete type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(subject string, format string, args ...any) error {
	return &ConfigError{Subject: subject, Err: fmt.Errorf(format, args...)}
}
