// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package makespan

import "math"

// Div returns a/b, defined for every pair of inputs. Division by a zero of
// either sign yields an infinity whose sign is the product of the signs of a
// and b (negative zero counts as negative). Zero divided by zero yields NaN.
//
// Ratios of available capacity to required capacity are routinely taken
// against fully depleted resources, so the sign of the infinity matters to the
// comparisons that follow.
func Div(a, b float64) float64 {
	if b != 0 {
		return a / b
	}
	if a == 0 || math.IsNaN(a) {
		return math.NaN()
	}
	if math.Signbit(a) != math.Signbit(b) {
		return math.Inf(-1)
	}
	return math.Inf(1)
}
