// SPDX-License-Identifier: MIT
//
// Package interp holds small animation helpers shared by the peak tracker and
// the terminal monitor.
package interp

// Number is any ordered numeric type that supports subtraction.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Step moves current toward target by at most delta and never overshoots.
// A negative delta is treated as its magnitude.
func Step[T Number](current, target, delta T) T {
	var zero T
	if delta < zero {
		delta = zero - delta
	}

	if current < target {
		if target-current <= delta {
			return target
		}
		return current + delta
	}

	if current-target <= delta {
		return target
	}
	return current - delta
}
