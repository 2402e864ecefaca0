// SPDX-License-Identifier: MIT
package interp

import (
	"fmt"
	"testing"
	"time"
)

func TestStepFloat(t *testing.T) {
	tests := []struct {
		current, target, delta float64
		expected               float64
	}{
		{0, 1, 0.25, 0.25},   // Rising
		{1, 0, 0.25, 0.75},   // Falling
		{0.9, 1, 0.25, 1},    // Clamped at target when rising
		{0.1, 0, 0.25, 0},    // Clamped at target when falling
		{0.5, 0.5, 0.25, 0.5}, // Already there
		{0, 1, -0.25, 0.25},  // Negative delta uses magnitude
		{0, 1, 0, 0},         // Zero delta never moves
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v→%v", tt.current, tt.target), func(t *testing.T) {
			result := Step(tt.current, tt.target, tt.delta)
			if result != tt.expected {
				t.Errorf("Step(%v, %v, %v) = %v, expected %v",
					tt.current, tt.target, tt.delta, result, tt.expected)
			}
		})
	}
}

func TestStepUnsignedNoWrap(t *testing.T) {
	// Unsigned subtraction must not wrap around when close to zero.
	if got := Step[uint8](3, 0, 10); got != 0 {
		t.Errorf("Step[uint8](3, 0, 10) = %d, expected 0", got)
	}
	if got := Step[uint8](250, 255, 10); got != 255 {
		t.Errorf("Step[uint8](250, 255, 10) = %d, expected 255", got)
	}
}

func TestStepDuration(t *testing.T) {
	got := Step(time.Second, 0, 300*time.Millisecond)
	if got != 700*time.Millisecond {
		t.Errorf("Step(1s, 0, 300ms) = %v, expected 700ms", got)
	}
}

func TestStepConverges(t *testing.T) {
	v := 0.0
	for range 10 {
		v = Step(v, 1.0, 0.3)
	}
	if v != 1.0 {
		t.Errorf("expected convergence to 1.0, got %v", v)
	}
}

func BenchmarkStep(b *testing.B) {
	v := 0.0
	for b.Loop() {
		v = Step(v, 1.0, 1e-9)
	}
	_ = v
}
