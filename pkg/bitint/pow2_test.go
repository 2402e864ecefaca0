// SPDX-License-Identifier: MIT
package bitint

import (
	"fmt"
	"testing"
)

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-10, 1},           // Negative number
		{0, 1},             // Zero
		{1, 1},             // One
		{8, 8},             // Already power of two
		{10, 16},           // Not power of two
		{1000, 1024},       // Typical transform size
		{3, 4},             // Small non-power
		{(1 << 20) + 1, 1 << 21}, // Large number
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			result := NextPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("NextPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestNearestPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{-4, 1},      // Negative number
		{0, 1},       // Zero
		{2, 2},       // Already power of two
		{3, 4},       // Tie rounds up
		{23, 16},     // Closer to the lower power
		{24, 32},     // Tie rounds up
		{25, 32},     // Closer to the upper power
		{1000, 1024}, // Typical duration-derived size
		{1400, 1024}, // 1400 is 376 above 1024 and 648 below 2048
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%d", tt.n, tt.expected), func(t *testing.T) {
			result := NearestPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("NearestPowerOfTwo(%d) = %d, expected %d", tt.n, result, tt.expected)
			}
		})
	}
}

func TestLog2(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{0, -1},
		{1, 0},
		{2, 1},
		{1023, 9},
		{1024, 10},
	}

	for _, tt := range tests {
		if result := Log2(tt.n); result != tt.expected {
			t.Errorf("Log2(%d) = %d, expected %d", tt.n, result, tt.expected)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n        int
		expected bool
	}{
		{-2, false},     // Negative number
		{0, false},      // Zero
		{1, true},       // One
		{8, true},       // Power of two
		{10, false},     // Not power of two
		{1 << 20, true}, // Large power of two
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d→%t", tt.n, tt.expected), func(t *testing.T) {
			result := IsPowerOfTwo(tt.n)
			if result != tt.expected {
				t.Errorf("IsPowerOfTwo(%d) = %v, expected %v", tt.n, result, tt.expected)
			}
		})
	}
}

func BenchmarkNextPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NextPowerOfTwo(i % 10000)
		i++
	}
}

func BenchmarkNearestPowerOfTwo(b *testing.B) {
	var i int
	b.ReportAllocs()
	for b.Loop() {
		NearestPowerOfTwo(i % 10000)
		i++
	}
}
