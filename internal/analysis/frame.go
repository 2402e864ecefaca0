// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"

	"spectrum/internal/window"
)

var (
	ErrZeroNorm     = errors.New("window sum is not positive")
	ErrFrameSize    = errors.New("frame size does not match")
	ErrInvalidFrame = errors.New("frame size must be at least 2")
)

// FrameBuilder turns the ring history into a windowed complex frame. Weights
// and the normalization factor are computed once, at construction.
type FrameBuilder struct {
	weights []float64
	norm    float64 // Sum of the weights.
	factor  float64 // N / norm / sqrt(2).
}

// NewFrameBuilder evaluates fn at the periodic positions of an n-point frame.
// A window that sums to zero (or less) cannot be normalized and is rejected
// with ErrZeroNorm.
func NewFrameBuilder(n int, fn window.Function) (*FrameBuilder, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrame, n)
	}

	weights := make([]float64, n)
	norm := fn.Fill(weights)
	if !(norm > 0) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: %s window over %d points sums to %g", ErrZeroNorm, fn.Shape, n, norm)
	}

	return &FrameBuilder{
		weights: weights,
		norm:    norm,
		factor:  float64(n) / norm / math.Sqrt2,
	}, nil
}

// Size returns the frame length N.
func (b *FrameBuilder) Size() int {
	return len(b.weights)
}

// Norm returns the sum of the window weights.
func (b *FrameBuilder) Norm() float64 {
	return b.norm
}

// Weights exposes the precomputed window. Callers must not modify it.
func (b *FrameBuilder) Weights() []float64 {
	return b.weights
}

// Build writes frame[j] = sample_j * w_j * factor, walking the ring oldest to
// newest under its lock. Both the ring and the frame must hold N samples.
func (b *FrameBuilder) Build(ring *RingBuffer, frame []complex128) error {
	n := len(b.weights)
	if len(frame) != n || ring.Capacity() != n {
		return fmt.Errorf("%w: frame %d, ring %d, builder %d", ErrFrameSize, len(frame), ring.Capacity(), n)
	}

	ring.mu.Lock()
	idx := ring.cursor
	for j, w := range b.weights {
		frame[j] = complex(ring.data[idx]*w*b.factor, 0)
		idx++
		if idx == n {
			idx = 0
		}
	}
	ring.mu.Unlock()

	return nil
}
