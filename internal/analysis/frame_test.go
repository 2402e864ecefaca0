// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum/internal/fft"
	"spectrum/internal/window"
	"spectrum/pkg/utils"
)

func mustWindow(t testing.TB, shape window.Shape, skew float64) window.Function {
	t.Helper()
	fn, err := window.New(shape, shape.DefaultParameter(), skew)
	require.NoError(t, err)
	return fn
}

func TestFrameBuilder_Rectangular(t *testing.T) {
	t.Parallel()
	b, err := NewFrameBuilder(4, mustWindow(t, window.Rectangular, 0))
	require.NoError(t, err)
	assert.Equal(t, 4, b.Size())
	assert.Equal(t, 4.0, b.Norm())

	r, err := NewRingBuffer(4, AllChannels)
	require.NoError(t, err)
	r.Add([]float32{1, 2, 3, 4, 5}, 5, FrontCenter)

	frame := make([]complex128, 4)
	require.NoError(t, b.Build(r, frame))
	for j, want := range []float64{2, 3, 4, 5} {
		assert.InDelta(t, want/math.Sqrt2, real(frame[j]), 1e-12, "sample %d", j)
		assert.Zero(t, imag(frame[j]))
	}
}

func TestFrameBuilder_PositiveNormForEveryShape(t *testing.T) {
	t.Parallel()
	for _, shape := range window.Shapes() {
		for _, n := range []int{2, 3, 16, 1024} {
			b, err := NewFrameBuilder(n, mustWindow(t, shape, 0))
			require.NoError(t, err, "%s N=%d", shape, n)
			assert.Greater(t, b.Norm(), 0.0, "%s N=%d", shape, n)
		}
	}
}

func TestFrameBuilder_OnBinSineReadsUnity(t *testing.T) {
	t.Parallel()
	const (
		n    = 256
		rate = 25600.0
		bin  = 20
	)
	for _, shape := range []window.Shape{window.Rectangular, window.Hann, window.Blackman, window.BlackmanHarris} {
		t.Run(shape.String(), func(t *testing.T) {
			t.Parallel()
			b, err := NewFrameBuilder(n, mustWindow(t, shape, 0))
			require.NoError(t, err)
			tr, err := fft.New(fft.Real, n)
			require.NoError(t, err)
			r, err := NewRingBuffer(n, AllChannels)
			require.NoError(t, err)

			sine := utils.GenerateSineWave(n, rate, fft.BinFrequency(bin, n, rate))
			r.Add(sine, n, FrontCenter)

			frame := make([]complex128, n)
			coeffs := make([]complex128, n)
			require.NoError(t, b.Build(r, frame))
			require.NoError(t, tr.Transform(coeffs, frame))
			// Samples pass through float32.
			assert.InDelta(t, 1.0, fft.Magnitude(coeffs, bin), 1e-6)
		})
	}
}

func TestFrameBuilder_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewFrameBuilder(1, mustWindow(t, window.Hann, 0))
	assert.True(t, errors.Is(err, ErrInvalidFrame))

	// A fully skewed flat-top window is negative almost everywhere.
	_, err = NewFrameBuilder(4, mustWindow(t, window.FlatTop, 1))
	assert.True(t, errors.Is(err, ErrZeroNorm), "got %v", err)

	b, err := NewFrameBuilder(8, mustWindow(t, window.Hann, 0))
	require.NoError(t, err)
	r, err := NewRingBuffer(8, AllChannels)
	require.NoError(t, err)
	err = b.Build(r, make([]complex128, 4))
	assert.True(t, errors.Is(err, ErrFrameSize))

	small, err := NewRingBuffer(4, AllChannels)
	require.NoError(t, err)
	err = b.Build(small, make([]complex128, 8))
	assert.True(t, errors.Is(err, ErrFrameSize))
}

func TestFrameBuilder_BuildDoesNotAllocate(t *testing.T) {
	b, err := NewFrameBuilder(1024, mustWindow(t, window.Hann, 0))
	require.NoError(t, err)
	r, err := NewRingBuffer(1024, AllChannels)
	require.NoError(t, err)
	frame := make([]complex128, 1024)

	allocs := testing.AllocsPerRun(100, func() {
		_ = b.Build(r, frame)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in frame build, got %.1f", allocs)
	}
}
