// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"
	"math/cmplx"

	"spectrum/pkg/bitint"

	"github.com/argusdusty/gofft"
	dspfft "github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// realTransformer runs the gonum real-input FFT on the real part of the frame
// and reconstructs the upper half by conjugate symmetry.
type realTransformer struct {
	n    int
	plan *fourier.FFT
	in   []float64    // Real part of the frame.
	half []complex128 // N/2 + 1 coefficients from the plan.
}

func newRealTransformer(n int) *realTransformer {
	return &realTransformer{
		n:    n,
		plan: fourier.NewFFT(n),
		in:   make([]float64, n),
		half: make([]complex128, n/2+1),
	}
}

func (t *realTransformer) Size() int { return t.n }

func (t *realTransformer) Transform(dst, frame []complex128) error {
	if err := checkLengths(t.n, dst, frame); err != nil {
		return err
	}
	for i, c := range frame {
		t.in[i] = real(c)
	}
	t.plan.Coefficients(t.half, t.in)

	copy(dst, t.half)
	for k := len(t.half); k < t.n; k++ {
		dst[k] = cmplx.Conj(dst[t.n-k])
	}
	scale(dst)
	return nil
}

// complexTransformer uses go-dsp, which falls back to Bluestein's algorithm
// for sizes that are not powers of two.
type complexTransformer struct {
	n int
}

func newComplexTransformer(n int) *complexTransformer {
	return &complexTransformer{n: n}
}

func (t *complexTransformer) Size() int { return t.n }

func (t *complexTransformer) Transform(dst, frame []complex128) error {
	if err := checkLengths(t.n, dst, frame); err != nil {
		return err
	}
	copy(dst, dspfft.FFT(frame))
	scale(dst)
	return nil
}

// radix2Transformer runs gofft in place on dst.
type radix2Transformer struct {
	n int
}

func newRadix2Transformer(n int) (*radix2Transformer, error) {
	if !bitint.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: radix-2 engine needs a power of two, got %d", ErrInvalidSize, n)
	}
	if err := gofft.Prepare(n); err != nil {
		return nil, fmt.Errorf("failed to prepare radix-2 plan for %d points: %w", n, err)
	}
	return &radix2Transformer{n: n}, nil
}

func (t *radix2Transformer) Size() int { return t.n }

func (t *radix2Transformer) Transform(dst, frame []complex128) error {
	if err := checkLengths(t.n, dst, frame); err != nil {
		return err
	}
	copy(dst, frame)
	if err := gofft.FFT(dst); err != nil {
		return fmt.Errorf("radix-2 transform failed: %w", err)
	}
	scale(dst)
	return nil
}
