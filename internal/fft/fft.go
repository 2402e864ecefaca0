// SPDX-License-Identifier: MIT
//
// Package fft implements the forward transform stage: a swappable engine that
// turns an N-point complex frame into N coefficients scaled by 2/N, with DC at
// index 0, Nyquist at N/2 and the mirror image above it.
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"time"

	"spectrum/pkg/bitint"
)

// Size limits accepted by every engine.
const (
	MinSize = 2
	MaxSize = 1 << 20
)

// Engine selects the transform implementation.
type Engine int

const (
	// Real uses a real-input transform and fills the mirror half by symmetry.
	Real Engine = iota
	// Complex uses a generic complex transform that handles any size.
	Complex
	// Radix2 uses an in-place radix-2 transform; sizes must be powers of two.
	Radix2
)

func (e Engine) String() string {
	switch e {
	case Real:
		return "real"
	case Complex:
		return "complex"
	case Radix2:
		return "radix2"
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// ParseEngine converts a string name (case-insensitive) to an Engine.
// Returns Real and an error if the name is unknown.
func ParseEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "real", "gonum":
		return Real, nil
	case "complex", "bluestein":
		return Complex, nil
	case "radix2", "radix-2", "pow2":
		return Radix2, nil
	default:
		return Real, fmt.Errorf("%w: '%s'", ErrUnknownEngine, name)
	}
}

var (
	ErrInvalidSize   = errors.New("invalid transform size")
	ErrSizeMismatch  = errors.New("frame length does not match transform size")
	ErrUnknownEngine = errors.New("unknown transform engine")
)

// Transformer computes the normalized forward transform of a fixed size.
// Implementations own their plan state and are not safe for concurrent use.
type Transformer interface {
	// Size returns the number of points N.
	Size() int
	// Transform writes the N coefficients of frame, divided by N/2, into dst.
	Transform(dst, frame []complex128) error
}

// New builds a transformer for n points. Changing the size always requires a
// new transformer; plans are never resized in place.
func New(engine Engine, n int) (Transformer, error) {
	if n < MinSize || n > MaxSize {
		return nil, fmt.Errorf("%w: %d (must be within [%d, %d])", ErrInvalidSize, n, MinSize, MaxSize)
	}

	switch engine {
	case Real:
		return newRealTransformer(n), nil
	case Complex:
		return newComplexTransformer(n), nil
	case Radix2:
		t, err := newRadix2Transformer(n)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEngine, int(engine))
	}
}

// SizeForDuration converts an analysis window length into a transform size
// that the engine accepts.
func SizeForDuration(d time.Duration, sampleRate float64, engine Engine) int {
	n := int(math.Round(d.Seconds() * sampleRate))
	n = max(MinSize, min(n, MaxSize))
	if engine == Radix2 {
		n = bitint.NearestPowerOfTwo(n)
	}
	return n
}

// BinFrequency returns the frequency (Hz) of bin k in an n-point transform.
func BinFrequency(k, n int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(n)
}

// Magnitude returns the amplitude of bin k with its negative-frequency mirror
// folded back in, so an on-bin full-scale sinusoid reads 1.0 after the frame
// builder's 1/sqrt(2) gain. Only 0 <= k <= N/2 is meaningful.
func Magnitude(coeffs []complex128, k int) float64 {
	n := len(coeffs)
	if k < 0 || k > n/2 {
		return 0
	}
	if k == 0 || 2*k == n {
		return cmplx.Abs(coeffs[k])
	}
	a, b := coeffs[k], coeffs[n-k]
	return math.Sqrt(real(a)*real(a) + imag(a)*imag(a) + real(b)*real(b) + imag(b)*imag(b))
}

// Magnitudes fills dst[k] = Magnitude(coeffs, k) for k in [0, len(dst)).
func Magnitudes(dst []float64, coeffs []complex128) {
	for k := range dst {
		dst[k] = Magnitude(coeffs, k)
	}
}

func checkLengths(n int, dst, frame []complex128) error {
	if len(frame) != n || len(dst) != n {
		return fmt.Errorf("%w: frame %d, dst %d, size %d", ErrSizeMismatch, len(frame), len(dst), n)
	}
	return nil
}

func scale(dst []complex128) {
	f := complex(2/float64(len(dst)), 0)
	for i := range dst {
		dst[i] *= f
	}
}
