// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"spectrum/internal/bands"
)

// minCQTLength keeps every kernel long enough for a non-zero window sum.
const minCQTLength = 2

// cqtTransform evaluates a single DFT term at each band's center over the
// newest L samples of the history, L = min(N, Q * rate / center) with
// Q = center / bandwidth. Kernels carry the window and the 2/sum(w) gain, so
// a full-scale sinusoid at the center reads 1.
type cqtTransform struct {
	history []float64
	kernels []complex128 // All band kernels, back to back.
	offsets []int        // Start of band i's kernel in kernels.
	lengths []int
}

func newCQTTransform(s Settings, bs []bands.FrequencyBand) (*cqtTransform, error) {
	n := s.Size
	if n < minCQTLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrame, n)
	}

	t := &cqtTransform{
		history: make([]float64, n),
		offsets: make([]int, len(bs)),
		lengths: make([]int, len(bs)),
	}

	total := 0
	for i, b := range bs {
		l := n
		if width := b.Hi - b.Lo; width > 0 {
			l = min(n, int(math.Round(s.SampleRate/width)))
		}
		l = max(minCQTLength, l)
		t.offsets[i] = total
		t.lengths[i] = l
		total += l
	}
	t.kernels = make([]complex128, total)

	weights := make([]float64, n)
	for i, b := range bs {
		l := t.lengths[i]
		w := weights[:l]
		sum := s.Window.Fill(w)
		if !(sum > 0) {
			return nil, fmt.Errorf("%w: %s window over %d points for band at %.1f Hz", ErrZeroNorm, s.Window.Shape, l, b.Center)
		}

		omega := 2 * math.Pi * b.Center / s.SampleRate
		gain := 2 / sum
		kernel := t.kernels[t.offsets[i] : t.offsets[i]+l]
		for j := range kernel {
			kernel[j] = cmplx.Rect(w[j]*gain, -omega*float64(j))
		}
	}
	return t, nil
}

func (t *cqtTransform) analyze(ring *RingBuffer, bs []bands.FrequencyBand) error {
	if ring.Capacity() != len(t.history) || len(bs) != len(t.lengths) {
		return fmt.Errorf("%w: ring %d, history %d, bands %d/%d", ErrFrameSize, ring.Capacity(), len(t.history), len(bs), len(t.lengths))
	}
	ring.CopyOrdered(t.history)

	n := len(t.history)
	for i := range bs {
		l := t.lengths[i]
		samples := t.history[n-l:]
		kernel := t.kernels[t.offsets[i] : t.offsets[i]+l]
		var acc complex128
		for j, k := range kernel {
			acc += complex(samples[j], 0) * k
		}
		bs[i].Raw = cmplx.Abs(acc)
	}
	return nil
}
