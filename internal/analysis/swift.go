// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"math/cmplx"

	"spectrum/internal/bands"
)

// minResonatorWidth bounds the decay of the narrowest resonator, in Hz.
const minResonatorWidth = 1.0

// swiftBank is a sliding windowed infinite Fourier transform: one complex
// one-pole resonator per band, y[n] = x[n] + r*e^(i*w)*y[n-1], advanced on
// every mixed sample. The pole radius r = exp(-pi*bw/rate) gives an
// exponential window whose length follows the band's width.
type swiftBank struct {
	poles []complex128
	state []complex128
	gains []float64 // 2*(1-r): a full-scale sinusoid at the center reads 1.
}

func newSWIFTBank(s Settings, bs []bands.FrequencyBand) (*swiftBank, error) {
	b := &swiftBank{
		poles: make([]complex128, len(bs)),
		state: make([]complex128, len(bs)),
		gains: make([]float64, len(bs)),
	}
	for i, band := range bs {
		width := max(band.Hi-band.Lo, minResonatorWidth)
		r := math.Exp(-math.Pi * width / s.SampleRate)
		b.poles[i] = cmplx.Rect(r, 2*math.Pi*band.Center/s.SampleRate)
		b.gains[i] = 2 * (1 - r)
	}
	return b, nil
}

func (b *swiftBank) push(x float64) {
	in := complex(x, 0)
	for i, p := range b.poles {
		b.state[i] = in + p*b.state[i]
	}
}

func (b *swiftBank) analyze(ring *RingBuffer, bs []bands.FrequencyBand) error {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	for i := range bs {
		bs[i].Raw = b.gains[i] * cmplx.Abs(b.state[i])
	}
	return nil
}
