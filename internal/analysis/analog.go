// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"spectrum/internal/bands"
)

// Envelope follower time constant bounds, in seconds.
const (
	minEnvelopeTime = 0.010
	envelopeCycles  = 2.0 // Time constant in periods of the band's width.
)

// biquad is a direct form I second-order section with a0 normalized to 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

// bandPass returns the constant 0 dB peak gain band-pass section centered at
// center with Q = center/width.
func bandPass(center, width, sampleRate float64) biquad {
	w0 := 2 * math.Pi * center / sampleRate
	q := center / width
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return biquad{
		b0: alpha / a0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(w0) / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// analogBank models an analog spectrum analyzer: a band-pass filter and a
// mean-square envelope follower per band. Bands centered at or above Nyquist
// stay silent.
type analogBank struct {
	filters []biquad
	active  []bool
	env     []float64 // Mean square of the filter output.
	coef    []float64 // Per-sample envelope smoothing factor.
}

func newAnalogBank(s Settings, bs []bands.FrequencyBand) (*analogBank, error) {
	b := &analogBank{
		filters: make([]biquad, len(bs)),
		active:  make([]bool, len(bs)),
		env:     make([]float64, len(bs)),
		coef:    make([]float64, len(bs)),
	}
	nyquist := s.SampleRate / 2
	for i, band := range bs {
		if band.Center <= 0 || band.Center >= nyquist {
			continue
		}
		width := max(band.Hi-band.Lo, minResonatorWidth)
		b.filters[i] = bandPass(band.Center, width, s.SampleRate)
		b.active[i] = true

		tau := max(minEnvelopeTime, envelopeCycles/width)
		b.coef[i] = 1 - math.Exp(-1/(tau*s.SampleRate))
	}
	return b, nil
}

func (b *analogBank) push(x float64) {
	for i := range b.filters {
		if !b.active[i] {
			continue
		}
		y := b.filters[i].process(x)
		b.env[i] += (y*y - b.env[i]) * b.coef[i]
	}
}

func (b *analogBank) analyze(ring *RingBuffer, bs []bands.FrequencyBand) error {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	for i := range bs {
		// A sinusoid of amplitude A has mean square A^2/2.
		bs[i].Raw = math.Sqrt(2 * b.env[i])
	}
	return nil
}
