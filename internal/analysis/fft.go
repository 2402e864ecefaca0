// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"spectrum/internal/bands"
	"spectrum/internal/fft"
)

// fftTransform is the windowed-transform path: ring -> frame -> coefficients
// -> band mapper. Every buffer is allocated once, at construction.
type fftTransform struct {
	builder     *FrameBuilder
	transformer fft.Transformer
	mapper      *bands.Mapper

	frame  []complex128 // Windowed input.
	coeffs []complex128 // Normalized transform output.
}

func newFFTTransform(s Settings, bs []bands.FrequencyBand) (*fftTransform, error) {
	builder, err := NewFrameBuilder(s.Size, s.Window)
	if err != nil {
		return nil, err
	}
	transformer, err := fft.New(s.Engine, s.Size)
	if err != nil {
		return nil, err
	}
	mcfg := s.Mapper
	mcfg.FrameWindow = s.Window
	mapper, err := bands.NewMapper(mcfg, bs, s.Size, s.SampleRate)
	if err != nil {
		return nil, err
	}
	return &fftTransform{
		builder:     builder,
		transformer: transformer,
		mapper:      mapper,
		frame:       make([]complex128, s.Size),
		coeffs:      make([]complex128, s.Size),
	}, nil
}

func (t *fftTransform) analyze(ring *RingBuffer, bs []bands.FrequencyBand) error {
	// --- 1. Window the history ---
	if err := t.builder.Build(ring, t.frame); err != nil {
		return err
	}

	// --- 2. Transform ---
	if err := t.transformer.Transform(t.coeffs, t.frame); err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	// --- 3. Map onto bands ---
	return t.mapper.Map(t.coeffs, bs)
}
