// SPDX-License-Identifier: MIT
package analysis

import "spectrum/internal/bands"

// bandTransform is one spectral transform kind. It writes the Raw value of
// every band for one tick. Implementations own their scratch buffers and are
// only called with the analyzer's pipeline lock held.
type bandTransform interface {
	analyze(ring *RingBuffer, bs []bands.FrequencyBand) error
}

// sampleConsumer is implemented by transforms that update their state on
// every mixed sample. push runs on the audio thread under the ring's lock, so
// it must be allocation free and bounded.
type sampleConsumer interface {
	push(x float64)
}

// Compile-time checks for interface implementations.
var (
	_ bandTransform  = (*fftTransform)(nil)
	_ bandTransform  = (*cqtTransform)(nil)
	_ bandTransform  = (*swiftBank)(nil)
	_ bandTransform  = (*analogBank)(nil)
	_ sampleConsumer = (*swiftBank)(nil)
	_ sampleConsumer = (*analogBank)(nil)
)

// newTransform builds the transform selected by s.Kind for the layout bs.
func newTransform(s Settings, bs []bands.FrequencyBand) (bandTransform, error) {
	switch s.Kind {
	case KindFFT:
		return newFFTTransform(s, bs)
	case KindCQT:
		return newCQTTransform(s, bs)
	case KindSWIFT:
		return newSWIFTBank(s, bs)
	case KindAnalog:
		return newAnalogBank(s, bs)
	default:
		return nil, errUnknownKind(s.Kind)
	}
}
