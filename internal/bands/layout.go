// SPDX-License-Identifier: MIT
package bands

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Distribution selects how band centers are placed.
type Distribution int

const (
	// Frequencies spreads Count bands evenly over [LoHz, HiHz] in the scaled domain.
	Frequencies Distribution = iota
	// Octaves places bands on a musical note grid.
	Octaves
)

func (d Distribution) String() string {
	switch d {
	case Frequencies:
		return "frequencies"
	case Octaves:
		return "octaves"
	default:
		return fmt.Sprintf("distribution(%d)", int(d))
	}
}

// ParseDistribution converts a name (case-insensitive) to a Distribution.
// Returns Frequencies and an error if the name is unknown.
func ParseDistribution(name string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "frequencies", "frequency":
		return Frequencies, nil
	case "octaves", "octave", "notes":
		return Octaves, nil
	default:
		return Frequencies, fmt.Errorf("unknown band distribution: '%s'", name)
	}
}

// Note numbers used by the octave distribution. Note 0 is C0.
const (
	NoteA4    = 57
	NoteC0    = 0
	NoteMax   = 12*10 - 1
	PitchA440 = 440.0
)

// LayoutConfig describes the band layout.
type LayoutConfig struct {
	Distribution Distribution
	Scale        Scale

	// Frequencies distribution.
	Count     int
	LoHz      float64
	HiHz      float64
	Bandwidth float64 // Half width in band steps; 0.5 tiles the range.

	// Octaves distribution.
	MinNote        int
	MaxNote        int
	BandsPerOctave int
	Pitch          float64 // Frequency of A4.
	Transpose      float64 // Semitones.
}

var (
	ErrInvalidCount     = errors.New("band count must be at least 1")
	ErrEmptyRange       = errors.New("band range is empty")
	ErrInvalidFrequency = errors.New("band frequencies must be positive")
	ErrInvalidBandwidth = errors.New("band width must be positive")
	ErrInvalidPitch     = errors.New("reference pitch must be positive")
	ErrInvalidNotes     = errors.New("invalid note range")
	ErrNonFiniteScale   = errors.New("scaling is not finite on the band range")
)

// Build lays out a freshly allocated band slice. Analysis state (Raw, Cur,
// peaks) starts at zero.
func Build(cfg LayoutConfig) ([]FrequencyBand, error) {
	if cfg.Bandwidth <= 0 || math.IsNaN(cfg.Bandwidth) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidBandwidth, cfg.Bandwidth)
	}
	switch cfg.Distribution {
	case Frequencies:
		return buildFrequencies(cfg)
	case Octaves:
		return buildOctaves(cfg)
	default:
		return nil, fmt.Errorf("unknown band distribution: %d", int(cfg.Distribution))
	}
}

func buildFrequencies(cfg LayoutConfig) ([]FrequencyBand, error) {
	if cfg.Count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, cfg.Count)
	}
	if !(cfg.LoHz > 0) || !(cfg.HiHz > 0) {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidFrequency, cfg.LoHz, cfg.HiHz)
	}
	if cfg.LoHz >= cfg.HiHz {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrEmptyRange, cfg.LoHz, cfg.HiHz)
	}

	lo, hi := cfg.Scale.Forward(cfg.LoHz), cfg.Scale.Forward(cfg.HiHz)
	if !isFinite(lo) || !isFinite(hi) || lo >= hi {
		return nil, fmt.Errorf("%w: %s maps [%g, %g] to [%g, %g]", ErrNonFiniteScale, cfg.Scale.Kind, cfg.LoHz, cfg.HiHz, lo, hi)
	}

	at := func(t float64) float64 {
		t = max(0, min(1, t))
		return cfg.Scale.Inverse(lo + t*(hi-lo))
	}

	count := float64(cfg.Count)
	out := make([]FrequencyBand, cfg.Count)
	for i := range out {
		pos := float64(i) + 0.5
		out[i] = FrequencyBand{
			Lo:     at((pos - cfg.Bandwidth) / count),
			Center: at(pos / count),
			Hi:     at((pos + cfg.Bandwidth) / count),
		}
	}
	return out, nil
}

func buildOctaves(cfg LayoutConfig) ([]FrequencyBand, error) {
	if cfg.BandsPerOctave < 1 {
		return nil, fmt.Errorf("%w: %d bands per octave", ErrInvalidCount, cfg.BandsPerOctave)
	}
	if !(cfg.Pitch > 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidPitch, cfg.Pitch)
	}
	if cfg.MinNote > cfg.MaxNote || cfg.MinNote < NoteC0 || cfg.MaxNote > NoteMax {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidNotes, cfg.MinNote, cfg.MaxNote)
	}

	bpo := float64(cfg.BandsPerOctave)
	step := 12 / bpo
	count := int(math.Floor(float64(cfg.MaxNote-cfg.MinNote)/step+1e-9)) + 1
	spread := math.Exp2(cfg.Bandwidth / bpo)

	out := make([]FrequencyBand, count)
	for i := range out {
		note := float64(cfg.MinNote) + float64(i)*step
		center := cfg.Pitch * math.Exp2((note-NoteA4+cfg.Transpose)/12)
		out[i] = FrequencyBand{
			Lo:     center / spread,
			Center: center,
			Hi:     center * spread,
		}
	}
	return out, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
