// SPDX-License-Identifier: MIT
//
// Package weighting applies a frequency-dependent gain to band magnitudes: a
// psychoacoustic weighting curve, a spectral tilt and a bell-shaped
// equalizer, all summed in decibels.
package weighting

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"spectrum/internal/bands"
)

// Curve selects the psychoacoustic weighting curve.
type Curve int

const (
	None Curve = iota
	A          // IEC 61672 A-weighting.
	B          // IEC 60651 B-weighting.
	C          // IEC 61672 C-weighting.
	D          // IEC 537 D-weighting.
	M          // ITU-R 468 noise weighting.
)

func (c Curve) String() string {
	switch c {
	case None:
		return "none"
	case A:
		return "a"
	case B:
		return "b"
	case C:
		return "c"
	case D:
		return "d"
	case M:
		return "m"
	default:
		return fmt.Sprintf("curve(%d)", int(c))
	}
}

// ParseCurve converts a name (case-insensitive) to a Curve. Returns None and
// an error if the name is unknown.
func ParseCurve(name string) (Curve, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(strings.TrimSuffix(key, "-weighting"), "-weight")
	switch key {
	case "", "none", "off", "flat":
		return None, nil
	case "a":
		return A, nil
	case "b":
		return B, nil
	case "c":
		return C, nil
	case "d":
		return D, nil
	case "m", "itu-r 468", "itu-r-468", "468":
		return M, nil
	default:
		return None, fmt.Errorf("unknown weighting curve: '%s'", name)
	}
}

// Config holds the weighting settings. Amounts scale their term and lie in
// [-1, 1]; a negative amount inverts it.
type Config struct {
	Curve           Curve
	WeightingAmount float64

	Slope       float64 // dB per octave.
	SlopeAmount float64
	SlopeOffset float64 // Frequency (Hz) at which the slope is 0 dB.

	EqualizeAmount float64
	EqualizeDepth  float64 // Peak gain (dB).
	EqualizeOffset float64 // Bell center (Hz).
	EqualizeWidth  float64 // Bell standard deviation in octaves.
}

// DefaultConfig returns a flat response.
func DefaultConfig() Config {
	return Config{
		Curve:          None,
		SlopeOffset:    1000,
		EqualizeOffset: 1000,
		EqualizeWidth:  1,
	}
}

var ErrInvalidConfig = errors.New("invalid weighting configuration")

// Weighting is an immutable, validated weighting stage.
type Weighting struct {
	cfg Config
}

// New validates cfg.
func New(cfg Config) (*Weighting, error) {
	for name, amount := range map[string]float64{
		"weighting amount": cfg.WeightingAmount,
		"slope amount":     cfg.SlopeAmount,
		"equalize amount":  cfg.EqualizeAmount,
	} {
		if math.IsNaN(amount) || amount < -1 || amount > 1 {
			return nil, fmt.Errorf("%w: %s %g outside [-1, 1]", ErrInvalidConfig, name, amount)
		}
	}
	if cfg.Curve < None || cfg.Curve > M {
		return nil, fmt.Errorf("%w: curve %d", ErrInvalidConfig, int(cfg.Curve))
	}
	if !(cfg.SlopeOffset > 0) || !(cfg.EqualizeOffset > 0) || !(cfg.EqualizeWidth > 0) {
		return nil, fmt.Errorf("%w: offsets and width must be positive", ErrInvalidConfig)
	}
	if math.IsNaN(cfg.Slope) || math.IsNaN(cfg.EqualizeDepth) {
		return nil, fmt.Errorf("%w: slope and depth must be numbers", ErrInvalidConfig)
	}
	return &Weighting{cfg: cfg}, nil
}

// Config returns the validated settings.
func (w *Weighting) Config() Config {
	return w.cfg
}

// Decibels returns the total gain (dB) at frequency f.
func (w *Weighting) Decibels(f float64) float64 {
	if !(f > 0) {
		return 0
	}
	cfg := w.cfg
	var db float64
	if cfg.WeightingAmount != 0 {
		db += cfg.WeightingAmount * CurveDecibels(cfg.Curve, f)
	}
	if cfg.SlopeAmount != 0 {
		db += cfg.SlopeAmount * cfg.Slope * math.Log2(f/cfg.SlopeOffset)
	}
	if cfg.EqualizeAmount != 0 {
		x := math.Log2(f/cfg.EqualizeOffset) / cfg.EqualizeWidth
		db += cfg.EqualizeAmount * cfg.EqualizeDepth * math.Exp(-0.5*x*x)
	}
	return db
}

// Gain returns the linear amplitude gain at frequency f.
func (w *Weighting) Gain(f float64) float64 {
	return math.Pow(10, w.Decibels(f)/20)
}

// Apply multiplies every band's Raw value by the gain at its center.
func (w *Weighting) Apply(bs []bands.FrequencyBand) {
	if w.cfg.WeightingAmount == 0 && w.cfg.SlopeAmount == 0 && w.cfg.EqualizeAmount == 0 {
		return
	}
	for i := range bs {
		g := w.Gain(bs[i].Center)
		if math.IsInf(g, 0) || math.IsNaN(g) {
			g = 0
		}
		bs[i].Raw *= g
	}
}
