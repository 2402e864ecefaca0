// SPDX-License-Identifier: MIT
//
// Package amplitude maps linear band magnitudes onto the [0, 1] display
// range.
package amplitude

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Scaler maps a linear magnitude to [0, 1]. Level is the inverse, used to
// label axes.
type Scaler interface {
	Scale(m float64) float64
	Level(y float64) float64
}

// Kind selects the scaler variant.
type Kind int

const (
	KindNormalized Kind = iota
	KindDecibel
	KindLinear
)

func (k Kind) String() string {
	switch k {
	case KindNormalized:
		return "normalized"
	case KindDecibel:
		return "decibel"
	case KindLinear:
		return "linear"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a name (case-insensitive) to a Kind. Returns
// KindDecibel and an error if the name is unknown.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normalized", "none":
		return KindNormalized, nil
	case "", "decibel", "db", "log":
		return KindDecibel, nil
	case "linear", "root", "nth-root":
		return KindLinear, nil
	default:
		return KindDecibel, fmt.Errorf("unknown amplitude scale: '%s'", name)
	}
}

// Config holds every variant's settings; New picks the ones Kind needs.
type Config struct {
	Kind        Kind
	MinDB       float64
	MaxDB       float64
	Gamma       float64 // Root taken by Linear; 1 is plain linear.
	UseAbsolute bool    // Linear starts at 0 instead of MinDB.
}

// DefaultConfig returns a -70..0 dB decibel scale.
func DefaultConfig() Config {
	return Config{Kind: KindDecibel, MinDB: -70, MaxDB: 0, Gamma: 1}
}

var ErrInvalidRange = errors.New("invalid amplitude range")

// New validates cfg and returns the selected variant.
func New(cfg Config) (Scaler, error) {
	if cfg.Kind == KindNormalized {
		return Normalized{}, nil
	}
	if math.IsNaN(cfg.MinDB) || math.IsNaN(cfg.MaxDB) || math.IsInf(cfg.MinDB, 0) || math.IsInf(cfg.MaxDB, 0) {
		return nil, fmt.Errorf("%w: [%g, %g] dB", ErrInvalidRange, cfg.MinDB, cfg.MaxDB)
	}
	if cfg.MinDB == cfg.MaxDB {
		return nil, fmt.Errorf("%w: empty range at %g dB", ErrInvalidRange, cfg.MinDB)
	}
	if cfg.MinDB > cfg.MaxDB {
		return nil, fmt.Errorf("%w: minimum %g dB above maximum %g dB", ErrInvalidRange, cfg.MinDB, cfg.MaxDB)
	}

	switch cfg.Kind {
	case KindDecibel:
		return Decibel{MinDB: cfg.MinDB, MaxDB: cfg.MaxDB}, nil
	case KindLinear:
		if !(cfg.Gamma > 0) || math.IsInf(cfg.Gamma, 0) {
			return nil, fmt.Errorf("%w: gamma %g must be positive", ErrInvalidRange, cfg.Gamma)
		}
		return Linear{MinDB: cfg.MinDB, MaxDB: cfg.MaxDB, Gamma: cfg.Gamma, UseAbsolute: cfg.UseAbsolute}, nil
	default:
		return nil, fmt.Errorf("unknown amplitude scale: %d", int(cfg.Kind))
	}
}

func clamp01(y float64) float64 {
	if math.IsNaN(y) {
		return 0
	}
	return max(0, min(1, y))
}

// Normalized passes magnitudes through, clamped to [0, 1].
type Normalized struct{}

func (Normalized) Scale(m float64) float64 { return clamp01(m) }
func (Normalized) Level(y float64) float64 { return clamp01(y) }

// Decibel maps [MinDB, MaxDB] linearly onto [0, 1].
type Decibel struct {
	MinDB, MaxDB float64
}

// Scale returns 0 for silence without taking a logarithm.
func (d Decibel) Scale(m float64) float64 {
	m = math.Abs(m)
	if m == 0 {
		return 0
	}
	db := 20 * math.Log10(m)
	return clamp01((db - d.MinDB) / (d.MaxDB - d.MinDB))
}

func (d Decibel) Level(y float64) float64 {
	y = clamp01(y)
	return math.Pow(10, (d.MinDB+y*(d.MaxDB-d.MinDB))/20)
}

// Linear maps |m|^(1/Gamma) between the roots of the range edges.
type Linear struct {
	MinDB, MaxDB float64
	Gamma        float64
	UseAbsolute  bool
}

func (l Linear) bounds() (lo, hi float64) {
	hi = math.Pow(math.Pow(10, l.MaxDB/20), 1/l.Gamma)
	if !l.UseAbsolute {
		lo = math.Pow(math.Pow(10, l.MinDB/20), 1/l.Gamma)
	}
	return lo, hi
}

func (l Linear) Scale(m float64) float64 {
	lo, hi := l.bounds()
	return clamp01((math.Pow(math.Abs(m), 1/l.Gamma) - lo) / (hi - lo))
}

func (l Linear) Level(y float64) float64 {
	lo, hi := l.bounds()
	return math.Pow(lo+clamp01(y)*(hi-lo), l.Gamma)
}
