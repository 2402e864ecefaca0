// SPDX-License-Identifier: MIT
//
// Package smoothing carries the temporal state of the bands between ticks:
// the smoothed display value and the peak markers.
package smoothing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"spectrum/internal/bands"
)

// Method selects how Cur follows the scaled value.
type Method int

const (
	// NoSmoothing copies the value.
	NoSmoothing Method = iota
	// Average is an exponential moving average weighted by Factor.
	Average
	// PeakHold jumps up immediately and falls by Factor per tick.
	PeakHold
)

func (m Method) String() string {
	switch m {
	case NoSmoothing:
		return "none"
	case Average:
		return "average"
	case PeakHold:
		return "peak"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod converts a name (case-insensitive) to a Method. Returns Average
// and an error if the name is unknown.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off":
		return NoSmoothing, nil
	case "", "average", "ema":
		return Average, nil
	case "peak", "peak-hold", "peakhold":
		return PeakHold, nil
	default:
		return Average, fmt.Errorf("unknown smoothing method: '%s'", name)
	}
}

var ErrInvalidFactor = errors.New("smoothing factor must be within [0, 1]")

// Smoother updates Cur from Value. The first Advance after construction or
// Reset seeds Cur with the value so a new layout does not sweep up from 0.
type Smoother struct {
	Method Method
	Factor float64

	primed bool
}

// NewSmoother validates method and factor.
func NewSmoother(method Method, factor float64) (*Smoother, error) {
	if method < NoSmoothing || method > PeakHold {
		return nil, fmt.Errorf("unknown smoothing method: %d", int(method))
	}
	if math.IsNaN(factor) || factor < 0 || factor > 1 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidFactor, factor)
	}
	return &Smoother{Method: method, Factor: factor}, nil
}

// Reset makes the next Advance seed Cur again.
func (s *Smoother) Reset() {
	s.primed = false
}

// Advance updates Cur for every band. The step is per tick, so dt is unused
// by the current methods.
func (s *Smoother) Advance(bs []bands.FrequencyBand, _ time.Duration) {
	if !s.primed {
		for i := range bs {
			bs[i].Cur = bs[i].Value
		}
		s.primed = true
		return
	}

	f := s.Factor
	for i := range bs {
		b := &bs[i]
		v := b.Value
		switch s.Method {
		case Average:
			b.Cur = b.Cur*(1-f) + v*f
		case PeakHold:
			if v > b.Cur {
				b.Cur = v
			} else {
				b.Cur = max(v, b.Cur*f)
			}
		default:
			b.Cur = v
		}
		b.Cur = max(0, min(1, b.Cur))
	}
}
