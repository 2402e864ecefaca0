// SPDX-License-Identifier: MIT
package smoothing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"spectrum/internal/bands"
	"spectrum/pkg/interp"
)

// PeakMode selects how a peak marker leaves its position after the hold.
type PeakMode int

const (
	// PeakNone disables peak markers.
	PeakNone PeakMode = iota
	// Classic falls linearly at Acceleration units per second.
	Classic
	// Gravity accelerates at Acceleration units per second squared.
	Gravity
	// AIMP closes a fixed share of the distance to the bar, at rate
	// Acceleration per second.
	AIMP
	// FadeOut stays in place and fades at Acceleration opacity per second.
	FadeOut
	// FadingAIMP combines the AIMP fall with FadeOut's fading.
	FadingAIMP
)

var peakModeNames = [...]string{
	PeakNone:   "none",
	Classic:    "classic",
	Gravity:    "gravity",
	AIMP:       "aimp",
	FadeOut:    "fade-out",
	FadingAIMP: "fading-aimp",
}

func (m PeakMode) String() string {
	if m < 0 || int(m) >= len(peakModeNames) {
		return fmt.Sprintf("peak-mode(%d)", int(m))
	}
	return peakModeNames[m]
}

// ParsePeakMode converts a name (case-insensitive) to a PeakMode. Returns
// Classic and an error if the name is unknown.
func ParsePeakMode(name string) (PeakMode, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	switch key {
	case "", "linear":
		return Classic, nil
	case "off":
		return PeakNone, nil
	case "fade", "fadeout":
		return FadeOut, nil
	}
	for i, n := range peakModeNames {
		if n == key {
			return PeakMode(i), nil
		}
	}
	return Classic, fmt.Errorf("unknown peak mode: '%s'", name)
}

var ErrInvalidTracker = errors.New("invalid peak tracker configuration")

// aimpSnap is the distance below which an AIMP peak lands on the bar.
const aimpSnap = 1e-4

// Tracker moves the peak markers of a band layout.
type Tracker struct {
	Mode         PeakMode
	HoldTime     time.Duration
	Acceleration float64
}

// NewTracker validates the tracker settings.
func NewTracker(mode PeakMode, hold time.Duration, acceleration float64) (*Tracker, error) {
	if mode < PeakNone || mode > FadingAIMP {
		return nil, fmt.Errorf("%w: mode %d", ErrInvalidTracker, int(mode))
	}
	if hold < 0 {
		return nil, fmt.Errorf("%w: negative hold time %v", ErrInvalidTracker, hold)
	}
	if mode != PeakNone && (!(acceleration > 0) || math.IsInf(acceleration, 0)) {
		return nil, fmt.Errorf("%w: acceleration %g must be positive", ErrInvalidTracker, acceleration)
	}
	return &Tracker{Mode: mode, HoldTime: hold, Acceleration: acceleration}, nil
}

// Advance updates every band's peak from its Cur value after dt.
func (t *Tracker) Advance(bs []bands.FrequencyBand, dt time.Duration) {
	if t.Mode == PeakNone {
		for i := range bs {
			b := &bs[i]
			b.Peak, b.PeakHold, b.PeakSpeed, b.Opacity = 0, 0, 0, 0
			b.PeakState = bands.PeakIdle
		}
		return
	}

	dt = max(0, dt)
	for i := range bs {
		t.advance(&bs[i], dt)
	}
}

func (t *Tracker) advance(b *bands.FrequencyBand, dt time.Duration) {
	v := b.Cur
	if v >= b.Peak {
		b.Peak = v
		b.PeakHold = t.HoldTime
		b.PeakSpeed = 0
		b.Opacity = 1
		b.PeakState = bands.PeakHeld
		return
	}

	if b.PeakHold > 0 {
		b.PeakHold = max(0, b.PeakHold-dt)
		b.PeakState = bands.PeakHeld
		return
	}

	b.PeakState = bands.PeakDecaying
	secs := dt.Seconds()
	acc := t.Acceleration

	switch t.Mode {
	case Classic:
		b.Peak -= acc * secs
	case Gravity:
		b.PeakSpeed += acc * secs
		b.Peak -= b.PeakSpeed * secs
	case AIMP, FadingAIMP:
		b.Peak -= (b.Peak - v) * -math.Expm1(-acc*secs)
		if b.Peak-v < aimpSnap {
			b.Peak = v
		}
	}

	if t.Mode == FadeOut || t.Mode == FadingAIMP {
		b.Opacity = interp.Step(b.Opacity, 0, acc*secs)
		if b.Opacity == 0 {
			b.Peak, b.PeakSpeed = 0, 0
			b.PeakState = bands.PeakIdle
			return
		}
	}

	b.Peak = max(b.Peak, v, 0)
}
