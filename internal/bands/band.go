// SPDX-License-Identifier: MIT
//
// Package bands lays out perceptual frequency bands and maps transform
// coefficients onto them.
package bands

import "time"

// PeakState is the phase of a band's peak marker.
type PeakState int

const (
	// PeakIdle means no marker is shown.
	PeakIdle PeakState = iota
	// PeakHeld means the marker stays in place until its hold timer runs out.
	PeakHeld
	// PeakDecaying means the marker is falling (or fading) toward the bar.
	PeakDecaying
)

func (s PeakState) String() string {
	switch s {
	case PeakIdle:
		return "idle"
	case PeakHeld:
		return "held"
	case PeakDecaying:
		return "decaying"
	default:
		return "unknown"
	}
}

// FrequencyBand is one output bar of the analyzer.
type FrequencyBand struct {
	Lo     float64 // Lower edge (Hz).
	Center float64 // Center frequency (Hz).
	Hi     float64 // Upper edge (Hz).

	Raw   float64 // Linear magnitude written by the mapper, then weighted.
	Value float64 // Raw after amplitude scaling, in [0, 1].
	Cur   float64 // Smoothed display value, in [0, 1].

	Peak      float64
	PeakHold  time.Duration // Hold time left.
	PeakState PeakState
	PeakSpeed float64 // Fall speed for gravity decay, per second.
	Opacity   float64 // Marker opacity, in [0, 1].
}

// HasMarker reports whether the band shows a visible, non-zero peak marker.
func (b *FrequencyBand) HasMarker() bool {
	return b.PeakState != PeakIdle && b.Peak > 0 && b.Opacity > 0
}

// Width returns Hi - Lo.
func (b *FrequencyBand) Width() float64 {
	return b.Hi - b.Lo
}
