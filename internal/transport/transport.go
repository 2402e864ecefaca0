// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"time"

	"spectrum/internal/bands"
)

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// BandFrame is the message published once per analysis tick. Values and
// Peaks are display values in [0, 1], one per band, lowest band first.
type BandFrame struct {
	Type      string    `json:"type"`
	Sequence  uint64    `json:"seq"`
	Timestamp int64     `json:"ts"` // Nanoseconds since epoch.
	Centers   []float32 `json:"centers,omitempty"`
	Values    []float32 `json:"values"`
	Peaks     []float32 `json:"peaks"`
}

// BandFrameType is the Type of every BandFrame.
const BandFrameType = "bands"

// NewBandFrame converts a band snapshot into a frame. Centers are included
// only when withCenters is set, typically for the first frame after a layout
// change.
func NewBandFrame(seq uint64, at time.Time, bs []bands.FrequencyBand, withCenters bool) *BandFrame {
	f := &BandFrame{
		Type:      BandFrameType,
		Sequence:  seq,
		Timestamp: at.UnixNano(),
		Values:    make([]float32, len(bs)),
		Peaks:     make([]float32, len(bs)),
	}
	if withCenters {
		f.Centers = make([]float32, len(bs))
	}
	for i := range bs {
		f.Values[i] = float32(bs[i].Cur)
		if bs[i].HasMarker() {
			f.Peaks[i] = float32(bs[i].Peak)
		}
		if withCenters {
			f.Centers[i] = float32(bs[i].Center)
		}
	}
	return f
}

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")
