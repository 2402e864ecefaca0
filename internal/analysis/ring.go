// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"sync"
)

// ChannelMask has one bit per speaker position. It describes both the layout
// of an interleaved stream and which of its channels feed the analysis.
type ChannelMask uint32

// Speaker positions in interleaving order.
const (
	FrontLeft ChannelMask = 1 << iota
	FrontRight
	FrontCenter
	LowFrequency
	BackLeft
	BackRight
	FrontLeftOfCenter
	FrontRightOfCenter
	BackCenter
	SideLeft
	SideRight
	TopCenter
	TopFrontLeft
	TopFrontCenter
	TopFrontRight
	TopBackLeft
	TopBackCenter
	TopBackRight

	AllChannels ChannelMask = 1<<32 - 1
)

var channelNames = map[string]ChannelMask{
	"fl":  FrontLeft,
	"fr":  FrontRight,
	"fc":  FrontCenter,
	"lfe": LowFrequency,
	"bl":  BackLeft,
	"br":  BackRight,
	"flc": FrontLeftOfCenter,
	"frc": FrontRightOfCenter,
	"bc":  BackCenter,
	"sl":  SideLeft,
	"sr":  SideRight,
	"tc":  TopCenter,
	"tfl": TopFrontLeft,
	"tfc": TopFrontCenter,
	"tfr": TopFrontRight,
	"tbl": TopBackLeft,
	"tbc": TopBackCenter,
	"tbr": TopBackRight,
}

// Count returns the number of channels in the mask.
func (m ChannelMask) Count() int {
	return bits.OnesCount32(uint32(m))
}

// ParseChannels converts a list of speaker names ("fl", "fr", "lfe", ...)
// into a mask. An empty list or "all" selects every channel.
func ParseChannels(names []string) (ChannelMask, error) {
	if len(names) == 0 {
		return AllChannels, nil
	}
	var mask ChannelMask
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "all" {
			return AllChannels, nil
		}
		bit, ok := channelNames[key]
		if !ok {
			return 0, fmt.Errorf("unknown channel name: '%s'", name)
		}
		mask |= bit
	}
	return mask, nil
}

// LayoutForChannels returns the conventional speaker layout of an interleaved
// stream with n channels.
func LayoutForChannels(n int) ChannelMask {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return FrontCenter
	case n == 2:
		return FrontLeft | FrontRight
	case n == 3:
		return FrontLeft | FrontRight | FrontCenter
	case n == 4:
		return FrontLeft | FrontRight | BackLeft | BackRight
	case n == 5:
		return FrontLeft | FrontRight | FrontCenter | BackLeft | BackRight
	case n == 6:
		return FrontLeft | FrontRight | FrontCenter | LowFrequency | BackLeft | BackRight
	case n == 8:
		return FrontLeft | FrontRight | FrontCenter | LowFrequency | BackLeft | BackRight | SideLeft | SideRight
	case n >= 32:
		return AllChannels
	default:
		return ChannelMask(1<<n - 1)
	}
}

var ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")

// RingBuffer is the fixed-capacity mono sample history shared between the
// audio callback (Add) and the analysis tick (CopyOrdered). A single mutex
// guards the samples, the cursor and the tap.
type RingBuffer struct {
	mu        sync.Mutex
	data      []float64
	cursor    int // Next write position, always in [0, len(data)).
	selection ChannelMask
	tap       func(float64)
}

// NewRingBuffer returns a zero-filled buffer holding capacity samples that
// mixes the channels in selection.
func NewRingBuffer(capacity int, selection ChannelMask) (*RingBuffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &RingBuffer{
		data:      make([]float64, capacity),
		selection: selection,
	}, nil
}

// Capacity returns the number of samples held.
func (r *RingBuffer) Capacity() int {
	return len(r.data)
}

// Selection returns the channel selection mask.
func (r *RingBuffer) Selection() ChannelMask {
	return r.selection
}

// SetTap installs a function called with every mixed sample, under the
// buffer's lock. Pass nil to remove it.
func (r *RingBuffer) SetTap(tap func(float64)) {
	r.mu.Lock()
	r.tap = tap
	r.mu.Unlock()
}

// Add mixes sampleCount interleaved samples laid out as described by layout
// into the buffer. A trailing partial frame is dropped. Nil or empty input and
// an empty layout are no-ops.
func (r *RingBuffer) Add(samples []float32, sampleCount int, layout ChannelMask) {
	channels := layout.Count()
	if len(samples) == 0 || sampleCount <= 0 || channels == 0 {
		return
	}
	sampleCount = min(sampleCount, len(samples))
	frames := sampleCount / channels

	// Indices of the selected channels within one interleaved frame.
	var picked [32]int
	n := 0
	ch := 0
	for bit := range 32 {
		m := ChannelMask(1) << bit
		if layout&m == 0 {
			continue
		}
		if r.selection&m != 0 {
			picked[n] = ch
			n++
		}
		ch++
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for f := range frames {
		var value float64
		if n > 0 {
			frame := samples[f*channels : (f+1)*channels]
			var sum float64
			for _, idx := range picked[:n] {
				sum += float64(frame[idx])
			}
			value = sum / float64(n)
		}
		r.data[r.cursor] = value
		r.cursor++
		if r.cursor == len(r.data) {
			r.cursor = 0
		}
		if r.tap != nil {
			r.tap(value)
		}
	}
}

// CopyOrdered copies the buffer oldest-to-newest into dst, which must hold
// Capacity() samples.
func (r *RingBuffer) CopyOrdered(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copyOrderedLocked(dst)
}

func (r *RingBuffer) copyOrderedLocked(dst []float64) {
	n := copy(dst, r.data[r.cursor:])
	copy(dst[n:], r.data[:r.cursor])
}

// Resized returns a new buffer of the given capacity and selection that
// starts with the newest samples of r.
func (r *RingBuffer) Resized(capacity int, selection ChannelMask) (*RingBuffer, error) {
	next, err := NewRingBuffer(capacity, selection)
	if err != nil {
		return nil, err
	}

	ordered := make([]float64, r.Capacity())
	r.CopyOrdered(ordered)
	if len(ordered) > capacity {
		ordered = ordered[len(ordered)-capacity:]
	}
	// Newest samples end just before cursor 0, oldest kept ones are zero-padded in front.
	copy(next.data[capacity-len(ordered):], ordered)
	return next, nil
}
