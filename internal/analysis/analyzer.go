// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"spectrum/internal/amplitude"
	"spectrum/internal/bands"
	"spectrum/internal/fft"
	applog "spectrum/internal/log"
	"spectrum/internal/smoothing"
	"spectrum/internal/weighting"
)

var ErrInvalidSampleRate = errors.New("sample rate must be positive")

// Snapshot is a consistent copy of the bands published by one tick. Version
// increases by one for every tick and every reconfiguration.
type Snapshot struct {
	Version uint64
	Bands   []bands.FrequencyBand
}

// pipeline is one complete, immutable-structure analysis chain. A
// reconfiguration builds a new pipeline and swaps it in whole.
type pipeline struct {
	settings  Settings
	ring      *RingBuffer
	transform bandTransform
	bands     []bands.FrequencyBand
	weighting *weighting.Weighting
	scaler    amplitude.Scaler
	smoother  *smoothing.Smoother
	tracker   *smoothing.Tracker
}

// Analyzer owns the sample history and the band pipeline. Add is called from
// the audio thread; Tick and Reconfigure from the analysis owner; snapshots
// may be read from any goroutine.
type Analyzer struct {
	mu sync.Mutex // Serializes Tick and Reconfigure.
	p  *pipeline

	// Current ring, loaded by Add without taking mu.
	ring atomic.Pointer[RingBuffer]

	snapMu    sync.RWMutex
	published []bands.FrequencyBand
	version   uint64
}

// New builds an analyzer for s.
func New(s Settings) (*Analyzer, error) {
	p, err := buildPipeline(s, nil)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	a := &Analyzer{}
	a.install(p)
	return a, nil
}

// Add feeds interleaved samples into the history. It never blocks on the
// analysis tick beyond the ring's own lock.
func (a *Analyzer) Add(samples []float32, sampleCount int, layout ChannelMask) {
	a.ring.Load().Add(samples, sampleCount, layout)
}

// Tick runs one analysis pass over the current history and publishes the
// result. dt is the time elapsed since the previous tick.
func (a *Analyzer) Tick(dt time.Duration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.p
	bs := p.bands

	// --- 1. Raw magnitudes ---
	if err := p.transform.analyze(p.ring, bs); err != nil {
		return fmt.Errorf("analysis: tick: %w", err)
	}

	// --- 2. Weighting ---
	p.weighting.Apply(bs)

	// --- 3. Display scale ---
	for i := range bs {
		bs[i].Value = p.scaler.Scale(bs[i].Raw)
	}

	// --- 4. Smoothing and peaks ---
	p.smoother.Advance(bs, dt)
	p.tracker.Advance(bs, dt)

	// --- 5. Publish ---
	a.snapMu.Lock()
	copy(a.published, bs)
	a.version++
	a.snapMu.Unlock()
	return nil
}

// Reconfigure builds a complete pipeline for s and swaps it in. On error the
// previous pipeline stays active. The sample history survives when the size
// and channel selection are unchanged and is carried over otherwise.
func (a *Analyzer) Reconfigure(s Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, err := buildPipeline(s, a.p.ring)
	if err != nil {
		applog.Warnf("Analyzer: Reconfiguration rejected, keeping %s with %d bands: %v", a.p.settings.Kind, len(a.p.bands), err)
		return fmt.Errorf("analysis: reconfigure: %w", err)
	}
	a.install(p)
	return nil
}

// Settings returns the active configuration.
func (a *Analyzer) Settings() Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.p.settings
}

// SnapshotInto copies the last published bands into dst, growing it when it
// is too small, and returns the snapshot backed by dst.
func (a *Analyzer) SnapshotInto(dst []bands.FrequencyBand) Snapshot {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()

	n := len(a.published)
	if cap(dst) < n {
		dst = make([]bands.FrequencyBand, n)
	}
	dst = dst[:n]
	copy(dst, a.published)
	return Snapshot{Version: a.version, Bands: dst}
}

// Snapshot returns a freshly allocated copy of the last published bands.
func (a *Analyzer) Snapshot() Snapshot {
	return a.SnapshotInto(nil)
}

// install makes p the active pipeline. Callers hold mu or own a exclusively.
func (a *Analyzer) install(p *pipeline) {
	a.p = p
	if c, ok := p.transform.(sampleConsumer); ok {
		p.ring.SetTap(c.push)
	} else {
		p.ring.SetTap(nil)
	}
	a.ring.Store(p.ring)

	// The published layout is replaced, never appended to.
	published := make([]bands.FrequencyBand, len(p.bands))
	copy(published, p.bands)
	a.snapMu.Lock()
	a.published = published
	a.version++
	a.snapMu.Unlock()

	s := p.settings
	applog.Infof("Analyzer: Configured %s (N: %d, %d bands, %.0f-%.0f Hz, window: %s, rate: %.1f Hz)",
		s.Kind, s.Size, len(p.bands), p.bands[0].Lo, p.bands[len(p.bands)-1].Hi, s.Window.Shape, s.SampleRate)
}

// buildPipeline constructs every stage for s. prev is the ring of the running
// pipeline, or nil. prev is never modified.
func buildPipeline(s Settings, prev *RingBuffer) (*pipeline, error) {
	if !(s.SampleRate > 0) || math.IsInf(s.SampleRate, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidSampleRate, s.SampleRate)
	}
	if s.Size < fft.MinSize || s.Size > fft.MaxSize {
		return nil, fmt.Errorf("%w: %d (must be within [%d, %d])", fft.ErrInvalidSize, s.Size, fft.MinSize, fft.MaxSize)
	}
	if s.Selection == 0 {
		s.Selection = AllChannels
	}

	bs, err := bands.Build(s.Layout)
	if err != nil {
		return nil, err
	}
	transform, err := newTransform(s, bs)
	if err != nil {
		return nil, err
	}
	w, err := weighting.New(s.Weighting)
	if err != nil {
		return nil, err
	}
	scaler, err := amplitude.New(s.Amplitude)
	if err != nil {
		return nil, err
	}
	smoother, err := smoothing.NewSmoother(s.Smoothing, s.SmoothingFactor)
	if err != nil {
		return nil, err
	}
	tracker, err := smoothing.NewTracker(s.PeakMode, s.PeakHold, s.PeakAcceleration)
	if err != nil {
		return nil, err
	}

	var ring *RingBuffer
	switch {
	case prev == nil:
		ring, err = NewRingBuffer(s.Size, s.Selection)
	case prev.Capacity() == s.Size && prev.Selection() == s.Selection:
		ring = prev
	default:
		ring, err = prev.Resized(s.Size, s.Selection)
	}
	if err != nil {
		return nil, err
	}

	return &pipeline{
		settings:  s,
		ring:      ring,
		transform: transform,
		bands:     bs,
		weighting: w,
		scaler:    scaler,
		smoother:  smoother,
		tracker:   tracker,
	}, nil
}
