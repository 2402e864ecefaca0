// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"spectrum/internal/bands"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
)

var ErrInvalidInterval = errors.New("tick interval must be positive")

// Runner drives an Analyzer from a ticker goroutine and forwards every
// published snapshot to its transports as a transport.BandFrame.
type Runner struct {
	analyzer   *Analyzer
	interval   time.Duration
	transports []transport.Transport

	doneChan  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// Owned by the ticker goroutine.
	scratch     []bands.FrequencyBand
	sequence    uint64
	lastVersion uint64
	centers     []float64 // Layout of the last published frame.
	lastTick    time.Time
}

// NewRunner creates a runner ticking a every interval.
func NewRunner(a *Analyzer, interval time.Duration, transports ...transport.Transport) (*Runner, error) {
	if a == nil {
		return nil, fmt.Errorf("Runner: analyzer cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	return &Runner{
		analyzer:   a,
		interval:   interval,
		transports: transports,
		doneChan:   make(chan struct{}),
	}, nil
}

// Start launches the ticker goroutine. Only the first call has an effect.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.loop()
	})
}

// Stop signals the goroutine to exit and waits for it. Safe to call more
// than once, and before Start.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.doneChan)
	})
	r.wg.Wait()
}

func (r *Runner) loop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	applog.Infof("Runner: Started (Interval: %s, Transports: %d)", r.interval, len(r.transports))
	r.lastTick = time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(r.lastTick)
			r.lastTick = now
			r.step(now, dt)
		case <-r.doneChan:
			applog.Infof("Runner: Stopped after %d frames", r.sequence)
			return
		}
	}
}

// step runs one tick and publishes its result.
func (r *Runner) step(now time.Time, dt time.Duration) {
	if err := r.analyzer.Tick(dt); err != nil {
		applog.Errorf("Runner: %v", err)
		return
	}
	if len(r.transports) == 0 {
		return
	}

	snap := r.analyzer.SnapshotInto(r.scratch)
	r.scratch = snap.Bands
	if snap.Version == r.lastVersion {
		return
	}
	r.lastVersion = snap.Version

	// Band centers accompany the first frame of every layout.
	withCenters := r.layoutChanged(snap.Bands)

	r.sequence++
	frame := transport.NewBandFrame(r.sequence, now, snap.Bands, withCenters)
	for _, t := range r.transports {
		if err := t.Send(frame); err != nil {
			applog.Warnf("Runner: Send to %T failed: %v", t, err)
		}
	}
}

// layoutChanged reports whether bs differs in structure from the previous
// frame and records its centers.
func (r *Runner) layoutChanged(bs []bands.FrequencyBand) bool {
	changed := r.centers == nil || len(bs) != len(r.centers)
	if !changed {
		for i := range bs {
			if bs[i].Center != r.centers[i] {
				changed = true
				break
			}
		}
	}
	if changed {
		r.centers = make([]float64, len(bs))
		for i := range bs {
			r.centers[i] = bs[i].Center
		}
	}
	return changed
}
