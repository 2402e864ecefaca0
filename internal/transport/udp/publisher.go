// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"spectrum/internal/analysis"
	"spectrum/internal/bands"
	applog "spectrum/internal/log"
)

// Source supplies band snapshots. *analysis.Analyzer satisfies it.
type Source interface {
	SnapshotInto(dst []bands.FrequencyBand) analysis.Snapshot
}

var _ Source = (*analysis.Analyzer)(nil)

// HeaderSize is the size in bytes of the fixed packet header.
const HeaderSize = 4 + 8 + 2

var ErrTooManyBands = errors.New("band count exceeds packet limit")

// UDPPublisher periodically fetches the latest band snapshot, packs it into
// a defined binary format, and sends it over UDP using a UDPSender.
// It runs in a separate goroutine managed by Start and Stop methods.
type UDPPublisher struct {
	sender   *UDPSender    // The underlying UDP sender instance.
	source   Source        // Band snapshot provider.
	interval time.Duration // The interval at which packets are sent.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32 // Monotonically increasing sequence number for packets.

	// Pre-allocated buffers reused by every packet.
	snapshot     []bands.FrequencyBand
	values       []float32
	peaks        []float32
	packetBuffer *bytes.Buffer
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// It requires a valid UDPSender and Source.
// If the provided interval is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender, source Source) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: band source cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s)", interval)

	return &UDPPublisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	// Local copies keep the goroutine off p.ticker/p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				applog.Infof("UDPPublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("UDPPublisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		applog.Infof("UDPPublisher: Initiating stop sequence...")
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Band Count        | uint16         | 2            | Number of bands (N)     |
| Values            | []float32      | N * 4        | Smoothed band values    |
| Peaks             | []float32      | N * 4        | Peak markers, 0 if none |
+-----------------------------------------------------------------------------+
*/

// encodePacket writes one packet into buf, replacing its contents.
func encodePacket(buf *bytes.Buffer, seq uint32, timestamp int64, values, peaks []float32) error {
	if len(values) > math.MaxUint16 || len(peaks) != len(values) {
		return fmt.Errorf("%w: %d values, %d peaks", ErrTooManyBands, len(values), len(peaks))
	}
	buf.Reset()

	err := binary.Write(buf, binary.BigEndian, seq)
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(values)))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, values)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, peaks)
	}
	return err
}

// buildAndSendPacket is executed on each ticker interval: fetch the
// snapshot, convert it to float32, pack it and send it.
func (p *UDPPublisher) buildAndSendPacket() {
	// --- 1. Fetch Data ---
	snap := p.source.SnapshotInto(p.snapshot)
	p.snapshot = snap.Bands

	// --- 2. Convert Data ---
	n := len(snap.Bands)
	if cap(p.values) < n {
		p.values = make([]float32, n)
		p.peaks = make([]float32, n)
	}
	p.values, p.peaks = p.values[:n], p.peaks[:n]
	for i := range snap.Bands {
		b := &snap.Bands[i]
		p.values[i] = float32(b.Cur)
		p.peaks[i] = 0
		if b.HasMarker() {
			p.peaks[i] = float32(b.Peak)
		}
	}

	// --- 3. Pack Data ---
	p.sequenceNum++
	if err := encodePacket(p.packetBuffer, p.sequenceNum, time.Now().UnixNano(), p.values, p.peaks); err != nil {
		applog.Errorf("UDPPublisher: Error packing data into binary buffer: %v", err)
		return
	}

	// --- 4. Send Data ---
	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packetBytes))
	}
}

// Close implements the io.Closer interface. It gracefully stops the publisher goroutine.
func (p *UDPPublisher) Close() error {
	applog.Debugf("UDPPublisher: Close called, stopping publisher...")
	return p.Stop()
}

// Ensure UDPPublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*UDPPublisher)(nil)
