// SPDX-License-Identifier: MIT
/*
Package audio implements live capture and file decoding for the analyzer:
- Float32 capture using PortAudio
- Sample handoff to a Sink (the spectrum analyzer)
- Peak noise gate
- WAV recording with atomic state management
- WAV, MP3 and FLAC file sources

Thread Safety:
- Uses atomic operations for gate and recording state
- Pre-allocates buffers to avoid GC in hot path
- Locks OS thread during audio processing
*/
package audio

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"spectrum/internal/analysis"
	"spectrum/internal/config"
)

// Sink receives every captured buffer. Add is called on the audio thread and
// must not block.
type Sink interface {
	Add(samples []float32, sampleCount int, layout analysis.ChannelMask)
}

type Engine struct {
	// Core configuration and state.
	config *config.Config
	sink   Sink
	layout analysis.ChannelMask

	// Audio input handling.
	inputBuffer  []float32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Noise gate for signal conditioning.
	gateEnabled   atomic.Bool
	gateThreshold atomic.Uint32 // float32 bits, fraction of full scale

	// Recording state and buffers.
	isRecording   int32 // Atomic flag for thread-safe state
	recMu         sync.Mutex
	outputFile    *os.File
	wavEncoder    *wav.Encoder
	sampleBuf     *audio.IntBuffer // Reusable buffer for format conversion
	pcmMax        int
	writeFailures int
	framesWritten int
	maxFrames     int // 0 for unlimited
}

// NewEngine opens the configured input device and prepares an engine that
// hands every buffer to sink. PortAudio must be initialized.
func NewEngine(cfg *config.Config, sink Sink) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	engine := newEngine(cfg, sink)
	engine.inputDevice = inputDevice
	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

// newEngine allocates the buffers and gate state without touching PortAudio.
func newEngine(cfg *config.Config, sink Sink) *Engine {
	// Pre-allocate I/O buffers sized for frames x channels.
	inputSize := cfg.Audio.FramesPerBuffer * cfg.Audio.InputChannels

	e := &Engine{
		config:      cfg,
		sink:        sink,
		layout:      analysis.LayoutForChannels(cfg.Audio.InputChannels),
		inputBuffer: make([]float32, inputSize),
	}
	e.gateEnabled.Store(cfg.Audio.GateEnabled)
	e.SetGateThreshold(cfg.Audio.GateThreshold)
	return e
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return err
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	buffer := e.inputBuffer[:n]
	e.processBuffer(buffer)

	if atomic.LoadInt32(&e.isRecording) == 1 {
		e.writeRecording(buffer)
	}
}

// processBuffer applies the gate in place and hands the buffer to the sink.
// No allocations.
func (e *Engine) processBuffer(buffer []float32) {
	if e.gateEnabled.Load() && peakAmplitude(buffer) < e.threshold() {
		clear(buffer)
	}

	if e.sink != nil {
		e.sink.Add(buffer, len(buffer), e.layout)
	}
}

// peakAmplitude returns max |x| over buffer.
func peakAmplitude(buffer []float32) float32 {
	var peak float32
	for _, s := range buffer {
		if s < 0 {
			s = -s
		}
		peak = max(peak, s)
	}
	return peak
}
