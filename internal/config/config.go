// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults for the
// capture engine and the spectrum analyzer.
const (
	// Capture defaults.
	DefaultChannels        = 2           // Stereo, mixed down by the analyzer.
	DefaultDeviceID        = MinDeviceID // System default device.
	DefaultFramesPerBuffer = 512         // Balanced latency/performance.
	DefaultLowLatency      = false
	DefaultSampleRate      = 44100
	DefaultGateEnabled     = false
	DefaultGateThreshold   = 0.001 // ~-60 dBFS.
	DefaultLogLevel        = "info"

	// Recording defaults.
	DefaultFormat    = "wav"
	DefaultBitDepth  = 16
	DefaultOutputDir = "./recordings"

	// Analysis defaults.
	DefaultAnalysisKind     = "fft"
	DefaultEngine           = "real"
	DefaultFFTSize          = 4096
	DefaultTickInterval     = 16 * time.Millisecond // ~60 Hz.
	DefaultWindow           = "hann"
	DefaultDistribution     = "frequencies"
	DefaultBandCount        = 32
	DefaultMinFrequency     = 20.0
	DefaultMaxFrequency     = 20000.0
	DefaultScaling          = "log"
	DefaultBandwidth        = 0.5
	DefaultMinNote          = 0
	DefaultMaxNote          = 12*10 - 1
	DefaultBandsPerOctave   = 12
	DefaultPitch            = 440.0
	DefaultMapping          = "standard"
	DefaultAggregate        = "maximum"
	DefaultInterpolation    = 4
	DefaultBandwidthCap     = 256
	DefaultCurve            = "none"
	DefaultSmoothing        = "average"
	DefaultSmoothingFactor  = 0.5
	DefaultPeakMode         = "gravity"
	DefaultPeakHold         = 500 * time.Millisecond
	DefaultPeakAcceleration = 2.0
	DefaultAmplitudeScale   = "decibel"
	DefaultMinDB            = -70.0
	DefaultMaxDB            = 0.0
	DefaultGamma            = 2.0

	// Transport defaults.
	DefaultUDPAddress       = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30 Hz.
	DefaultWebSocketAddress = ":8080"

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 represents the system default device.
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz).
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz).
	MaxBufferFrames = 8192   // Maximum frames per buffer.
	MaxChannels     = 32     // One bit per speaker position.
	MaxBands        = 1024

	// Error handling configuration.
	DefaultMaxConsecutiveWriteFailures = 5 // Recording stops after this many failed writes.
)
