// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "spectrum/internal/log"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"`         // Logging level (e.g., "debug", "info", "warn", "error").
	Command   string          `yaml:"command,omitempty"` // A one-off command to execute instead of running the engine (e.g., "list").
	Audio     AudioConfig     `yaml:"audio"`             // Capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`          // Spectrum analyzer settings.
	Recording RecordingConfig `yaml:"recording"`         // Audio recording settings.
	Transport TransportConfig `yaml:"transport"`         // Band snapshot publishing settings.
}

// AudioConfig holds settings related to audio capture.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz (e.g., 44100, 48000).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Number of audio frames per callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	InputChannels   int     `yaml:"input_channels"`    // Number of interleaved input channels to capture.
	GateEnabled     bool    `yaml:"gate_enabled"`      // Zero callback buffers whose peak is below the threshold.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Gate threshold as a fraction of full scale (0.0-1.0).
}

// AnalysisConfig holds the spectrum analyzer settings. Names are parsed into
// enums by analysis.SettingsFromConfig.
type AnalysisConfig struct {
	Kind         string          `yaml:"kind"`          // fft, cqt, swift or analog.
	Engine       string          `yaml:"engine"`        // Transform engine: real, complex or radix2.
	Size         int             `yaml:"size"`          // Transform size N; 0 derives it from Duration.
	Duration     time.Duration   `yaml:"duration"`      // Analysis window length, used when Size is 0.
	TickInterval time.Duration   `yaml:"tick_interval"` // Interval between analysis ticks.
	Channels     []string        `yaml:"channels"`      // Speaker positions mixed into the analysis; empty for all.
	Window       WindowConfig    `yaml:"window"`
	Bands        BandsConfig     `yaml:"bands"`
	Mapping      MappingConfig   `yaml:"mapping"`
	Weighting    WeightingConfig `yaml:"weighting"`
	Smoothing    SmoothingConfig `yaml:"smoothing"`
	Peaks        PeaksConfig     `yaml:"peaks"`
	Amplitude    AmplitudeConfig `yaml:"amplitude"`
}

type WindowConfig struct {
	Shape     string  `yaml:"shape"`
	Parameter float64 `yaml:"parameter"` // 0 selects the shape's default.
	Skew      float64 `yaml:"skew"`
}

type BandsConfig struct {
	Distribution   string  `yaml:"distribution"` // frequencies or octaves.
	Count          int     `yaml:"count"`
	MinFrequency   float64 `yaml:"min_frequency"`
	MaxFrequency   float64 `yaml:"max_frequency"`
	Scaling        string  `yaml:"scaling"`
	Skew           float64 `yaml:"skew"`
	Bandwidth      float64 `yaml:"bandwidth"`
	MinNote        int     `yaml:"min_note"`
	MaxNote        int     `yaml:"max_note"`
	BandsPerOctave int     `yaml:"bands_per_octave"`
	Pitch          float64 `yaml:"pitch"`
	Transpose      float64 `yaml:"transpose"`
}

type MappingConfig struct {
	Mode                   string  `yaml:"mode"` // standard, filter-bank or kernel.
	Aggregate              string  `yaml:"aggregate"`
	SmoothLowerFrequencies bool    `yaml:"smooth_lower_frequencies"`
	InterpolationSize      int     `yaml:"interpolation_size"`
	BandwidthAmount        float64 `yaml:"bandwidth_amount"`
	BandwidthOffset        float64 `yaml:"bandwidth_offset"`
	BandwidthCap           int     `yaml:"bandwidth_cap"`
	GranularBandwidth      bool    `yaml:"granular_bandwidth"`
	KernelShape            string  `yaml:"kernel_shape"`
	KernelParameter        float64 `yaml:"kernel_parameter"`
	KernelAsymmetry        float64 `yaml:"kernel_asymmetry"`
}

type WeightingConfig struct {
	Curve          string   `yaml:"curve"`
	Amount         *float64 `yaml:"amount"` // Unset applies a named curve in full.
	Slope          float64  `yaml:"slope"`
	SlopeAmount    float64  `yaml:"slope_amount"`
	SlopeOffset    float64  `yaml:"slope_offset"`
	EqualizeAmount float64  `yaml:"equalize_amount"`
	EqualizeDepth  float64  `yaml:"equalize_depth"`
	EqualizeOffset float64  `yaml:"equalize_offset"`
	EqualizeWidth  float64  `yaml:"equalize_width"`
}

type SmoothingConfig struct {
	Method string  `yaml:"method"`
	Factor float64 `yaml:"factor"`
}

type PeaksConfig struct {
	Mode         string        `yaml:"mode"`
	HoldTime     time.Duration `yaml:"hold_time"`
	Acceleration float64       `yaml:"acceleration"`
}

type AmplitudeConfig struct {
	Scale       string  `yaml:"scale"` // decibel, linear or normalized.
	MinDB       float64 `yaml:"min_db"`
	MaxDB       float64 `yaml:"max_db"`
	Gamma       float64 `yaml:"gamma"`
	UseAbsolute bool    `yaml:"use_absolute"`
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled     bool   `yaml:"enabled"`              // Enable audio recording to file.
	OutputDir   string `yaml:"output_dir"`           // Directory to save recorded audio files.
	Format      string `yaml:"format"`               // File format for recordings ("wav").
	BitDepth    int    `yaml:"bit_depth"`            // Bit depth for recorded audio (16, 24 or 32).
	MaxDuration int    `yaml:"max_duration_seconds"` // Maximum duration of a single recording file in seconds (0 for unlimited).
}

// TransportConfig holds settings related to publishing band snapshots.
type TransportConfig struct {
	LogFrames        bool          `yaml:"log_frames"`         // Log every snapshot at debug level.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending band packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve JSON band frames on /ws.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address for the WebSocket server.
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
			GateEnabled:     DefaultGateEnabled,
			GateThreshold:   DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			Kind:         DefaultAnalysisKind,
			Engine:       DefaultEngine,
			Size:         DefaultFFTSize,
			TickInterval: DefaultTickInterval,
			Window:       WindowConfig{Shape: DefaultWindow},
			Bands: BandsConfig{
				Distribution:   DefaultDistribution,
				Count:          DefaultBandCount,
				MinFrequency:   DefaultMinFrequency,
				MaxFrequency:   DefaultMaxFrequency,
				Scaling:        DefaultScaling,
				Bandwidth:      DefaultBandwidth,
				MinNote:        DefaultMinNote,
				MaxNote:        DefaultMaxNote,
				BandsPerOctave: DefaultBandsPerOctave,
				Pitch:          DefaultPitch,
			},
			Mapping: MappingConfig{
				Mode:                   DefaultMapping,
				Aggregate:              DefaultAggregate,
				SmoothLowerFrequencies: true,
				InterpolationSize:      DefaultInterpolation,
				BandwidthAmount:        1,
				BandwidthOffset:        1,
				BandwidthCap:           DefaultBandwidthCap,
				KernelShape:            DefaultWindow,
			},
			Weighting: WeightingConfig{
				Curve:          DefaultCurve,
				SlopeOffset:    1000,
				EqualizeOffset: 1000,
				EqualizeWidth:  1,
			},
			Smoothing: SmoothingConfig{Method: DefaultSmoothing, Factor: DefaultSmoothingFactor},
			Peaks:     PeaksConfig{Mode: DefaultPeakMode, HoldTime: DefaultPeakHold, Acceleration: DefaultPeakAcceleration},
			Amplitude: AmplitudeConfig{Scale: DefaultAmplitudeScale, MinDB: DefaultMinDB, MaxDB: DefaultMaxDB, Gamma: DefaultGamma},
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
			Format:    DefaultFormat,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			WebSocketAddress: DefaultWebSocketAddress,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml"}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges that do not need the analysis enums. Names (window,
// scaling, ...) are checked when the analyzer settings are built.
func (c *Config) Validate() error {
	a := c.Audio
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("%w: audio.sample_rate %g outside [%d, %d]", ErrInvalidConfig, a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("%w: audio.frames_per_buffer %d outside [1, %d]", ErrInvalidConfig, a.FramesPerBuffer, MaxBufferFrames)
	}
	if a.InputChannels < 1 || a.InputChannels > MaxChannels {
		return fmt.Errorf("%w: audio.input_channels %d outside [1, %d]", ErrInvalidConfig, a.InputChannels, MaxChannels)
	}
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("%w: audio.input_device %d", ErrInvalidConfig, a.InputDevice)
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		return fmt.Errorf("%w: audio.gate_threshold %g outside [0, 1]", ErrInvalidConfig, a.GateThreshold)
	}

	an := c.Analysis
	if an.Size < 0 || (an.Size == 0 && an.Duration <= 0) {
		return fmt.Errorf("%w: analysis.size or analysis.duration must be positive", ErrInvalidConfig)
	}
	if an.TickInterval <= 0 {
		return fmt.Errorf("%w: analysis.tick_interval must be positive", ErrInvalidConfig)
	}
	if an.Bands.Count < 1 || an.Bands.Count > MaxBands {
		return fmt.Errorf("%w: analysis.bands.count %d outside [1, %d]", ErrInvalidConfig, an.Bands.Count, MaxBands)
	}

	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: recording.bit_depth %d (must be 16, 24 or 32)", ErrInvalidConfig, c.Recording.BitDepth)
	}
	if !strings.EqualFold(c.Recording.Format, "wav") {
		return fmt.Errorf("%w: recording.format '%s' (only wav is supported)", ErrInvalidConfig, c.Recording.Format)
	}

	t := c.Transport
	if t.UDPEnabled {
		if !strings.Contains(t.UDPTargetAddress, ":") {
			return fmt.Errorf("%w: transport.udp_target_address '%s' appears invalid (missing port?)", ErrInvalidConfig, t.UDPTargetAddress)
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must be positive when UDP is enabled", ErrInvalidConfig)
		}
	}
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		return fmt.Errorf("%w: transport.websocket_address must be set when the WebSocket server is enabled", ErrInvalidConfig)
	}

	return nil
}

// applyEnvOverrides reads ENV_* variables on top of the file (or default)
// values. Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Infof("configuration: Overriding debug from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("configuration: Overriding log_level from env: %s", val)
	}

	// ENV_{AUDIO,ANALYSIS}_{...}

	if val, ok := os.LookupEnv("ENV_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = iVal
			applog.Infof("configuration: Overriding audio.input_device from env: %d", iVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Audio.SampleRate = fVal
			applog.Infof("configuration: Overriding audio.sample_rate from env: %g", fVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_BANDS"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.Bands.Count = iVal
			applog.Infof("configuration: Overriding analysis.bands.count from env: %d", iVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_FFT_SIZE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.Size = iVal
			applog.Infof("configuration: Overriding analysis.size from env: %d", iVal)
		}
	}

	// ENV_UDP_{...}, ENV_WS_{...}
	// These are specific to the transport layer.

	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Infof("configuration: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Infof("configuration: Overriding transport.udp_send_interval from env: %s", dur)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
			applog.Infof("configuration: Overriding transport.websocket_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
		applog.Infof("configuration: Overriding transport.websocket_address from env: %s", val)
	}
}
