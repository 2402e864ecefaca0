// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spectrum/internal/amplitude"
	"spectrum/internal/bands"
	"spectrum/internal/config"
	"spectrum/internal/fft"
	"spectrum/internal/smoothing"
	"spectrum/internal/weighting"
	"spectrum/internal/window"
)

// Kind selects the spectral transform feeding the bands.
type Kind int

const (
	// KindFFT windows the ring history, transforms it and maps bins to bands.
	KindFFT Kind = iota
	// KindCQT evaluates one windowed DFT term per band over a band-dependent
	// slice of the history.
	KindCQT
	// KindSWIFT runs a complex one-pole resonator per band on every sample.
	KindSWIFT
	// KindAnalog runs a band-pass biquad and envelope follower per band.
	KindAnalog
)

func (k Kind) String() string {
	switch k {
	case KindFFT:
		return "fft"
	case KindCQT:
		return "cqt"
	case KindSWIFT:
		return "swift"
	case KindAnalog:
		return "analog"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a name (case-insensitive) to a Kind. Returns KindFFT
// and an error if the name is unknown.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fft", "stft":
		return KindFFT, nil
	case "cqt", "constant-q":
		return KindCQT, nil
	case "swift":
		return KindSWIFT, nil
	case "analog", "iir", "filter-bank":
		return KindAnalog, nil
	default:
		return KindFFT, fmt.Errorf("%w: '%s'", ErrUnknownKind, name)
	}
}

// ErrUnknownKind is returned for an unrecognized transform kind.
var ErrUnknownKind = errors.New("unknown analysis kind")

func errUnknownKind(k Kind) error {
	return fmt.Errorf("%w: %s", ErrUnknownKind, k)
}

// Settings is the fully parsed analyzer configuration. The analyzer treats it
// as read-only.
type Settings struct {
	SampleRate float64
	Kind       Kind
	Engine     fft.Engine
	Size       int         // Ring capacity and transform size N.
	Selection  ChannelMask // Channels mixed into the ring.
	Window     window.Function

	Layout    bands.LayoutConfig
	Mapper    bands.MapperConfig
	Weighting weighting.Config
	Amplitude amplitude.Config

	Smoothing       smoothing.Method
	SmoothingFactor float64

	PeakMode         smoothing.PeakMode
	PeakHold         time.Duration
	PeakAcceleration float64

	TickInterval time.Duration
}

// DefaultSettings mirrors the configuration defaults at sampleRate.
func DefaultSettings(sampleRate float64) Settings {
	s, err := SettingsFromConfig(config.Default().Analysis, sampleRate)
	if err != nil {
		// The built-in defaults always parse.
		panic(err)
	}
	return s
}

// SettingsFromConfig parses the YAML analysis section into Settings.
func SettingsFromConfig(c config.AnalysisConfig, sampleRate float64) (Settings, error) {
	s := Settings{
		SampleRate:      sampleRate,
		TickInterval:    c.TickInterval,
		SmoothingFactor: c.Smoothing.Factor,
		PeakHold:        c.Peaks.HoldTime,

		PeakAcceleration: c.Peaks.Acceleration,
	}
	var err error

	if s.Kind, err = ParseKind(c.Kind); err != nil {
		return Settings{}, err
	}
	if s.Engine, err = fft.ParseEngine(c.Engine); err != nil {
		return Settings{}, err
	}
	s.Size = c.Size
	if s.Size == 0 {
		s.Size = fft.SizeForDuration(c.Duration, sampleRate, s.Engine)
	}
	if s.Selection, err = ParseChannels(c.Channels); err != nil {
		return Settings{}, err
	}

	shape, err := window.ParseShape(c.Window.Shape)
	if err != nil {
		return Settings{}, err
	}
	param := c.Window.Parameter
	if param == 0 {
		param = shape.DefaultParameter()
	}
	if s.Window, err = window.New(shape, param, c.Window.Skew); err != nil {
		return Settings{}, err
	}

	if s.Layout, err = layoutFromConfig(c.Bands); err != nil {
		return Settings{}, err
	}
	if s.Mapper, err = mapperFromConfig(c.Mapping); err != nil {
		return Settings{}, err
	}

	curve, err := weighting.ParseCurve(c.Weighting.Curve)
	if err != nil {
		return Settings{}, err
	}
	s.Weighting = weighting.Config{
		Curve:           curve,
		Slope:           c.Weighting.Slope,
		SlopeAmount:     c.Weighting.SlopeAmount,
		SlopeOffset:     c.Weighting.SlopeOffset,
		EqualizeAmount:  c.Weighting.EqualizeAmount,
		EqualizeDepth:   c.Weighting.EqualizeDepth,
		EqualizeOffset:  c.Weighting.EqualizeOffset,
		EqualizeWidth:   c.Weighting.EqualizeWidth,
	}
	// A curve named without an amount is applied in full; an explicit 0
	// keeps the curve selected but inert.
	switch {
	case c.Weighting.Amount != nil:
		s.Weighting.WeightingAmount = *c.Weighting.Amount
	case curve != weighting.None:
		s.Weighting.WeightingAmount = 1
	}

	kind, err := amplitude.ParseKind(c.Amplitude.Scale)
	if err != nil {
		return Settings{}, err
	}
	s.Amplitude = amplitude.Config{
		Kind:        kind,
		MinDB:       c.Amplitude.MinDB,
		MaxDB:       c.Amplitude.MaxDB,
		Gamma:       c.Amplitude.Gamma,
		UseAbsolute: c.Amplitude.UseAbsolute,
	}

	if s.Smoothing, err = smoothing.ParseMethod(c.Smoothing.Method); err != nil {
		return Settings{}, err
	}
	if s.PeakMode, err = smoothing.ParsePeakMode(c.Peaks.Mode); err != nil {
		return Settings{}, err
	}

	return s, nil
}

func layoutFromConfig(c config.BandsConfig) (bands.LayoutConfig, error) {
	dist, err := bands.ParseDistribution(c.Distribution)
	if err != nil {
		return bands.LayoutConfig{}, err
	}
	kind, err := bands.ParseScaling(c.Scaling)
	if err != nil {
		return bands.LayoutConfig{}, err
	}
	scale, err := bands.NewScale(kind, c.Skew)
	if err != nil {
		return bands.LayoutConfig{}, err
	}
	return bands.LayoutConfig{
		Distribution:   dist,
		Scale:          scale,
		Count:          c.Count,
		LoHz:           c.MinFrequency,
		HiHz:           c.MaxFrequency,
		Bandwidth:      c.Bandwidth,
		MinNote:        c.MinNote,
		MaxNote:        c.MaxNote,
		BandsPerOctave: c.BandsPerOctave,
		Pitch:          c.Pitch,
		Transpose:      c.Transpose,
	}, nil
}

func mapperFromConfig(c config.MappingConfig) (bands.MapperConfig, error) {
	mode, err := bands.ParseMode(c.Mode)
	if err != nil {
		return bands.MapperConfig{}, err
	}
	agg, err := bands.ParseAggregate(c.Aggregate)
	if err != nil {
		return bands.MapperConfig{}, err
	}
	shape, err := window.ParseShape(c.KernelShape)
	if err != nil {
		return bands.MapperConfig{}, err
	}
	param := c.KernelParameter
	if param == 0 {
		param = shape.DefaultParameter()
	}
	return bands.MapperConfig{
		Mode:                   mode,
		Aggregate:              agg,
		SmoothLowerFrequencies: c.SmoothLowerFrequencies,
		InterpolationSize:      c.InterpolationSize,
		BandwidthAmount:        c.BandwidthAmount,
		BandwidthOffset:        c.BandwidthOffset,
		BandwidthCap:           c.BandwidthCap,
		GranularBandwidth:      c.GranularBandwidth,
		KernelShape:            shape,
		KernelParameter:        param,
		KernelAsymmetry:        c.KernelAsymmetry,
	}, nil
}
