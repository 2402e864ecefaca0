// SPDX-License-Identifier: MIT
package weighting

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum/internal/bands"
)

func TestCurveDecibels(t *testing.T) {
	t.Parallel()
	freqs := []float64{31.5, 100, 1000, 3150, 6300, 10000}
	tests := []struct {
		curve Curve
		want  []float64
	}{
		{A, []float64{-39.529, -19.145, 0, 1.201, -0.116, -2.492}},
		{B, []float64{-17.126, -5.648, 0, -0.403, -1.888, -4.299}},
		{C, []float64{-3.031, -0.300, 0, -0.500, -1.993, -4.406}},
		{D, []float64{-16.717, -7.203, 0, 11.543, 7.629, 3.437}},
		{M, []float64{-29.883, -19.850, 0, 8.975, 12.217, 8.135}},
	}
	for _, tt := range tests {
		t.Run(tt.curve.String(), func(t *testing.T) {
			for i, f := range freqs {
				assert.InDelta(t, tt.want[i], CurveDecibels(tt.curve, f), 1e-3, "%g Hz", f)
			}
		})
	}
	assert.Zero(t, CurveDecibels(None, 100))
	assert.Zero(t, CurveDecibels(A, 0))
}

func TestWeighting_Decibels(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Slope = 3
	cfg.SlopeAmount = 1
	w, err := New(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, w.Decibels(1000), 1e-12)
	assert.InDelta(t, 3.0, w.Decibels(2000), 1e-12)
	assert.InDelta(t, -6.0, w.Decibels(250), 1e-12)

	cfg = DefaultConfig()
	cfg.EqualizeAmount = -1
	cfg.EqualizeDepth = 12
	cfg.EqualizeOffset = 100
	cfg.EqualizeWidth = 0.5
	w, err = New(cfg)
	require.NoError(t, err)
	assert.InDelta(t, -12.0, w.Decibels(100), 1e-12)
	assert.InDelta(t, -12*math.Exp(-2), w.Decibels(200), 1e-12)

	cfg = DefaultConfig()
	cfg.Curve = A
	cfg.WeightingAmount = 0.5
	w, err = New(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*CurveDecibels(A, 100), w.Decibels(100), 1e-12)
	assert.InDelta(t, math.Pow(10, w.Decibels(100)/20), w.Gain(100), 1e-12)
}

func TestWeighting_Apply(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Slope = 6
	cfg.SlopeAmount = 1
	w, err := New(cfg)
	require.NoError(t, err)

	bs := []bands.FrequencyBand{
		{Center: 1000, Raw: 0.5},
		{Center: 2000, Raw: 0.5},
		{Center: 500, Raw: 0},
	}
	w.Apply(bs)
	assert.InDelta(t, 0.5, bs[0].Raw, 1e-12)
	assert.InDelta(t, 0.5*math.Pow(10, 6.0/20), bs[1].Raw, 1e-12)
	assert.Zero(t, bs[2].Raw)
}

func TestWeighting_FlatLeavesRawUntouched(t *testing.T) {
	t.Parallel()
	w, err := New(DefaultConfig())
	require.NoError(t, err)
	bs := []bands.FrequencyBand{{Center: 40, Raw: 0.25}}
	w.Apply(bs)
	assert.Equal(t, 0.25, bs[0].Raw)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"amount above one", func(c *Config) { c.WeightingAmount = 1.5 }},
		{"slope amount below minus one", func(c *Config) { c.SlopeAmount = -2 }},
		{"zero slope offset", func(c *Config) { c.SlopeOffset = 0 }},
		{"zero width", func(c *Config) { c.EqualizeWidth = 0 }},
		{"unknown curve", func(c *Config) { c.Curve = Curve(9) }},
		{"NaN depth", func(c *Config) { c.EqualizeDepth = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestParseCurve(t *testing.T) {
	t.Parallel()
	for _, c := range []Curve{None, A, B, C, D, M} {
		got, err := ParseCurve(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	got, err := ParseCurve("A-weighting")
	require.NoError(t, err)
	assert.Equal(t, A, got)

	_, err = ParseCurve("Z")
	assert.Error(t, err)
}
