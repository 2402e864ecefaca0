// SPDX-License-Identifier: MIT
package bands

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_LinearFrequencies(t *testing.T) {
	t.Parallel()
	got, err := Build(LayoutConfig{
		Distribution: Frequencies,
		Scale:        Scale{Kind: Linear},
		Count:        4,
		LoHz:         100,
		HiHz:         500,
		Bandwidth:    0.5,
	})
	require.NoError(t, err)
	require.Len(t, got, 4)

	for i, want := range []float64{150, 250, 350, 450} {
		assert.InDelta(t, want, got[i].Center, 1e-9)
		assert.InDelta(t, want-50, got[i].Lo, 1e-9)
		assert.InDelta(t, want+50, got[i].Hi, 1e-9)
		assert.Zero(t, got[i].Raw)
		assert.Zero(t, got[i].Peak)
	}
}

func TestBuild_TilesRange(t *testing.T) {
	t.Parallel()
	for _, kind := range Scalings() {
		got, err := Build(LayoutConfig{
			Distribution: Frequencies,
			Scale:        Scale{Kind: kind, Skew: 0.25},
			Count:        24,
			LoHz:         20,
			HiHz:         20000,
			Bandwidth:    0.5,
		})
		require.NoError(t, err, "%s", kind)

		assert.InEpsilon(t, 20.0, got[0].Lo, 1e-9, "%s", kind)
		assert.InEpsilon(t, 20000.0, got[len(got)-1].Hi, 1e-9, "%s", kind)
		for i := 1; i < len(got); i++ {
			assert.InEpsilon(t, got[i-1].Hi, got[i].Lo, 1e-9, "%s band %d", kind, i)
			assert.Less(t, got[i-1].Center, got[i].Center, "%s band %d", kind, i)
		}
	}
}

func TestBuild_LogarithmicCenters(t *testing.T) {
	t.Parallel()
	got, err := Build(LayoutConfig{
		Scale:     Scale{Kind: Logarithmic},
		Count:     2,
		LoHz:      100,
		HiHz:      400,
		Bandwidth: 0.5,
	})
	require.NoError(t, err)
	assert.InDelta(t, 100*math.Sqrt2, got[0].Center, 1e-9)
	assert.InDelta(t, 200.0, got[0].Hi, 1e-9)
	assert.InDelta(t, 200*math.Sqrt2, got[1].Center, 1e-9)
}

func TestBuild_WideBandsOverlap(t *testing.T) {
	t.Parallel()
	got, err := Build(LayoutConfig{
		Scale:     Scale{Kind: Linear},
		Count:     4,
		LoHz:      100,
		HiHz:      500,
		Bandwidth: 1,
	})
	require.NoError(t, err)
	assert.Greater(t, got[0].Hi, got[1].Lo)
	assert.InDelta(t, 100.0, got[0].Lo, 1e-9, "edges stay inside the range")
}

func TestBuild_Octaves(t *testing.T) {
	t.Parallel()
	got, err := Build(LayoutConfig{
		Distribution:   Octaves,
		MinNote:        NoteA4,
		MaxNote:        NoteA4 + 12,
		BandsPerOctave: 12,
		Pitch:          PitchA440,
		Bandwidth:      0.5,
	})
	require.NoError(t, err)
	require.Len(t, got, 13)
	assert.InDelta(t, 440.0, got[0].Center, 1e-9)
	assert.InDelta(t, 880.0, got[12].Center, 1e-9)
	assert.InDelta(t, got[0].Hi, got[1].Lo, 1e-9)
	assert.InDelta(t, 440*math.Exp2(-0.5/12), got[0].Lo, 1e-9)

	thirds, err := Build(LayoutConfig{
		Distribution:   Octaves,
		MinNote:        NoteA4,
		MaxNote:        NoteA4 + 12,
		BandsPerOctave: 3,
		Pitch:          PitchA440,
		Transpose:      12,
		Bandwidth:      0.5,
	})
	require.NoError(t, err)
	require.Len(t, thirds, 4)
	assert.InDelta(t, 880.0, thirds[0].Center, 1e-9)
	assert.InDelta(t, 1760.0, thirds[3].Center, 1e-9)
}

func TestBuild_FreshSlice(t *testing.T) {
	t.Parallel()
	cfg := LayoutConfig{Scale: Scale{Kind: Linear}, Count: 3, LoHz: 10, HiHz: 40, Bandwidth: 0.5}
	a, err := Build(cfg)
	require.NoError(t, err)
	a[0].Cur = 1
	b, err := Build(cfg)
	require.NoError(t, err)
	assert.Zero(t, b[0].Cur)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()
	base := LayoutConfig{Scale: Scale{Kind: Logarithmic}, Count: 8, LoHz: 20, HiHz: 20000, Bandwidth: 0.5}
	tests := []struct {
		name   string
		mutate func(*LayoutConfig)
		want   error
	}{
		{"zero count", func(c *LayoutConfig) { c.Count = 0 }, ErrInvalidCount},
		{"inverted range", func(c *LayoutConfig) { c.LoHz, c.HiHz = 500, 100 }, ErrEmptyRange},
		{"equal range", func(c *LayoutConfig) { c.HiHz = c.LoHz }, ErrEmptyRange},
		{"zero frequency", func(c *LayoutConfig) { c.LoHz = 0 }, ErrInvalidFrequency},
		{"zero bandwidth", func(c *LayoutConfig) { c.Bandwidth = 0 }, ErrInvalidBandwidth},
		{"bad pitch", func(c *LayoutConfig) {
			c.Distribution, c.BandsPerOctave, c.MaxNote = Octaves, 12, 60
		}, ErrInvalidPitch},
		{"bad notes", func(c *LayoutConfig) {
			c.Distribution, c.BandsPerOctave, c.Pitch, c.MinNote, c.MaxNote = Octaves, 12, 440, 70, 60
		}, ErrInvalidNotes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := Build(cfg)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
