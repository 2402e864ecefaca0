// SPDX-License-Identifier: MIT
package amplitude

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecibel_SilenceIsZero(t *testing.T) {
	t.Parallel()
	s := Decibel{MinDB: -70, MaxDB: 0}
	assert.Equal(t, 0.0, s.Scale(0))
	assert.Equal(t, 0.0, s.Scale(1e-9), "below the floor clamps")
	assert.Equal(t, 1.0, s.Scale(1))
	assert.Equal(t, 1.0, s.Scale(4), "above the ceiling clamps")
	assert.InDelta(t, 0.5, s.Scale(math.Pow(10, -35.0/20)), 1e-12)
}

func TestScalers_Monotonic(t *testing.T) {
	t.Parallel()
	scalers := map[string]Scaler{
		"normalized": Normalized{},
		"decibel":    Decibel{MinDB: -90, MaxDB: 6},
		"linear":     Linear{MinDB: -60, MaxDB: 0, Gamma: 1},
		"root":       Linear{MinDB: -60, MaxDB: 0, Gamma: 3},
		"absolute":   Linear{MinDB: -60, MaxDB: 0, Gamma: 2, UseAbsolute: true},
	}
	for name, s := range scalers {
		prev := s.Scale(0)
		for m := 1e-6; m < 3; m *= 1.1 {
			cur := s.Scale(m)
			require.GreaterOrEqual(t, cur, prev, "%s at %g", name, m)
			require.GreaterOrEqual(t, cur, 0.0)
			require.LessOrEqual(t, cur, 1.0)
			prev = cur
		}
	}
}

func TestScalers_LevelInvertsScale(t *testing.T) {
	t.Parallel()
	scalers := []Scaler{
		Decibel{MinDB: -70, MaxDB: 0},
		Linear{MinDB: -40, MaxDB: 0, Gamma: 2},
		Linear{MinDB: -40, MaxDB: 6, Gamma: 1, UseAbsolute: true},
	}
	for _, s := range scalers {
		for _, y := range []float64{0.05, 0.3, 0.5, 0.9} {
			assert.InDelta(t, y, s.Scale(s.Level(y)), 1e-9, "%T y=%g", s, y)
		}
	}
}

func TestLinear_Absolute(t *testing.T) {
	t.Parallel()
	s := Linear{MinDB: -70, MaxDB: 0, Gamma: 1, UseAbsolute: true}
	assert.Equal(t, 0.0, s.Scale(0))
	assert.InDelta(t, 0.25, s.Scale(0.25), 1e-12)
	assert.InDelta(t, 0.5, s.Scale(-0.5), 1e-12)

	root := Linear{MinDB: -70, MaxDB: 0, Gamma: 2, UseAbsolute: true}
	assert.InDelta(t, 0.5, root.Scale(0.25), 1e-12)
}

func TestNew(t *testing.T) {
	t.Parallel()
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, Decibel{}, s)

	s, err = New(Config{Kind: KindLinear, MinDB: -50, MaxDB: 0, Gamma: 2})
	require.NoError(t, err)
	assert.Equal(t, Linear{MinDB: -50, MaxDB: 0, Gamma: 2}, s)

	s, err = New(Config{Kind: KindNormalized})
	require.NoError(t, err)
	assert.IsType(t, Normalized{}, s)

	tests := []Config{
		{Kind: KindDecibel, MinDB: -20, MaxDB: -20},
		{Kind: KindDecibel, MinDB: 0, MaxDB: -20},
		{Kind: KindLinear, MinDB: -60, MaxDB: 0, Gamma: 0},
		{Kind: KindLinear, MinDB: math.NaN(), MaxDB: 0, Gamma: 1},
	}
	for _, cfg := range tests {
		_, err := New(cfg)
		assert.True(t, errors.Is(err, ErrInvalidRange), "%+v: %v", cfg, err)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	for _, k := range []Kind{KindNormalized, KindDecibel, KindLinear} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("loudness")
	assert.Error(t, err)
}
