// SPDX-License-Identifier: MIT
package bands

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logSpaced(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo * math.Pow(hi/lo, float64(i)/float64(n-1))
	}
	return out
}

func TestScale_RoundTrip(t *testing.T) {
	t.Parallel()
	freqs := logSpaced(20, 20000, 200)
	for _, kind := range Scalings() {
		for _, skew := range []float64{0, 0.3, 1} {
			s, err := NewScale(kind, skew)
			require.NoError(t, err)
			for _, f := range freqs {
				got := s.Inverse(s.Forward(f))
				require.InEpsilon(t, f, got, 1e-9, "%s skew=%g f=%g", kind, skew, f)
			}
		}
	}
}

func TestScale_ForwardIncreasing(t *testing.T) {
	t.Parallel()
	freqs := logSpaced(20, 20000, 100)
	for _, kind := range Scalings() {
		s := Scale{Kind: kind, Skew: 0.5}
		prev := s.Forward(freqs[0])
		for _, f := range freqs[1:] {
			cur := s.Forward(f)
			assert.Greater(t, cur, prev, "%s at %g Hz", kind, f)
			prev = cur
		}
	}
}

func TestScale_KnownValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind Scaling
		skew float64
		f    float64
		want float64
	}{
		{Linear, 0, 1234, 1234},
		{Logarithmic, 0, 1024, 10},
		{Mel, 0, 700, 2595 * math.Log10(2)},
		{Bark, 0, 1960, 26.81/2 - 0.53},
		{AdjustableBark, 0.5, 1960, 26.81/2 - 0.53},
		{Period, 0, 4, -0.25},
		{NthRoot, 1.0 / 9, 16, 4},
		{NegativeExponential, 0, 100, -0.5},
		{ShiftedLog, 1, 524, math.Log2(1024)},
	}
	for _, tt := range tests {
		s := Scale{Kind: tt.kind, Skew: tt.skew}
		assert.InDelta(t, tt.want, s.Forward(tt.f), 1e-9, "%s", tt.kind)
	}
}

func TestNewScale_Validation(t *testing.T) {
	t.Parallel()
	_, err := NewScale(Mel, 1.5)
	assert.True(t, errors.Is(err, ErrInvalidSkew))

	_, err = NewScale(Scaling(42), 0)
	assert.True(t, errors.Is(err, ErrUnknownScaling))

	_, err = NewScale(Bark, math.NaN())
	assert.True(t, errors.Is(err, ErrInvalidSkew))
}

func TestParseScaling(t *testing.T) {
	t.Parallel()
	for _, kind := range Scalings() {
		got, err := ParseScaling(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	got, err := ParseScaling("LOG2")
	require.NoError(t, err)
	assert.Equal(t, Logarithmic, got)

	got, err = ParseScaling("nope")
	assert.True(t, errors.Is(err, ErrUnknownScaling))
	assert.Equal(t, Logarithmic, got)
}

func BenchmarkScale(b *testing.B) {
	s := Scale{Kind: Mel}
	b.ReportAllocs()
	for b.Loop() {
		s.Inverse(s.Forward(1000))
	}
}
