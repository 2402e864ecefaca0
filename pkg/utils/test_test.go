// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0
)

// hill returns n magnitudes with a single smooth peak at bin peak.
func hill(n, peak int) []float64 {
	mags := make([]float64, n)
	for i := range mags {
		d := float64(i - peak)
		mags[i] = math.Exp(-0.01 * d * d)
	}
	return mags
}

func TestMockTransport(t *testing.T) {
	mt := &MockTransport{}
	require.NoError(t, mt.Send("first"))
	require.NoError(t, mt.Send(42))

	msgs := mt.Messages()
	assert.Equal(t, []any{"first", 42}, msgs)

	msgs[0] = "changed"
	assert.Equal(t, "first", mt.Messages()[0], "Messages returns a copy")

	mt.Err = errors.New("boom")
	assert.Error(t, mt.Send("third"))
	assert.Len(t, mt.Messages(), 2)

	assert.False(t, mt.Closed())
	require.NoError(t, mt.Close())
	assert.True(t, mt.Closed())
}

func TestInterleave(t *testing.T) {
	out := Interleave([]float32{1, 2, 3}, 2)
	assert.Equal(t, []float32{1, 1, 2, 2, 3, 3}, out)
	assert.Empty(t, Interleave(nil, 4))
}

func TestGenerateComplexWave(t *testing.T) {
	for _, size := range []int{16, 1024, 8192} {
		wave := GenerateComplexWave(size, testSampleRate)
		require.Len(t, wave, size)

		var peak float32
		for _, v := range wave {
			peak = max(peak, v, -v)
		}
		assert.Positive(t, peak)
		assert.LessOrEqual(t, peak, float32(0.9), "partials sum to at most 0.9")
	}
}

func TestGenerateSineWave(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		frequency  float64
	}{
		{"A4", 44100, 440},
		{"Middle C", 44100, 261.63},
		{"High sample rate", 192000, 440},
		{"Low sample rate", 8000, 440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wave := GenerateSineWave(testSize, tt.sampleRate, tt.frequency)
			require.Len(t, wave, testSize)
			assert.Zero(t, wave[0], "starts at phase 0")

			crossings := 0
			for i := 1; i < len(wave); i++ {
				if (wave[i-1] < 0) != (wave[i] < 0) {
					crossings++
				}
			}
			// Two crossings per cycle, within one cycle of phase slack.
			want := 2 * float64(testSize) * tt.frequency / tt.sampleRate
			assert.InDelta(t, want, float64(crossings), 2)
		})
	}
}

func TestFindPeakBin(t *testing.T) {
	mags := hill(testSize, testSize/4)
	tests := []struct {
		name       string
		mags       []float64
		start, end int
		want       int
	}{
		{"Full range", mags, 0, testSize - 1, testSize / 4},
		{"Starts after the peak", mags, testSize / 2, testSize - 1, testSize / 2},
		{"Ends before the peak", mags, 0, testSize / 8, testSize / 8},
		{"Negative start", mags, -10, testSize - 1, testSize / 4},
		{"End past the slice", mags, 0, testSize * 2, testSize / 4},
		{"Ties pick the lower bin", []float64{1, 3, 3, 2}, 0, 3, 1},
		{"Single value", []float64{1}, 0, 0, 0},
		{"Empty slice", nil, 0, 10, 0},
		{"Empty range", mags, 10, 5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindPeakBin(tt.mags, tt.start, tt.end))
		})
	}

	allocs := testing.AllocsPerRun(100, func() {
		FindPeakBin(mags, 0, len(mags)-1)
	})
	assert.Zero(t, allocs)
}

func BenchmarkGenerateSineWave(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		GenerateSineWave(testSize, testSampleRate, testFrequency)
	}
}

func BenchmarkFindPeakBin(b *testing.B) {
	for _, size := range []int{64, 1024, 8192} {
		mags := hill(size, size/2)
		b.Run(fmtSize(size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				FindPeakBin(mags, 0, size-1)
			}
		})
	}
}

func fmtSize(n int) string {
	switch {
	case n >= 8192:
		return "Large"
	case n >= 1024:
		return "Standard"
	}
	return "Small"
}
