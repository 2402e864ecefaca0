// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(from, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(from + i)
	}
	return out
}

func ordered(r *RingBuffer) []float64 {
	out := make([]float64, r.Capacity())
	r.CopyOrdered(out)
	return out
}

func TestRingBuffer_FIFO(t *testing.T) {
	t.Parallel()
	const capacity = 8

	tests := []struct {
		name  string
		added int
		want  []float64
	}{
		{"empty", 0, []float64{0, 0, 0, 0, 0, 0, 0, 0}},
		{"partial", 3, []float64{0, 0, 0, 0, 0, 1, 2, 3}},
		{"exactly capacity", capacity, []float64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"capacity plus three", capacity + 3, []float64{4, 5, 6, 7, 8, 9, 10, 11}},
		{"two laps", 2*capacity + 1, []float64{10, 11, 12, 13, 14, 15, 16, 17}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := NewRingBuffer(capacity, AllChannels)
			require.NoError(t, err)
			samples := ramp(1, tt.added)
			r.Add(samples, len(samples), LayoutForChannels(1))
			assert.Equal(t, tt.want, ordered(r))
		})
	}
}

func TestRingBuffer_FIFOAcrossCalls(t *testing.T) {
	t.Parallel()
	r, err := NewRingBuffer(5, AllChannels)
	require.NoError(t, err)

	mono := LayoutForChannels(1)
	for i := range 7 {
		r.Add([]float32{float32(i + 1)}, 1, mono)
	}
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, ordered(r))
}

func TestRingBuffer_ChannelMix(t *testing.T) {
	t.Parallel()
	stereo := FrontLeft | FrontRight
	// Left carries 1, right carries 3.
	frames := []float32{1, 3, 1, 3}

	tests := []struct {
		name      string
		selection ChannelMask
		want      float64
	}{
		{"all channels average", AllChannels, 2},
		{"left only", FrontLeft, 1},
		{"right only", FrontRight, 3},
		{"absent channel mixes to zero", LowFrequency, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := NewRingBuffer(2, tt.selection)
			require.NoError(t, err)
			r.Add(frames, len(frames), stereo)
			assert.Equal(t, []float64{tt.want, tt.want}, ordered(r))
		})
	}
}

func TestRingBuffer_SurroundLayout(t *testing.T) {
	t.Parallel()
	layout := LayoutForChannels(6) // FL FR FC LFE BL BR
	r, err := NewRingBuffer(1, FrontCenter|LowFrequency)
	require.NoError(t, err)

	r.Add([]float32{9, 9, 2, 4, 9, 9}, 6, layout)
	assert.Equal(t, []float64{3}, ordered(r))
}

func TestRingBuffer_PartialFrameDropped(t *testing.T) {
	t.Parallel()
	r, err := NewRingBuffer(4, AllChannels)
	require.NoError(t, err)

	// Five samples of stereo: two whole frames and one stray sample.
	r.Add([]float32{1, 1, 2, 2, 7}, 5, FrontLeft|FrontRight)
	assert.Equal(t, []float64{0, 0, 1, 2}, ordered(r))

	// The stray sample is not carried over.
	r.Add([]float32{3, 3}, 2, FrontLeft|FrontRight)
	assert.Equal(t, []float64{0, 1, 2, 3}, ordered(r))
}

func TestRingBuffer_NoOpInputs(t *testing.T) {
	t.Parallel()
	r, err := NewRingBuffer(3, AllChannels)
	require.NoError(t, err)
	r.Add([]float32{1, 2, 3}, 3, FrontCenter)

	r.Add(nil, 10, FrontCenter)
	r.Add([]float32{}, 0, FrontCenter)
	r.Add([]float32{5}, 1, 0)
	r.Add([]float32{5}, -1, FrontCenter)
	assert.Equal(t, []float64{1, 2, 3}, ordered(r))

	// A count larger than the slice is truncated to the slice.
	r.Add([]float32{4}, 100, FrontCenter)
	assert.Equal(t, []float64{2, 3, 4}, ordered(r))
}

func TestRingBuffer_Tap(t *testing.T) {
	t.Parallel()
	r, err := NewRingBuffer(4, AllChannels)
	require.NoError(t, err)

	var seen []float64
	r.SetTap(func(x float64) { seen = append(seen, x) })
	r.Add([]float32{1, 3, 5, 7}, 4, FrontLeft|FrontRight)
	assert.Equal(t, []float64{2, 6}, seen)

	r.SetTap(nil)
	r.Add([]float32{1, 1}, 2, FrontLeft|FrontRight)
	assert.Len(t, seen, 2)
}

func TestRingBuffer_Resized(t *testing.T) {
	t.Parallel()
	r, err := NewRingBuffer(4, AllChannels)
	require.NoError(t, err)
	samples := ramp(1, 6)
	r.Add(samples, len(samples), FrontCenter)

	grown, err := r.Resized(6, AllChannels)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 3, 4, 5, 6}, ordered(grown))

	shrunk, err := r.Resized(2, FrontLeft)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6}, ordered(shrunk))
	assert.Equal(t, FrontLeft, shrunk.Selection())

	// The source is untouched and new samples land after the carried ones.
	assert.Equal(t, []float64{3, 4, 5, 6}, ordered(r))
	grown.Add([]float32{7}, 1, FrontCenter)
	assert.Equal(t, []float64{0, 3, 4, 5, 6, 7}, ordered(grown))

	_, err = r.Resized(0, AllChannels)
	assert.True(t, errors.Is(err, ErrInvalidCapacity))
}

func TestNewRingBuffer_InvalidCapacity(t *testing.T) {
	t.Parallel()
	for _, c := range []int{0, -4} {
		_, err := NewRingBuffer(c, AllChannels)
		assert.True(t, errors.Is(err, ErrInvalidCapacity), "capacity %d", c)
	}
}

func TestParseChannels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		names   []string
		want    ChannelMask
		wantErr bool
	}{
		{nil, AllChannels, false},
		{[]string{"all"}, AllChannels, false},
		{[]string{"FL", " fr "}, FrontLeft | FrontRight, false},
		{[]string{"lfe"}, LowFrequency, false},
		{[]string{"fl", "center"}, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseChannels(tt.names)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.names)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%v", tt.names)
	}
}

func TestLayoutForChannels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n     int
		count int
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}, {6, 6}, {7, 7}, {8, 8}, {12, 12}, {32, 32}, {40, 32},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.count, LayoutForChannels(tt.n).Count(), "n=%d", tt.n)
	}
	assert.Equal(t, FrontCenter, LayoutForChannels(1))
	assert.NotZero(t, LayoutForChannels(6)&LowFrequency)
}

func BenchmarkRingBuffer_Add(b *testing.B) {
	r, err := NewRingBuffer(4096, AllChannels)
	if err != nil {
		b.Fatal(err)
	}
	samples := make([]float32, 1024)
	layout := FrontLeft | FrontRight

	b.ReportAllocs()
	for b.Loop() {
		r.Add(samples, len(samples), layout)
	}
}
