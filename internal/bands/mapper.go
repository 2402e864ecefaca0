// SPDX-License-Identifier: MIT
package bands

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"spectrum/internal/fft"
	"spectrum/internal/window"
	"spectrum/pkg/bitint"
)

// Mode selects how coefficients are mapped onto bands.
type Mode int

const (
	// Standard aggregates the magnitudes of the bins inside each band.
	Standard Mode = iota
	// FilterBank weights the bins with a triangle peaking at the band center.
	FilterBank
	// Kernel sums neighbouring coefficients through a constant-Q window
	// (Brown-Puckette).
	Kernel
)

func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case FilterBank:
		return "filter-bank"
	case Kernel:
		return "kernel"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a name (case-insensitive) to a Mode. Returns Standard
// and an error if the name is unknown.
func ParseMode(name string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-") {
	case "", "standard", "bins":
		return Standard, nil
	case "filter-bank", "filterbank", "triangular":
		return FilterBank, nil
	case "kernel", "brown-puckette", "cqt-kernel":
		return Kernel, nil
	default:
		return Standard, fmt.Errorf("unknown band mapping: '%s'", name)
	}
}

// Interpolation kernel limits.
const (
	MinInterpolationSize = 1
	MaxInterpolationSize = 64
)

// MapperConfig holds the mapping settings.
type MapperConfig struct {
	Mode      Mode
	Aggregate Aggregate

	SmoothLowerFrequencies bool // Interpolate bands narrower than two bins.
	InterpolationSize      int  // Lanczos kernel size, 1..64.

	// Kernel mode.
	BandwidthAmount   float64 // Multiplier on the band width.
	BandwidthOffset   float64 // Bins added to the scaled width.
	BandwidthCap      int     // Maximum kernel width in bins.
	GranularBandwidth bool    // Skip power-of-two snapping.
	KernelShape       window.Shape
	KernelParameter   float64
	KernelAsymmetry   float64

	// FrameWindow is the window applied to the frame before the transform.
	// Kernel spans are calibrated against its spectrum.
	FrameWindow window.Function
}

// DefaultMapperConfig returns Standard mapping with a maximum aggregate.
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		Mode:                   Standard,
		Aggregate:              Maximum,
		SmoothLowerFrequencies: true,
		InterpolationSize:      4,
		BandwidthAmount:        1,
		BandwidthOffset:        1,
		BandwidthCap:           256,
		KernelShape:            window.Hann,
		FrameWindow:            window.Function{Shape: window.Hann},
	}
}

var (
	ErrInvalidMapper  = errors.New("invalid band mapper configuration")
	ErrLayoutMismatch = errors.New("band layout does not match mapper")
)

// span is the precomputed reach of one band into the coefficient vector.
type span struct {
	lo, hi  int       // Bin range [lo, hi).
	weights []float64 // FilterBank and Kernel weights, one per bin in range.
	sum     float64   // Sum of weights; for Kernel, the response to an on-center tone.
	center  float64   // Fractional bin position of the band center.
}

// Mapper maps an N-point coefficient vector onto a fixed band layout. It owns
// scratch buffers and is not safe for concurrent use.
type Mapper struct {
	cfg     MapperConfig
	n       int
	binHz   float64
	spans   []span
	mags    []float64 // Folded magnitudes, bins 0..N/2.
	scratch []float64
	kernel  window.Function
}

// NewMapper precomputes the bin spans of every band for an n-point transform
// at sampleRate.
func NewMapper(cfg MapperConfig, bands []FrequencyBand, n int, sampleRate float64) (*Mapper, error) {
	if n < fft.MinSize || !(sampleRate > 0) {
		return nil, fmt.Errorf("%w: size %d, sample rate %g", ErrInvalidMapper, n, sampleRate)
	}
	if cfg.InterpolationSize < MinInterpolationSize || cfg.InterpolationSize > MaxInterpolationSize {
		return nil, fmt.Errorf("%w: interpolation size %d outside [%d, %d]", ErrInvalidMapper, cfg.InterpolationSize, MinInterpolationSize, MaxInterpolationSize)
	}
	if cfg.Aggregate < Minimum || cfg.Aggregate > Median {
		return nil, fmt.Errorf("%w: aggregate %d", ErrInvalidMapper, int(cfg.Aggregate))
	}

	m := &Mapper{
		cfg:   cfg,
		n:     n,
		binHz: fft.BinFrequency(1, n, sampleRate),
		spans: make([]span, len(bands)),
		mags:  make([]float64, n/2+1),
	}

	switch cfg.Mode {
	case Standard:
		m.planStandard(bands)
	case FilterBank:
		m.planFilterBank(bands)
	case Kernel:
		if err := m.planKernel(bands); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: mode %d", ErrInvalidMapper, int(cfg.Mode))
	}

	widest := 0
	for _, s := range m.spans {
		widest = max(widest, s.hi-s.lo)
	}
	m.scratch = make([]float64, widest)
	return m, nil
}

// binRange returns the bins whose frequency lies in [lo, hi).
func (m *Mapper) binRange(lo, hi float64) (int, int) {
	last := len(m.mags)
	first := max(0, min(last, int(math.Ceil(lo/m.binHz))))
	end := max(first, min(last, int(math.Ceil(hi/m.binHz))))
	return first, end
}

func (m *Mapper) planStandard(bands []FrequencyBand) {
	for i, b := range bands {
		lo, hi := m.binRange(b.Lo, b.Hi)
		m.spans[i] = span{lo: lo, hi: hi, center: b.Center / m.binHz}
	}
}

func (m *Mapper) planFilterBank(bands []FrequencyBand) {
	for i, b := range bands {
		lo, hi := m.binRange(b.Lo, b.Hi)
		s := span{lo: lo, hi: hi, center: b.Center / m.binHz, weights: make([]float64, hi-lo)}
		for k := lo; k < hi; k++ {
			f := float64(k) * m.binHz
			var w float64
			switch {
			case f < b.Center && b.Center > b.Lo:
				w = (f - b.Lo) / (b.Center - b.Lo)
			case f >= b.Center && b.Hi > b.Center:
				w = (b.Hi - f) / (b.Hi - b.Center)
			}
			w = max(0, min(1, w))
			s.weights[k-lo] = w
			s.sum += w
		}
		m.spans[i] = s
	}
}

func (m *Mapper) planKernel(bands []FrequencyBand) error {
	cfg := m.cfg
	if cfg.BandwidthCap < 1 {
		return fmt.Errorf("%w: bandwidth cap %d", ErrInvalidMapper, cfg.BandwidthCap)
	}
	fn, err := window.New(cfg.KernelShape, cfg.KernelParameter, cfg.KernelAsymmetry)
	if err != nil {
		return fmt.Errorf("%w: kernel: %w", ErrInvalidMapper, err)
	}
	m.kernel = fn
	lobe := newFrameLobe(cfg.FrameWindow, m.n)

	for i, b := range bands {
		width := math.Abs(b.Hi-b.Lo)*cfg.BandwidthAmount/m.binHz + cfg.BandwidthOffset
		bins := max(1, int(math.Round(width)))
		if !cfg.GranularBandwidth {
			bins = bitint.NearestPowerOfTwo(bins)
		}
		bins = max(1, min(bins, cfg.BandwidthCap, m.n/2))

		center := b.Center / m.binHz
		half := float64(bins+1) / 2
		first := int(math.Round(center - float64(bins-1)/2))
		lo := max(0, first)
		hi := min(len(m.mags), first+bins)
		if hi < lo {
			hi = lo
		}

		s := span{lo: lo, hi: hi, center: center, weights: make([]float64, hi-lo)}
		var gain complex128
		for k := lo; k < hi; k++ {
			w := fn.At((float64(k) - center) / half)
			s.weights[k-lo] = w
			s.sum += w
			gain += complex(w, 0) * lobe.at(float64(k)-center)
		}
		// A full-scale tone at the center reads 1 whatever the kernel width.
		if g := math.Hypot(real(gain), imag(gain)); g > minKernelGain {
			s.sum = g
		}
		m.spans[i] = s
	}
	return nil
}

// Limits of the frame window response used for kernel calibration.
const (
	maxLobePoints = 4096
	minKernelGain = 1e-9
)

// frameLobe evaluates the normalized spectrum of the frame window at
// fractional bin offsets, re-centred on the middle of the frame the same way
// kernelSum re-centres the coefficients.
type frameLobe struct {
	pos     []float64
	weights []float64
	norm    float64
}

func newFrameLobe(fn window.Function, n int) frameLobe {
	q := min(n, maxLobePoints)
	l := frameLobe{pos: make([]float64, q), weights: make([]float64, q)}
	for j := range q {
		l.pos[j] = window.Position(j, q)
		l.weights[j] = fn.At(l.pos[j])
		l.norm += l.weights[j]
	}
	return l
}

// at returns sum_j w_j exp(-i pi d x_j) / sum_j w_j, with x_j in [-1, 1).
func (l frameLobe) at(d float64) complex128 {
	if !(l.norm > 0) {
		return 0
	}
	var re, im float64
	for j, w := range l.weights {
		sin, cos := math.Sincos(math.Pi * d * l.pos[j])
		re += w * cos
		im -= w * sin
	}
	return complex(re/l.norm, im/l.norm)
}

// Map writes every band's Raw value from coeffs.
func (m *Mapper) Map(coeffs []complex128, bands []FrequencyBand) error {
	if len(coeffs) != m.n || len(bands) != len(m.spans) {
		return fmt.Errorf("%w: %d coefficients, %d bands (want %d, %d)", ErrLayoutMismatch, len(coeffs), len(bands), m.n, len(m.spans))
	}

	fft.Magnitudes(m.mags, coeffs)

	for i := range bands {
		s := &m.spans[i]
		var v float64
		switch m.cfg.Mode {
		case Standard:
			v = m.standard(s)
		case FilterBank:
			v = m.filterBank(s)
		case Kernel:
			v = m.kernelSum(s, coeffs)
		}
		if !isFinite(v) {
			v = 0
		}
		bands[i].Raw = v
	}
	return nil
}

func (m *Mapper) standard(s *span) float64 {
	count := s.hi - s.lo
	if count == 0 || (count < 2 && m.cfg.SmoothLowerFrequencies) {
		return m.lanczos(s.center)
	}
	values := m.scratch[:count]
	copy(values, m.mags[s.lo:s.hi])
	return m.cfg.Aggregate.Reduce(values)
}

func (m *Mapper) filterBank(s *span) float64 {
	if !(s.sum > 0) {
		return m.lanczos(s.center)
	}
	values := m.scratch[:s.hi-s.lo]
	for j, w := range s.weights {
		values[j] = m.mags[s.lo+j] * w
	}
	return m.cfg.Aggregate.Reduce(values)
}

// kernelSum evaluates sqrt(2) * |sum X_k (-1)^k w_k| / g, where g is the same
// sum for an on-center tone. The sign flip moves the time origin to the middle
// of the frame, where the analysis window peaks, so the main lobe adds up
// coherently.
func (m *Mapper) kernelSum(s *span, coeffs []complex128) float64 {
	if !(s.sum > 0) {
		return m.lanczos(s.center)
	}
	var acc complex128
	for j, w := range s.weights {
		k := s.lo + j
		c := coeffs[k] * complex(w, 0)
		if k%2 == 1 {
			c = -c
		}
		acc += c
	}
	return math.Sqrt2 * math.Hypot(real(acc), imag(acc)) / s.sum
}

// lanczos interpolates the magnitudes at a fractional bin position.
func (m *Mapper) lanczos(pos float64) float64 {
	a := m.cfg.InterpolationSize
	base := int(math.Floor(pos))
	var sum float64
	for k := base - a + 1; k <= base+a; k++ {
		if k < 0 || k >= len(m.mags) {
			continue
		}
		sum += m.mags[k] * lanczosKernel(pos-float64(k), float64(a))
	}
	return max(0, sum)
}

func lanczosKernel(x, a float64) float64 {
	if x == 0 {
		return 1
	}
	if x <= -a || x >= a {
		return 0
	}
	px := math.Pi * x
	return a * math.Sin(px) * math.Sin(px/a) / (px * px)
}
