// SPDX-License-Identifier: MIT
//
// Package window evaluates parametric, skewable window functions on the
// normalized position range [-1, 1], with 0 at the center of the frame.
package window

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Shape selects the window function.
type Shape int

// Available window shapes.
const (
	Rectangular Shape = iota
	Hann
	Hamming
	Blackman
	Nuttall
	BlackmanNuttall
	BlackmanHarris
	FlatTop
	Triangular
	Welch
	PowerOfSine
	PowerOfCircle
	Gaussian
	Tukey
	Kaiser
	Poisson
	HyperbolicSecant
	Lanczos
	Vorbis
)

var shapeNames = [...]string{
	Rectangular:      "rectangular",
	Hann:             "hann",
	Hamming:          "hamming",
	Blackman:         "blackman",
	Nuttall:          "nuttall",
	BlackmanNuttall:  "blackman-nuttall",
	BlackmanHarris:   "blackman-harris",
	FlatTop:          "flat-top",
	Triangular:       "triangular",
	Welch:            "welch",
	PowerOfSine:      "power-of-sine",
	PowerOfCircle:    "power-of-circle",
	Gaussian:         "gaussian",
	Tukey:            "tukey",
	Kaiser:           "kaiser",
	Poisson:          "poisson",
	HyperbolicSecant: "hyperbolic-secant",
	Lanczos:          "lanczos",
	Vorbis:           "vorbis",
}

// Shapes lists every supported shape in declaration order.
func Shapes() []Shape {
	shapes := make([]Shape, len(shapeNames))
	for i := range shapes {
		shapes[i] = Shape(i)
	}
	return shapes
}

// String returns the configuration name of the shape.
func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("shape(%d)", int(s))
	}
	return shapeNames[s]
}

// DefaultParameter is the shape parameter used when the configuration leaves
// it unset. Shapes without a parameter return 0.
func (s Shape) DefaultParameter() float64 {
	switch s {
	case PowerOfSine, PowerOfCircle:
		return 2
	case Gaussian:
		return 2.5
	case Tukey:
		return 0.5
	case Kaiser:
		return 3
	case Poisson:
		return 2
	case HyperbolicSecant:
		return 3
	default:
		return 0
	}
}

var (
	ErrUnknownShape     = errors.New("unknown window shape")
	ErrInvalidParameter = errors.New("invalid window parameter")
	ErrInvalidSkew      = errors.New("window skew must be within [-1, 1]")
)

// ParseShape converts a name (case-insensitive, '-', '_' and ' ' ignored) to
// a Shape. Returns Hann and an error if the name is unknown.
func ParseShape(name string) (Shape, error) {
	key := normalizeName(name)
	switch key {
	case "hanning":
		return Hann, nil
	case "boxcar", "none":
		return Rectangular, nil
	case "bartlett":
		return Triangular, nil
	case "gauss":
		return Gaussian, nil
	case "sech":
		return HyperbolicSecant, nil
	case "sinc":
		return Lanczos, nil
	}
	for i, n := range shapeNames {
		if normalizeName(n) == key {
			return Shape(i), nil
		}
	}
	return Hann, fmt.Errorf("%w: '%s'", ErrUnknownShape, name)
}

func normalizeName(name string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}

// Function is an immutable window configuration.
type Function struct {
	Shape     Shape
	Parameter float64 // Shape parameter (exponent, alpha or sigma, depending on Shape).
	Skew      float64 // Moves the peak left (< 0) or right (> 0); 0 keeps it centered.
}

// New validates the configuration and returns a Function.
func New(shape Shape, parameter, skew float64) (Function, error) {
	if shape < 0 || int(shape) >= len(shapeNames) {
		return Function{}, fmt.Errorf("%w: %d", ErrUnknownShape, int(shape))
	}
	if math.IsNaN(skew) || skew < -1 || skew > 1 {
		return Function{}, fmt.Errorf("%w: %g", ErrInvalidSkew, skew)
	}
	if math.IsNaN(parameter) || math.IsInf(parameter, 0) || parameter < 0 {
		return Function{}, fmt.Errorf("%w: %s parameter %g", ErrInvalidParameter, shape, parameter)
	}
	if shape == Tukey && parameter > 1 {
		return Function{}, fmt.Errorf("%w: tukey alpha %g exceeds 1", ErrInvalidParameter, parameter)
	}
	return Function{Shape: shape, Parameter: parameter, Skew: skew}, nil
}

// Position maps sample index j of an n-point frame onto [-1, 1). The placement
// is periodic, so j = n/2 lands on the center.
func Position(j, n int) float64 {
	return 2*float64(j)/float64(n) - 1
}

// Fill evaluates the window at the periodic positions of len(dst) points and
// returns the sum of the weights.
func (f Function) Fill(dst []float64) float64 {
	var sum float64
	n := len(dst)
	for j := range dst {
		w := f.At(Position(j, n))
		dst[j] = w
		sum += w
	}
	return sum
}

// At evaluates the window at x in [-1, 1]. Values outside the range are 0.
func (f Function) At(x float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}
	if f.Skew != 0 {
		x = skew(x, f.Skew)
	}
	return f.evaluate(x)
}

// skew warps x with a rational curve that keeps both ends fixed.
func skew(x, amount float64) float64 {
	u := (x + 1) / 2
	k := 10 * amount * amount
	var v float64
	if amount > 0 {
		v = u / (1 + k*(1-u))
	} else {
		v = u * (1 + k) / (1 + k*u)
	}
	return 2*v - 1
}

func (f Function) evaluate(x float64) float64 {
	p := f.Parameter
	switch f.Shape {
	case Rectangular:
		return 1
	case Hann:
		return cosineSum(x, 0.5, 0.5)
	case Hamming:
		return cosineSum(x, 0.54, 0.46)
	case Blackman:
		return cosineSum(x, 0.42, 0.5, 0.08)
	case Nuttall:
		return cosineSum(x, 0.355768, 0.487396, 0.144232, 0.012604)
	case BlackmanNuttall:
		return cosineSum(x, 0.3635819, 0.4891775, 0.1365995, 0.0106411)
	case BlackmanHarris:
		return cosineSum(x, 0.35875, 0.48829, 0.14128, 0.01168)
	case FlatTop:
		return cosineSum(x, 0.21557895, 0.41663158, 0.277263158, 0.083578947, 0.006947368)
	case Triangular:
		return 1 - math.Abs(x)
	case Welch:
		return 1 - x*x
	case PowerOfSine:
		return math.Pow(math.Cos(math.Pi*x/2), p)
	case PowerOfCircle:
		return math.Pow(math.Sqrt(1-x*x), p)
	case Gaussian:
		return math.Exp(-0.5 * (p * x) * (p * x))
	case Tukey:
		return tukey(x, p)
	case Kaiser:
		return besselI0(math.Pi*p*math.Sqrt(1-x*x)) / besselI0(math.Pi*p)
	case Poisson:
		return math.Exp(-p * math.Abs(x))
	case HyperbolicSecant:
		return 1 / math.Cosh(p*x)
	case Lanczos:
		return sinc(x)
	case Vorbis:
		c := math.Cos(math.Pi * x / 2)
		return math.Sin(math.Pi / 2 * c * c)
	default:
		return 1
	}
}

// cosineSum evaluates a0 + a1 cos(pi x) + a2 cos(2 pi x) + ..., the centered
// form of the generalized cosine windows.
func cosineSum(x float64, coeffs ...float64) float64 {
	var sum float64
	for k, a := range coeffs {
		sum += a * math.Cos(float64(k)*math.Pi*x)
	}
	return sum
}

func tukey(x, alpha float64) float64 {
	ax := math.Abs(x)
	if alpha <= 0 || ax <= 1-alpha {
		return 1
	}
	return 0.5 * (1 + math.Cos(math.Pi*(ax-(1-alpha))/alpha))
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// besselI0 is the zeroth order modified Bessel function of the first kind,
// summed from its power series until the terms stop contributing.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	half := x / 2
	for k := 1; k < 64; k++ {
		term *= half / float64(k)
		t := term * term
		sum += t
		if t < sum*1e-17 {
			break
		}
	}
	return sum
}
