// SPDX-License-Identifier: MIT
package bands

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Scaling selects the frequency axis warp used to place bands.
type Scaling int

const (
	Linear Scaling = iota
	Logarithmic
	ShiftedLog
	Mel
	Bark
	AdjustableBark
	ERB
	Cams
	HyperbolicSine
	NthRoot
	NegativeExponential
	Period
)

var scalingNames = [...]string{
	Linear:              "linear",
	Logarithmic:         "log",
	ShiftedLog:          "shifted-log",
	Mel:                 "mel",
	Bark:                "bark",
	AdjustableBark:      "adjustable-bark",
	ERB:                 "erb",
	Cams:                "cams",
	HyperbolicSine:      "sinh",
	NthRoot:             "nth-root",
	NegativeExponential: "negative-exponential",
	Period:              "period",
}

func (s Scaling) String() string {
	if s < 0 || int(s) >= len(scalingNames) {
		return fmt.Sprintf("scaling(%d)", int(s))
	}
	return scalingNames[s]
}

// Scalings lists every scaling in declaration order.
func Scalings() []Scaling {
	out := make([]Scaling, len(scalingNames))
	for i := range out {
		out[i] = Scaling(i)
	}
	return out
}

var (
	ErrUnknownScaling = errors.New("unknown frequency scaling")
	ErrInvalidSkew    = errors.New("scaling skew must be within [0, 1]")
)

// ParseScaling converts a name (case-insensitive) to a Scaling. Returns
// Logarithmic and an error if the name is unknown.
func ParseScaling(name string) (Scaling, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	switch key {
	case "log2", "logarithmic", "octave":
		return Logarithmic, nil
	case "hz":
		return Linear, nil
	case "asinh", "hyperbolic-sine":
		return HyperbolicSine, nil
	case "root":
		return NthRoot, nil
	case "negexp":
		return NegativeExponential, nil
	}
	for i, n := range scalingNames {
		if n == key {
			return Scaling(i), nil
		}
	}
	return Logarithmic, fmt.Errorf("%w: '%s'", ErrUnknownScaling, name)
}

// Scale is a frequency warp with its skew. Forward and Inverse are exact
// inverses of each other for positive frequencies.
type Scale struct {
	Kind Scaling
	Skew float64 // In [0, 1]; only some kinds use it.
}

// NewScale validates kind and skew.
func NewScale(kind Scaling, skew float64) (Scale, error) {
	if kind < 0 || int(kind) >= len(scalingNames) {
		return Scale{}, fmt.Errorf("%w: %d", ErrUnknownScaling, int(kind))
	}
	if math.IsNaN(skew) || skew < 0 || skew > 1 {
		return Scale{}, fmt.Errorf("%w: %g", ErrInvalidSkew, skew)
	}
	return Scale{Kind: kind, Skew: skew}, nil
}

const erbFactor = 24.7 * 9.265

// Forward maps a frequency in Hz into the scaled domain.
func (s Scale) Forward(f float64) float64 {
	switch s.Kind {
	case Linear:
		return f
	case Logarithmic:
		return math.Log2(f)
	case ShiftedLog:
		return math.Log2(f + 500*s.Skew)
	case Mel:
		return 2595 * math.Log10(1+f/700)
	case Bark:
		return 26.81*f/(1960+f) - 0.53
	case AdjustableBark:
		c := s.barkCorner()
		return 26.81*f/(c+f) - 0.53
	case ERB:
		return 9.265 * math.Log1p(f/erbFactor)
	case Cams:
		return 21.4 * math.Log10(1+0.00437*f)
	case HyperbolicSine:
		return math.Asinh(f / s.sinhScale())
	case NthRoot:
		return math.Pow(f, 1/s.root())
	case NegativeExponential:
		return -math.Exp2(-f / s.halfLife())
	case Period:
		return -1 / f
	default:
		return f
	}
}

// Inverse maps a scaled value back to Hz.
func (s Scale) Inverse(x float64) float64 {
	switch s.Kind {
	case Linear:
		return x
	case Logarithmic:
		return math.Exp2(x)
	case ShiftedLog:
		return math.Exp2(x) - 500*s.Skew
	case Mel:
		return 700 * (math.Pow(10, x/2595) - 1)
	case Bark:
		return 1960 * (x + 0.53) / (26.28 - x)
	case AdjustableBark:
		return s.barkCorner() * (x + 0.53) / (26.28 - x)
	case ERB:
		return erbFactor * math.Expm1(x/9.265)
	case Cams:
		return (math.Pow(10, x/21.4) - 1) / 0.00437
	case HyperbolicSine:
		return s.sinhScale() * math.Sinh(x)
	case NthRoot:
		return math.Pow(x, s.root())
	case NegativeExponential:
		return -s.halfLife() * math.Log2(-x)
	case Period:
		return -1 / x
	default:
		return x
	}
}

func (s Scale) barkCorner() float64 { return 1960 * math.Exp2(4*s.Skew-2) }
func (s Scale) sinhScale() float64  { return math.Pow(10, 1+3*s.Skew) }
func (s Scale) root() float64       { return 1 + 9*s.Skew }
func (s Scale) halfLife() float64   { return 100 + 9900*s.Skew }
