// SPDX-License-Identifier: MIT
package weighting

import "math"

// Reference responses at 1 kHz, used to normalize each curve to 0 dB there.
var reference = [...]float64{
	None: 1,
	A:    responseA(1000),
	B:    responseB(1000),
	C:    responseC(1000),
	D:    responseD(1000),
	M:    responseM(1000),
}

// CurveDecibels returns the weighting curve in dB at f, 0 dB at 1 kHz.
func CurveDecibels(c Curve, f float64) float64 {
	if c <= None || c > M || !(f > 0) {
		return 0
	}
	var r float64
	switch c {
	case A:
		r = responseA(f)
	case B:
		r = responseB(f)
	case C:
		r = responseC(f)
	case D:
		r = responseD(f)
	case M:
		r = responseM(f)
	}
	return 20 * math.Log10(r/reference[c])
}

const (
	f1 = 20.6
	f2 = 107.7
	f3 = 737.9
	f4 = 12194.0
	f5 = 158.5
)

func responseA(f float64) float64 {
	f2s := f * f
	return f4 * f4 * f2s * f2s /
		((f2s + f1*f1) * math.Sqrt((f2s+f2*f2)*(f2s+f3*f3)) * (f2s + f4*f4))
}

func responseB(f float64) float64 {
	f2s := f * f
	return f4 * f4 * f2s * f /
		((f2s + f1*f1) * math.Sqrt(f2s+f5*f5) * (f2s + f4*f4))
}

func responseC(f float64) float64 {
	f2s := f * f
	return f4 * f4 * f2s / ((f2s + f1*f1) * (f2s + f4*f4))
}

func responseD(f float64) float64 {
	f2s := f * f
	h := ((1037918.48-f2s)*(1037918.48-f2s) + 1080768.16*f2s) /
		((9837328-f2s)*(9837328-f2s) + 11723776*f2s)
	return f / 6.8966888496476e-5 * math.Sqrt(h/((f2s+79919.29)*(f2s+1345600)))
}

func responseM(f float64) float64 {
	f2s := f * f
	f3s := f2s * f
	f4s := f2s * f2s
	h1 := -4.737338981378384e-24*f4s*f2s + 2.043828333606125e-15*f4s - 1.363894795463638e-7*f2s + 1
	h2 := 1.306612257412824e-19*f4s*f - 2.118150887518656e-11*f3s + 5.559488023498642e-4*f
	return 1.246332637532143e-4 * f / math.Sqrt(h1*h1+h2*h2)
}
