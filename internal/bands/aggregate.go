// SPDX-License-Identifier: MIT
package bands

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Aggregate reduces the bin magnitudes that fall into a band to one value.
type Aggregate int

const (
	Minimum Aggregate = iota
	Maximum
	Sum
	RMS
	RMSSum
	Average
	Median
)

var aggregateNames = [...]string{
	Minimum: "minimum",
	Maximum: "maximum",
	Sum:     "sum",
	RMS:     "rms",
	RMSSum:  "rms-sum",
	Average: "average",
	Median:  "median",
}

func (a Aggregate) String() string {
	if a < 0 || int(a) >= len(aggregateNames) {
		return fmt.Sprintf("aggregate(%d)", int(a))
	}
	return aggregateNames[a]
}

// ParseAggregate converts a name (case-insensitive) to an Aggregate. Returns
// Maximum and an error if the name is unknown.
func ParseAggregate(name string) (Aggregate, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	switch key {
	case "", "max":
		return Maximum, nil
	case "min":
		return Minimum, nil
	case "mean", "avg":
		return Average, nil
	case "rmssum":
		return RMSSum, nil
	}
	for i, n := range aggregateNames {
		if n == key {
			return Aggregate(i), nil
		}
	}
	return Maximum, fmt.Errorf("unknown aggregate: '%s'", name)
}

// Reduce applies the aggregate to values. Median sorts values in place, so
// callers pass a scratch copy. An empty slice reduces to 0.
func (a Aggregate) Reduce(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch a {
	case Minimum:
		return floats.Min(values)
	case Maximum:
		return floats.Max(values)
	case Sum:
		return floats.Sum(values)
	case RMS:
		return math.Sqrt(floats.Dot(values, values) / float64(len(values)))
	case RMSSum:
		return math.Sqrt(floats.Dot(values, values))
	case Average:
		return floats.Sum(values) / float64(len(values))
	case Median:
		slices.Sort(values)
		mid := len(values) / 2
		if len(values)%2 == 1 {
			return values[mid]
		}
		return (values[mid-1] + values[mid]) / 2
	default:
		return floats.Max(values)
	}
}
