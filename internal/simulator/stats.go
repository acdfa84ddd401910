package simulator

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"gocascade/domain/core"
	"gocascade/domain/frame"
)

// computeStat reduces a numeric column server-side. The implementation is
// gonum-based on purpose: the verification harness compares these values
// against a separately implemented reference engine, so the two sides must
// not share code.
func computeStat(s frame.Stat, values []float64) (float64, error) {
	data := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%s: %w", s, core.ErrEmptyData)
	}

	switch s {
	case frame.StatMean:
		return stat.Mean(data, nil), nil
	case frame.StatSdev:
		return math.Sqrt(stat.Variance(data, nil)), nil
	case frame.StatVariance:
		return stat.Variance(data, nil), nil
	case frame.StatMin:
		return floats.Min(data), nil
	case frame.StatMax:
		return floats.Max(data), nil
	case frame.StatSum:
		return floats.Sum(data), nil
	case frame.StatMedian:
		return median(data), nil
	default:
		return 0, fmt.Errorf("unknown statistic %q", s)
	}
}

// median interpolates between the two middle values on even lengths
func median(data []float64) float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// absCorrelation ranks feature relevance for the stub importance table
func absCorrelation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return math.Abs(r)
}
