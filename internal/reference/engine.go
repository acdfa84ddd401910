package reference

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"gocascade/domain/core"
	"gocascade/domain/frame"
	"gocascade/ports"
)

// Engine computes per-column statistics locally so the verifier has an
// implementation independent of the cluster to compare against. Standard
// deviation and variance use the sample (n-1) forms.
type Engine struct{}

// NewEngine creates a reference statistics engine
func NewEngine() *Engine {
	return &Engine{}
}

var _ ports.Reference = (*Engine)(nil)

// Compute reduces values to the requested statistic. NaN entries encode
// missing values and are dropped first; a column that is entirely missing
// yields core.ErrEmptyData.
func (e *Engine) Compute(stat frame.Stat, values []float64) (float64, error) {
	data := dropMissing(values)
	if len(data) == 0 {
		return 0, fmt.Errorf("%s: %w", stat, core.ErrEmptyData)
	}

	var (
		result float64
		err    error
	)
	switch stat {
	case frame.StatMean:
		result, err = stats.Mean(data)
	case frame.StatSdev:
		result, err = stats.StandardDeviationSample(data)
	case frame.StatVariance:
		result, err = stats.SampleVariance(data)
	case frame.StatMin:
		result, err = stats.Min(data)
	case frame.StatMax:
		result, err = stats.Max(data)
	case frame.StatSum:
		result, err = stats.Sum(data)
	case frame.StatMedian:
		result, err = stats.Median(data)
	default:
		return 0, fmt.Errorf("unknown statistic %q", stat)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", stat, err)
	}
	return result, nil
}

// ComputeAll reduces values to every known statistic in stable order
func (e *Engine) ComputeAll(values []float64) (map[frame.Stat]float64, error) {
	out := make(map[frame.Stat]float64, len(frame.AllStats()))
	for _, s := range frame.AllStats() {
		v, err := e.Compute(s, values)
		if err != nil {
			return nil, err
		}
		out[s] = v
	}
	return out, nil
}

func dropMissing(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
