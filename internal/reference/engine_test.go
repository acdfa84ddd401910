package reference

import (
	"errors"
	"math"
	"testing"

	"gocascade/domain/core"
	"gocascade/domain/frame"
)

func TestEngine_KnownValues(t *testing.T) {
	e := NewEngine()
	values := []float64{1, 2, 3, 4, 5}

	cases := []struct {
		stat frame.Stat
		want float64
	}{
		{frame.StatMean, 3},
		{frame.StatSum, 15},
		{frame.StatMin, 1},
		{frame.StatMax, 5},
		{frame.StatMedian, 3},
		{frame.StatVariance, 2.5},
		{frame.StatSdev, math.Sqrt(2.5)},
	}

	for _, tc := range cases {
		got, err := e.Compute(tc.stat, values)
		if err != nil {
			t.Fatalf("%s: %v", tc.stat, err)
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("%s: got %v, want %v", tc.stat, got, tc.want)
		}
	}
}

func TestEngine_SampleForms(t *testing.T) {
	// Population sd of this vector is exactly 2; the sample form must not be.
	e := NewEngine()
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	sdev, err := e.Compute(frame.StatSdev, values)
	if err != nil {
		t.Fatalf("sdev: %v", err)
	}
	wantSdev := math.Sqrt(32.0 / 7.0)
	if math.Abs(sdev-wantSdev) > 1e-12 {
		t.Errorf("sdev: got %v, want sample form %v", sdev, wantSdev)
	}
	if math.Abs(sdev-2.0) < 1e-6 {
		t.Error("sdev matches the population form; expected n-1 denominator")
	}

	variance, err := e.Compute(frame.StatVariance, values)
	if err != nil {
		t.Fatalf("variance: %v", err)
	}
	if math.Abs(variance-32.0/7.0) > 1e-12 {
		t.Errorf("variance: got %v, want %v", variance, 32.0/7.0)
	}
}

func TestEngine_SkipsMissing(t *testing.T) {
	e := NewEngine()
	nan := math.NaN()
	values := []float64{1, nan, 2, nan, 3}

	mean, err := e.Compute(frame.StatMean, values)
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	if mean != 2 {
		t.Errorf("mean with missing values: got %v, want 2", mean)
	}

	sum, err := e.Compute(frame.StatSum, values)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 6 {
		t.Errorf("sum with missing values: got %v, want 6", sum)
	}
}

func TestEngine_AllMissing(t *testing.T) {
	e := NewEngine()
	nan := math.NaN()

	_, err := e.Compute(frame.StatMean, []float64{nan, nan})
	if !errors.Is(err, core.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}

	_, err = e.Compute(frame.StatMean, nil)
	if !errors.Is(err, core.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData for empty slice, got %v", err)
	}
}

func TestEngine_UnknownStat(t *testing.T) {
	e := NewEngine()
	if _, err := e.Compute(frame.Stat("mode"), []float64{1, 2}); err == nil {
		t.Error("expected error for unknown statistic")
	}
}

func TestEngine_ComputeAll(t *testing.T) {
	e := NewEngine()
	out, err := e.ComputeAll([]float64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("ComputeAll: %v", err)
	}
	if len(out) != len(frame.AllStats()) {
		t.Fatalf("expected %d stats, got %d", len(frame.AllStats()), len(out))
	}
	if out[frame.StatMedian] != 3 {
		t.Errorf("median: got %v, want 3", out[frame.StatMedian])
	}
}
