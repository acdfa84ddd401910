package simulator

import (
	"math"
	"testing"

	"gocascade/adapters/cascade/wire"
	"gocascade/adapters/tabular"
	"gocascade/domain/frame"
)

func numericColumn(name string, values []float64) tabular.Column {
	return tabular.Column{Name: name, Type: frame.TypeNumeric, Values: values}
}

func TestFitGLM_PerfectSeparationStaysBounded(t *testing.T) {
	// A threshold response is perfectly separable; an unpenalized logistic
	// fit would push the slope to infinity. The ridge floor must keep every
	// coefficient finite and modest.
	n := 100
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(i)
		x2[i] = float64(i%7) - 3
		if i >= 80 { // unbalanced: 20 positives
			y[i] = 1
		}
	}

	m, err := fitGLM(
		[]tabular.Column{numericColumn("x1", x1), numericColumn("x2", x2)},
		numericColumn("y", y),
		wire.TrainGLMRequest{Family: "binomial", Alpha: 0.5, Lambda: 0, LambdaSearch: true},
	)
	if err != nil {
		t.Fatalf("fitGLM: %v", err)
	}

	for _, c := range m.descriptor.Output.Coefficients {
		if c.Name == "Intercept" {
			continue
		}
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
			t.Fatalf("coefficient %s is not finite: %v", c.Name, c.Value)
		}
		if math.Abs(c.Value) >= 50 {
			t.Errorf("coefficient %s too large: %v", c.Name, c.Value)
		}
	}
}

func TestFitGLM_GaussianRecoverLine(t *testing.T) {
	// y = 2x + 1 with no noise; ridge shrinks slightly but the fit should
	// land close.
	n := 50
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i) / 10
		y[i] = 2*x[i] + 1
	}

	m, err := fitGLM(
		[]tabular.Column{numericColumn("x", x)},
		numericColumn("y", y),
		wire.TrainGLMRequest{Family: "gaussian"},
	)
	if err != nil {
		t.Fatalf("fitGLM: %v", err)
	}

	coefs := m.descriptor.Output.Coefficients
	if len(coefs) != 2 {
		t.Fatalf("expected 2 coefficients, got %d", len(coefs))
	}
	if math.Abs(coefs[1].Value-2) > 0.05 {
		t.Errorf("slope: got %v, want ~2", coefs[1].Value)
	}
	if math.Abs(coefs[0].Value-1) > 0.2 {
		t.Errorf("intercept: got %v, want ~1", coefs[0].Value)
	}
	if m.descriptor.Output.Metrics.R2 < 0.99 {
		t.Errorf("R2: got %v, want near 1", m.descriptor.Output.Metrics.R2)
	}
}

func TestFitGLM_RejectsBadInput(t *testing.T) {
	catCol := tabular.Column{Name: "class", Type: frame.TypeCategorical, Labels: []string{"a", "b"}}
	numCol := numericColumn("x", []float64{1, 2})

	if _, err := fitGLM([]tabular.Column{catCol}, numCol, wire.TrainGLMRequest{Family: "gaussian"}); err == nil {
		t.Error("expected error for categorical feature")
	}
	if _, err := fitGLM([]tabular.Column{numCol}, catCol, wire.TrainGLMRequest{Family: "gaussian"}); err == nil {
		t.Error("expected error for categorical response")
	}

	badY := numericColumn("y", []float64{0, 2, 1})
	x := numericColumn("x", []float64{1, 2, 3})
	if _, err := fitGLM([]tabular.Column{x}, badY, wire.TrainGLMRequest{Family: "binomial"}); err == nil {
		t.Error("expected error for non 0/1 binomial response")
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("odd median: got %v", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Errorf("even median: got %v", got)
	}
}
