package simulator

import (
	"fmt"
	"math"
	"sort"

	"gocascade/adapters/cascade/wire"
	"gocascade/adapters/tabular"
)

// fitGBM produces a deterministic stub gradient boosting model: prior-based
// metrics and correlation-ranked variable importances. It fills the wire
// contract so clients can exercise the train / get / predict round trip
// without a real boosting engine behind it.
func fitGBM(features []tabular.Column, response tabular.Column, req wire.TrainGBMRequest) (*storedModel, error) {
	if response.Values == nil {
		return nil, fmt.Errorf("response %q is categorical; numeric response required", response.Name)
	}

	var y []float64
	for _, v := range response.Values {
		if !math.IsNaN(v) {
			y = append(y, v)
		}
	}
	if len(y) == 0 {
		return nil, fmt.Errorf("response %q has no values", response.Name)
	}

	bernoulli := req.Distribution == "" || req.Distribution == "bernoulli"
	if bernoulli {
		for _, v := range y {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("bernoulli response must be 0/1, saw %g", v)
			}
		}
	}

	prior := 0.0
	for _, v := range y {
		prior += v
	}
	prior /= float64(len(y))

	// Importance ranking: absolute correlation with the response, normalized
	// so the top variable reads 1.
	importances := make([]wire.ImportanceRow, 0, len(features))
	for _, f := range features {
		if f.Values == nil {
			continue
		}
		importances = append(importances, wire.ImportanceRow{
			Variable:   f.Name,
			Importance: absCorrelation(f.Values, response.Values),
		})
	}
	sort.Slice(importances, func(i, j int) bool {
		return importances[i].Importance > importances[j].Importance
	})
	if len(importances) > 0 && importances[0].Importance > 0 {
		top := importances[0].Importance
		for i := range importances {
			importances[i].Importance /= top
		}
	}

	metrics := priorMetrics(y, prior, bernoulli)

	m := &storedModel{
		score: func(row map[string]float64) float64 {
			return prior
		},
	}
	for _, f := range features {
		m.features = append(m.features, f.Name)
	}
	m.descriptor.Output = wire.ModelOutput{
		VariableImportances: importances,
		Metrics:             metrics,
	}
	if req.NFolds >= 2 {
		// Cross-validation on a constant model scores the same as training.
		cv := metrics
		m.descriptor.Output.CrossValidation = &cv
	}
	return m, nil
}

func priorMetrics(y []float64, prior float64, bernoulli bool) wire.MetricsBody {
	var mse float64
	for _, v := range y {
		mse += (v - prior) * (v - prior)
	}
	mse /= float64(len(y))

	metrics := wire.MetricsBody{MSE: mse, NObs: len(y)}
	if bernoulli {
		clamped := math.Min(math.Max(prior, 1e-12), 1-1e-12)
		var logloss float64
		for _, v := range y {
			logloss += -(v*math.Log(clamped) + (1-v)*math.Log(1-clamped))
		}
		metrics.LogLoss = logloss / float64(len(y))
		metrics.AUC = 0.5 // constant scores rank nothing
	}
	return metrics
}
