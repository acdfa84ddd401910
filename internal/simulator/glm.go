package simulator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gocascade/adapters/cascade/wire"
	"gocascade/adapters/tabular"
)

const (
	irlsMaxIter = 25
	irlsEps     = 1e-8

	// ridgeFloor keeps the normal equations solvable and coefficients finite
	// when classes are perfectly separated or columns are collinear.
	ridgeFloor = 1e-3
)

// fitGLM fits a ridge-penalized generalized linear model with a handful of
// IRLS steps. It is a toy fit that honors the wire contract, not a training
// engine.
func fitGLM(features []tabular.Column, response tabular.Column, req wire.TrainGLMRequest) (*storedModel, error) {
	X, y, names, err := designMatrix(features, response)
	if err != nil {
		return nil, err
	}
	n, p := X.Dims()
	if n <= p {
		return nil, fmt.Errorf("need more rows (%d) than coefficients (%d)", n, p)
	}

	lambda := req.Lambda
	if lambda < ridgeFloor {
		lambda = ridgeFloor
	}

	var beta *mat.VecDense
	switch wireFamily(req.Family) {
	case "binomial":
		beta, err = irlsLogistic(X, y, lambda)
	case "gaussian":
		beta, err = ridgeLeastSquares(X, y, lambda)
	default:
		return nil, fmt.Errorf("unsupported family %q", req.Family)
	}
	if err != nil {
		return nil, err
	}

	coefs := []wire.CoefficientRow{{Name: "Intercept", Value: beta.AtVec(0)}}
	for j, name := range names {
		coefs = append(coefs, wire.CoefficientRow{Name: name, Value: beta.AtVec(j + 1)})
	}

	binomial := wireFamily(req.Family) == "binomial"
	metrics := glmMetrics(X, y, beta, binomial)

	weights := make(map[string]float64, len(names))
	for j, name := range names {
		weights[name] = beta.AtVec(j + 1)
	}
	intercept := beta.AtVec(0)

	m := &storedModel{
		features: names,
		score: func(row map[string]float64) float64 {
			eta := intercept
			for name, w := range weights {
				eta += w * row[name]
			}
			if binomial {
				return sigmoid(eta)
			}
			return eta
		},
	}
	m.descriptor.Output = wire.ModelOutput{Coefficients: coefs, Metrics: metrics}
	return m, nil
}

// designMatrix assembles X (with an intercept column) and y, dropping rows
// with missing values in any used column.
func designMatrix(features []tabular.Column, response tabular.Column) (*mat.Dense, []float64, []string, error) {
	names := make([]string, len(features))
	for j, f := range features {
		if f.Values == nil {
			return nil, nil, nil, fmt.Errorf("feature %q is categorical; numeric features required", f.Name)
		}
		names[j] = f.Name
	}
	if response.Values == nil {
		return nil, nil, nil, fmt.Errorf("response %q is categorical; numeric response required", response.Name)
	}

	var rows [][]float64
	var y []float64
	for i := range response.Values {
		if math.IsNaN(response.Values[i]) {
			continue
		}
		row := make([]float64, len(features)+1)
		row[0] = 1
		ok := true
		for j, f := range features {
			if math.IsNaN(f.Values[i]) {
				ok = false
				break
			}
			row[j+1] = f.Values[i]
		}
		if !ok {
			continue
		}
		rows = append(rows, row)
		y = append(y, response.Values[i])
	}
	if len(rows) == 0 {
		return nil, nil, nil, fmt.Errorf("no complete rows to fit on")
	}

	X := mat.NewDense(len(rows), len(features)+1, nil)
	for i, row := range rows {
		X.SetRow(i, row)
	}
	return X, y, names, nil
}

// irlsLogistic runs iteratively reweighted least squares for a binomial fit.
// The intercept is left unpenalized.
func irlsLogistic(X *mat.Dense, y []float64, lambda float64) (*mat.VecDense, error) {
	n, p := X.Dims()
	for _, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("binomial response must be 0/1, saw %g", v)
		}
	}

	beta := mat.NewVecDense(p, nil)
	prev := mat.NewVecDense(p, nil)

	for iter := 0; iter < irlsMaxIter; iter++ {
		// Working weights and response for the current linearization.
		a := mat.NewDense(p, p, nil)
		b := mat.NewVecDense(p, nil)
		for i := 0; i < n; i++ {
			eta := 0.0
			for j := 0; j < p; j++ {
				eta += X.At(i, j) * beta.AtVec(j)
			}
			mu := sigmoid(eta)
			w := mu*(1-mu) + 1e-6
			z := eta + (y[i]-mu)/w
			for j := 0; j < p; j++ {
				xij := X.At(i, j)
				b.SetVec(j, b.AtVec(j)+w*xij*z)
				for k := 0; k < p; k++ {
					a.Set(j, k, a.At(j, k)+w*xij*X.At(i, k))
				}
			}
		}
		for j := 1; j < p; j++ {
			a.Set(j, j, a.At(j, j)+lambda*float64(n))
		}

		next := mat.NewVecDense(p, nil)
		if err := next.SolveVec(a, b); err != nil {
			return nil, fmt.Errorf("IRLS step %d: %w", iter, err)
		}

		prev.CopyVec(beta)
		beta.CopyVec(next)

		delta := 0.0
		for j := 0; j < p; j++ {
			delta += math.Abs(beta.AtVec(j) - prev.AtVec(j))
		}
		if delta < irlsEps {
			break
		}
	}
	return beta, nil
}

// ridgeLeastSquares solves the penalized normal equations for a gaussian fit
func ridgeLeastSquares(X *mat.Dense, y []float64, lambda float64) (*mat.VecDense, error) {
	n, p := X.Dims()

	a := mat.NewDense(p, p, nil)
	a.Mul(X.T(), X)
	for j := 1; j < p; j++ {
		a.Set(j, j, a.At(j, j)+lambda*float64(n))
	}

	b := mat.NewVecDense(p, nil)
	b.MulVec(X.T(), mat.NewVecDense(len(y), y))

	beta := mat.NewVecDense(p, nil)
	if err := beta.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("least squares solve: %w", err)
	}
	return beta, nil
}

func glmMetrics(X *mat.Dense, y []float64, beta *mat.VecDense, binomial bool) wire.MetricsBody {
	n, p := X.Dims()

	var mse, logloss, ssTot float64
	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)

	for i := 0; i < n; i++ {
		eta := 0.0
		for j := 0; j < p; j++ {
			eta += X.At(i, j) * beta.AtVec(j)
		}
		pred := eta
		if binomial {
			pred = sigmoid(eta)
			clamped := math.Min(math.Max(pred, 1e-12), 1-1e-12)
			logloss += -(y[i]*math.Log(clamped) + (1-y[i])*math.Log(1-clamped))
		}
		mse += (y[i] - pred) * (y[i] - pred)
		ssTot += (y[i] - yMean) * (y[i] - yMean)
	}
	mse /= float64(n)

	metrics := wire.MetricsBody{MSE: mse, NObs: n}
	if binomial {
		metrics.LogLoss = logloss / float64(n)
	} else if ssTot > 0 {
		metrics.R2 = 1 - mse*float64(n)/ssTot
	}
	return metrics
}

func sigmoid(eta float64) float64 {
	return 1 / (1 + math.Exp(-eta))
}

func wireFamily(family string) string {
	if family == "" {
		return "gaussian"
	}
	return family
}
