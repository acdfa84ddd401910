package model

import (
	"fmt"

	"github.com/tidwall/gjson"

	"gocascade/domain/core"
)

// InterceptName is the reserved coefficient name for the intercept row
const InterceptName = "Intercept"

// Coefficient is one row of a GLM coefficients table
type Coefficient struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Coefficients is a GLM coefficients table in server order
type Coefficients []Coefficient

// NonIntercept returns every coefficient except the intercept row. Callers
// asserting magnitude bounds walk this slice the way the coefficients table
// is consumed downstream.
func (cs Coefficients) NonIntercept() Coefficients {
	out := make(Coefficients, 0, len(cs))
	for _, c := range cs {
		if c.Name != InterceptName {
			out = append(out, c)
		}
	}
	return out
}

// Get returns the coefficient with the given name
func (cs Coefficients) Get(name string) (Coefficient, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// VariableImportance is one row of a GBM variable importance ranking
type VariableImportance struct {
	Variable   string  `json:"variable"`
	Importance float64 `json:"importance"`
}

// Metrics holds training (or cross-validation) metrics for a fitted model
type Metrics struct {
	MSE     float64 `json:"mse"`
	LogLoss float64 `json:"logloss,omitempty"`
	AUC     float64 `json:"auc,omitempty"`
	R2      float64 `json:"r2,omitempty"`
	NObs    int     `json:"nobs"`
}

// Output is the trained-model output block: coefficients for GLM, variable
// importances for GBM, metrics for both.
type Output struct {
	Coefficients        Coefficients         `json:"coefficients,omitempty"`
	VariableImportances []VariableImportance `json:"variable_importances,omitempty"`
	Metrics             Metrics              `json:"metrics"`
	CrossValidation     *Metrics             `json:"cross_validation,omitempty"`
}

// Info is the full client-side view of a fitted model. Raw preserves the
// server's response body so consumers can walk paths the typed view does not
// cover.
type Info struct {
	Key    core.ModelKey `json:"key"`
	Algo   Algo          `json:"algo"`
	Frame  core.FrameKey `json:"frame"`
	Output Output        `json:"output"`
	Raw    []byte        `json:"-"`
}

// RawPath resolves a gjson path against the raw model response, e.g.
// "output.coefficients.#.value".
func (i *Info) RawPath(path string) (gjson.Result, error) {
	if len(i.Raw) == 0 {
		return gjson.Result{}, fmt.Errorf("model %s: no raw response retained", i.Key)
	}
	res := gjson.GetBytes(i.Raw, path)
	if !res.Exists() {
		return gjson.Result{}, fmt.Errorf("model %s: path %q not found in raw response", i.Key, path)
	}
	return res, nil
}
