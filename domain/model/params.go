package model

import (
	"fmt"

	"gocascade/domain/core"
)

// Algo identifies a modeling algorithm on the analytics server
type Algo string

const (
	AlgoGBM Algo = "gbm"
	AlgoGLM Algo = "glm"
)

// Distribution names a GBM loss distribution
type Distribution string

const (
	DistBernoulli Distribution = "bernoulli"
	DistGaussian  Distribution = "gaussian"
)

// Family names a GLM error family
type Family string

const (
	FamilyBinomial Family = "binomial"
	FamilyGaussian Family = "gaussian"
)

// GBMParams are the training parameters for a gradient boosting model.
// The server validates them again; Validate mirrors the server-side rules so
// callers can fail before a request goes on the wire.
type GBMParams struct {
	Response        string        `json:"response"`
	Features        []string      `json:"features"`
	NFolds          int           `json:"nfolds,omitempty"`
	Distribution    Distribution  `json:"distribution,omitempty"`
	Trees           int           `json:"trees,omitempty"`
	MaxDepth        int           `json:"max_depth,omitempty"`
	LearnRate       float64       `json:"learn_rate,omitempty"`
	ValidationFrame core.FrameKey `json:"validation_frame,omitempty"`
}

// Validate checks parameter combinations the server rejects with
// invalid_parameters. Cross-validation folds and a held-out validation frame
// are mutually exclusive.
func (p GBMParams) Validate() error {
	if p.Response == "" {
		return fmt.Errorf("gbm: response column is required")
	}
	if p.NFolds >= 2 && !p.ValidationFrame.IsEmpty() {
		return fmt.Errorf("gbm: cannot specify both nfolds (%d) and a validation frame", p.NFolds)
	}
	if p.NFolds == 1 {
		return fmt.Errorf("gbm: nfolds must be 0 or at least 2")
	}
	return nil
}

// GLMParams are the training parameters for a generalized linear model
type GLMParams struct {
	Response           string   `json:"response"`
	Features           []string `json:"features"`
	Family             Family   `json:"family,omitempty"`
	Alpha              float64  `json:"alpha,omitempty"`
	Lambda             float64  `json:"lambda"`
	LambdaSearch       bool     `json:"lambda_search,omitempty"`
	UseAllFactorLevels bool     `json:"use_all_factor_levels,omitempty"`
	Standardize        bool     `json:"standardize,omitempty"`
}

// Validate checks parameter ranges the server rejects with invalid_parameters
func (p GLMParams) Validate() error {
	if p.Response == "" {
		return fmt.Errorf("glm: response column is required")
	}
	if p.Alpha < 0 || p.Alpha > 1 {
		return fmt.Errorf("glm: alpha must be in [0, 1], got %g", p.Alpha)
	}
	if p.Lambda < 0 {
		return fmt.Errorf("glm: lambda must be non-negative, got %g", p.Lambda)
	}
	return nil
}
