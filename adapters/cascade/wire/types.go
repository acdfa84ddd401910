// Package wire defines the JSON contract the cascade client consumes and the
// in-process simulator serves. The canonical format is owned by the remote
// service; this package mirrors only the subset this client uses.
package wire

// ErrorCategory classifies a server-side rejection
type ErrorCategory string

const (
	CategoryInvalidParameters ErrorCategory = "invalid_parameters"
	CategoryColumnType        ErrorCategory = "column_type"
	CategoryNotFound          ErrorCategory = "not_found"
	CategoryServerError       ErrorCategory = "server_error"
)

// ErrorBody is the payload of a non-2xx response
type ErrorBody struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
}

// ErrorEnvelope wraps every error response
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// CloudResponse answers GET /v3/cloud
type CloudResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Healthy bool   `json:"healthy"`
}

// ColumnDescriptor describes one column of a frame
type ColumnDescriptor struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Missing int    `json:"missing"`
}

// FrameResponse is the frame descriptor returned by import, upload, get and
// predict calls
type FrameResponse struct {
	Key     string             `json:"key"`
	Name    string             `json:"name"`
	Rows    int                `json:"rows"`
	Columns []ColumnDescriptor `json:"columns"`
}

// ImportRequest asks the server to read a file it can reach by path
type ImportRequest struct {
	Path string `json:"path"`
}

// UploadColumn carries one parsed column in an upload. Numeric columns use
// Data with nulls for missing values; categorical columns use Labels with ""
// for missing.
type UploadColumn struct {
	Name   string     `json:"name"`
	Type   string     `json:"type"`
	Data   []*float64 `json:"data,omitempty"`
	Labels []string   `json:"labels,omitempty"`
}

// UploadRequest pushes client-parsed columns to the server
type UploadRequest struct {
	Name    string         `json:"name"`
	Columns []UploadColumn `json:"columns"`
}

// StatResponse answers a column statistic request
type StatResponse struct {
	Frame  string  `json:"frame"`
	Column string  `json:"column"`
	Stat   string  `json:"stat"`
	Value  float64 `json:"value"`
}

// TrainGBMRequest asks for a gradient boosting fit
type TrainGBMRequest struct {
	Frame           string   `json:"frame"`
	Response        string   `json:"response"`
	Features        []string `json:"features"`
	NFolds          int      `json:"nfolds,omitempty"`
	Distribution    string   `json:"distribution,omitempty"`
	Trees           int      `json:"trees,omitempty"`
	MaxDepth        int      `json:"max_depth,omitempty"`
	LearnRate       float64  `json:"learn_rate,omitempty"`
	ValidationFrame string   `json:"validation_frame,omitempty"`
}

// TrainGLMRequest asks for a generalized linear model fit
type TrainGLMRequest struct {
	Frame              string   `json:"frame"`
	Response           string   `json:"response"`
	Features           []string `json:"features"`
	Family             string   `json:"family,omitempty"`
	Alpha              float64  `json:"alpha,omitempty"`
	Lambda             float64  `json:"lambda"`
	LambdaSearch       bool     `json:"lambda_search,omitempty"`
	UseAllFactorLevels bool     `json:"use_all_factor_levels,omitempty"`
	Standardize        bool     `json:"standardize,omitempty"`
}

// CoefficientRow is one row of a GLM coefficients table
type CoefficientRow struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ImportanceRow is one row of a GBM variable importance ranking
type ImportanceRow struct {
	Variable   string  `json:"variable"`
	Importance float64 `json:"importance"`
}

// MetricsBody holds training or cross-validation metrics
type MetricsBody struct {
	MSE     float64 `json:"mse"`
	LogLoss float64 `json:"logloss,omitempty"`
	AUC     float64 `json:"auc,omitempty"`
	R2      float64 `json:"r2,omitempty"`
	NObs    int     `json:"nobs"`
}

// ModelOutput is the trained-model output block
type ModelOutput struct {
	Coefficients        []CoefficientRow `json:"coefficients,omitempty"`
	VariableImportances []ImportanceRow  `json:"variable_importances,omitempty"`
	Metrics             MetricsBody      `json:"metrics"`
	CrossValidation     *MetricsBody     `json:"cross_validation,omitempty"`
}

// ModelResponse is the model descriptor returned by train and get calls
type ModelResponse struct {
	Key    string      `json:"key"`
	Algo   string      `json:"algo"`
	Frame  string      `json:"frame"`
	Output ModelOutput `json:"output"`
}

// PredictRequest asks a model to score a frame
type PredictRequest struct {
	Frame string `json:"frame"`
}

// PredictResponse describes the materialized prediction frame
type PredictResponse struct {
	Frame  FrameResponse `json:"frame"`
	Column string        `json:"column"`
	Mean   float64       `json:"mean"`
}
