package ports

import (
	"context"

	"gocascade/domain/core"
	"gocascade/domain/frame"
	"gocascade/domain/model"
)

// ClusterStatus describes a reachable analytics cluster
type ClusterStatus struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Healthy bool   `json:"healthy"`
}

// UploadColumn is one parsed column pushed to the cluster by UploadFrame.
// Numeric columns carry Data (NaN marks missing); categorical columns carry
// Labels ("" marks missing).
type UploadColumn struct {
	Name   string           `json:"name"`
	Type   frame.ColumnType `json:"type"`
	Data   []float64        `json:"data,omitempty"`
	Labels []string         `json:"labels,omitempty"`
}

// Prediction describes the frame a model scored into, plus a summary of the
// prediction column.
type Prediction struct {
	Frame  frame.Frame `json:"frame"`
	Column string      `json:"column"`
	Mean   float64     `json:"mean"`
}

// Cluster is the client surface of the analytics server. Every call is
// synchronous and blocking; one request in flight per call. Implementations
// map server rejections to errors carrying the server's error category.
type Cluster interface {
	// Status reports cluster health, dialing the server
	Status(ctx context.Context) (ClusterStatus, error)

	// ImportFrame asks the server to read a file it can reach by path
	ImportFrame(ctx context.Context, path string) (frame.Frame, error)

	// UploadFrame pushes client-parsed columns to the server
	UploadFrame(ctx context.Context, name string, cols []UploadColumn) (frame.Frame, error)

	// GetFrame fetches the descriptor of an existing frame
	GetFrame(ctx context.Context, key core.FrameKey) (frame.Frame, error)

	// ColumnStat computes one scalar statistic over one column server-side.
	// Multi-column selections fail client-side with core.ErrMultiColumn.
	ColumnStat(ctx context.Context, key core.FrameKey, sel frame.Selection, stat frame.Stat) (float64, error)

	// TrainGBM trains a gradient boosting model on a frame
	TrainGBM(ctx context.Context, key core.FrameKey, params model.GBMParams) (model.Info, error)

	// TrainGLM trains a generalized linear model on a frame
	TrainGLM(ctx context.Context, key core.FrameKey, params model.GLMParams) (model.Info, error)

	// GetModel fetches a fitted model by key
	GetModel(ctx context.Context, key core.ModelKey) (model.Info, error)

	// Predict scores a frame with a fitted model
	Predict(ctx context.Context, modelKey core.ModelKey, frameKey core.FrameKey) (Prediction, error)

	// DeleteFrame removes a frame from the cluster
	DeleteFrame(ctx context.Context, key core.FrameKey) error

	// DeleteModel removes a model from the cluster
	DeleteModel(ctx context.Context, key core.ModelKey) error
}
