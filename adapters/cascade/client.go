package cascade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gocascade/adapters/cascade/wire"
	"gocascade/domain/core"
	"gocascade/domain/frame"
	"gocascade/domain/model"
	"gocascade/internal"
	"gocascade/ports"
)

// Options configures the cascade client
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// Connect retry policy
	ConnectRetries int
	ConnectBackoff time.Duration
}

// DefaultOptions returns client options suitable for a local cluster
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:        baseURL,
		Timeout:        30 * time.Second,
		ConnectRetries: 5,
		ConnectBackoff: 500 * time.Millisecond,
	}
}

// Client talks to a cascade analytics server over its v3 REST surface.
// Every call is synchronous and blocking; the client holds no state beyond
// the connection settings.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	opts      Options
	connected bool
	logger    *internal.Logger
}

// NewClient creates a client for the server at opts.BaseURL
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ConnectRetries <= 0 {
		opts.ConnectRetries = 5
	}
	if opts.ConnectBackoff <= 0 {
		opts.ConnectBackoff = 500 * time.Millisecond
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		logger:     internal.NewDefaultLogger().Component("CascadeClient"),
	}
}

var _ ports.Cluster = (*Client)(nil)

// Connect dials /v3/cloud with bounded retry and backoff until the cluster
// reports healthy. Calls other than Status require a successful Connect
// first.
func (c *Client) Connect(ctx context.Context) (ports.ClusterStatus, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.ConnectRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Connect retry %d/%d after %v", attempt, c.opts.ConnectRetries-1, c.opts.ConnectBackoff)
			select {
			case <-time.After(c.opts.ConnectBackoff):
			case <-ctx.Done():
				return ports.ClusterStatus{}, ctx.Err()
			}
		}

		status, err := c.Status(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if !status.Healthy {
			lastErr = fmt.Errorf("cluster %s reports unhealthy", status.Name)
			continue
		}

		c.logger.Info("Connected to %s (version %s)", status.Name, status.Version)
		c.connected = true
		return status, nil
	}
	return ports.ClusterStatus{}, fmt.Errorf("connect to %s failed after %d attempts: %w", c.baseURL, c.opts.ConnectRetries, lastErr)
}

// Status reports cluster health. It does not require a prior Connect.
func (c *Client) Status(ctx context.Context) (ports.ClusterStatus, error) {
	var resp wire.CloudResponse
	if _, err := c.do(ctx, http.MethodGet, "/v3/cloud", nil, &resp); err != nil {
		return ports.ClusterStatus{}, err
	}
	return ports.ClusterStatus{Name: resp.Name, Version: resp.Version, Healthy: resp.Healthy}, nil
}

// ImportFrame asks the server to read a file it can reach by path
func (c *Client) ImportFrame(ctx context.Context, path string) (frame.Frame, error) {
	if err := c.requireConnected(); err != nil {
		return frame.Frame{}, err
	}
	var resp wire.FrameResponse
	if _, err := c.do(ctx, http.MethodPost, "/v3/frames/import", wire.ImportRequest{Path: path}, &resp); err != nil {
		return frame.Frame{}, fmt.Errorf("import %s: %w", path, err)
	}
	return frameFromWire(resp), nil
}

// UploadFrame pushes client-parsed columns to the server
func (c *Client) UploadFrame(ctx context.Context, name string, cols []ports.UploadColumn) (frame.Frame, error) {
	if err := c.requireConnected(); err != nil {
		return frame.Frame{}, err
	}
	req := wire.UploadRequest{Name: name, Columns: make([]wire.UploadColumn, 0, len(cols))}
	for _, col := range cols {
		req.Columns = append(req.Columns, uploadColumnToWire(col))
	}
	var resp wire.FrameResponse
	if _, err := c.do(ctx, http.MethodPost, "/v3/frames", req, &resp); err != nil {
		return frame.Frame{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return frameFromWire(resp), nil
}

// GetFrame fetches the descriptor of an existing frame
func (c *Client) GetFrame(ctx context.Context, key core.FrameKey) (frame.Frame, error) {
	if err := c.requireConnected(); err != nil {
		return frame.Frame{}, err
	}
	var resp wire.FrameResponse
	if _, err := c.do(ctx, http.MethodGet, "/v3/frames/"+url.PathEscape(key.String()), nil, &resp); err != nil {
		return frame.Frame{}, fmt.Errorf("get frame %s: %w", key, err)
	}
	return frameFromWire(resp), nil
}

// ColumnStat computes one scalar statistic over one column server-side.
// Selections wider than a single column are rejected here, before anything
// goes on the wire.
func (c *Client) ColumnStat(ctx context.Context, key core.FrameKey, sel frame.Selection, stat frame.Stat) (float64, error) {
	if err := c.requireConnected(); err != nil {
		return 0, err
	}
	switch {
	case sel.Width() == 0:
		return 0, core.ErrEmptySelection
	case sel.Width() > 1:
		return 0, fmt.Errorf("%s: %w: selection has %d columns", stat, core.ErrMultiColumn, sel.Width())
	}
	if !stat.Valid() {
		return 0, fmt.Errorf("unknown statistic %q", stat)
	}

	f, err := c.GetFrame(ctx, key)
	if err != nil {
		return 0, err
	}
	col, err := sel.Single(&f)
	if err != nil {
		return 0, err
	}

	path := fmt.Sprintf("/v3/frames/%s/columns/%s/stats/%s",
		url.PathEscape(key.String()), url.PathEscape(col.Name), url.PathEscape(stat.String()))
	var resp wire.StatResponse
	if _, err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("%s(%s.%s): %w", stat, key, col.Name, err)
	}
	return resp.Value, nil
}

// TrainGBM trains a gradient boosting model on a frame
func (c *Client) TrainGBM(ctx context.Context, key core.FrameKey, params model.GBMParams) (model.Info, error) {
	if err := c.requireConnected(); err != nil {
		return model.Info{}, err
	}
	req := wire.TrainGBMRequest{
		Frame:           key.String(),
		Response:        params.Response,
		Features:        params.Features,
		NFolds:          params.NFolds,
		Distribution:    string(params.Distribution),
		Trees:           params.Trees,
		MaxDepth:        params.MaxDepth,
		LearnRate:       params.LearnRate,
		ValidationFrame: params.ValidationFrame.String(),
	}
	var resp wire.ModelResponse
	raw, err := c.do(ctx, http.MethodPost, "/v3/models/gbm", req, &resp)
	if err != nil {
		return model.Info{}, fmt.Errorf("train gbm on %s: %w", key, err)
	}
	return modelFromWire(resp, raw), nil
}

// TrainGLM trains a generalized linear model on a frame
func (c *Client) TrainGLM(ctx context.Context, key core.FrameKey, params model.GLMParams) (model.Info, error) {
	if err := c.requireConnected(); err != nil {
		return model.Info{}, err
	}
	req := wire.TrainGLMRequest{
		Frame:              key.String(),
		Response:           params.Response,
		Features:           params.Features,
		Family:             string(params.Family),
		Alpha:              params.Alpha,
		Lambda:             params.Lambda,
		LambdaSearch:       params.LambdaSearch,
		UseAllFactorLevels: params.UseAllFactorLevels,
		Standardize:        params.Standardize,
	}
	var resp wire.ModelResponse
	raw, err := c.do(ctx, http.MethodPost, "/v3/models/glm", req, &resp)
	if err != nil {
		return model.Info{}, fmt.Errorf("train glm on %s: %w", key, err)
	}
	return modelFromWire(resp, raw), nil
}

// GetModel fetches a fitted model by key
func (c *Client) GetModel(ctx context.Context, key core.ModelKey) (model.Info, error) {
	if err := c.requireConnected(); err != nil {
		return model.Info{}, err
	}
	var resp wire.ModelResponse
	raw, err := c.do(ctx, http.MethodGet, "/v3/models/"+url.PathEscape(key.String()), nil, &resp)
	if err != nil {
		return model.Info{}, fmt.Errorf("get model %s: %w", key, err)
	}
	return modelFromWire(resp, raw), nil
}

// Predict scores a frame with a fitted model
func (c *Client) Predict(ctx context.Context, modelKey core.ModelKey, frameKey core.FrameKey) (ports.Prediction, error) {
	if err := c.requireConnected(); err != nil {
		return ports.Prediction{}, err
	}
	var resp wire.PredictResponse
	path := "/v3/models/" + url.PathEscape(modelKey.String()) + "/predict"
	if _, err := c.do(ctx, http.MethodPost, path, wire.PredictRequest{Frame: frameKey.String()}, &resp); err != nil {
		return ports.Prediction{}, fmt.Errorf("predict %s on %s: %w", modelKey, frameKey, err)
	}
	return ports.Prediction{
		Frame:  frameFromWire(resp.Frame),
		Column: resp.Column,
		Mean:   resp.Mean,
	}, nil
}

// DeleteFrame removes a frame from the cluster
func (c *Client) DeleteFrame(ctx context.Context, key core.FrameKey) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodDelete, "/v3/frames/"+url.PathEscape(key.String()), nil, nil); err != nil {
		return fmt.Errorf("delete frame %s: %w", key, err)
	}
	return nil
}

// DeleteModel removes a model from the cluster
func (c *Client) DeleteModel(ctx context.Context, key core.ModelKey) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodDelete, "/v3/models/"+url.PathEscape(key.String()), nil, nil); err != nil {
		return fmt.Errorf("delete model %s: %w", key, err)
	}
	return nil
}

func (c *Client) requireConnected() error {
	if !c.connected {
		return core.ErrNotConnected
	}
	return nil
}

// do performs one request and decodes the response into out. It returns the
// raw response body so model calls can retain the server's JSON. Non-2xx
// responses are mapped to *RemoteError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.remoteError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return respBody, nil
}

func (c *Client) remoteError(status int, body []byte) error {
	var envelope wire.ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Category == "" {
		return &RemoteError{
			Category:   wire.CategoryServerError,
			Message:    strings.TrimSpace(string(body)),
			StatusCode: status,
		}
	}
	return &RemoteError{
		Category:   envelope.Error.Category,
		Message:    envelope.Error.Message,
		StatusCode: status,
	}
}

func frameFromWire(resp wire.FrameResponse) frame.Frame {
	f := frame.Frame{
		Key:  core.FrameKey(resp.Key),
		Name: resp.Name,
		Rows: resp.Rows,
	}
	for _, col := range resp.Columns {
		f.Columns = append(f.Columns, frame.Column{
			Name:    col.Name,
			Type:    frame.ColumnType(col.Type),
			Missing: col.Missing,
		})
	}
	return f
}

func uploadColumnToWire(col ports.UploadColumn) wire.UploadColumn {
	out := wire.UploadColumn{
		Name:   col.Name,
		Type:   string(col.Type),
		Labels: col.Labels,
	}
	for _, v := range col.Data {
		if math.IsNaN(v) {
			out.Data = append(out.Data, nil)
			continue
		}
		value := v
		out.Data = append(out.Data, &value)
	}
	return out
}

func modelFromWire(resp wire.ModelResponse, raw []byte) model.Info {
	info := model.Info{
		Key:   core.ModelKey(resp.Key),
		Algo:  model.Algo(resp.Algo),
		Frame: core.FrameKey(resp.Frame),
		Raw:   raw,
	}
	for _, c := range resp.Output.Coefficients {
		info.Output.Coefficients = append(info.Output.Coefficients, model.Coefficient{Name: c.Name, Value: c.Value})
	}
	for _, v := range resp.Output.VariableImportances {
		info.Output.VariableImportances = append(info.Output.VariableImportances, model.VariableImportance{
			Variable:   v.Variable,
			Importance: v.Importance,
		})
	}
	info.Output.Metrics = metricsFromWire(resp.Output.Metrics)
	if resp.Output.CrossValidation != nil {
		cv := metricsFromWire(*resp.Output.CrossValidation)
		info.Output.CrossValidation = &cv
	}
	return info
}

func metricsFromWire(m wire.MetricsBody) model.Metrics {
	return model.Metrics{
		MSE:     m.MSE,
		LogLoss: m.LogLoss,
		AUC:     m.AUC,
		R2:      m.R2,
		NObs:    m.NObs,
	}
}
