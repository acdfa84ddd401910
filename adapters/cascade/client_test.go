package cascade

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"gocascade/domain/core"
	"gocascade/domain/frame"
	"gocascade/domain/model"
	"gocascade/internal/simulator"
	"gocascade/ports"
)

func newConnectedClient(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(simulator.New().Handler())
	t.Cleanup(ts.Close)

	client := NewClient(DefaultOptions(ts.URL))
	if _, err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return client, ts
}

func uploadTestFrame(t *testing.T, client *Client) frame.Frame {
	t.Helper()
	f, err := client.UploadFrame(context.Background(), "test", []ports.UploadColumn{
		{Name: "x", Type: frame.TypeNumeric, Data: []float64{1, 2, 3, 4, 5}},
		{Name: "y", Type: frame.TypeNumeric, Data: []float64{0, 0, 1, 1, 1}},
		{Name: "class", Type: frame.TypeCategorical, Labels: []string{"a", "a", "b", "b", "b"}},
	})
	if err != nil {
		t.Fatalf("UploadFrame: %v", err)
	}
	return f
}

func TestClient_NotConnected(t *testing.T) {
	client := NewClient(DefaultOptions("http://localhost:0"))
	_, err := client.GetFrame(context.Background(), "frame-1")
	if !errors.Is(err, core.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_ConnectRetries(t *testing.T) {
	var calls atomic.Int32
	failures := int32(2)
	sim := simulator.New().Handler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		sim.ServeHTTP(w, r)
	}))
	defer ts.Close()

	opts := DefaultOptions(ts.URL)
	opts.ConnectRetries = 4
	opts.ConnectBackoff = time.Millisecond
	client := NewClient(opts)

	status, err := client.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect should succeed after retries: %v", err)
	}
	if !status.Healthy {
		t.Error("expected healthy status")
	}
	if calls.Load() != failures+1 {
		t.Errorf("expected %d dials, got %d", failures+1, calls.Load())
	}
}

func TestClient_ConnectGivesUp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	opts := DefaultOptions(ts.URL)
	opts.ConnectRetries = 2
	opts.ConnectBackoff = time.Millisecond
	client := NewClient(opts)

	if _, err := client.Connect(context.Background()); err == nil {
		t.Error("expected Connect to fail against a dead server")
	}
}

func TestClient_UploadAndColumnStat(t *testing.T) {
	client, _ := newConnectedClient(t)
	f := uploadTestFrame(t, client)

	rows, cols := f.Dim()
	if rows != 5 || cols != 3 {
		t.Fatalf("unexpected dim: %d x %d", rows, cols)
	}

	mean, err := client.ColumnStat(context.Background(), f.Key, frame.ColName("x"), frame.StatMean)
	if err != nil {
		t.Fatalf("ColumnStat: %v", err)
	}
	if math.Abs(mean-3) > 1e-12 {
		t.Errorf("mean: got %v, want 3", mean)
	}

	// Addressing by index must resolve through the frame descriptor.
	sdev, err := client.ColumnStat(context.Background(), f.Key, frame.Col(0), frame.StatSdev)
	if err != nil {
		t.Fatalf("ColumnStat by index: %v", err)
	}
	if math.Abs(sdev-math.Sqrt(2.5)) > 1e-12 {
		t.Errorf("sdev: got %v, want %v", sdev, math.Sqrt(2.5))
	}
}

func TestClient_MultiColumnGuardSkipsNetwork(t *testing.T) {
	var requests atomic.Int32
	counting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer counting.Close()

	guarded := NewClient(DefaultOptions(counting.URL))
	guarded.connected = true

	_, err := guarded.ColumnStat(context.Background(), "frame-1", frame.Cols(0, 1), frame.StatSdev)
	if !errors.Is(err, core.ErrMultiColumn) {
		t.Fatalf("expected ErrMultiColumn, got %v", err)
	}
	if requests.Load() != 0 {
		t.Errorf("multi-column selection reached the network: %d requests", requests.Load())
	}

	_, err = guarded.ColumnStat(context.Background(), "frame-1", frame.Selection{}, frame.StatSdev)
	if !errors.Is(err, core.ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
	if requests.Load() != 0 {
		t.Errorf("empty selection reached the network: %d requests", requests.Load())
	}
}

func TestClient_CategoricalSdevIsColumnType(t *testing.T) {
	client, _ := newConnectedClient(t)
	f := uploadTestFrame(t, client)

	_, err := client.ColumnStat(context.Background(), f.Key, frame.ColName("class"), frame.StatSdev)
	if err == nil {
		t.Fatal("expected error for sdev over categorical column")
	}
	if !IsColumnType(err) {
		t.Errorf("expected column_type category, got %v", err)
	}
}

func TestClient_TrainRoundTrip(t *testing.T) {
	client, _ := newConnectedClient(t)
	f := uploadTestFrame(t, client)

	info, err := client.TrainGBM(context.Background(), f.Key, model.GBMParams{
		Response:     "y",
		Features:     []string{"x"},
		NFolds:       5,
		Distribution: model.DistBernoulli,
	})
	if err != nil {
		t.Fatalf("TrainGBM: %v", err)
	}
	if info.Algo != model.AlgoGBM || info.Key.IsEmpty() {
		t.Fatalf("unexpected model info: %+v", info)
	}

	fetched, err := client.GetModel(context.Background(), info.Key)
	if err != nil {
		t.Fatalf("GetModel: %v", err)
	}
	if fetched.Key != info.Key || fetched.Algo != info.Algo {
		t.Errorf("round trip mismatch: %+v vs %+v", fetched, info)
	}

	// The raw body stays walkable for dynamic consumers.
	algo, err := fetched.RawPath("algo")
	if err != nil {
		t.Fatalf("RawPath: %v", err)
	}
	if algo.String() != "gbm" {
		t.Errorf("raw algo: got %s", algo.String())
	}

	pred, err := client.Predict(context.Background(), info.Key, f.Key)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.Frame.Rows != 5 {
		t.Errorf("prediction rows: got %d, want 5", pred.Frame.Rows)
	}
}

func TestClient_InvalidParamsCategory(t *testing.T) {
	client, _ := newConnectedClient(t)
	f := uploadTestFrame(t, client)

	_, err := client.TrainGBM(context.Background(), f.Key, model.GBMParams{
		Response:        "y",
		Features:        []string{"x"},
		NFolds:          5,
		ValidationFrame: f.Key,
		Distribution:    model.DistBernoulli,
	})
	if err == nil {
		t.Fatal("expected error for nfolds + validation frame")
	}
	if !IsInvalidParams(err) {
		t.Errorf("expected invalid_parameters category, got %v", err)
	}
}

func TestClient_NotFoundCategory(t *testing.T) {
	client, _ := newConnectedClient(t)

	_, err := client.GetFrame(context.Background(), "no-such-frame")
	if err == nil {
		t.Fatal("expected error for unknown frame")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not_found category, got %v", err)
	}

	re, ok := AsRemoteError(err)
	if !ok {
		t.Fatal("expected a RemoteError in the chain")
	}
	if re.StatusCode != http.StatusNotFound {
		t.Errorf("status code: got %d", re.StatusCode)
	}
}

func TestClient_Delete(t *testing.T) {
	client, _ := newConnectedClient(t)
	f := uploadTestFrame(t, client)

	if err := client.DeleteFrame(context.Background(), f.Key); err != nil {
		t.Fatalf("DeleteFrame: %v", err)
	}
	if err := client.DeleteFrame(context.Background(), f.Key); !IsNotFound(err) {
		t.Errorf("expected not_found on double delete, got %v", err)
	}
}
