package testkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"gocascade/domain/core"
	"gocascade/domain/run"
	"gocascade/ports"
)

func TestInMemoryLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger := NewInMemoryLedger()

	r := run.Run{
		ID:        core.NewRunID(),
		Suite:     "column-reducers",
		Target:    "local",
		Status:    run.StatusPassed,
		Passed:    7,
		StartedAt: core.Now(),
	}
	if err := ledger.RecordRun(ctx, r); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	checks := []run.Check{
		{ID: core.NewCheckID(), RunID: r.ID, Name: "mean(c0)", Passed: true},
		{ID: core.NewCheckID(), RunID: r.ID, Name: "sdev(c0)", Passed: true},
	}
	if err := ledger.RecordChecks(ctx, checks); err != nil {
		t.Fatalf("RecordChecks: %v", err)
	}

	got, gotChecks, err := ledger.GetRun(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Suite != r.Suite || got.Passed != 7 {
		t.Errorf("run mismatch: %+v", got)
	}
	if len(gotChecks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(gotChecks))
	}
}

func TestInMemoryLedger_NotFound(t *testing.T) {
	ledger := NewInMemoryLedger()
	_, _, err := ledger.GetRun(context.Background(), "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryLedger_ListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	ledger := NewInMemoryLedger()

	older := run.Run{ID: "run-1", Suite: "a", Status: run.StatusPassed, StartedAt: core.NewTimestamp(time.Now().Add(-time.Hour))}
	newer := run.Run{ID: "run-2", Suite: "b", Status: run.StatusFailed, StartedAt: core.Now()}
	if err := ledger.RecordRun(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := ledger.RecordRun(ctx, newer); err != nil {
		t.Fatal(err)
	}

	all, err := ledger.ListRuns(ctx, ports.RunFilters{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 2 || all[0].ID != "run-2" {
		t.Errorf("expected newest first, got %+v", all)
	}

	failed, err := ledger.ListRuns(ctx, ports.RunFilters{Status: run.StatusFailed})
	if err != nil {
		t.Fatalf("ListRuns filtered: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "run-2" {
		t.Errorf("status filter: got %+v", failed)
	}

	limited, err := ledger.ListRuns(ctx, ports.RunFilters{Limit: 1})
	if err != nil {
		t.Fatalf("ListRuns limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit: got %d runs", len(limited))
	}
}

func TestGenerators_Deterministic(t *testing.T) {
	a := UniformFrame(42, 10, 10, -10000, 10000)
	b := UniformFrame(42, 10, 10, -10000, 10000)
	if len(a) != 10 || len(a[0].Data) != 10 {
		t.Fatalf("unexpected shape: %d cols x %d rows", len(a), len(a[0].Data))
	}
	for c := range a {
		for r := range a[c].Data {
			if a[c].Data[r] != b[c].Data[r] {
				t.Fatalf("same seed diverged at (%d,%d)", c, r)
			}
		}
	}

	other := UniformFrame(43, 10, 10, -10000, 10000)
	if a[0].Data[0] == other[0].Data[0] {
		t.Error("different seeds produced identical data")
	}
}

func TestPerfectSeparationFrame_IsSeparated(t *testing.T) {
	cols := PerfectSeparationFrame(7, 100)

	var x1, y []float64
	for _, c := range cols {
		switch c.Name {
		case "x1":
			x1 = c.Data
		case "y":
			y = c.Data
		}
	}

	// Every positive x1 must exceed every negative x1.
	minPos, maxNeg := 1e18, -1e18
	positives := 0
	for i := range y {
		if y[i] == 1 {
			positives++
			if x1[i] < minPos {
				minPos = x1[i]
			}
		} else if x1[i] > maxNeg {
			maxNeg = x1[i]
		}
	}
	if minPos <= maxNeg {
		t.Errorf("classes overlap on x1: min positive %v <= max negative %v", minPos, maxNeg)
	}
	if positives == 0 || positives >= 50 {
		t.Errorf("expected an unbalanced minority of positives, got %d of %d", positives, len(y))
	}
}

func TestLocate(t *testing.T) {
	dir, err := Locate("testdata")
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if dir == "" {
		t.Error("empty path from Locate")
	}

	if _, err := Locate("definitely-not-present-anywhere"); err == nil {
		t.Error("expected error for unknown name")
	}
}
