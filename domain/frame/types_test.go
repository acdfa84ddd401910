package frame

import (
	"errors"
	"testing"

	"gocascade/domain/core"
)

func irisLikeFrame() *Frame {
	return &Frame{
		Key:  core.FrameKey("frame-iris"),
		Name: "iris",
		Rows: 150,
		Columns: []Column{
			{Name: "sepal_len", Type: TypeNumeric},
			{Name: "sepal_wid", Type: TypeNumeric},
			{Name: "petal_len", Type: TypeNumeric},
			{Name: "petal_wid", Type: TypeNumeric},
			{Name: "class", Type: TypeCategorical},
		},
	}
}

// TestFrameDim tests the (rows, cols) shape accessor
func TestFrameDim(t *testing.T) {
	f := irisLikeFrame()
	rows, cols := f.Dim()
	if rows != 150 || cols != 5 {
		t.Errorf("Expected dim (150, 5), got (%d, %d)", rows, cols)
	}
}

// TestColumnLookup tests lookup by index and by name
func TestColumnLookup(t *testing.T) {
	f := irisLikeFrame()

	c, err := f.ColumnAt(2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Name != "petal_len" {
		t.Errorf("Expected petal_len at index 2, got %s", c.Name)
	}

	c, err = f.Column("class")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.IsNumeric() {
		t.Error("Expected class column to be categorical")
	}

	if _, err := f.ColumnAt(9); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error for out-of-range index, got %v", err)
	}
	if _, err := f.Column("petal_area"); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error for unknown name, got %v", err)
	}
}

// TestNumericColumns tests the numeric column filter
func TestNumericColumns(t *testing.T) {
	f := irisLikeFrame()
	numeric := f.NumericColumns()
	if len(numeric) != 4 {
		t.Fatalf("Expected 4 numeric columns, got %d", len(numeric))
	}
	for _, c := range numeric {
		if c.Type != TypeNumeric {
			t.Errorf("Column %s leaked into numeric set with type %s", c.Name, c.Type)
		}
	}
}

// TestParseStat tests wire-name parsing for reducers
func TestParseStat(t *testing.T) {
	tests := []struct {
		input    string
		expected Stat
		hasError bool
	}{
		{"mean", StatMean, false},
		{" SDEV ", StatSdev, false},
		{"median", StatMedian, false},
		{"mode", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := ParseStat(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestAllStatsStable tests that AllStats covers every reducer exactly once
func TestAllStatsStable(t *testing.T) {
	seen := map[Stat]bool{}
	for _, s := range AllStats() {
		if !s.Valid() {
			t.Errorf("AllStats returned invalid stat %q", s)
		}
		if seen[s] {
			t.Errorf("AllStats returned %q twice", s)
		}
		seen[s] = true
	}
	if len(seen) != 7 {
		t.Errorf("Expected 7 reducers, got %d", len(seen))
	}
}

// TestSelectionSingle tests single-column enforcement
func TestSelectionSingle(t *testing.T) {
	f := irisLikeFrame()

	c, err := Col(0).Single(f)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Name != "sepal_len" {
		t.Errorf("Expected sepal_len, got %s", c.Name)
	}

	c, err = ColName("petal_wid").Single(f)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.Name != "petal_wid" {
		t.Errorf("Expected petal_wid, got %s", c.Name)
	}

	if _, err := Range(0, 2).Single(f); !errors.Is(err, core.ErrMultiColumn) {
		t.Errorf("Expected ErrMultiColumn for two-column selection, got %v", err)
	}
	if _, err := (Selection{}).Single(f); !errors.Is(err, core.ErrEmptySelection) {
		t.Errorf("Expected ErrEmptySelection, got %v", err)
	}
}

// TestSelectionResolve tests multi-column resolution order
func TestSelectionResolve(t *testing.T) {
	f := irisLikeFrame()

	cols, err := Cols(3, 1).Resolve(f)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cols[0].Name != "petal_wid" || cols[1].Name != "sepal_wid" {
		t.Errorf("Expected selection order preserved, got %s, %s", cols[0].Name, cols[1].Name)
	}

	if _, err := ColNames("sepal_len", "nope").Resolve(f); !core.IsNotFoundError(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}
