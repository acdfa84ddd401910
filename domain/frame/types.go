package frame

import (
	"fmt"
	"strings"

	"gocascade/domain/core"
)

// ColumnType classifies a frame column for statistics purposes
type ColumnType string

const (
	// TypeNumeric columns hold float64 values and support all reducers
	TypeNumeric ColumnType = "numeric"
	// TypeCategorical columns hold enum labels; reducers reject them
	TypeCategorical ColumnType = "categorical"
)

// Column describes a single named column of a frame
type Column struct {
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	Missing int        `json:"missing"`
}

// IsNumeric reports whether reducers may run on this column
func (c Column) IsNumeric() bool {
	return c.Type == TypeNumeric
}

// Frame is the client-side descriptor of a server-held tabular dataset.
// The server owns the data; the descriptor carries enough shape information
// to address columns and validate requests before they go on the wire.
type Frame struct {
	Key     core.FrameKey `json:"key"`
	Name    string        `json:"name"`
	Rows    int           `json:"rows"`
	Columns []Column      `json:"columns"`
}

// Dim returns the (rows, cols) shape of the frame
func (f *Frame) Dim() (int, int) {
	return f.Rows, len(f.Columns)
}

// ColumnAt returns the column at index i
func (f *Frame) ColumnAt(i int) (Column, error) {
	if i < 0 || i >= len(f.Columns) {
		return Column{}, fmt.Errorf("%w: column index %d of %d", core.ErrNotFound, i, len(f.Columns))
	}
	return f.Columns[i], nil
}

// Column returns the column with the given name
func (f *Frame) Column(name string) (Column, error) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return Column{}, fmt.Errorf("%w: column %q", core.ErrNotFound, name)
}

// NumericColumns returns the numeric columns in declaration order
func (f *Frame) NumericColumns() []Column {
	var out []Column
	for _, c := range f.Columns {
		if c.IsNumeric() {
			out = append(out, c)
		}
	}
	return out
}

// Stat identifies a per-column scalar reducer
type Stat string

const (
	StatMean     Stat = "mean"
	StatSdev     Stat = "sdev"
	StatVariance Stat = "variance"
	StatMin      Stat = "min"
	StatMax      Stat = "max"
	StatSum      Stat = "sum"
	StatMedian   Stat = "median"
)

// AllStats lists every reducer in a stable order
func AllStats() []Stat {
	return []Stat{StatMean, StatSdev, StatVariance, StatMin, StatMax, StatSum, StatMedian}
}

// String returns the wire name of the statistic
func (s Stat) String() string { return string(s) }

// Valid reports whether the statistic is one of the known reducers
func (s Stat) Valid() bool {
	switch s {
	case StatMean, StatSdev, StatVariance, StatMin, StatMax, StatSum, StatMedian:
		return true
	}
	return false
}

// ParseStat parses a wire name into a Stat
func ParseStat(s string) (Stat, error) {
	st := Stat(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown statistic %q", s)
	}
	return st, nil
}
