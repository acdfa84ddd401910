package frame

import (
	"fmt"

	"gocascade/domain/core"
)

// Selection addresses one or more columns of a frame, by index or by name.
// Reducers accept only single-column selections; the Single helper enforces
// that before any request leaves the process.
type Selection struct {
	indices []int
	names   []string
}

// Col selects a single column by index
func Col(i int) Selection {
	return Selection{indices: []int{i}}
}

// Cols selects several columns by index
func Cols(indices ...int) Selection {
	return Selection{indices: append([]int(nil), indices...)}
}

// ColName selects a single column by name
func ColName(name string) Selection {
	return Selection{names: []string{name}}
}

// ColNames selects several columns by name
func ColNames(names ...string) Selection {
	return Selection{names: append([]string(nil), names...)}
}

// Range selects the half-open index range [from, to)
func Range(from, to int) Selection {
	var idx []int
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return Selection{indices: idx}
}

// Width returns the number of selected columns
func (s Selection) Width() int {
	return len(s.indices) + len(s.names)
}

// Single resolves the selection against a frame and returns the one selected
// column. It returns core.ErrEmptySelection for an empty selection and
// core.ErrMultiColumn when more than one column is addressed.
func (s Selection) Single(f *Frame) (Column, error) {
	switch {
	case s.Width() == 0:
		return Column{}, core.ErrEmptySelection
	case s.Width() > 1:
		return Column{}, fmt.Errorf("%w: selection has %d columns", core.ErrMultiColumn, s.Width())
	}
	if len(s.names) == 1 {
		return f.Column(s.names[0])
	}
	return f.ColumnAt(s.indices[0])
}

// Resolve returns every selected column in selection order
func (s Selection) Resolve(f *Frame) ([]Column, error) {
	if s.Width() == 0 {
		return nil, core.ErrEmptySelection
	}
	out := make([]Column, 0, s.Width())
	for _, i := range s.indices {
		c, err := f.ColumnAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	for _, n := range s.names {
		c, err := f.Column(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
