package simulator

import (
	"sync"

	"gocascade/adapters/cascade/wire"
	"gocascade/adapters/tabular"
	"gocascade/domain/frame"
)

// storedFrame holds a frame descriptor together with its column data
type storedFrame struct {
	descriptor wire.FrameResponse
	columns    []tabular.Column
}

func (f *storedFrame) column(name string) (tabular.Column, bool) {
	for _, c := range f.columns {
		if c.Name == name {
			return c, true
		}
	}
	return tabular.Column{}, false
}

// storedModel holds a model descriptor plus the scoring closure Predict uses
type storedModel struct {
	descriptor wire.ModelResponse
	score      func(row map[string]float64) float64
	features   []string
}

// store is the simulator's in-memory state, guarded for concurrent handlers
type store struct {
	mu     sync.RWMutex
	frames map[string]*storedFrame
	models map[string]*storedModel
}

func newStore() *store {
	return &store{
		frames: make(map[string]*storedFrame),
		models: make(map[string]*storedModel),
	}
}

func (s *store) putFrame(f *storedFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[f.descriptor.Key] = f
}

func (s *store) getFrame(key string) (*storedFrame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.frames[key]
	return f, ok
}

func (s *store) deleteFrame(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frames[key]; !ok {
		return false
	}
	delete(s.frames, key)
	return true
}

func (s *store) putModel(m *storedModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.descriptor.Key] = m
}

func (s *store) getModel(key string) (*storedModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[key]
	return m, ok
}

func (s *store) deleteModel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[key]; !ok {
		return false
	}
	delete(s.models, key)
	return true
}

// descriptorFromColumns builds the wire descriptor for parsed columns
func descriptorFromColumns(key, name string, rows int, cols []tabular.Column) wire.FrameResponse {
	resp := wire.FrameResponse{Key: key, Name: name, Rows: rows}
	for _, c := range cols {
		colType := string(frame.TypeNumeric)
		if c.Type == frame.TypeCategorical {
			colType = string(frame.TypeCategorical)
		}
		resp.Columns = append(resp.Columns, wire.ColumnDescriptor{
			Name:    c.Name,
			Type:    colType,
			Missing: c.Missing,
		})
	}
	return resp
}
