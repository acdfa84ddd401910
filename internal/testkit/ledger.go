package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gocascade/domain/core"
	"gocascade/domain/run"
	"gocascade/ports"
)

// InMemoryLedger is a RunLedger for tests and ledger-less runs
type InMemoryLedger struct {
	mu     sync.RWMutex
	runs   map[core.RunID]run.Run
	checks map[core.RunID][]run.Check
	order  []core.RunID
}

// NewInMemoryLedger creates an empty in-memory ledger
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		runs:   make(map[core.RunID]run.Run),
		checks: make(map[core.RunID][]run.Check),
	}
}

var _ ports.RunLedger = (*InMemoryLedger)(nil)

// RecordRun stores a run summary row
func (l *InMemoryLedger) RecordRun(ctx context.Context, r run.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.runs[r.ID]; !exists {
		l.order = append(l.order, r.ID)
	}
	l.runs[r.ID] = r
	return nil
}

// RecordChecks stores the checks belonging to a run
func (l *InMemoryLedger) RecordChecks(ctx context.Context, checks []run.Check) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range checks {
		l.checks[c.RunID] = append(l.checks[c.RunID], c)
	}
	return nil
}

// ListRuns returns run summaries, newest first
func (l *InMemoryLedger) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []run.Run
	for _, id := range l.order {
		r := l.runs[id]
		if filters.Suite != "" && r.Suite != filters.Suite {
			continue
		}
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].StartedAt.Before(out[i].StartedAt)
	})
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// GetRun returns one run and its checks
func (l *InMemoryLedger) GetRun(ctx context.Context, id core.RunID) (run.Run, []run.Check, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.runs[id]
	if !ok {
		return run.Run{}, nil, fmt.Errorf("%w: run %s", core.ErrNotFound, id)
	}
	checks := append([]run.Check(nil), l.checks[id]...)
	return r, checks, nil
}
