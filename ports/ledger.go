package ports

import (
	"context"

	"gocascade/domain/core"
	"gocascade/domain/run"
)

// RunFilters narrows ListRuns queries
type RunFilters struct {
	Suite  string
	Status run.Status
	Limit  int
}

// RunLedger persists verification runs and their checks. The ledger is the
// only thing this system persists; frames and models on the cluster are
// discarded per run.
type RunLedger interface {
	// RecordRun stores a run summary row
	RecordRun(ctx context.Context, r run.Run) error

	// RecordChecks stores the checks belonging to a run
	RecordChecks(ctx context.Context, checks []run.Check) error

	// ListRuns returns run summaries, newest first
	ListRuns(ctx context.Context, filters RunFilters) ([]run.Run, error)

	// GetRun returns one run and its checks, core.ErrNotFound-wrapped when
	// the run does not exist
	GetRun(ctx context.Context, id core.RunID) (run.Run, []run.Check, error)
}
