// Package verify compares statistics computed by a cascade cluster against a
// locally computed reference, within a fixed absolute tolerance.
package verify

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/semaphore"

	"gocascade/domain/core"
	"gocascade/domain/frame"
	"gocascade/domain/run"
	"gocascade/internal"
	"gocascade/ports"
)

var logger = internal.NewDefaultLogger().Component("Verifier")

const (
	// DefaultTolerance is used for generated-data sweeps
	DefaultTolerance = 1e-6
	// StrictTolerance is used for file-imported columns, where both sides
	// parse the same bytes
	StrictTolerance = 1e-10
)

// ColumnData pairs a column name with its locally held values (NaN marks
// missing), the client-side half of every comparison.
type ColumnData struct {
	Name   string
	Values []float64
}

// Verifier runs remote-vs-reference comparisons
type Verifier struct {
	cluster     ports.Cluster
	reference   ports.Reference
	parallelism int64
}

// New creates a verifier with the given fan-out bound
func New(cluster ports.Cluster, reference ports.Reference, parallelism int) *Verifier {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Verifier{
		cluster:     cluster,
		reference:   reference,
		parallelism: int64(parallelism),
	}
}

// CheckColumnStat requests one statistic from the cluster, computes the same
// statistic locally, and records the comparison. A disagreement is a result
// (Passed=false); a transport or computation error aborts.
func (v *Verifier) CheckColumnStat(ctx context.Context, key core.FrameKey, col ColumnData, stat frame.Stat, tol float64) (run.Check, error) {
	remote, err := v.cluster.ColumnStat(ctx, key, frame.ColName(col.Name), stat)
	if err != nil {
		return run.Check{}, fmt.Errorf("remote %s(%s): %w", stat, col.Name, err)
	}

	local, err := v.reference.Compute(stat, col.Values)
	if err != nil {
		return run.Check{}, fmt.Errorf("reference %s(%s): %w", stat, col.Name, err)
	}

	delta := math.Abs(remote - local)
	check := run.Check{
		ID:        core.NewCheckID(),
		Name:      fmt.Sprintf("%s(%s)", stat, col.Name),
		Column:    col.Name,
		Stat:      stat,
		Remote:    remote,
		Local:     local,
		Delta:     delta,
		Tolerance: tol,
		Passed:    delta < tol,
		CheckedAt: core.Now(),
	}
	if !check.Passed {
		logger.Warn("%s disagrees: cluster computed %v, reference computed %v (delta %v, tolerance %v)",
			check.Name, remote, local, delta, tol)
	}
	return check, nil
}

// SweepFrame checks every given column against every given statistic with
// bounded concurrency. Results come back in (column, stat) order regardless
// of scheduling.
func (v *Verifier) SweepFrame(ctx context.Context, key core.FrameKey, cols []ColumnData, stats []frame.Stat, tol float64) ([]run.Check, error) {
	type job struct {
		col  ColumnData
		stat frame.Stat
	}
	var jobs []job
	for _, col := range cols {
		for _, stat := range stats {
			jobs = append(jobs, job{col: col, stat: stat})
		}
	}

	sem := semaphore.NewWeighted(v.parallelism)
	results := make([]run.Check, len(jobs))
	errs := make([]error, len(jobs))
	var wg sync.WaitGroup

	for i, j := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			defer sem.Release(1)
			results[i], errs[i] = v.CheckColumnStat(ctx, key, j.col, j.stat, tol)
		}(i, j)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ExpectCheck records the outcome of an error-expectation: the caller
// expected a specific rejection and reports whether it was observed.
func ExpectCheck(name string, passed bool, detail string) run.Check {
	return run.Check{
		ID:        core.NewCheckID(),
		Name:      name,
		Passed:    passed,
		Detail:    detail,
		CheckedAt: core.Now(),
	}
}

// BoundCheck records a magnitude-bound assertion: Passed when |value| is
// strictly below bound.
func BoundCheck(name string, value, bound float64) run.Check {
	delta := math.Abs(value)
	return run.Check{
		ID:        core.NewCheckID(),
		Name:      name,
		Remote:    value,
		Delta:     delta,
		Tolerance: bound,
		Passed:    delta < bound,
		CheckedAt: core.Now(),
	}
}
