package run

import (
	"gocascade/domain/core"
	"gocascade/domain/frame"
)

// Status summarizes how a verification run ended
type Status string

const (
	// StatusPassed means every check agreed within tolerance
	StatusPassed Status = "passed"
	// StatusFailed means at least one check disagreed
	StatusFailed Status = "failed"
	// StatusErrored means the run aborted on a transport or setup error
	StatusErrored Status = "errored"
)

// Run records one execution of a verification suite against a cluster.
// Expectation failures are results, not errors; a run with failed checks
// still completed.
type Run struct {
	ID         core.RunID     `json:"id" db:"id"`
	Suite      string         `json:"suite" db:"suite"`
	Target     string         `json:"target" db:"target"`
	Seed       int64          `json:"seed" db:"seed"`
	Status     Status         `json:"status" db:"status"`
	Passed     int            `json:"passed" db:"passed"`
	Failed     int            `json:"failed" db:"failed"`
	Error      string         `json:"error,omitempty" db:"error_message"`
	StartedAt  core.Timestamp `json:"started_at" db:"started_at"`
	FinishedAt core.Timestamp `json:"finished_at" db:"finished_at"`
}

// Check records one remote-vs-reference comparison within a run. Remote and
// Local are the two computed values; Delta is their absolute difference.
// Error-expectation checks carry no values and record what was observed in
// Detail.
type Check struct {
	ID        core.CheckID   `json:"id" db:"id"`
	RunID     core.RunID     `json:"run_id" db:"run_id"`
	Name      string         `json:"name" db:"name"`
	Column    string         `json:"column,omitempty" db:"column_name"`
	Stat      frame.Stat     `json:"stat,omitempty" db:"stat"`
	Remote    float64        `json:"remote" db:"remote_value"`
	Local     float64        `json:"local" db:"local_value"`
	Delta     float64        `json:"delta" db:"delta"`
	Tolerance float64        `json:"tolerance" db:"tolerance"`
	Passed    bool           `json:"passed" db:"passed"`
	Detail    string         `json:"detail,omitempty" db:"detail"`
	CheckedAt core.Timestamp `json:"checked_at" db:"checked_at"`
}

// Summarize derives the run status and pass/fail counts from its checks
func Summarize(checks []Check) (Status, int, int) {
	passed, failed := 0, 0
	for _, c := range checks {
		if c.Passed {
			passed++
		} else {
			failed++
		}
	}
	if failed > 0 {
		return StatusFailed, passed, failed
	}
	return StatusPassed, passed, failed
}
