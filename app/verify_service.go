package app

import (
	"context"
	"fmt"

	"gocascade/domain/core"
	"gocascade/domain/run"
	"gocascade/internal"
	"gocascade/internal/verify"
	"gocascade/ports"
)

// VerifyService runs verification suites against a cluster and records the
// outcome. Expectation failures surface as a failed run, not as an error;
// only transport and setup problems abort a run.
type VerifyService struct {
	cluster  ports.Cluster
	verifier *verify.Verifier
	ledger   ports.RunLedger
	reporter ports.Reporter
	seed     int64
	dataDir  string
	target   string
	logger   *internal.Logger
}

// VerifyServiceOptions configures a VerifyService
type VerifyServiceOptions struct {
	Cluster  ports.Cluster
	Verifier *verify.Verifier
	// Ledger is optional; without one, runs are not persisted
	Ledger ports.RunLedger
	// Reporter is optional; without one, no report artifact is written
	Reporter ports.Reporter
	Seed     int64
	DataDir  string
	// Target labels the cluster in the ledger, e.g. "local" or its URL
	Target string
}

// RunSummary is what a completed suite execution returns to callers
type RunSummary struct {
	Run        run.Run     `json:"run"`
	Checks     []run.Check `json:"checks"`
	ReportPath string      `json:"report_path,omitempty"`
}

// NewVerifyService creates a verify service
func NewVerifyService(opts VerifyServiceOptions) *VerifyService {
	return &VerifyService{
		cluster:  opts.Cluster,
		verifier: opts.Verifier,
		ledger:   opts.Ledger,
		reporter: opts.Reporter,
		seed:     opts.Seed,
		dataDir:  opts.DataDir,
		target:   opts.Target,
		logger:   internal.NewDefaultLogger().Component("VerifyService"),
	}
}

// RunSuite executes one named suite end to end: resolve, run, summarize,
// persist, render.
func (s *VerifyService) RunSuite(ctx context.Context, name string) (*RunSummary, error) {
	suite, err := verify.SuiteByName(name)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, suite)
}

// RunAll executes every canned suite in order and returns one summary per
// suite. A suite that aborts does not stop the remaining suites.
func (s *VerifyService) RunAll(ctx context.Context) ([]*RunSummary, error) {
	var summaries []*RunSummary
	for _, suite := range verify.Suites() {
		summary, err := s.execute(ctx, suite)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *VerifyService) execute(ctx context.Context, suite verify.Suite) (*RunSummary, error) {
	r := run.Run{
		ID:        core.NewRunID(),
		Suite:     suite.Name,
		Target:    s.target,
		Seed:      s.seed,
		StartedAt: core.Now(),
	}
	s.logger.Info("Starting suite %s (run %s)", suite.Name, r.ID)

	env := &verify.Env{
		Cluster:  s.cluster,
		Verifier: s.verifier,
		Seed:     s.seed,
		DataDir:  s.dataDir,
	}

	checks, runErr := suite.Run(ctx, env)
	r.FinishedAt = core.Now()
	r.Status, r.Passed, r.Failed = run.Summarize(checks)
	if runErr != nil {
		r.Status = run.StatusErrored
		r.Error = runErr.Error()
		s.logger.Error("Suite %s aborted: %v", suite.Name, runErr)
	} else {
		s.logger.Info("Suite %s %s: %d passed, %d failed",
			suite.Name, r.Status, r.Passed, r.Failed)
	}

	for i := range checks {
		checks[i].RunID = r.ID
	}

	summary := &RunSummary{Run: r, Checks: checks}

	if s.ledger != nil {
		if err := s.ledger.RecordRun(ctx, r); err != nil {
			return summary, fmt.Errorf("recording run %s: %w", r.ID, err)
		}
		if len(checks) > 0 {
			if err := s.ledger.RecordChecks(ctx, checks); err != nil {
				return summary, fmt.Errorf("recording checks for run %s: %w", r.ID, err)
			}
		}
	}

	if s.reporter != nil {
		path, err := s.reporter.RenderRun(ctx, r, checks)
		if err != nil {
			// A report failure should not invalidate a completed run.
			s.logger.Warn("Report for run %s failed: %v", r.ID, err)
		} else {
			summary.ReportPath = path
		}
	}

	return summary, nil
}
