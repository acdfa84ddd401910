package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gocascade/domain/core"
	"gocascade/domain/run"
	"gocascade/internal/reference"
	"gocascade/internal/testkit"
	"gocascade/internal/verify"
	"gocascade/ports"
)

// Mock implementations for testing
type MockRunLedger struct {
	mock.Mock
}

func (m *MockRunLedger) RecordRun(ctx context.Context, r run.Run) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRunLedger) RecordChecks(ctx context.Context, checks []run.Check) error {
	args := m.Called(ctx, checks)
	return args.Error(0)
}

func (m *MockRunLedger) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.Run, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]run.Run), args.Error(1)
}

func (m *MockRunLedger) GetRun(ctx context.Context, id core.RunID) (run.Run, []run.Check, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(run.Run), args.Get(1).([]run.Check), args.Error(2)
}

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) RenderRun(ctx context.Context, r run.Run, checks []run.Check) (string, error) {
	args := m.Called(ctx, r, checks)
	return args.String(0), args.Error(1)
}

func newMockedService(t *testing.T, ledger ports.RunLedger, reporter ports.Reporter) (*VerifyService, func()) {
	t.Helper()
	local, err := testkit.NewLocalCluster(context.Background())
	if err != nil {
		t.Fatalf("local cluster: %v", err)
	}
	dataDir, err := testkit.Locate("testdata")
	if err != nil {
		t.Fatalf("locate testdata: %v", err)
	}
	svc := NewVerifyService(VerifyServiceOptions{
		Cluster:  local.Client,
		Verifier: verify.New(local.Client, reference.NewEngine(), 4),
		Ledger:   ledger,
		Reporter: reporter,
		Seed:     42,
		DataDir:  dataDir,
		Target:   "local",
	})
	return svc, local.Close
}

func TestVerifyService_ReporterFailureDoesNotFailRun(t *testing.T) {
	reporter := &MockReporter{}
	reporter.On("RenderRun", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	svc, cleanup := newMockedService(t, nil, reporter)
	defer cleanup()

	summary, err := svc.RunSuite(context.Background(), "column-reducers")
	assert.NoError(t, err)
	assert.Equal(t, run.StatusPassed, summary.Run.Status)
	assert.Empty(t, summary.ReportPath)
	reporter.AssertExpectations(t)
}

func TestVerifyService_ReportPathComesFromReporter(t *testing.T) {
	reporter := &MockReporter{}
	reporter.On("RenderRun", mock.Anything, mock.Anything, mock.Anything).
		Return("reports/run-x.md", nil)

	svc, cleanup := newMockedService(t, nil, reporter)
	defer cleanup()

	summary, err := svc.RunSuite(context.Background(), "column-reducers")
	assert.NoError(t, err)
	assert.Equal(t, "reports/run-x.md", summary.ReportPath)
}

func TestVerifyService_LedgerFailurePropagates(t *testing.T) {
	ledger := &MockRunLedger{}
	ledger.On("RecordRun", mock.Anything, mock.Anything).Return(assert.AnError)

	svc, cleanup := newMockedService(t, ledger, nil)
	defer cleanup()

	summary, err := svc.RunSuite(context.Background(), "column-reducers")
	assert.Error(t, err)
	// The completed summary still comes back so callers can print it.
	assert.NotNil(t, summary)
	assert.Equal(t, run.StatusPassed, summary.Run.Status)
	ledger.AssertExpectations(t)
}

func TestVerifyService_RecordsChecksWithRunID(t *testing.T) {
	ledger := &MockRunLedger{}
	ledger.On("RecordRun", mock.Anything, mock.Anything).Return(nil)
	ledger.On("RecordChecks", mock.Anything, mock.MatchedBy(func(checks []run.Check) bool {
		if len(checks) == 0 {
			return false
		}
		for _, c := range checks {
			if c.RunID == "" {
				return false
			}
		}
		return true
	})).Return(nil)

	svc, cleanup := newMockedService(t, ledger, nil)
	defer cleanup()

	_, err := svc.RunSuite(context.Background(), "column-reducers")
	assert.NoError(t, err)
	ledger.AssertExpectations(t)
}
