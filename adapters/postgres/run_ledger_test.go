package postgres

import (
	"strings"
	"testing"

	"gocascade/ports"
)

// The ledger is exercised against a live database in deployment; these
// tests pin the SQL shape so schema drift is caught without one.

func TestNewRunLedger_ImplementsPort(t *testing.T) {
	var _ ports.RunLedger = NewRunLedger(nil)
}

func TestSchema_DefinesBothTables(t *testing.T) {
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS runs",
		"CREATE TABLE IF NOT EXISTS checks",
		"REFERENCES runs(id) ON DELETE CASCADE",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func TestSchema_CoversEveryRecordedColumn(t *testing.T) {
	runCols := []string{"id", "suite", "target", "seed", "status", "passed",
		"failed", "error_message", "started_at", "finished_at"}
	checkCols := []string{"id", "run_id", "name", "column_name", "stat",
		"remote_value", "local_value", "delta", "tolerance", "passed",
		"detail", "checked_at"}

	for _, col := range runCols {
		if !strings.Contains(schema, col) {
			t.Errorf("runs table missing column %q", col)
		}
	}
	for _, col := range checkCols {
		if !strings.Contains(schema, col) {
			t.Errorf("checks table missing column %q", col)
		}
	}
}
