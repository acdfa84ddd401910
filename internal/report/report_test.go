package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocascade/domain/core"
	"gocascade/domain/frame"
	"gocascade/domain/run"
)

func sampleRun() (run.Run, []run.Check) {
	r := run.Run{
		ID:        "run-report-test",
		Suite:     "standard-deviation",
		Target:    "local",
		Seed:      42,
		Status:    run.StatusFailed,
		Passed:    1,
		Failed:    1,
		StartedAt: core.Now(),
	}
	checks := []run.Check{
		{
			ID: core.NewCheckID(), RunID: r.ID, Name: "sdev(sepal_len)",
			Column: "sepal_len", Stat: frame.StatSdev,
			Remote: 0.828066, Local: 0.828066, Delta: 0, Tolerance: 1e-10, Passed: true,
		},
		{
			ID: core.NewCheckID(), RunID: r.ID, Name: "sdev(class) rejected",
			Passed: false, Detail: "expected a column_type rejection, got none",
		},
	}
	return r, checks
}

func TestMarkdown_ContainsRunAndChecks(t *testing.T) {
	r, checks := sampleRun()
	md := Markdown(r, checks)

	for _, want := range []string{
		"# Verification run run-report-test",
		"**Suite:** standard-deviation",
		"**Status:** failed",
		"| sdev(sepal_len) | pass |",
		"| sdev(class) rejected | FAIL |",
		"expected a column_type rejection",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdown_EmptyChecks(t *testing.T) {
	r, _ := sampleRun()
	r.Status = run.StatusErrored
	r.Error = "connect refused"
	md := Markdown(r, nil)
	if !strings.Contains(md, "No checks were recorded") {
		t.Error("expected empty-checks notice")
	}
	if !strings.Contains(md, "**Aborted:** connect refused") {
		t.Error("expected abort reason")
	}
}

func TestWriter_RenderRunWritesBothArtifacts(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "reports"))

	r, checks := sampleRun()
	path, err := w.RenderRun(context.Background(), r, checks)
	if err != nil {
		t.Fatalf("RenderRun: %v", err)
	}
	if filepath.Base(path) != "run-run-report-test.md" {
		t.Errorf("unexpected primary artifact %s", path)
	}

	htmlPath := strings.TrimSuffix(path, ".md") + ".html"
	page, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("reading html artifact: %v", err)
	}
	if !strings.Contains(string(page), "<table>") {
		t.Error("expected the check table to render as HTML")
	}
	if !strings.Contains(string(page), "sdev(sepal_len)") {
		t.Error("expected check names in HTML output")
	}
}
