// Package report renders finished verification runs into markdown and HTML
// artifacts under a configurable directory.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gocascade/domain/run"
	"gocascade/internal/errors"
	"gocascade/ports"
)

// Writer renders run reports to disk
type Writer struct {
	dir string
}

// NewWriter creates a report writer rooted at dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

var _ ports.Reporter = (*Writer)(nil)

// RenderRun writes run-<id>.md and run-<id>.html and returns the markdown path
func (w *Writer) RenderRun(ctx context.Context, r run.Run, checks []run.Check) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.ReportError("creating report directory", err)
	}

	md := Markdown(r, checks)
	mdPath := filepath.Join(w.dir, fmt.Sprintf("run-%s.md", r.ID))
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", errors.ReportError("writing markdown report", err)
	}

	htmlPath := filepath.Join(w.dir, fmt.Sprintf("run-%s.html", r.ID))
	if err := os.WriteFile(htmlPath, HTML(md), 0o644); err != nil {
		return "", errors.ReportError("writing html report", err)
	}

	return mdPath, nil
}

// Markdown renders a run and its checks as a markdown document
func Markdown(r run.Run, checks []run.Check) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification run %s\n\n", r.ID)
	fmt.Fprintf(&b, "- **Suite:** %s\n", r.Suite)
	fmt.Fprintf(&b, "- **Target:** %s\n", r.Target)
	fmt.Fprintf(&b, "- **Seed:** %d\n", r.Seed)
	fmt.Fprintf(&b, "- **Status:** %s\n", r.Status)
	fmt.Fprintf(&b, "- **Checks:** %d passed, %d failed\n", r.Passed, r.Failed)
	fmt.Fprintf(&b, "- **Started:** %s\n", r.StartedAt)
	fmt.Fprintf(&b, "- **Finished:** %s\n", r.FinishedAt)
	if r.Error != "" {
		fmt.Fprintf(&b, "- **Aborted:** %s\n", r.Error)
	}

	if len(checks) == 0 {
		b.WriteString("\nNo checks were recorded.\n")
		return b.String()
	}

	b.WriteString("\n## Checks\n\n")
	b.WriteString("| Check | Result | Remote | Reference | Delta | Tolerance | Detail |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, c := range checks {
		result := "pass"
		if !c.Passed {
			result = "FAIL"
		}
		if c.Stat == "" {
			// Error-expectation checks carry no values.
			fmt.Fprintf(&b, "| %s | %s | | | | | %s |\n", c.Name, result, c.Detail)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %.12g | %.12g | %.3g | %.0e | %s |\n",
			c.Name, result, c.Remote, c.Local, c.Delta, c.Tolerance, c.Detail)
	}

	return b.String()
}

// HTML converts a markdown report into a standalone HTML page
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Verification report",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}
