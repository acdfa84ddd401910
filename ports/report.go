package ports

import (
	"context"

	"gocascade/domain/run"
)

// Reporter renders a finished run into a human-readable artifact.
type Reporter interface {
	// RenderRun writes the report and returns the path of the primary artifact.
	RenderRun(ctx context.Context, r run.Run, checks []run.Check) (string, error)
}
