package ports

import (
	"gocascade/domain/frame"
)

// Reference computes statistics locally, independent of the cluster, so the
// verifier has a second opinion to compare against. Implementations receive
// the raw column values (missing encoded as NaN) and must skip missing
// values before reducing.
type Reference interface {
	// Compute reduces the values to the requested scalar statistic.
	// It returns core.ErrEmptyData when nothing remains after dropping
	// missing values.
	Compute(stat frame.Stat, values []float64) (float64, error)
}
