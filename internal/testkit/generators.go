package testkit

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"gocascade/domain/frame"
	"gocascade/ports"
)

// UniformFrame generates rows x cols of uniform(lo, hi) values. The upload
// columns retain the raw data, so callers keep a local view of exactly what
// went to the cluster.
func UniformFrame(seed int64, rows, cols int, lo, hi float64) []ports.UploadColumn {
	rng := rand.New(rand.NewSource(uint64(seed)))
	dist := distuv.Uniform{Min: lo, Max: hi, Src: rng}

	uploads := make([]ports.UploadColumn, cols)
	for c := 0; c < cols; c++ {
		values := make([]float64, rows)
		for r := 0; r < rows; r++ {
			values[r] = dist.Rand()
		}
		uploads[c] = ports.UploadColumn{Name: fmt.Sprintf("c%d", c), Type: frame.TypeNumeric, Data: values}
	}
	return uploads
}

// ProstateFrame generates a prostate-style binary-response dataset: a 0/1
// capsule response driven by psa and gleason through a logistic link, plus
// uninformative demographic columns.
func ProstateFrame(seed int64, rows int) []ports.UploadColumn {
	rng := rand.New(rand.NewSource(uint64(seed)))
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	capsule := make([]float64, rows)
	age := make([]float64, rows)
	race := make([]float64, rows)
	psa := make([]float64, rows)
	vol := make([]float64, rows)
	gleason := make([]float64, rows)

	for i := 0; i < rows; i++ {
		age[i] = math.Round(55 + 10*normal.Rand())
		race[i] = float64(1 + rng.Intn(2))
		psa[i] = math.Abs(12 + 15*normal.Rand())
		vol[i] = math.Abs(16 + 18*normal.Rand())
		gleason[i] = float64(5 + rng.Intn(4))

		eta := -4.5 + 0.08*psa[i] + 0.45*gleason[i] + 0.3*normal.Rand()
		p := 1 / (1 + math.Exp(-eta))
		if rng.Float64() < p {
			capsule[i] = 1
		}
	}

	numeric := func(name string, values []float64) ports.UploadColumn {
		return ports.UploadColumn{Name: name, Type: frame.TypeNumeric, Data: values}
	}
	return []ports.UploadColumn{
		numeric("capsule", capsule),
		numeric("age", age),
		numeric("race", race),
		numeric("psa", psa),
		numeric("vol", vol),
		numeric("gleason", gleason),
	}
}

// PerfectSeparationFrame generates an unbalanced binary dataset whose
// response is exactly determined by a threshold on x1, so an unpenalized
// logistic fit would diverge.
func PerfectSeparationFrame(seed int64, rows int) []ports.UploadColumn {
	rng := rand.New(rand.NewSource(uint64(seed)))

	x1 := make([]float64, rows)
	x2 := make([]float64, rows)
	y := make([]float64, rows)

	cut := int(float64(rows) * 0.9) // ~10% positives
	for i := 0; i < rows; i++ {
		x1[i] = rng.Float64() * 10
		x2[i] = rng.NormFloat64()
	}
	// Separate on rank of x1: the top decile is positive with a clear gap.
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return x1[order[a]] < x1[order[b]] })
	for rank, idx := range order {
		if rank >= cut {
			x1[idx] += 5 // widen the margin
			y[idx] = 1
		}
	}

	return []ports.UploadColumn{
		{Name: "x1", Type: frame.TypeNumeric, Data: x1},
		{Name: "x2", Type: frame.TypeNumeric, Data: x2},
		{Name: "y", Type: frame.TypeNumeric, Data: y},
	}
}
