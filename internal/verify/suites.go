package verify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"

	"gocascade/adapters/cascade"
	"gocascade/adapters/tabular"
	"gocascade/domain/core"
	"gocascade/domain/frame"
	"gocascade/domain/model"
	"gocascade/domain/run"
	"gocascade/internal/testkit"
	"gocascade/ports"
)

// Env carries what a suite needs to run
type Env struct {
	Cluster  ports.Cluster
	Verifier *Verifier
	Seed     int64
	// DataDir holds reference datasets (testdata)
	DataDir string
}

// Suite is a canned verification scenario
type Suite struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) ([]run.Check, error)
}

// Suites returns every canned suite in a stable order
func Suites() []Suite {
	return []Suite{
		{
			Name:        "column-reducers",
			Description: "upload a generated frame and compare all seven reducers against the reference",
			Run:         runColumnReducers,
		},
		{
			Name:        "standard-deviation",
			Description: "import iris, compare sdev per column, and assert categorical and multi-column rejections",
			Run:         runStandardDeviation,
		},
		{
			Name:        "gradient-boosting",
			Description: "train a GBM with cross-validation, assert the get-model round trip and the nfolds/validation conflict",
			Run:         runGradientBoosting,
		},
		{
			Name:        "perfect-separation",
			Description: "fit a GLM on perfectly separated data and bound the coefficients",
			Run:         runPerfectSeparation,
		},
	}
}

// SuiteByName resolves a suite, core.ErrNotFound-wrapped when unknown
func SuiteByName(name string) (Suite, error) {
	for _, s := range Suites() {
		if s.Name == name {
			return s, nil
		}
	}
	return Suite{}, fmt.Errorf("%w: suite %q", core.ErrNotFound, name)
}

func localView(uploads []ports.UploadColumn) []ColumnData {
	out := make([]ColumnData, 0, len(uploads))
	for _, u := range uploads {
		if u.Data != nil {
			out = append(out, ColumnData{Name: u.Name, Values: u.Data})
		}
	}
	return out
}

// runColumnReducers mirrors the generated-frame reducer comparison: a 10x10
// uniform(-10000, 10000) frame, every statistic on one random column, then a
// full sweep, all at the default tolerance.
func runColumnReducers(ctx context.Context, env *Env) ([]run.Check, error) {
	uploads := testkit.UniformFrame(env.Seed, 10, 10, -10000, 10000)
	f, err := env.Cluster.UploadFrame(ctx, "reducers", uploads)
	if err != nil {
		return nil, err
	}
	defer discardFrame(ctx, env.Cluster, f.Key)

	local := localView(uploads)
	rng := rand.New(rand.NewSource(env.Seed))
	pick := local[rng.Intn(len(local))]

	var checks []run.Check
	for _, stat := range frame.AllStats() {
		check, err := env.Verifier.CheckColumnStat(ctx, f.Key, pick, stat, DefaultTolerance)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	sweep, err := env.Verifier.SweepFrame(ctx, f.Key, local, frame.AllStats(), DefaultTolerance)
	if err != nil {
		return nil, err
	}
	return append(checks, sweep...), nil
}

// runStandardDeviation mirrors the iris sdev scenario: strict-tolerance
// comparisons per numeric column, then the two expected rejections.
func runStandardDeviation(ctx context.Context, env *Env) ([]run.Check, error) {
	path := filepath.Join(env.DataDir, "iris_wheader.csv")

	f, err := env.Cluster.ImportFrame(ctx, path)
	if err != nil {
		return nil, err
	}
	defer discardFrame(ctx, env.Cluster, f.Key)

	table, err := tabular.NewReader(path).Read()
	if err != nil {
		return nil, err
	}

	var checks []run.Check
	for _, col := range table.Columns {
		if col.Type != frame.TypeNumeric {
			continue
		}
		check, err := env.Verifier.CheckColumnStat(ctx, f.Key, ColumnData{Name: col.Name, Values: col.Values}, frame.StatSdev, StrictTolerance)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}

	// sdev over the categorical class column must be rejected server-side.
	_, err = env.Cluster.ColumnStat(ctx, f.Key, frame.ColName("class"), frame.StatSdev)
	checks = append(checks, ExpectCheck(
		"sdev(class) rejected as column_type",
		cascade.IsColumnType(err),
		errDetail(err),
	))

	// A two-column selection must be rejected before any request is sent.
	_, err = env.Cluster.ColumnStat(ctx, f.Key, frame.Range(0, 2), frame.StatSdev)
	checks = append(checks, ExpectCheck(
		"sdev over two columns rejected client-side",
		errors.Is(err, core.ErrMultiColumn),
		errDetail(err),
	))

	return checks, nil
}

// runGradientBoosting mirrors the GBM scenario: cross-validated train, the
// get-model round trip, the nfolds/validation conflict, and a predict on the
// training frame.
func runGradientBoosting(ctx context.Context, env *Env) ([]run.Check, error) {
	uploads := testkit.ProstateFrame(env.Seed, 200)
	f, err := env.Cluster.UploadFrame(ctx, "prostate", uploads)
	if err != nil {
		return nil, err
	}
	defer discardFrame(ctx, env.Cluster, f.Key)

	params := model.GBMParams{
		Response:     "capsule",
		Features:     []string{"age", "race", "psa", "vol", "gleason"},
		NFolds:       5,
		Distribution: model.DistBernoulli,
	}
	trained, err := env.Cluster.TrainGBM(ctx, f.Key, params)
	if err != nil {
		return nil, err
	}
	defer discardModel(ctx, env.Cluster, trained.Key)

	fetched, err := env.Cluster.GetModel(ctx, trained.Key)
	if err != nil {
		return nil, err
	}

	var checks []run.Check
	checks = append(checks, ExpectCheck(
		"get-model round trip preserves key and algo",
		fetched.Key == trained.Key && fetched.Algo == model.AlgoGBM,
		fmt.Sprintf("trained %s/%s, fetched %s/%s", trained.Key, trained.Algo, fetched.Key, fetched.Algo),
	))

	conflict := params
	conflict.ValidationFrame = f.Key
	_, err = env.Cluster.TrainGBM(ctx, f.Key, conflict)
	checks = append(checks, ExpectCheck(
		"nfolds with validation frame rejected as invalid_parameters",
		cascade.IsInvalidParams(err),
		errDetail(err),
	))

	pred, err := env.Cluster.Predict(ctx, trained.Key, f.Key)
	if err != nil {
		return nil, err
	}
	checks = append(checks, ExpectCheck(
		"predict on training frame keeps row count",
		pred.Frame.Rows == f.Rows,
		fmt.Sprintf("predicted %d rows for %d training rows", pred.Frame.Rows, f.Rows),
	))

	return checks, nil
}

// runPerfectSeparation mirrors the unbalanced perfect-separation GLM: every
// non-intercept coefficient must stay below the separation safeguard bound.
func runPerfectSeparation(ctx context.Context, env *Env) ([]run.Check, error) {
	const coefBound = 50.0

	uploads := testkit.PerfectSeparationFrame(env.Seed, 100)
	f, err := env.Cluster.UploadFrame(ctx, "unbalanced", uploads)
	if err != nil {
		return nil, err
	}
	defer discardFrame(ctx, env.Cluster, f.Key)

	trained, err := env.Cluster.TrainGLM(ctx, f.Key, model.GLMParams{
		Response:           "y",
		Features:           []string{"x1", "x2"},
		Family:             model.FamilyBinomial,
		Alpha:              0.5,
		Lambda:             0,
		LambdaSearch:       true,
		UseAllFactorLevels: true,
	})
	if err != nil {
		return nil, err
	}
	defer discardModel(ctx, env.Cluster, trained.Key)

	coefs := trained.Output.Coefficients.NonIntercept()
	if len(coefs) == 0 {
		return nil, fmt.Errorf("model %s returned no non-intercept coefficients", trained.Key)
	}

	var checks []run.Check
	for _, c := range coefs {
		checks = append(checks, BoundCheck(fmt.Sprintf("coefficient %s bounded", c.Name), c.Value, coefBound))
	}
	return checks, nil
}

func discardFrame(ctx context.Context, cluster ports.Cluster, key core.FrameKey) {
	if err := cluster.DeleteFrame(ctx, key); err != nil {
		logger.Warn("cleanup of frame %s failed: %v", key, err)
	}
}

func discardModel(ctx context.Context, cluster ports.Cluster, key core.ModelKey) {
	if err := cluster.DeleteModel(ctx, key); err != nil {
		logger.Warn("cleanup of model %s failed: %v", key, err)
	}
}

func errDetail(err error) string {
	if err == nil {
		return "no error observed"
	}
	return err.Error()
}
