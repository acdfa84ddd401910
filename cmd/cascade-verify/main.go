// cascade-verify runs verification suites against a cascade analytics
// server (or the in-process simulator), records runs to the ledger, and
// renders reports.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gocascade/adapters/cascade"
	"gocascade/adapters/postgres"
	"gocascade/adapters/tabular"
	"gocascade/app"
	"gocascade/domain/frame"
	"gocascade/domain/run"
	"gocascade/internal/config"
	"gocascade/internal/reference"
	"gocascade/internal/report"
	"gocascade/internal/testkit"
	"gocascade/internal/verify"
	"gocascade/ports"
	"gocascade/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "cascade-verify",
		Short: "Verify a cascade analytics server against a local reference",
	}

	rootCmd.AddCommand(
		newSuiteCmd(),
		newSuitesCmd(),
		newStatsCmd(),
		newRunsCmd(),
		newConsoleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSuiteCmd() *cobra.Command {
	var serverURL string
	var local bool
	var seed int64

	cmd := &cobra.Command{
		Use:   "suite [name|all]",
		Short: "Run a verification suite and record the outcome",
		Long: `Run one canned verification suite, or every suite with "all".

With --local the suite runs against an in-process simulator; otherwise the
target is --server or CASCADE_URL. Exit code is 1 when any check fails.

Example: cascade-verify suite standard-deviation --local --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(cmd.Context(), args[0], serverURL, local, seed)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Cluster URL (default CASCADE_URL)")
	cmd.Flags().BoolVar(&local, "local", false, "Run against an in-process simulator")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default VERIFY_SEED)")

	return cmd
}

func newSuitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List the canned verification suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, s := range verify.Suites() {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			}
			return w.Flush()
		},
	}
}

func newStatsCmd() *cobra.Command {
	var serverURL string
	var local bool

	cmd := &cobra.Command{
		Use:   "stats [file] [column]",
		Short: "Compute reference statistics for one column of a file",
		Long: `Read a CSV or XLSX file and print every statistic for one column.

With --local or --server the frame is also uploaded to a cluster and each
statistic is compared against the remote value.

Example: cascade-verify stats testdata/iris_wheader.csv sepal_len --local`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), args[0], args[1], serverURL, local)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Cluster URL to compare against")
	cmd.Flags().BoolVar(&local, "local", false, "Compare against an in-process simulator")

	return cmd
}

func newRunsCmd() *cobra.Command {
	var suite string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded verification runs from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd.Context(), suite, limit)
		},
	}

	cmd.Flags().StringVar(&suite, "suite", "", "Only show runs of one suite")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to show")

	return cmd
}

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Serve the results console over the run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ledger, cleanup, err := openLedger(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			port, err := strconv.Atoi(cfg.Console.Port)
			if err != nil {
				return fmt.Errorf("invalid CONSOLE_PORT %q: %w", cfg.Console.Port, err)
			}
			console, err := ui.NewApp(ui.Config{Port: port, ReportDir: cfg.Report.Dir}, ledger)
			if err != nil {
				return err
			}
			return console.Run(port)
		},
	}
}

func runSuites(ctx context.Context, name, serverURL string, local bool, seed int64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = cfg.Verify.Seed
	}

	cluster, target, cleanup, err := openCluster(ctx, cfg, serverURL, local)
	if err != nil {
		return err
	}
	defer cleanup()

	ledger, ledgerCleanup, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer ledgerCleanup()

	dataDir, err := testkit.Locate("testdata")
	if err != nil {
		return fmt.Errorf("locating testdata: %w", err)
	}

	service := app.NewVerifyService(app.VerifyServiceOptions{
		Cluster:  cluster,
		Verifier: verify.New(cluster, reference.NewEngine(), cfg.Verify.Parallelism),
		Ledger:   ledger,
		Reporter: report.NewWriter(cfg.Report.Dir),
		Seed:     seed,
		DataDir:  dataDir,
		Target:   target,
	})

	var summaries []*app.RunSummary
	if name == "all" {
		summaries, err = service.RunAll(ctx)
	} else {
		var summary *app.RunSummary
		summary, err = service.RunSuite(ctx, name)
		if summary != nil {
			summaries = append(summaries, summary)
		}
	}
	if err != nil {
		return err
	}

	failed := false
	for _, s := range summaries {
		printSummary(s)
		if s.Run.Status != run.StatusPassed {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
	return nil
}

func runStats(ctx context.Context, path, column, serverURL string, local bool) error {
	table, err := tabular.NewReader(path).Read()
	if err != nil {
		return err
	}
	col, ok := table.Column(column)
	if !ok {
		return fmt.Errorf("column %q not found in %s (have %v)", column, path, table.Headers)
	}
	if col.Type != frame.TypeNumeric {
		return fmt.Errorf("column %q is %s; statistics need a numeric column", column, col.Type)
	}

	engine := reference.NewEngine()
	locals, err := engine.ComputeAll(col.Values)
	if err != nil {
		return err
	}

	if local || serverURL != "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		c, target, cleanup, err := openCluster(ctx, cfg, serverURL, local)
		if err != nil {
			return err
		}
		defer cleanup()

		fr, err := c.UploadFrame(ctx, table.Name, []ports.UploadColumn{{
			Name: col.Name, Type: frame.TypeNumeric, Data: col.Values,
		}})
		if err != nil {
			return err
		}
		defer c.DeleteFrame(ctx, fr.Key)
		fmt.Printf("Comparing against %s (frame %s)\n\n", target, fr.Key)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "stat\tlocal\tremote\tdelta")
		for _, stat := range sortedStats(locals) {
			remote, err := c.ColumnStat(ctx, fr.Key, frame.ColName(col.Name), stat)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%.12g\t%.12g\t%.3g\n", stat, locals[stat], remote, abs(remote-locals[stat]))
		}
		return w.Flush()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "stat\tvalue")
	for _, stat := range sortedStats(locals) {
		fmt.Fprintf(w, "%s\t%.12g\n", stat, locals[stat])
	}
	return w.Flush()
}

func listRuns(ctx context.Context, suite string, limit int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Ledger.URL == "" {
		return fmt.Errorf("runs requires DATABASE_URL to be set")
	}
	ledger, cleanup, err := openLedger(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := ledger.ListRuns(ctx, ports.RunFilters{Suite: suite, Limit: limit})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "run\tsuite\ttarget\tstatus\tpassed\tfailed\tstarted")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Suite, r.Target, r.Status, r.Passed, r.Failed, r.StartedAt)
	}
	return w.Flush()
}

// openCluster connects to the requested target: an in-process simulator for
// --local, otherwise the given or configured server URL.
func openCluster(ctx context.Context, cfg *config.Config, serverURL string, local bool) (ports.Cluster, string, func(), error) {
	if local {
		lc, err := testkit.NewLocalCluster(ctx)
		if err != nil {
			return nil, "", nil, err
		}
		return lc.Client, "local", lc.Close, nil
	}

	url := serverURL
	if url == "" {
		url = cfg.Cluster.URL
	}
	opts := cascade.DefaultOptions(url)
	opts.Token = cfg.Cluster.Token
	opts.Timeout = cfg.Cluster.Timeout
	client := cascade.NewClient(opts)
	if _, err := client.Connect(ctx); err != nil {
		return nil, "", nil, err
	}
	return client, url, func() {}, nil
}

// openLedger returns the postgres ledger when DATABASE_URL is set, an
// in-memory one otherwise.
func openLedger(ctx context.Context, cfg *config.Config) (ports.RunLedger, func(), error) {
	if cfg.Ledger.URL == "" {
		return testkit.NewInMemoryLedger(), func() {}, nil
	}
	db, err := postgres.Connect(cfg.Ledger.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewRunLedger(db), func() { db.Close() }, nil
}

func printSummary(s *app.RunSummary) {
	fmt.Printf("%s: %s (%d passed, %d failed)\n",
		s.Run.Suite, s.Run.Status, s.Run.Passed, s.Run.Failed)
	for _, c := range s.Checks {
		if !c.Passed {
			detail := c.Detail
			if detail == "" {
				detail = fmt.Sprintf("cluster %.12g vs reference %.12g (delta %.3g, tolerance %.0e)",
					c.Remote, c.Local, c.Delta, c.Tolerance)
			}
			fmt.Printf("  FAIL %s: %s\n", c.Name, detail)
		}
	}
	if s.Run.Error != "" {
		fmt.Printf("  aborted: %s\n", s.Run.Error)
	}
	if s.ReportPath != "" {
		fmt.Printf("  report: %s\n", s.ReportPath)
	}
}

func sortedStats(values map[frame.Stat]float64) []frame.Stat {
	stats := make([]frame.Stat, 0, len(values))
	for s := range values {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i] < stats[j] })
	return stats
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
