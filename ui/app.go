// Package ui serves the results console: a small web view over the run
// ledger and the rendered report artifacts.
package ui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gocascade/domain/core"
	"gocascade/domain/run"
	"gocascade/ports"
)

//go:embed templates/*
var embeddedFiles embed.FS

// App represents the console application
type App struct {
	router    *chi.Mux
	ledger    ports.RunLedger
	templates *template.Template
	reportDir string
}

// Config holds console configuration
type Config struct {
	Port int
	// ReportDir, when set, is served under /reports/
	ReportDir string
}

// NewApp creates a console over the given ledger
func NewApp(config Config, ledger ports.RunLedger) (*App, error) {
	funcMap := template.FuncMap{
		"fmtTime": func(t core.Timestamp) string {
			if t.IsZero() {
				return "-"
			}
			return t.Time().Format("2006-01-02 15:04:05")
		},
		"fmtValue": func(v float64) string { return fmt.Sprintf("%.12g", v) },
		"duration": func(r run.Run) string {
			if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
				return "-"
			}
			return r.FinishedAt.Time().Sub(r.StartedAt.Time()).Round(time.Millisecond).String()
		},
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	app := &App{
		router:    chi.NewRouter(),
		ledger:    ledger,
		templates: templates,
		reportDir: config.ReportDir,
	}

	app.setupMiddleware()
	app.setupRoutes()

	return app, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the console routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/runs/{id}", a.handleRunDetail)

	a.router.Get("/api/runs", a.handleListRuns)
	a.router.Get("/api/runs/{id}", a.handleGetRun)

	if a.reportDir != "" {
		reports := http.FileServer(http.Dir(a.reportDir))
		a.router.Handle("/reports/*", http.StripPrefix("/reports/", reports))
	}
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Run starts the console and blocks until the server stops
func (a *App) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Printf("[Console] Listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) listRuns(ctx context.Context, r *http.Request) ([]run.Run, error) {
	filters := ports.RunFilters{
		Suite: r.URL.Query().Get("suite"),
		Limit: 100,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filters.Status = run.Status(status)
	}
	return a.ledger.ListRuns(ctx, filters)
}

func (a *App) notFound(w http.ResponseWriter, err error) bool {
	if errors.Is(err, core.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return true
	}
	return false
}
