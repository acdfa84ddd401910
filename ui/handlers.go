package ui

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gocascade/domain/core"
	"gocascade/domain/run"
)

// indexData feeds the runs listing page
type indexData struct {
	Runs        []run.Run
	SuiteFilter string
	HasReports  bool
}

// runData feeds the run detail page
type runData struct {
	Run        run.Run
	Checks     []run.Check
	HasReports bool
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := a.listRuns(r.Context(), r)
	if err != nil {
		log.Printf("[Console] Listing runs failed: %v", err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	a.render(w, "index.html", indexData{
		Runs:        runs,
		SuiteFilter: r.URL.Query().Get("suite"),
		HasReports:  a.reportDir != "",
	})
}

func (a *App) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "id"))
	rec, checks, err := a.ledger.GetRun(r.Context(), id)
	if err != nil {
		if a.notFound(w, err) {
			return
		}
		log.Printf("[Console] Loading run %s failed: %v", id, err)
		http.Error(w, "failed to load run", http.StatusInternalServerError)
		return
	}

	a.render(w, "run.html", runData{Run: rec, Checks: checks, HasReports: a.reportDir != ""})
}

func (a *App) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.listRuns(r.Context(), r)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (a *App) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := core.RunID(chi.URLParam(r, "id"))
	rec, checks, err := a.ledger.GetRun(r.Context(), id)
	if err != nil {
		if a.notFound(w, err) {
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"run": rec, "checks": checks})
}

// render executes a template into a buffer first so a bad template cannot
// leave a half-written page behind a 200 status.
func (a *App) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[Console] Template %s failed: %v", name, err)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[Console] Writing response failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[Console] Encoding response failed: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
