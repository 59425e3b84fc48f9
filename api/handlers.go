/*
handlers.go - HTTP API handlers for the simulation service

PURPOSE:
  Exposes the simulation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Simulations:
    POST   /api/simulations            Build, run and persist a scenario document

  Runs:
    GET    /api/runs                   List persisted runs
    GET    /api/runs/{id}              Get one run record
    GET    /api/runs/{id}/ledger       Get a run's ledger (JSON, ?format=csv)

  Scenarios:
    GET    /api/scenarios              List canned demo scenarios
    POST   /api/scenarios/load         Run a canned demo scenario

  Admin:
    POST   /api/reset                  Clear all persisted runs (dev only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Build sims through the scenario loader
  3. Run each sim and persist run + ledger
  4. Publish a run-completed event (best effort)
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Scenario/config errors (the engine error taxonomy)
  - 404: Unknown run or demo scenario
  - 500: Storage failures, unexpected callback errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Canned demo scenario documents
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/finsim/engine"
	"github.com/warp/finsim/events"
	"github.com/warp/finsim/scenario"
	"github.com/warp/finsim/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     store.Store
	Publisher events.Publisher

	// Overridable for tests.
	newID func() string
	now   func() time.Time
}

// NewHandler creates a new handler with the given store and publisher.
func NewHandler(st store.Store, pub events.Publisher) *Handler {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Handler{
		Store:     st,
		Publisher: pub,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// =============================================================================
// SIMULATION HANDLERS
// =============================================================================

// RunSimulations builds every scenario in the request document, runs
// each to completion and persists run + ledger.
// POST /api/simulations
func (h *Handler) RunSimulations(w http.ResponseWriter, r *http.Request) {
	var req RunSimulationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Scenarios) == 0 {
		writeError(w, http.StatusBadRequest, "No scenarios provided", nil)
		return
	}

	h.runAndRespond(w, r, scenario.Config{Scenarios: req.Scenarios}, req.MaxIterations)
}

// runAndRespond is the shared build-run-persist path for user documents
// and canned demos.
func (h *Handler) runAndRespond(w http.ResponseWriter, r *http.Request, cfg scenario.Config, maxIters int) {
	sims, err := scenario.BuildConfig(cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if engine.IsConfigError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "Failed to build scenarios", err)
		return
	}

	results := make([]SimulationResultDTO, 0, len(sims))
	for _, sim := range sims {
		ledger, err := sim.Run(engine.RunOptions{MaxIterations: maxIters})
		if err != nil {
			writeError(w, http.StatusInternalServerError,
				fmt.Sprintf("Scenario %q failed", sim.Name), err)
			return
		}

		configJSON, err := json.Marshal(cfg.Scenarios[sim.Name])
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode scenario config", err)
			return
		}

		run := store.Run{
			ID:        h.newID(),
			Scenario:  sim.Name,
			Config:    configJSON,
			Rows:      len(ledger.Rows),
			CreatedAt: h.now().UTC(),
		}
		if err := h.Store.SaveRun(r.Context(), run, ledger); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to persist run", err)
			return
		}

		// Best effort: a broker outage must not fail the simulation.
		if err := h.Publisher.PublishRunCompleted(r.Context(), events.RunCompleted{
			RunID:       run.ID,
			Scenario:    run.Scenario,
			Rows:        run.Rows,
			CompletedAt: run.CreatedAt,
		}); err != nil {
			log.Printf("Warning: failed to publish run-completed event for %s: %v", run.ID, err)
		}

		results = append(results, SimulationResultDTO{
			RunID:         run.ID,
			Scenario:      run.Scenario,
			Rows:          run.Rows,
			FinalBalances: formatBalances(ledger.FinalBalances()),
		})
	}

	writeJSON(w, http.StatusCreated, results)
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns all persisted runs, newest first.
// GET /api/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run record.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}

	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// GetRunLedger returns a run's ledger as JSON, or as a CSV attachment
// with ?format=csv.
// GET /api/runs/{id}/ledger
func (h *Handler) GetRunLedger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ledger, err := h.Store.Ledger(r.Context(), id)
	if errors.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load ledger", err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		var buf bytes.Buffer
		if err := ledger.WriteCSV(&buf); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to render CSV", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
		return
	}

	writeJSON(w, http.StatusOK, LedgerDTO{
		RunID:   id,
		Columns: ledger.Columns(),
		Rows:    ledger.Records(),
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all persisted runs.
// POST /api/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func toRunDTO(run store.Run) RunDTO {
	return RunDTO{
		ID:        run.ID,
		Scenario:  run.Scenario,
		Rows:      run.Rows,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
}

// formatBalances renders balances as decimal strings in a stable order
// for inspection; JSON objects are unordered but tests rely on values.
func formatBalances(balances map[string]decimal.Decimal) map[string]string {
	names := make([]string, 0, len(balances))
	for name := range balances {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]string, len(balances))
	for _, name := range names {
		out[name] = balances[name].String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
