/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Defines the JSON shapes of the API, separate from domain types. DTOs
  keep the wire format stable even when domain internals change.

CONVENTIONS:
  - Dates are MM/DD/YYYY strings, matching the scenario schema
  - Timestamps are RFC3339
  - Money travels as decimal strings, never floats: "1234.56"

SEE ALSO:
  - handlers.go: where these are populated
  - scenario: the Description schema embedded in requests
*/
package api

import (
	"github.com/warp/finsim/scenario"
)

// =============================================================================
// REQUESTS
// =============================================================================

// RunSimulationsRequest is the body of POST /api/simulations: a full
// scenario document plus optional run tuning.
type RunSimulationsRequest struct {
	Scenarios map[string]scenario.Description `json:"scenarios"`

	// MaxIterations caps the run loop per scenario. Zero means no cap.
	MaxIterations int `json:"max_iterations,omitempty"`
}

// LoadScenarioRequest selects a canned demo scenario by name.
type LoadScenarioRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// RunDTO describes one persisted run.
type RunDTO struct {
	ID        string `json:"id"`
	Scenario  string `json:"scenario"`
	Rows      int    `json:"rows"`
	CreatedAt string `json:"created_at"`
}

// SimulationResultDTO is returned per scenario from POST /api/simulations.
type SimulationResultDTO struct {
	RunID         string            `json:"run_id"`
	Scenario      string            `json:"scenario"`
	Rows          int               `json:"rows"`
	FinalBalances map[string]string `json:"final_balances"`
}

// LedgerDTO is the JSON rendering of a run's ledger: a header row plus
// string records, exactly mirroring the CSV output.
type LedgerDTO struct {
	RunID   string     `json:"run_id"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ScenarioInfoDTO describes one canned demo scenario.
type ScenarioInfoDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
