/*
Package store defines the persistence interfaces for simulation runs.

PURPOSE:
  A simulation is cheap to compute but the point of the tool is
  comparison over time, so every completed run is persisted: the
  scenario document that produced it, when it ran, and the full ledger
  it produced. Implementations live in subpackages (sqlite for now);
  handlers and tests depend only on these interfaces.

APPEND-ONLY ENFORCEMENT:
  Ledger rows are never updated or deleted individually. The only
  destructive operation is Reset, which drops everything - a dev/demo
  convenience, not a row-level mutation.

SEE ALSO:
  - store/sqlite: the SQLite implementation
  - engine/ledger.go: the Ledger being persisted
*/
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/warp/finsim/engine"
)

// ErrRunNotFound is returned when a run ID matches nothing.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted simulation execution.
type Run struct {
	ID        string          `json:"id"`
	Scenario  string          `json:"scenario"`
	Config    json.RawMessage `json:"config"`
	Rows      int             `json:"rows"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists runs and their ledgers.
type Store interface {
	// SaveRun persists a run record together with its full ledger.
	SaveRun(ctx context.Context, run Run, ledger *engine.Ledger) error

	// GetRun returns one run record by ID.
	GetRun(ctx context.Context, id string) (Run, error)

	// ListRuns returns all run records, newest first.
	ListRuns(ctx context.Context) ([]Run, error)

	// Ledger reconstructs the persisted ledger of a run.
	Ledger(ctx context.Context, runID string) (*engine.Ledger, error)

	// Reset drops all persisted runs and ledgers.
	Reset(ctx context.Context) error

	Close() error
}
