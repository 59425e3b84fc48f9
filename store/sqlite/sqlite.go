/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists simulation runs and their ledgers using SQLite. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  runs:        One row per completed simulation (scenario + config used)
  ledger_rows: The run's ledger, one row per executed action, keyed by
               (run_id, seq) so replay order is exact

APPEND-ONLY ENFORCEMENT:
  No UPDATE or row-level DELETE statements exist for ledger_rows. A run
  and its ledger are written once inside a single transaction; the only
  destructive path is Reset, which truncates both tables.

BALANCE COLUMNS:
  A ledger's account set varies per scenario, so balances are stored as
  a JSON array per row, aligned with the accounts_json column order on
  the runs row. Reconstruction is exact because both sides share the
  same ordering.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/finsim.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - store: interface definitions
  - engine/ledger.go: the Ledger being persisted
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/finsim/engine"
	"github.com/warp/finsim/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Completed simulation runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		config_json TEXT NOT NULL,
		accounts_json TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_scenario
		ON runs(scenario);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);

	-- Ledger rows (append-only; written once per run)
	CREATE TABLE IF NOT EXISTS ledger_rows (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		action TEXT NOT NULL,
		from_account TEXT NOT NULL,
		to_account TEXT NOT NULL,
		amt TEXT NOT NULL,
		balances_json TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_rows_run
		ON ledger_rows(run_id, seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun persists the run record and its ledger atomically.
func (s *Store) SaveRun(ctx context.Context, run store.Run, ledger *engine.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accountsJSON, err := json.Marshal(ledger.Accounts)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	configJSON := run.Config
	if len(configJSON) == 0 {
		configJSON = json.RawMessage("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, config_json, accounts_json, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Scenario,
		string(configJSON),
		string(accountsJSON),
		len(ledger.Rows),
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	insertRow, err := tx.PrepareContext(ctx, `
		INSERT INTO ledger_rows (run_id, seq, date, action, from_account, to_account, amt, balances_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer insertRow.Close()

	for seq, row := range ledger.Rows {
		balances := make([]string, len(row.Balances))
		for i, b := range row.Balances {
			balances[i] = b.String()
		}
		balancesJSON, err := json.Marshal(balances)
		if err != nil {
			return fmt.Errorf("failed to encode balances: %w", err)
		}

		_, err = insertRow.ExecContext(ctx,
			run.ID,
			seq,
			row.Time.String(),
			row.Name,
			row.From,
			row.To,
			row.Amount.String(),
			string(balancesJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ledger row %d: %w", seq, err)
		}
	}

	return tx.Commit()
}

// GetRun returns one run record by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, config_json, row_count, created_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, store.ErrRunNotFound
	}
	return run, err
}

// ListRuns returns all run records, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, config_json, row_count, created_at
		FROM runs
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (store.Run, error) {
	var (
		run        store.Run
		configJSON string
		createdAt  string
	)
	if err := row.Scan(&run.ID, &run.Scenario, &configJSON, &run.Rows, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return run, err
		}
		return run, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Config = json.RawMessage(configJSON)
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return run, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	run.CreatedAt = t
	return run, nil
}

// =============================================================================
// LEDGERS
// =============================================================================

// Ledger reconstructs a run's ledger exactly as it was produced.
func (s *Store) Ledger(ctx context.Context, runID string) (*engine.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accountsJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT accounts_json FROM runs WHERE id = ?", runID,
	).Scan(&accountsJSON)
	if err == sql.ErrNoRows {
		return nil, store.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run accounts: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal([]byte(accountsJSON), &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	ledger := engine.NewLedger(accounts)

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, action, from_account, to_account, amt, balances_json
		FROM ledger_rows
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			date         string
			action       string
			from         string
			to           string
			amt          string
			balancesJSON string
		)
		if err := rows.Scan(&date, &action, &from, &to, &amt, &balancesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}

		row := engine.Row{Name: action, From: from, To: to}
		if date != "" {
			tp, err := engine.ParseDate(date)
			if err != nil {
				return nil, err
			}
			row.Time = tp
		}
		row.Amount, err = decimal.NewFromString(amt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amt, err)
		}

		var balanceStrs []string
		if err := json.Unmarshal([]byte(balancesJSON), &balanceStrs); err != nil {
			return nil, fmt.Errorf("failed to decode balances: %w", err)
		}
		row.Balances = make([]decimal.Decimal, len(balanceStrs))
		for i, bs := range balanceStrs {
			row.Balances[i], err = decimal.NewFromString(bs)
			if err != nil {
				return nil, fmt.Errorf("failed to parse balance %q: %w", bs, err)
			}
		}

		ledger.Append(row)
	}
	return ledger, rows.Err()
}

// =============================================================================
// RESET
// =============================================================================

// Reset drops all persisted runs and ledgers.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ledger_rows"); err != nil {
		return fmt.Errorf("failed to clear ledger rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs"); err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	return tx.Commit()
}
