/*
ledger.go - Append-only output table of a simulation run

PURPOSE:
  The Ledger is the run's primary observable output: one row per executed
  action in execution order (monotonically non-decreasing in time), each
  row carrying the transfer receipt plus a snapshot of every declared
  account's balance as of that row.

  Row 0 is synthetic: it holds each account's opening balance, stamped
  with the first real event's date once the run finishes.

INVARIANTS:
  1. APPEND-ONLY: rows are never updated or removed after the run.
  2. CONSISTENT: each account's balance in a row equals its previous
     balance plus the signed sum of transfers touching it at that row.
  3. DETERMINISTIC: replaying the same scenario yields a byte-identical
     CSV rendering.

COLUMNS:
  date, name, from, to, amt, then one column per declared account in the
  ledger's account order. Placeholder accounts never get a column; their
  names can still appear in from/to.
*/
package engine

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Row is one ledger entry. Balances is aligned with Ledger.Accounts.
type Row struct {
	Time     TimePoint
	Name     string
	From     string
	To       string
	Amount   decimal.Decimal
	Balances []decimal.Decimal
}

type Ledger struct {
	// Accounts fixes the balance column order for every row.
	Accounts []string
	Rows     []Row
}

func NewLedger(accounts []string) *Ledger {
	cols := make([]string, len(accounts))
	copy(cols, accounts)
	return &Ledger{Accounts: cols}
}

// Append adds a row. Rows arrive in execution order.
func (l *Ledger) Append(row Row) {
	l.Rows = append(l.Rows, row)
}

// Balance returns the named account's balance at the given row index.
func (l *Ledger) Balance(rowIdx int, account string) (decimal.Decimal, bool) {
	if rowIdx < 0 || rowIdx >= len(l.Rows) {
		return decimal.Decimal{}, false
	}
	for i, name := range l.Accounts {
		if name == account {
			return l.Rows[rowIdx].Balances[i], true
		}
	}
	return decimal.Decimal{}, false
}

// FinalBalances returns each declared account's balance after the last
// row, keyed by account name.
func (l *Ledger) FinalBalances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.Accounts))
	if len(l.Rows) == 0 {
		for _, name := range l.Accounts {
			out[name] = decimal.Zero
		}
		return out
	}
	last := l.Rows[len(l.Rows)-1]
	for i, name := range l.Accounts {
		out[name] = last.Balances[i]
	}
	return out
}

// =============================================================================
// RENDERING
// =============================================================================

// Columns returns the header row: the five receipt columns followed by
// one column per declared account.
func (l *Ledger) Columns() []string {
	return append([]string{"date", "name", "from", "to", "amt"}, l.Accounts...)
}

// Records renders every row as strings, without the header.
func (l *Ledger) Records() [][]string {
	records := make([][]string, 0, len(l.Rows))
	for _, row := range l.Rows {
		rec := make([]string, 0, 5+len(row.Balances))
		rec = append(rec, row.Time.String(), row.Name, row.From, row.To, row.Amount.String())
		for _, b := range row.Balances {
			rec = append(rec, b.String())
		}
		records = append(records, rec)
	}
	return records
}

// WriteCSV writes the header plus all rows. The output is byte-identical
// across replays of the same scenario.
func (l *Ledger) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(l.Columns()); err != nil {
		return err
	}
	for _, rec := range l.Records() {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
