/*
sim.go - Simulation context and run loop

PURPOSE:
  Sim owns all mutable state of one scenario: the account set, the named
  variable mapping, the pending-action queue and the ledger being
  accumulated. It is the sole mutator of account balances during a run;
  factories only add actions before the run starts.

RUN LOOP:
  1. Record every account's opening balance as ledger row 0.
  2. Normalize priorities (see action.go) so same-instant actions
     execute in insertion order.
  3. Pop the earliest-ordered action, execute it, append a ledger row if
     it produced one, push the action back unless it finished.
  4. Terminate when the queue is empty (or the optional iteration cap is
     reached).

CONCURRENCY:
  None. The run is synchronous, deterministic computation over a closed
  set of actions; correctness rests entirely on the total order
  (NextExecution, Priority). No external mutation is permitted once
  Run begins.

SEE ALSO:
  - action.go: execution state machine and ordering contract
  - ledger.go: the output table
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SIM
// =============================================================================

type Sim struct {
	Name string

	accounts map[string]*Account
	order    []string // declared accounts, in ledger column order
	vars     map[string]decimal.Decimal
	actions  []*Action

	// Live queue while Run is in flight, so actions added mid-run are
	// inserted respecting the ordering contract.
	queue *actionQueue
}

func NewSim(name string) *Sim {
	return &Sim{
		Name:     name,
		accounts: make(map[string]*Account),
		vars:     make(map[string]decimal.Decimal),
	}
}

// =============================================================================
// ACCOUNTS AND VARIABLES
// =============================================================================

// CreateAccount registers a named account with an opening balance.
// Duplicate names overwrite the account but keep its ledger column slot.
func (s *Sim) CreateAccount(name string, opening decimal.Decimal) *Account {
	if _, exists := s.accounts[name]; !exists {
		s.order = append(s.order, name)
	}
	acc := NewAccount(name, opening)
	s.accounts[name] = acc
	return acc
}

// GetAccount returns the registered account, or a throwaway placeholder
// with the same name and zero balance when none exists. Placeholders let
// actions reference uninteresting counterparties ("the housing market")
// without every scenario declaring every economic actor; writes to them
// never appear in the ledger's balance columns.
func (s *Sim) GetAccount(name string) *Account {
	if acc, ok := s.accounts[name]; ok {
		return acc
	}
	return NewAccount(name, decimal.Zero)
}

// HasAccount reports whether the name is a declared account.
func (s *Sim) HasAccount(name string) bool {
	_, ok := s.accounts[name]
	return ok
}

// AccountNames returns declared accounts in ledger column order.
func (s *Sim) AccountNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SetVariable creates or updates a named variable.
func (s *Sim) SetVariable(name string, value decimal.Decimal) {
	s.vars[name] = value
}

// Variable looks up a variable without going through a Value.
func (s *Sim) Variable(name string) (decimal.Decimal, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// GetValue resolves a Value at the moment of use: literals pass through
// unchanged, references read the variable mapping's current state.
func (s *Sim) GetValue(v Value) (decimal.Decimal, error) {
	if !v.IsRef() {
		return v.Literal(), nil
	}
	val, ok := s.vars[v.Ref()]
	if !ok {
		return decimal.Decimal{}, &MissingVariableError{Name: v.Ref()}
	}
	return val, nil
}

// CheckValue validates that a Value is resolvable right now. Factories
// call this at build time so that no variable reference can fail mid-run.
func (s *Sim) CheckValue(v Value) error {
	_, err := s.GetValue(v)
	return err
}

// =============================================================================
// ACTIONS AND RUN LOOP
// =============================================================================

// AddActions registers one or more actions. Before the run they join the
// pending set; during a run they are pushed straight into the live queue.
func (s *Sim) AddActions(actions ...*Action) {
	for _, a := range actions {
		a.normalize()
		if s.queue != nil {
			s.queue.push(a)
			continue
		}
		s.actions = append(s.actions, a)
	}
}

// Actions returns the pending action set (pre-run).
func (s *Sim) Actions() []*Action {
	out := make([]*Action, len(s.actions))
	copy(out, s.actions)
	return out
}

// RunOptions tunes the run loop.
type RunOptions struct {
	// MaxIterations caps queue pops as a safety valve. Zero means no cap;
	// termination then relies on queue exhaustion.
	MaxIterations int
}

// Run replays all actions in calendar order and returns the finished
// ledger. An error can only come from a callback, which for validated
// scenarios means a broken custom factory, not configuration.
func (s *Sim) Run(opts RunOptions) (*Ledger, error) {
	ledger := NewLedger(s.order)
	ledger.Append(Row{Balances: s.snapshot()})

	s.actions = normalizePriorities(s.actions)
	s.queue = newActionQueue(s.actions)
	defer func() { s.queue = nil }()

	iters := 0
	for s.queue.Len() > 0 && (opts.MaxIterations == 0 || iters < opts.MaxIterations) {
		action := s.queue.pop()

		receipt, err := action.Execute(s)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			ledger.Append(Row{
				Time:     receipt.Time,
				Name:     receipt.Name,
				From:     receipt.From,
				To:       receipt.To,
				Amount:   receipt.Amount,
				Balances: s.snapshot(),
			})
		}

		if !action.Finished {
			s.queue.push(action)
		}
		iters++
	}

	// Row 0 gets a synthetic date equal to the first real event's date.
	if len(ledger.Rows) > 1 {
		ledger.Rows[0].Time = ledger.Rows[1].Time
	}
	return ledger, nil
}

// snapshot captures every declared account's balance in column order.
func (s *Sim) snapshot() []decimal.Decimal {
	balances := make([]decimal.Decimal, len(s.order))
	for i, name := range s.order {
		balances[i] = s.accounts[name].Balance
	}
	return balances
}
