/*
action.go - The schedulable unit of financial effect

PURPOSE:
  An Action bundles a callback with everything the run loop needs to
  schedule it: a start time, an optional end time, a periodicity, an
  optional guard condition and ordering metadata.

STATE MACHINE:
  scheduled -> executed-or-skipped -> (rescheduled | finished)

  On Execute:
  1. Guard false OR NextExecution >= End: the action finishes and
     produces no ledger row. For a periodic action this terminates ALL
     future occurrences, even ones whose guard would have passed. That
     one-shot-fail-all behavior is deliberate (a loan's interest stream
     stops for good once the debt is cleared); set RetryGuard when an
     action should instead skip the occurrence and try again next period.
  2. Otherwise the callback runs, its receipt is stamped with the
     execution time and action name, and LastAmount records the amount
     moved (zero for transferless callbacks).
  3. Periodic actions advance NextExecution by one period and finish
     once the new time reaches End; one-shots finish immediately.

ORDERING CONTRACT:
  The queue is a total order on (NextExecution asc, Priority asc).
  Priorities are normalized once before the run begins: actions sharing
  a start time get strictly increasing priorities in insertion order, so
  same-instant execution order is deterministic regardless of the queue
  implementation. After that pass an action's key never mutates in
  place; rescheduling is always a fresh push.

SEE ALSO:
  - sim.go: owns the queue and drives Execute
*/
package engine

import (
	"container/heap"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECEIPT - Result of one executed action
// =============================================================================

// Receipt records a single transfer. Time and Name are stamped by the
// action when it executes; From/To/Amount come from the account API.
type Receipt struct {
	Time   TimePoint
	Name   string
	From   string
	To     string
	Amount decimal.Decimal
}

// ActionFunc performs the action's effect. The Sim is passed at
// execution time so callbacks resolve variables at the moment of use.
// A nil receipt means the action moved no money (the ledger row is
// still recorded).
type ActionFunc func(s *Sim, a *Action) (*Receipt, error)

// GuardFunc decides whether a scheduled occurrence may execute.
type GuardFunc func(s *Sim) bool

// =============================================================================
// ACTION
// =============================================================================

type Action struct {
	Name        string
	Callback    ActionFunc
	Start       TimePoint
	End         TimePoint   // zero value means unbounded
	Periodicity Periodicity // "" means once
	Guard       GuardFunc   // nil means always true

	// RetryGuard makes a failed guard skip the occurrence instead of
	// terminating the action. Off by default.
	RetryGuard bool

	// Scheduling state, owned by the run loop.
	Priority      int
	NextExecution TimePoint
	Finished      bool
	LastAmount    decimal.Decimal
}

// normalize fills defaults. Called by Sim.AddActions so struct literals
// stay terse.
func (a *Action) normalize() {
	if a.End.IsZero() {
		a.End = DistantFuture()
	}
	if a.Periodicity == "" {
		a.Periodicity = Once
	}
	if a.Priority == 0 {
		a.Priority = 1
	}
	if a.NextExecution.IsZero() {
		a.NextExecution = a.Start
	}
}

// Stop ends the action at its next scheduled occurrence.
func (a *Action) Stop() {
	a.End = a.NextExecution
}

// Execute runs one scheduled occurrence. The returned receipt is nil
// when no ledger row should be produced.
func (a *Action) Execute(s *Sim) (*Receipt, error) {
	guardOK := a.Guard == nil || a.Guard(s)

	if !guardOK && a.RetryGuard && a.Periodicity.IsRecurring() && a.NextExecution.Before(a.End) {
		// Opt-in retry semantics: skip this occurrence only.
		a.NextExecution = a.Periodicity.Next(a.NextExecution)
		if a.NextExecution.AfterOrEqual(a.End) {
			a.Finished = true
		}
		return nil, nil
	}

	if !guardOK || a.NextExecution.AfterOrEqual(a.End) {
		a.Finished = true
		return nil, nil
	}

	receipt, err := a.Callback(s, a)
	if err != nil {
		a.Finished = true
		return nil, err
	}
	if receipt == nil {
		receipt = &Receipt{}
	}
	receipt.Time = a.NextExecution
	receipt.Name = a.Name
	a.LastAmount = receipt.Amount

	if a.Periodicity.IsRecurring() {
		a.NextExecution = a.Periodicity.Next(a.NextExecution)
		if a.NextExecution.AfterOrEqual(a.End) {
			a.Finished = true
		}
	} else {
		a.Finished = true
	}
	return receipt, nil
}

func (a *Action) String() string { return a.Name }

// less is the queue's total order: NextExecution ascending, then
// Priority ascending.
func (a *Action) less(other *Action) bool {
	if a.NextExecution.Equal(other.NextExecution) {
		return a.Priority < other.Priority
	}
	return a.NextExecution.Before(other.NextExecution)
}

// =============================================================================
// PRIORITY NORMALIZATION
// =============================================================================

// normalizePriorities runs once before the run begins. A stable sort by
// (NextExecution, Priority) preserves insertion order among equals; then
// every action sharing a start time with its predecessor gets the
// predecessor's priority plus one.
func normalizePriorities(actions []*Action) []*Action {
	sorted := make([]*Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].less(sorted[j])
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start.Equal(sorted[i-1].Start) {
			sorted[i].Priority = sorted[i-1].Priority + 1
		}
	}
	return sorted
}

// =============================================================================
// ACTION QUEUE - container/heap over the ordering contract
// =============================================================================

type actionQueue []*Action

func (q actionQueue) Len() int            { return len(q) }
func (q actionQueue) Less(i, j int) bool  { return q[i].less(q[j]) }
func (q actionQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *actionQueue) Push(x interface{}) { *q = append(*q, x.(*Action)) }
func (q *actionQueue) Pop() interface{} {
	old := *q
	n := len(old)
	a := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return a
}

func newActionQueue(actions []*Action) *actionQueue {
	q := make(actionQueue, len(actions))
	copy(q, actions)
	heap.Init(&q)
	return &q
}

func (q *actionQueue) push(a *Action) { heap.Push(q, a) }

func (q *actionQueue) pop() *Action { return heap.Pop(q).(*Action) }
