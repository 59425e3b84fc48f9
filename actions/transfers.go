/*
transfers.go - Plain transfer and variable-mutation factories

PURPOSE:
  The unglamorous workhorses: one-off transfers (bonuses, tuition),
  recurring transfers (salary, subscriptions) and scheduled variable
  writes. modify_variable is what makes variable references useful at
  all - a mid-run write is observed by every not-yet-executed action
  that resolves the same name.
*/
package actions

import (
	"encoding/json"
	"fmt"

	"github.com/warp/finsim/engine"
)

// =============================================================================
// ONE-TIME TRANSACTION
// =============================================================================

// OneTimeTransactionParams configures a single dated transfer.
type OneTimeTransactionParams struct {
	SrcAccountName  string       `json:"src_account_name"`
	DestAccountName string       `json:"dest_account_name"`
	TransactionName string       `json:"transaction_name"`
	Amount          engine.Value `json:"amount"`
	TransactionDate string       `json:"transaction_date"`
}

func OneTimeTransaction(sim *engine.Sim, kwargs json.RawMessage) error {
	if err := requireKwargs(kwargs,
		"src_account_name", "dest_account_name", "transaction_name",
		"amount", "transaction_date",
	); err != nil {
		return err
	}
	var p OneTimeTransactionParams
	if err := decodeKwargs(kwargs, &p); err != nil {
		return err
	}

	date, err := engine.ParseDate(p.TransactionDate)
	if err != nil {
		return err
	}
	if err := sim.CheckValue(p.Amount); err != nil {
		return err
	}

	src := sim.GetAccount(p.SrcAccountName)
	dest := sim.GetAccount(p.DestAccountName)

	sim.AddActions(&engine.Action{
		Name:  p.TransactionName,
		Start: date,
		Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
			amt, err := s.GetValue(p.Amount)
			if err != nil {
				return nil, err
			}
			r := src.TransferTo(dest, amt)
			return &r, nil
		},
	})
	return nil
}

// =============================================================================
// RECURRING TRANSACTION
// =============================================================================

// RecurringTransactionParams configures a periodic transfer. Periodicity
// defaults to monthly.
type RecurringTransactionParams struct {
	SrcAccountName  string       `json:"src_account_name"`
	DestAccountName string       `json:"dest_account_name"`
	TransactionName string       `json:"transaction_name"`
	Amount          engine.Value `json:"amount"`
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date"`
	Periodicity     string       `json:"periodicity"`
}

func RecurringTransaction(sim *engine.Sim, kwargs json.RawMessage) error {
	// periodicity is the one optional kwarg; it defaults to monthly.
	if err := requireKwargs(kwargs,
		"src_account_name", "dest_account_name", "transaction_name",
		"amount", "start_date", "end_date",
	); err != nil {
		return err
	}
	var p RecurringTransactionParams
	if err := decodeKwargs(kwargs, &p); err != nil {
		return err
	}

	start, err := engine.ParseDate(p.StartDate)
	if err != nil {
		return err
	}
	end, err := engine.ParseDate(p.EndDate)
	if err != nil {
		return err
	}
	if p.Periodicity == "" {
		p.Periodicity = string(engine.Monthly)
	}
	periodicity, err := engine.ParsePeriodicity(p.Periodicity)
	if err != nil {
		return err
	}
	if err := sim.CheckValue(p.Amount); err != nil {
		return err
	}

	src := sim.GetAccount(p.SrcAccountName)
	dest := sim.GetAccount(p.DestAccountName)

	sim.AddActions(&engine.Action{
		Name:        p.TransactionName,
		Start:       start,
		End:         end,
		Periodicity: periodicity,
		Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
			amt, err := s.GetValue(p.Amount)
			if err != nil {
				return nil, err
			}
			r := src.TransferTo(dest, amt)
			return &r, nil
		},
	})
	return nil
}

// =============================================================================
// MODIFY VARIABLE
// =============================================================================

// ModifyVariableParams configures a dated write to a simulation
// variable. The target must already be declared; silently creating a
// variable on write would hide scenario typos.
type ModifyVariableParams struct {
	VariableName     string       `json:"variable_name"`
	NewValue         engine.Value `json:"new_value"`
	ModificationDate string       `json:"modification_date"`
}

func ModifyVariable(sim *engine.Sim, kwargs json.RawMessage) error {
	if err := requireKwargs(kwargs,
		"variable_name", "new_value", "modification_date",
	); err != nil {
		return err
	}
	var p ModifyVariableParams
	if err := decodeKwargs(kwargs, &p); err != nil {
		return err
	}

	date, err := engine.ParseDate(p.ModificationDate)
	if err != nil {
		return err
	}
	if _, ok := sim.Variable(p.VariableName); !ok {
		return &engine.MissingVariableError{Name: p.VariableName}
	}
	if err := sim.CheckValue(p.NewValue); err != nil {
		return err
	}

	sim.AddActions(&engine.Action{
		Name:  fmt.Sprintf("modify %s", p.VariableName),
		Start: date,
		Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
			val, err := s.GetValue(p.NewValue)
			if err != nil {
				return nil, err
			}
			s.SetVariable(p.VariableName, val)
			// No transfer: the ledger row records the event with empty
			// from/to and a zero amount.
			return nil, nil
		},
	})
	return nil
}
