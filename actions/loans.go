/*
loans.go - Generic amortizing loan factory

PURPOSE:
  get_loan is the standalone counterpart of buy_house's mortgage wiring:
  disbursement into a debt account, prorated interest up to the first
  month boundary, then the guarded monthly interest / principal pair.
  The loan name is woven into every action name so several loans can
  coexist in one ledger without ambiguity.
*/
package actions

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/finsim/engine"
)

// GetLoanParams configures an amortizing loan between three accounts:
// the borrower receives the disbursement, the lender collects interest,
// and the debt account tracks the (negative) outstanding principal.
type GetLoanParams struct {
	BorrowerAccountName string `json:"borrower_account_name"`
	LenderAccountName   string `json:"lender_account_name"`
	DebtAccountName     string `json:"debt_account_name"`

	LoanName       string       `json:"loan_name"`
	LoanAmount     engine.Value `json:"loan_amount"`
	LoanRate       engine.Value `json:"loan_rate"`
	MonthlyPayment engine.Value `json:"monthly_payment"`

	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func GetLoan(sim *engine.Sim, kwargs json.RawMessage) error {
	if err := requireKwargs(kwargs,
		"borrower_account_name", "lender_account_name", "debt_account_name",
		"loan_name", "loan_amount", "loan_rate", "monthly_payment",
		"start_date", "end_date",
	); err != nil {
		return err
	}
	var p GetLoanParams
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
	for _, v := range []engine.Value{p.LoanAmount, p.LoanRate, p.MonthlyPayment} {
		if err := sim.CheckValue(v); err != nil {
			return err
		}
	}

	borrower := sim.GetAccount(p.BorrowerAccountName)
	lender := sim.GetAccount(p.LenderAccountName)
	debt := sim.GetAccount(p.DebtAccountName)

	// Interest accrued between disbursement and the first month boundary,
	// using values as of build time.
	amount, _ := sim.GetValue(p.LoanAmount)
	rate, _ := sim.GetValue(p.LoanRate)
	nextMonth := start.NextMonthStart(0)
	untilNext := engine.DaysBetween(start, nextMonth)
	initialInterest := amount.Mul(rate).Mul(days(untilNext)).Div(daysPerYear)

	interest := &engine.Action{
		Name:        fmt.Sprintf("%s interest payment", p.LoanName),
		Start:       start.NextMonthStart(1),
		End:         end,
		Periodicity: engine.Monthly,
		Guard:       func(s *engine.Sim) bool { return debt.Balance.IsNegative() },
		Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
			rate, err := s.GetValue(p.LoanRate)
			if err != nil {
				return nil, err
			}
			r := borrower.TransferTo(lender, debt.Balance.Abs().Mul(rate).Div(monthsPerYear))
			return &r, nil
		},
	}

	sim.AddActions(
		&engine.Action{
			Name:  fmt.Sprintf("disburse %s loan", p.LoanName),
			Start: start,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				amount, err := s.GetValue(p.LoanAmount)
				if err != nil {
					return nil, err
				}
				r := debt.TransferTo(borrower, amount)
				return &r, nil
			},
		},
		&engine.Action{
			Name:  fmt.Sprintf("initial %s interest", p.LoanName),
			Start: nextMonth,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				r := borrower.TransferTo(lender, initialInterest)
				return &r, nil
			},
		},
		interest,
		&engine.Action{
			Name:        fmt.Sprintf("%s principal payment", p.LoanName),
			Start:       start.NextMonthStart(0),
			End:         end,
			Periodicity: engine.Monthly,
			Callback: func(s *engine.Sim, a *engine.Action) (*engine.Receipt, error) {
				payment, err := s.GetValue(p.MonthlyPayment)
				if err != nil {
					return nil, err
				}
				amt := decimal.Min(
					decimal.Max(payment.Sub(interest.LastAmount), decimal.Zero),
					debt.Balance.Neg(),
				)
				r := borrower.TransferTo(debt, amt)
				return &r, nil
			},
		},
	)
	return nil
}
