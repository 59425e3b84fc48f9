package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT - Named balance participating in transfers
// =============================================================================

// Account is a named decimal balance. Deposits and withdrawals are
// unchecked: balances may go negative, which is how debt and liability
// accounts are represented.
//
// All money in the engine is decimal.Decimal so that repeated summing
// over a run cannot drift.
type Account struct {
	Name    string
	Balance decimal.Decimal
}

func NewAccount(name string, opening decimal.Decimal) *Account {
	return &Account{Name: name, Balance: opening}
}

// Deposit adds amt to the balance and returns the new balance.
func (a *Account) Deposit(amt decimal.Decimal) decimal.Decimal {
	a.Balance = a.Balance.Add(amt)
	return a.Balance
}

// Withdraw removes amt from the balance and returns the withdrawn amount.
// No lower bound is enforced.
func (a *Account) Withdraw(amt decimal.Decimal) decimal.Decimal {
	a.Balance = a.Balance.Sub(amt)
	return amt
}

// TransferTo withdraws from a and deposits into other, returning the
// receipt. Not atomic across the two accounts; the run loop's total
// ordering is what keeps same-instant observers consistent.
func (a *Account) TransferTo(other *Account, amt decimal.Decimal) Receipt {
	withdrawn := a.Withdraw(amt)
	other.Deposit(withdrawn)
	return Receipt{
		From:   a.Name,
		To:     other.Name,
		Amount: withdrawn,
	}
}

func (a *Account) String() string { return a.Name }
