package actions_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/finsim/actions"
	"github.com/warp/finsim/engine"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func apply(t *testing.T, sim *engine.Sim, factoryName, kwargs string) {
	t.Helper()
	f, err := actions.Lookup(factoryName)
	require.NoError(t, err)
	require.NoError(t, f(sim, json.RawMessage(kwargs)))
}

func run(t *testing.T, sim *engine.Sim) *engine.Ledger {
	t.Helper()
	ledger, err := sim.Run(engine.RunOptions{})
	require.NoError(t, err)
	return ledger
}

// =============================================================================
// REGISTRY
// =============================================================================

func TestLookup_UnknownFactory(t *testing.T) {
	_, err := actions.Lookup("win_lottery")
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrNoSuchAction)

	var nsa *engine.NoSuchActionError
	require.ErrorAs(t, err, &nsa)
	assert.Equal(t, "win_lottery", nsa.Name)
}

func TestNames_SortedCatalog(t *testing.T) {
	names := actions.Names()
	assert.Equal(t, []string{
		"buy_house",
		"get_loan",
		"modify_variable",
		"one_time_transaction",
		"recurring_transaction",
		"rent",
		"sell_house",
	}, names)
}

// =============================================================================
// KWARG VALIDATION
// =============================================================================

func TestFactory_EveryRequiredKwargEnforced(t *testing.T) {
	// GIVEN: a complete kwargs object per factory
	// WHEN: any single required key is removed
	// THEN: the factory rejects the document naming the missing key,
	//       and registers no actions

	complete := map[string]map[string]any{
		"rent": {
			"renter_account_name": "myself",
			"owner_account_name":  "landlord",
			"monthly_rent":        1000,
			"move_in_date":        "01/15/2024",
			"move_out_date":       "04/01/2024",
		},
		"buy_house": {
			"mortgage_account_name":  "mortgage",
			"lender_account_name":    "bank",
			"buyer_account_name":     "myself",
			"market_account_name":    "housing_market",
			"house_val_account_name": "house",
			"loan_rate":              0.075,
			"appreciation_rate":      0.08,
			"house_price":            350000,
			"downpayment":            100000,
			"buy_closing_cost":       5000,
			"mortgage":               1500,
			"buy_date":               "01/15/2024",
			"end_date":               "04/01/2024",
		},
		"sell_house": {
			"seller_account_name":    "myself",
			"house_val_account_name": "house",
			"market_account_name":    "housing_market",
			"sell_closing_cost":      6000,
			"sell_date":              "06/01/2026",
		},
		"get_loan": {
			"borrower_account_name": "myself",
			"lender_account_name":   "bank",
			"debt_account_name":     "loan_debt",
			"loan_name":             "student",
			"loan_amount":           12000,
			"loan_rate":             0.12,
			"monthly_payment":       500,
			"start_date":            "01/15/2024",
			"end_date":              "04/01/2024",
		},
		"one_time_transaction": {
			"src_account_name":  "myself",
			"dest_account_name": "university",
			"transaction_name":  "Tuition",
			"amount":            1200,
			"transaction_date":  "09/01/2024",
		},
		"recurring_transaction": {
			"src_account_name":  "myself",
			"dest_account_name": "landlord",
			"transaction_name":  "Rent Payment",
			"amount":            1300,
			"start_date":        "01/01/2024",
			"end_date":          "04/01/2024",
		},
		"modify_variable": {
			"variable_name":     "Rate",
			"new_value":         0.06,
			"modification_date": "01/01/2026",
		},
	}

	newSim := func() *engine.Sim {
		sim := engine.NewSim("test")
		sim.CreateAccount("myself", dec(500000))
		sim.SetVariable("Rate", decimal.NewFromFloat(0.075))
		return sim
	}

	for factoryName, kwargs := range complete {
		f, err := actions.Lookup(factoryName)
		require.NoError(t, err, factoryName)

		// The complete document must pass.
		full, err := json.Marshal(kwargs)
		require.NoError(t, err)
		require.NoError(t, f(newSim(), full), factoryName)

		for missing := range kwargs {
			partial := make(map[string]any, len(kwargs)-1)
			for k, v := range kwargs {
				if k != missing {
					partial[k] = v
				}
			}
			body, err := json.Marshal(partial)
			require.NoError(t, err)

			sim := newSim()
			err = f(sim, body)
			require.Errorf(t, err, "%s without %s must fail", factoryName, missing)
			assert.ErrorIs(t, err, engine.ErrMalformedScenario,
				"%s without %s", factoryName, missing)

			var mse *engine.MalformedScenarioError
			require.ErrorAs(t, err, &mse)
			assert.Equal(t, missing, mse.Field)
			assert.Empty(t, sim.Actions(),
				"%s without %s must register nothing", factoryName, missing)
		}
	}
}

func TestRecurringTransaction_PeriodicityOptional(t *testing.T) {
	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(1000))

	f, err := actions.Lookup("recurring_transaction")
	require.NoError(t, err)
	require.NoError(t, f(sim, json.RawMessage(`{
		"src_account_name": "myself",
		"dest_account_name": "landlord",
		"transaction_name": "Rent Payment",
		"amount": 100,
		"start_date": "01/01/2024",
		"end_date": "03/01/2024"
	}`)))
	require.Len(t, sim.Actions(), 1)
}

func TestFactory_UnknownKwargRejected(t *testing.T) {
	sim := engine.NewSim("test")
	f, err := actions.Lookup("one_time_transaction")
	require.NoError(t, err)

	err = f(sim, json.RawMessage(`{
		"src_account_name": "a",
		"dest_account_name": "b",
		"transaction_name": "typo test",
		"amount": 10,
		"transaction_date": "01/01/2024",
		"ammount": 10
	}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMalformedScenario)
}

func TestFactory_MalformedDate(t *testing.T) {
	sim := engine.NewSim("test")
	f, err := actions.Lookup("one_time_transaction")
	require.NoError(t, err)

	err = f(sim, json.RawMessage(`{
		"src_account_name": "a",
		"dest_account_name": "b",
		"transaction_name": "bad date",
		"amount": 10,
		"transaction_date": "2024-01-01"
	}`))
	assert.ErrorIs(t, err, engine.ErrParse)
}

func TestFactory_UndeclaredVariableFailsAtBuildTime(t *testing.T) {
	// The reference is invalid before the run ever starts; no actions
	// should reach the queue.

	sim := engine.NewSim("test")
	sim.CreateAccount("a", dec(100))

	f, err := actions.Lookup("one_time_transaction")
	require.NoError(t, err)
	err = f(sim, json.RawMessage(`{
		"src_account_name": "a",
		"dest_account_name": "b",
		"transaction_name": "ref",
		"amount": "NotDeclared",
		"transaction_date": "01/01/2024"
	}`))
	assert.ErrorIs(t, err, engine.ErrMissingVariable)
	assert.Empty(t, sim.Actions())
}

// =============================================================================
// TRANSFERS
// =============================================================================

func TestOneTimeTransaction(t *testing.T) {
	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(5000))

	apply(t, sim, "one_time_transaction", `{
		"src_account_name": "myself",
		"dest_account_name": "university",
		"transaction_name": "Tuition",
		"amount": 1200,
		"transaction_date": "09/01/2024"
	}`)

	ledger := run(t, sim)
	require.Len(t, ledger.Rows, 2)
	assert.Equal(t, "Tuition", ledger.Rows[1].Name)
	assert.Equal(t, "myself", ledger.Rows[1].From)
	assert.Equal(t, "university", ledger.Rows[1].To)
	assert.True(t, ledger.FinalBalances()["myself"].Equal(dec(3800)))
}

func TestRecurringTransaction_DefaultsToMonthly(t *testing.T) {
	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(10000))

	apply(t, sim, "recurring_transaction", `{
		"src_account_name": "myself",
		"dest_account_name": "landlord",
		"transaction_name": "Rent Payment",
		"amount": 1300,
		"start_date": "01/01/2024",
		"end_date": "04/01/2024"
	}`)

	ledger := run(t, sim)
	// Jan, Feb, Mar; the exclusive end date is skipped.
	require.Len(t, ledger.Rows, 4)
	assert.True(t, ledger.FinalBalances()["myself"].Equal(dec(10000-3*1300)))
}

func TestRecurringTransaction_WeeklyPeriodicity(t *testing.T) {
	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(1000))

	apply(t, sim, "recurring_transaction", `{
		"src_account_name": "myself",
		"dest_account_name": "gym",
		"transaction_name": "Class",
		"amount": 20,
		"start_date": "01/01/2024",
		"end_date": "01/29/2024",
		"periodicity": "weekly"
	}`)

	ledger := run(t, sim)
	// Jan 1, 8, 15, 22; Jan 29 is the exclusive end.
	require.Len(t, ledger.Rows, 5)
	assert.True(t, ledger.FinalBalances()["myself"].Equal(dec(920)))
}

func TestModifyVariable_ChangesLaterOccurrences(t *testing.T) {
	// GIVEN: rent referencing a variable and a mid-run variable write
	// WHEN: the sim runs
	// THEN: payments after the modification date use the new amount

	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(10000))
	sim.SetVariable("RentAmt", dec(1000))

	apply(t, sim, "recurring_transaction", `{
		"src_account_name": "myself",
		"dest_account_name": "landlord",
		"transaction_name": "Rent Payment",
		"amount": "RentAmt",
		"start_date": "01/01/2024",
		"end_date": "04/01/2024"
	}`)
	apply(t, sim, "modify_variable", `{
		"variable_name": "RentAmt",
		"new_value": 1100,
		"modification_date": "01/15/2024"
	}`)

	ledger := run(t, sim)
	// Jan pays 1000, Feb and Mar pay 1100; plus the transferless
	// modification row.
	require.Len(t, ledger.Rows, 5)
	assert.Equal(t, "modify RentAmt", ledger.Rows[2].Name)
	assert.True(t, ledger.FinalBalances()["myself"].Equal(dec(10000-1000-2*1100)))
}

func TestModifyVariable_UndeclaredTarget(t *testing.T) {
	sim := engine.NewSim("test")

	f, err := actions.Lookup("modify_variable")
	require.NoError(t, err)
	err = f(sim, json.RawMessage(`{
		"variable_name": "Ghost",
		"new_value": 1,
		"modification_date": "01/01/2024"
	}`))
	assert.ErrorIs(t, err, engine.ErrMissingVariable)
}

// =============================================================================
// RENT
// =============================================================================

func TestRent_ProratedFirstMonth(t *testing.T) {
	// Move in Jan 15: 17 of January's 31 days remain, so the first
	// payment is 1000 * 17/31, then full months from Feb 1.

	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(10000))

	apply(t, sim, "rent", `{
		"renter_account_name": "myself",
		"owner_account_name": "landlord",
		"monthly_rent": 1000,
		"move_in_date": "01/15/2024",
		"move_out_date": "04/01/2024"
	}`)

	ledger := run(t, sim)
	require.Len(t, ledger.Rows, 4)

	prorated := dec(1000).Mul(dec(17)).Div(dec(31))
	assert.Equal(t, "first rent", ledger.Rows[1].Name)
	assert.True(t, ledger.Rows[1].Amount.Equal(prorated),
		"expected %v, got %v", prorated, ledger.Rows[1].Amount)

	want := dec(10000).Sub(prorated).Sub(dec(2000))
	assert.True(t, ledger.FinalBalances()["myself"].Equal(want))
}

func TestRent_VariableRentSeesMidRunModification(t *testing.T) {
	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(10000))
	sim.SetVariable("Rent", dec(1000))

	apply(t, sim, "rent", `{
		"renter_account_name": "myself",
		"owner_account_name": "landlord",
		"monthly_rent": "Rent",
		"move_in_date": "01/01/2024",
		"move_out_date": "04/01/2024"
	}`)
	apply(t, sim, "modify_variable", `{
		"variable_name": "Rent",
		"new_value": 1200,
		"modification_date": "02/15/2024"
	}`)

	ledger := run(t, sim)
	// Prorated first month on the 1st covers the full month (31/31),
	// then Feb pays 1000 and Mar pays 1200.
	want := dec(10000).Sub(dec(1000).Mul(dec(31)).Div(dec(31))).Sub(dec(1000)).Sub(dec(1200))
	assert.True(t, ledger.FinalBalances()["myself"].Equal(want),
		"expected %v, got %v", want, ledger.FinalBalances()["myself"])
}

// =============================================================================
// LOANS
// =============================================================================

func TestGetLoan_AmortizationSchedule(t *testing.T) {
	// GIVEN: a 12000 loan at 12% APR with 500/month payments from Jan 15
	// WHEN: the sim runs through Apr 1
	// THEN: disbursement, prorated initial interest, and the coupled
	//       interest/principal pair follow the expected schedule

	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(0))
	sim.CreateAccount("loan_debt", dec(0))

	apply(t, sim, "get_loan", `{
		"borrower_account_name": "myself",
		"lender_account_name": "bank",
		"debt_account_name": "loan_debt",
		"loan_name": "student",
		"loan_amount": 12000,
		"loan_rate": 0.12,
		"monthly_payment": 500,
		"start_date": "01/15/2024",
		"end_date": "04/01/2024"
	}`)

	ledger := run(t, sim)

	// Opening row, disbursement, initial interest + first principal at
	// Feb 1, interest + principal at Mar 1.
	require.Len(t, ledger.Rows, 6)

	names := make([]string, 0, 5)
	for _, row := range ledger.Rows[1:] {
		names = append(names, row.Name)
	}
	assert.Equal(t, []string{
		"disburse student loan",
		"initial student interest",
		"student principal payment",
		"student interest payment",
		"student principal payment",
	}, names)

	// Prorated initial interest: 12000 * 0.12 * 17/365.
	initialInterest := dec(12000).Mul(decimal.NewFromFloat(0.12)).Mul(dec(17)).Div(dec(365))
	assert.True(t, ledger.Rows[2].Amount.Equal(initialInterest),
		"expected %v, got %v", initialInterest, ledger.Rows[2].Amount)

	// First principal payment runs before any monthly interest has been
	// charged, so the full 500 goes to principal.
	assert.True(t, ledger.Rows[3].Amount.Equal(dec(500)))

	// March interest on the remaining 11500 at 12%/12 = 115, leaving 385
	// of the payment for principal.
	assert.True(t, ledger.Rows[4].Amount.Equal(dec(115)))
	assert.True(t, ledger.Rows[5].Amount.Equal(dec(385)))

	assert.True(t, ledger.FinalBalances()["loan_debt"].Equal(dec(-12000+500+385)))
}

// =============================================================================
// HOUSING
// =============================================================================

func TestBuyHouse_MortgageLoop(t *testing.T) {
	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(150000))
	sim.CreateAccount("mortgage", dec(0))
	sim.CreateAccount("house", dec(0))
	sim.SetVariable("LoanRateAPR", decimal.NewFromFloat(0.075))

	apply(t, sim, "buy_house", `{
		"mortgage_account_name": "mortgage",
		"lender_account_name": "bank",
		"buyer_account_name": "myself",
		"market_account_name": "housing_market",
		"house_val_account_name": "house",
		"loan_rate": "LoanRateAPR",
		"appreciation_rate": 0,
		"house_price": 350000,
		"downpayment": 100000,
		"buy_closing_cost": 5000,
		"mortgage": 1500,
		"buy_date": "01/15/2024",
		"end_date": "04/01/2024"
	}`)

	ledger := run(t, sim)
	final := ledger.FinalBalances()

	// Purchase day: borrow 250000, pay 350000 for the house, 5000 closing.
	assert.True(t, final["house"].Equal(dec(350000)))

	// Feb principal pays the full 1500 (no interest charged yet); March
	// interest is 248500 * 0.075/12 = 1553.125, which exceeds the payment,
	// so March principal clamps to zero.
	assert.True(t, final["mortgage"].Equal(dec(-248500)),
		"expected mortgage=-248500, got %v", final["mortgage"])

	marchInterest := dec(248500).Mul(decimal.NewFromFloat(0.075)).Div(dec(12))
	var sawClampedPrincipal bool
	for _, row := range ledger.Rows {
		if row.Name == "interest payment" {
			assert.True(t, row.Amount.Equal(marchInterest),
				"expected interest %v, got %v", marchInterest, row.Amount)
		}
		if row.Name == "principal payoff" && row.Time.Equal(engine.MustParseDate("03/01/2024")) {
			sawClampedPrincipal = true
			assert.True(t, row.Amount.Equal(dec(0)),
				"expected clamped principal, got %v", row.Amount)
		}
	}
	assert.True(t, sawClampedPrincipal, "missing March principal row")
}

func TestSellHouse_LiquidatesFullValue(t *testing.T) {
	sim := engine.NewSim("test")
	sim.CreateAccount("myself", dec(0))
	sim.CreateAccount("house", dec(420000))

	apply(t, sim, "sell_house", `{
		"seller_account_name": "myself",
		"house_val_account_name": "house",
		"market_account_name": "housing_market",
		"sell_closing_cost": 6000,
		"sell_date": "06/01/2026"
	}`)

	ledger := run(t, sim)
	final := ledger.FinalBalances()
	assert.True(t, final["house"].Equal(dec(0)))
	assert.True(t, final["myself"].Equal(dec(414000)))
}
