/*
scenarios.go - Canned demo scenario documents

PURPOSE:
  Ready-made scenario documents so the API is demonstrable without
  writing JSON by hand. Each demo is a full scenario document exactly
  as a client would POST it to /api/simulations.

ADDING A SCENARIO:
  1. Write the document as a raw JSON literal below
  2. Add it to demoScenarios with a one-line description
  That's it - the loader path is identical to user documents.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - scenario: the document schema
*/
package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/warp/finsim/scenario"
)

// =============================================================================
// DEMO DOCUMENTS
// =============================================================================

type demoScenario struct {
	Description string
	Document    string
}

var demoScenarios = map[string]demoScenario{
	"rent-vs-buy": {
		Description: "Six years of renting compared with buying the same home",
		Document: `{
			"scenarios": {
				"Buying": {
					"account_names": {"myself": 150000, "mortgage": 0, "house": 0},
					"variables": {"LoanRateAPR": 0.075},
					"actions": [
						{
							"function": "buy_house",
							"kwargs": {
								"mortgage_account_name": "mortgage",
								"lender_account_name": "bank",
								"buyer_account_name": "myself",
								"market_account_name": "housing_market",
								"house_val_account_name": "house",
								"loan_rate": "LoanRateAPR",
								"appreciation_rate": 0.08,
								"house_price": 350000,
								"downpayment": 100000,
								"buy_closing_cost": 5000,
								"mortgage": 1500,
								"buy_date": "01/01/2024",
								"end_date": "01/01/2030"
							}
						},
						{
							"function": "sell_house",
							"kwargs": {
								"seller_account_name": "myself",
								"house_val_account_name": "house",
								"market_account_name": "housing_market",
								"sell_closing_cost": 6000,
								"sell_date": "01/01/2030"
							}
						}
					]
				},
				"Renting": {
					"account_names": {"myself": 150000},
					"variables": {},
					"actions": [
						{
							"function": "recurring_transaction",
							"kwargs": {
								"src_account_name": "myself",
								"dest_account_name": "landlord",
								"transaction_name": "Rent Payment",
								"amount": 1300,
								"start_date": "01/01/2024",
								"end_date": "01/01/2030",
								"periodicity": "monthly"
							}
						}
					]
				}
			}
		}`,
	},
	"refinance": {
		Description: "House purchase with a mid-term refinance to a lower rate",
		Document: `{
			"scenarios": {
				"HousePurchaseWithRefinance": {
					"account_names": {"myself": 150000, "mortgage": 0, "house": 0},
					"variables": {"LoanRateAPR": 0.075},
					"actions": [
						{
							"function": "buy_house",
							"kwargs": {
								"mortgage_account_name": "mortgage",
								"lender_account_name": "bank",
								"buyer_account_name": "myself",
								"market_account_name": "housing_market",
								"house_val_account_name": "house",
								"loan_rate": "LoanRateAPR",
								"appreciation_rate": 0.08,
								"house_price": 350000,
								"downpayment": 100000,
								"buy_closing_cost": 5000,
								"mortgage": 1500,
								"buy_date": "01/01/2024",
								"end_date": "01/01/2030"
							}
						},
						{
							"function": "modify_variable",
							"kwargs": {
								"variable_name": "LoanRateAPR",
								"new_value": 0.06,
								"modification_date": "01/01/2026"
							}
						},
						{
							"function": "one_time_transaction",
							"kwargs": {
								"src_account_name": "myself",
								"dest_account_name": "bank",
								"transaction_name": "Refinancing Cost",
								"amount": 2000,
								"transaction_date": "01/01/2026"
							}
						},
						{
							"function": "sell_house",
							"kwargs": {
								"seller_account_name": "myself",
								"house_val_account_name": "house",
								"market_account_name": "housing_market",
								"sell_closing_cost": 6000,
								"sell_date": "01/01/2030"
							}
						}
					]
				}
			}
		}`,
	},
	"student-loan": {
		Description: "A salary, living costs and an amortizing student loan",
		Document: `{
			"scenarios": {
				"StudentLoan": {
					"account_names": {"myself": 5000, "loan_debt": 0},
					"variables": {"LoanRateAPR": 0.12},
					"actions": [
						{
							"function": "recurring_transaction",
							"kwargs": {
								"src_account_name": "employer",
								"dest_account_name": "myself",
								"transaction_name": "Salary",
								"amount": 4200,
								"start_date": "01/01/2024",
								"end_date": "01/01/2028",
								"periodicity": "monthly"
							}
						},
						{
							"function": "recurring_transaction",
							"kwargs": {
								"src_account_name": "myself",
								"dest_account_name": "expenses",
								"transaction_name": "Living Costs",
								"amount": 2600,
								"start_date": "01/01/2024",
								"end_date": "01/01/2028",
								"periodicity": "monthly"
							}
						},
						{
							"function": "get_loan",
							"kwargs": {
								"borrower_account_name": "myself",
								"lender_account_name": "bank",
								"debt_account_name": "loan_debt",
								"loan_name": "student",
								"loan_amount": 12000,
								"loan_rate": "LoanRateAPR",
								"monthly_payment": 500,
								"start_date": "01/15/2024",
								"end_date": "01/01/2028"
							}
						}
					]
				}
			}
		}`,
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(demoScenarios))
	for name := range demoScenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	dtos := make([]ScenarioInfoDTO, 0, len(names))
	for _, name := range names {
		dtos = append(dtos, ScenarioInfoDTO{
			Name:        name,
			Description: demoScenarios[name].Description,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario runs a canned demo scenario through the standard
// build-run-persist path.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	demo, ok := demoScenarios[req.Name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown demo scenario", nil)
		return
	}

	cfg, err := scenario.ParseBytes([]byte(demo.Document))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Demo scenario is broken", err)
		return
	}

	h.runAndRespond(w, r, cfg, 0)
}
