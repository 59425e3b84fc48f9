package scenario_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/finsim/engine"
	"github.com/warp/finsim/scenario"
)

// =============================================================================
// TEST DOCUMENTS
// =============================================================================

const rentingDoc = `{
	"scenarios": {
		"Renting": {
			"account_names": {"myself": 10000},
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
						"end_date": "04/01/2024",
						"periodicity": "monthly"
					}
				}
			]
		}
	}
}`

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// =============================================================================
// BUILDING
// =============================================================================

func TestBuild_EndToEnd(t *testing.T) {
	cfg, err := scenario.ParseBytes([]byte(rentingDoc))
	require.NoError(t, err)

	sims, err := scenario.BuildConfig(cfg)
	require.NoError(t, err)
	require.Len(t, sims, 1)

	sim := sims[0]
	assert.Equal(t, "Renting", sim.Name)
	assert.Equal(t, []string{"myself"}, sim.AccountNames())

	ledger, err := sim.Run(engine.RunOptions{})
	require.NoError(t, err)
	require.Len(t, ledger.Rows, 4)
	assert.True(t, ledger.FinalBalances()["myself"].Equal(dec(10000-3*1300)))
}

func TestBuild_AccountColumnsSortedByName(t *testing.T) {
	doc := `{
		"scenarios": {
			"Multi": {
				"account_names": {"zeta": 1, "alpha": 2, "mid": 3},
				"variables": {},
				"actions": []
			}
		}
	}`
	cfg, err := scenario.ParseBytes([]byte(doc))
	require.NoError(t, err)

	sims, err := scenario.BuildConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, sims[0].AccountNames())
}

func TestBuild_VariablesDeclared(t *testing.T) {
	doc := `{
		"scenarios": {
			"Vars": {
				"account_names": {},
				"variables": {"Rate": 0.05},
				"actions": []
			}
		}
	}`
	cfg, err := scenario.ParseBytes([]byte(doc))
	require.NoError(t, err)

	sims, err := scenario.BuildConfig(cfg)
	require.NoError(t, err)

	v, ok := sims[0].Variable("Rate")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromFloat(0.05)))
}

func TestBuildConfig_SortedScenarioOrder(t *testing.T) {
	doc := `{
		"scenarios": {
			"Zebra": {"account_names": {}, "variables": {}, "actions": []},
			"Apple": {"account_names": {}, "variables": {}, "actions": []}
		}
	}`
	cfg, err := scenario.ParseBytes([]byte(doc))
	require.NoError(t, err)

	sims, err := scenario.BuildConfig(cfg)
	require.NoError(t, err)
	require.Len(t, sims, 2)
	assert.Equal(t, "Apple", sims[0].Name)
	assert.Equal(t, "Zebra", sims[1].Name)
}

// =============================================================================
// SCHEMA ERRORS
// =============================================================================

func TestBuild_MissingRequiredSections(t *testing.T) {
	cases := map[string]string{
		"account_names": `{"scenarios": {"S": {"variables": {}, "actions": []}}}`,
		"variables":     `{"scenarios": {"S": {"account_names": {}, "actions": []}}}`,
		"actions":       `{"scenarios": {"S": {"account_names": {}, "variables": {}}}}`,
	}

	for field, doc := range cases {
		cfg, err := scenario.ParseBytes([]byte(doc))
		require.NoError(t, err, field)

		_, err = scenario.BuildConfig(cfg)
		require.Error(t, err, field)
		assert.ErrorIs(t, err, engine.ErrMalformedScenario, field)

		var mse *engine.MalformedScenarioError
		require.ErrorAs(t, err, &mse, field)
		assert.Equal(t, field, mse.Field)
		assert.Equal(t, "S", mse.Scenario)
	}
}

func TestBuild_UnknownFactoryAbortsScenario(t *testing.T) {
	doc := `{
		"scenarios": {
			"Broken": {
				"account_names": {"myself": 100},
				"variables": {},
				"actions": [
					{"function": "win_lottery", "kwargs": {}}
				]
			}
		}
	}`
	cfg, err := scenario.ParseBytes([]byte(doc))
	require.NoError(t, err)

	_, err = scenario.BuildConfig(cfg)
	assert.ErrorIs(t, err, engine.ErrNoSuchAction)
}

func TestBuild_FactoryErrorNamesScenarioAndAction(t *testing.T) {
	doc := `{
		"scenarios": {
			"Broken": {
				"account_names": {"myself": 100},
				"variables": {},
				"actions": [
					{
						"function": "one_time_transaction",
						"kwargs": {"src_account_name": "myself"}
					}
				]
			}
		}
	}`
	cfg, err := scenario.ParseBytes([]byte(doc))
	require.NoError(t, err)

	_, err = scenario.BuildConfig(cfg)
	require.Error(t, err)

	var mse *engine.MalformedScenarioError
	require.ErrorAs(t, err, &mse)
	assert.Equal(t, "Broken", mse.Scenario)
	assert.Contains(t, mse.Field, "actions[0]")
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := scenario.ParseBytes([]byte(`{not json`))
	assert.ErrorIs(t, err, engine.ErrMalformedScenario)
}
