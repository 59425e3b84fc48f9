/*
Package actions is the catalog of action-factory functions.

PURPOSE:
  Each factory translates one high-level financial operation (buy a
  house, pay rent, take a loan) into primitive scheduled engine.Actions
  and registers them via Sim.AddActions. The scenario loader resolves
  factories by string name through an explicit registry - a closed,
  enumerated lookup table validated at load time, never open-ended
  reflection.

CATALOG:
  rent                   Prorated first month, then monthly rent payments
  buy_house              Loan, purchase, closing cost, interest,
                         principal payoff, appreciation
  sell_house             Liquidate house value plus selling closing cost
  one_time_transaction   Single dated transfer
  recurring_transaction  Periodic transfer between two accounts
  get_loan               Disbursement, prorated initial interest, monthly
                         interest and principal
  modify_variable        Dated write to a simulation variable

KWARGS:
  Every factory takes a JSON object of keyword arguments. Date-valued
  kwargs are MM/DD/YYYY strings. Amount- and rate-valued kwargs accept
  either a literal number or the name of a declared variable; references
  are validated at build time and resolved at execution time, so later
  "modify_variable" writes are visible to not-yet-executed actions.

ERRORS:
  Unknown factory name        -> *engine.NoSuchActionError
  Missing/unknown kwargs      -> *engine.MalformedScenarioError
  Malformed dates/periodicity -> *engine.ParseError
  Undeclared variable name    -> *engine.MissingVariableError

SEE ALSO:
  - scenario: drives this registry from declarative descriptions
  - engine:   the Action/Sim primitives the factories build on
*/
package actions

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/warp/finsim/engine"
)

// Factory builds zero or more actions from keyword arguments and
// registers them on the Sim. Any error aborts the whole scenario.
type Factory func(sim *engine.Sim, kwargs json.RawMessage) error

var registry = map[string]Factory{
	"rent":                  Rent,
	"buy_house":             BuyHouse,
	"sell_house":            SellHouse,
	"one_time_transaction":  OneTimeTransaction,
	"recurring_transaction": RecurringTransaction,
	"get_loan":              GetLoan,
	"modify_variable":       ModifyVariable,
}

// Lookup resolves a factory by name.
func Lookup(name string) (Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, &engine.NoSuchActionError{Name: name}
	}
	return f, nil
}

// Names lists the registered factory names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// KWARG HELPERS
// =============================================================================

// decodeKwargs unmarshals the kwargs object into a typed params struct.
// Unknown keys are rejected: a misspelled kwarg is a configuration error,
// not something to silently drop.
func decodeKwargs(kwargs json.RawMessage, dst any) error {
	if len(kwargs) == 0 {
		kwargs = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(kwargs))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &engine.MalformedScenarioError{Field: "kwargs", Reason: err.Error()}
	}
	return nil
}

// requireKwargs verifies the listed keys are present on the kwargs
// object. Presence is checked on the raw JSON before typed decoding,
// so an absent Value kwarg is an error rather than a silent literal
// zero and an absent date is rejected before parsing.
func requireKwargs(kwargs json.RawMessage, names ...string) error {
	var raw map[string]json.RawMessage
	if len(kwargs) > 0 {
		if err := json.Unmarshal(kwargs, &raw); err != nil {
			return &engine.MalformedScenarioError{Field: "kwargs", Reason: err.Error()}
		}
	}
	for _, name := range names {
		if _, ok := raw[name]; !ok {
			return missingKwarg(name)
		}
	}
	return nil
}

func missingKwarg(name string) error {
	return &engine.MalformedScenarioError{Field: name, Reason: "required kwarg is missing"}
}
