/*
Package scenario builds simulations from declarative JSON descriptions.

PURPOSE:
  Converts JSON scenario definitions into ready-to-run engine.Sims. This
  enables scenario configuration without code changes - a scenario is
  plain data that can come from a config file, an HTTP request body or a
  chat assistant, and the loader resolves every action by name through
  the actions registry.

JSON SCHEMA:
  {
    "scenarios": {
      "Buy House": {
        "account_names": {"myself": 10000, "house_value": 0},
        "variables": {"LoanRate": 0.05},
        "actions": [
          {"function": "buy_house", "kwargs": {...}}
        ]
      }
    }
  }

  All three scenario keys are required; an absent key is a configuration
  error even when the corresponding section would be empty. Write
  "variables": {} to declare none.

DETERMINISM:
  JSON objects carry no reliable ordering across decoders, so accounts
  and variables are applied in sorted name order. Ledger column order
  therefore depends only on the scenario's content, never on decoder
  internals. Actions are a JSON array and keep their declared order,
  which is what makes same-day execution order predictable.

ERROR HANDLING:
  The first error aborts the whole scenario. A half-built Sim is never
  returned: a scenario that names one unknown factory produces no ledger
  at all rather than a subtly wrong one.

SEE ALSO:
  - actions: the factory registry this loader drives
  - engine:  the Sim being assembled
*/
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/finsim/actions"
	"github.com/warp/finsim/engine"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// Invocation is one factory call: a registered function name plus its
// keyword arguments, passed through verbatim for the factory to decode.
type Invocation struct {
	Function string          `json:"function"`
	Kwargs   json.RawMessage `json:"kwargs"`
}

// Description is one scenario. Required sections are pointers so that an
// absent key can be told apart from a present-but-empty one.
type Description struct {
	AccountNames *map[string]decimal.Decimal `json:"account_names"`
	Variables    *map[string]decimal.Decimal `json:"variables"`
	Actions      *[]Invocation               `json:"actions"`
}

// Config is the top-level document: named scenarios to build and compare.
type Config struct {
	Scenarios map[string]Description `json:"scenarios"`
}

// =============================================================================
// BUILDING
// =============================================================================

// Build assembles a Sim from one scenario description: accounts first,
// then variables, then factories in declared order. The Sim is ready to
// Run but has not run yet.
func Build(name string, desc Description) (*engine.Sim, error) {
	if desc.AccountNames == nil {
		return nil, &engine.MalformedScenarioError{Scenario: name, Field: "account_names", Reason: "required section is missing"}
	}
	if desc.Variables == nil {
		return nil, &engine.MalformedScenarioError{Scenario: name, Field: "variables", Reason: "required section is missing"}
	}
	if desc.Actions == nil {
		return nil, &engine.MalformedScenarioError{Scenario: name, Field: "actions", Reason: "required section is missing"}
	}

	sim := engine.NewSim(name)

	for _, accountName := range sortedKeys(*desc.AccountNames) {
		sim.CreateAccount(accountName, (*desc.AccountNames)[accountName])
	}
	for _, varName := range sortedKeys(*desc.Variables) {
		sim.SetVariable(varName, (*desc.Variables)[varName])
	}

	for i, inv := range *desc.Actions {
		if inv.Function == "" {
			return nil, &engine.MalformedScenarioError{Scenario: name, Field: "actions", Reason: "action entry is missing a function name"}
		}
		factory, err := actions.Lookup(inv.Function)
		if err != nil {
			return nil, err
		}
		if err := factory(sim, inv.Kwargs); err != nil {
			return nil, annotate(err, name, i)
		}
	}
	return sim, nil
}

// BuildConfig assembles every scenario in the document, in sorted name
// order. Any scenario error aborts the whole batch.
func BuildConfig(cfg Config) ([]*engine.Sim, error) {
	names := make([]string, 0, len(cfg.Scenarios))
	for name := range cfg.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)

	sims := make([]*engine.Sim, 0, len(names))
	for _, name := range names {
		sim, err := Build(name, cfg.Scenarios[name])
		if err != nil {
			return nil, err
		}
		sims = append(sims, sim)
	}
	return sims, nil
}

// =============================================================================
// LOADING
// =============================================================================

// Parse decodes a config document from a reader.
func Parse(r io.Reader) (Config, error) {
	var cfg Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, &engine.MalformedScenarioError{Field: "scenarios", Reason: err.Error()}
	}
	return cfg, nil
}

// ParseBytes decodes a config document from raw JSON.
func ParseBytes(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &engine.MalformedScenarioError{Field: "scenarios", Reason: err.Error()}
	}
	return cfg, nil
}

// LoadFile reads and decodes a config document from disk.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Parse(f)
}

// =============================================================================
// HELPERS
// =============================================================================

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// annotate attaches the scenario name and action index to schema errors
// coming out of a factory, so batch failures name their origin.
func annotate(err error, scenario string, actionIdx int) error {
	if mse, ok := err.(*engine.MalformedScenarioError); ok && mse.Scenario == "" {
		return &engine.MalformedScenarioError{
			Scenario: scenario,
			Field:    fmt.Sprintf("actions[%d].%s", actionIdx, mse.Field),
			Reason:   mse.Reason,
		}
	}
	return err
}
