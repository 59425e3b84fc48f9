/*
value.go - Literal-or-variable parameter values

PURPOSE:
  Many action parameters accept either a hardcoded number or the name of
  a simulation variable ("loan_rate"). Value models that union as an
  explicit tagged variant instead of duck-typed branching: a JSON number
  decodes to a literal, a JSON string decodes to a variable reference.

  Resolution happens at the moment of use via Sim.GetValue, never at
  construction time, so a "modify variable" action executed mid-run is
  visible to every not-yet-executed action that references the variable.

SEE ALSO:
  - sim.go: GetValue resolves references against the variable mapping
*/
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Value is either a literal amount or a reference to a named variable.
// The zero Value is the literal 0.
type Value struct {
	literal decimal.Decimal
	ref     string
	isRef   bool
}

// Literal builds a Value holding a fixed amount.
func Literal(d decimal.Decimal) Value {
	return Value{literal: d}
}

// VariableRef builds a Value that resolves the named variable at use time.
func VariableRef(name string) Value {
	return Value{ref: name, isRef: true}
}

// IsRef reports whether the value is a variable reference.
func (v Value) IsRef() bool { return v.isRef }

// Ref returns the referenced variable name ("" for literals).
func (v Value) Ref() string { return v.ref }

// Literal returns the literal amount (zero for references).
func (v Value) Literal() decimal.Decimal { return v.literal }

func (v Value) String() string {
	if v.isRef {
		return fmt.Sprintf("$%s", v.ref)
	}
	return v.literal.String()
}

// UnmarshalJSON decodes a JSON number as a literal and a JSON string as
// a variable reference.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*v = VariableRef(name)
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*v = Literal(d)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isRef {
		return json.Marshal(v.ref)
	}
	return json.Marshal(v.literal)
}
