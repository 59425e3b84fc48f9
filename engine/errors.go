/*
errors.go - Centralized error types for the simulation engine

PURPOSE:
  All error types in one place. Every error here is a configuration-time
  error raised while building a Sim from a scenario description; none of
  them can occur during Run() itself, because by that point every factory
  name, variable reference and date string has been resolved.

ERROR CATEGORIES:
  1. Parse errors    - malformed date or periodicity input
  2. Variable errors - string values that name no declared variable
  3. Catalog errors  - unknown factory names
  4. Schema errors   - scenario descriptions missing required fields

PROPAGATION POLICY:
  The scenario loader never partially constructs a Sim: the first error
  aborts the whole scenario before any action executes, leaving no
  partial ledger.

USAGE:
  if errors.Is(err, engine.ErrMissingVariable) { ... }

  var nsa *engine.NoSuchActionError
  if errors.As(err, &nsa) { log.Printf("unknown factory %q", nsa.Name) }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrParse is returned for malformed date or periodicity input.
	ErrParse = errors.New("parse error")

	// ErrMissingVariable is returned when a string value does not resolve
	// to a declared variable.
	ErrMissingVariable = errors.New("missing variable")

	// ErrNoSuchAction is returned when a scenario names an unknown
	// factory function.
	ErrNoSuchAction = errors.New("no such action")

	// ErrMalformedScenario is returned when a scenario description is
	// missing required schema fields.
	ErrMalformedScenario = errors.New("malformed scenario")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParseError reports malformed date or periodicity input.
type ParseError struct {
	Input  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("cannot parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// MissingVariableError reports a variable reference that names no
// declared variable.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("variable %q is not declared", e.Name)
}

func (e *MissingVariableError) Unwrap() error { return ErrMissingVariable }

// NoSuchActionError reports an unknown factory name, symmetrical with a
// hallucinated name appearing in a scenario description.
type NoSuchActionError struct {
	Name string
}

func (e *NoSuchActionError) Error() string {
	return fmt.Sprintf("no action factory named %q", e.Name)
}

func (e *NoSuchActionError) Unwrap() error { return ErrNoSuchAction }

// MalformedScenarioError reports a scenario description missing required
// schema fields or factory arguments.
type MalformedScenarioError struct {
	Scenario string
	Field    string
	Reason   string
}

func (e *MalformedScenarioError) Error() string {
	if e.Scenario != "" {
		return fmt.Sprintf("scenario %q: field %q: %s", e.Scenario, e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

func (e *MalformedScenarioError) Unwrap() error { return ErrMalformedScenario }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError reports whether the error belongs to the scenario-build
// taxonomy, as opposed to an unexpected callback failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrMissingVariable) ||
		errors.Is(err, ErrNoSuchAction) ||
		errors.Is(err, ErrMalformedScenario)
}
