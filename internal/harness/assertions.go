package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []AuditEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nAudit trail:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s: %s\n", event.Seq, event.Stage, event.Action, event.Detail)
		}
	}

	return buf.String()
}

// assertAuditContains checks for an entry with the action and, when given,
// the stage and a detail substring.
func assertAuditContains(trace []AuditEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Action != assertion.Action {
			continue
		}
		if assertion.Stage != "" && event.Stage != string(assertion.Stage) {
			continue
		}
		if strings.Contains(event.Detail, assertion.Detail) {
			return nil
		}
	}

	want := "action " + assertion.Action
	if assertion.Stage != "" {
		want += " at " + string(assertion.Stage)
	}
	if assertion.Detail != "" {
		want += fmt.Sprintf(" with detail containing %q", assertion.Detail)
	}
	return &AssertionError{
		Type:     AssertAuditContains,
		Expected: want,
		Actual:   "not found in audit trail",
		Trace:    trace,
	}
}

// assertAuditOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive, and a repeated action matches its
// next occurrence after the previous match.
func assertAuditOrder(trace []AuditEvent, assertion Assertion) error {
	pos := 0
	for i, action := range assertion.Actions {
		found := false
		for pos < len(trace) {
			pos++
			if trace[pos-1].Action == action {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertAuditOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual:   fmt.Sprintf("no %s after position %d (action %d of %d)", action, pos, i+1, len(assertion.Actions)),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertAuditCount checks if the action appears exactly the specified number of times.
func assertAuditCount(trace []AuditEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Action == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertAuditCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState loads the stored run and compares its fields against
// assertion.Expect using subset semantics.
func assertFinalState(ctx context.Context, st *store.Store, runID string, assertion Assertion) error {
	s, err := st.LoadRun(ctx, runID)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("stored run %s", runID),
			Actual:   fmt.Sprintf("load error: %v", err),
		}
	}

	actual := map[string]any{
		"status":        string(s.Status),
		"current_stage": string(s.CurrentStage),
		"stage_index":   s.StageIndex,
		"kill_reason":   s.KillReason,
		"title":         s.Title,
		"audit_entries": len(s.Audit),
	}
	return compareFields(AssertFinalState, actual, assertion.Expect)
}

// assertGate compares the recorded gate for assertion.Stage.
func assertGate(state decision.State, assertion Assertion) error {
	g := state.Gate(assertion.Stage)
	if g == nil {
		return &AssertionError{
			Type:     AssertGate,
			Expected: fmt.Sprintf("gate recorded for %s", assertion.Stage),
			Actual:   "no gate recorded",
		}
	}
	failures := make([]any, len(g.Failures))
	for i, f := range g.Failures {
		failures[i] = f
	}
	actual := map[string]any{
		"passed":   g.Passed,
		"decision": string(g.Decision),
		"failures": failures,
	}
	return compareFields(AssertGate, actual, assertion.Expect)
}

func assertRunError(result *Result, assertion Assertion) error {
	if result.RunError == "" {
		return &AssertionError{
			Type:     AssertRunError,
			Expected: "the final attempt to fail",
			Actual:   fmt.Sprintf("run finished with status %s", result.State.Status),
		}
	}
	if !strings.Contains(result.RunError, assertion.Detail) {
		return &AssertionError{
			Type:     AssertRunError,
			Expected: fmt.Sprintf("error containing %q", assertion.Detail),
			Actual:   result.RunError,
		}
	}
	return nil
}

// compareFields checks each expected key in sorted order.
func compareFields(typ string, actual, expect map[string]any) error {
	keys := make([]string, 0, len(expect))
	for k := range expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actualValue, exists := actual[key]
		if !exists {
			known := make([]string, 0, len(actual))
			for k := range actual {
				known = append(known, k)
			}
			sort.Strings(known)
			return &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("known fields: %v", known),
			}
		}
		if !stateValuesEqual(expect[key], actualValue) {
			return &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expect[key], expect[key]),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}
	return nil
}

// stateValuesEqual compares a YAML-decoded expected value with an actual
// field value, allowing for YAML's choice of numeric types.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case int:
		if actualInt, ok := actual.(int); ok {
			return exp == actualInt
		}
		return false
	case float64:
		if actualInt, ok := actual.(int); ok {
			return exp == float64(actualInt)
		}
		return false
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !stateValuesEqual(exp[i], act[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(expected, actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertAuditContains:
			err = assertAuditContains(result.Trace, assertion)
		case AssertAuditOrder:
			err = assertAuditOrder(result.Trace, assertion)
		case AssertAuditCount:
			err = assertAuditCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, result.State.ID, assertion)
			}
		case AssertGate:
			err = assertGate(result.State, assertion)
		case AssertRunError:
			err = assertRunError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
