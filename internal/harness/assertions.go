package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/refset/internal/hostcompat"
	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/store"
	"github.com/roach88/refset/internal/value"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Invoke, describe(event.Args), event.Case)
		}
	}

	return buf.String()
}

// checkExpect compares one call's outcome with its expect clause and
// returns a description of the first mismatch, or "".
func checkExpect(ev TraceEvent, want *ExpectClause) string {
	if ev.Case != want.Case {
		if ev.Error != "" {
			return fmt.Sprintf("expected case %s, got %s (%s)", want.Case, ev.Case, ev.Error)
		}
		return fmt.Sprintf("expected case %s, got %s", want.Case, ev.Case)
	}
	if want.IDs != nil && !valuesEqual(ev.IDs, want.IDs) {
		return fmt.Sprintf("expected ids %s, got %s", describe(want.IDs), describe(ev.IDs))
	}
	if want.Value != nil && !valuesEqual(ev.Value, want.Value) {
		return fmt.Sprintf("expected value %s, got %s", describe(want.Value), describe(ev.Value))
	}
	if want.Error != "" && !strings.Contains(ev.Error, want.Error) {
		return fmt.Sprintf("expected error containing %q, got %q", want.Error, ev.Error)
	}
	return ""
}

// assertTraceContains checks for a call to the invoke whose args start
// with the assertion's args.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Invoke == assertion.Invoke && argsPrefix(event.Args, assertion.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("call %s with args %s", assertion.Invoke, describe(assertion.Args)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that calls appear in the specified order.
// Calls don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Invoke]; !seen {
			positions[event.Invoke] = i + 1
		}
	}

	for _, invoke := range assertion.Invokes {
		if positions[invoke] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all calls present: %v", assertion.Invokes),
				Actual:   fmt.Sprintf("missing call: %s", invoke),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Invokes); i++ {
		prev := assertion.Invokes[i-1]
		curr := assertion.Invokes[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("calls in order: %v", assertion.Invokes),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that the invoke appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Invoke == assertion.Invoke {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Invoke),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState queries the snapshot table of assertion.Model and
// checks that exactly one row matches Where and that it has the expected
// values (subset semantics).
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	table := tableName(assertion.Model)

	rows, err := st.ReadMatching(ctx, table, queryir.FromConditions(assertion.Where))
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	whereDesc := formatWhereClause(assertion.Where)
	switch len(rows) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s record where %s", assertion.Model, whereDesc),
			Actual:   "record not found",
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one %s record where %s", assertion.Model, whereDesc),
			Actual:   fmt.Sprintf("%d records matched (assertion is ambiguous)", len(rows)),
		}
	}

	actual := rows[0]
	for _, key := range sortedKeys(assertion.Expect) {
		expected := assertion.Expect[key]
		got, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in %s", key, describe(actual)),
			}
		}
		if !valuesEqual(got, expected) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %s", key, describe(expected)),
				Actual:   fmt.Sprintf("field %q = %s", key, describe(got)),
			}
		}
	}

	return nil
}

// tableName is the snapshot table for a model.
func tableName(typeName string) string {
	return hostcompat.Tableize(typeName)
}

// formatWhereClause creates a human-readable description of conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, describe(where[k])))
	}
	return strings.Join(parts, " AND ")
}

// argsPrefix reports whether actual starts with expected.
func argsPrefix(actual, expected []any) bool {
	if len(expected) > len(actual) {
		return false
	}
	for i := range expected {
		if !valuesEqual(actual[i], expected[i]) {
			return false
		}
	}
	return true
}

// valuesEqual compares values the way records do: numbers across widths,
// nested lists and maps element by element.
func valuesEqual(actual, expected any) bool {
	a, b := value.Normalize(actual), value.Normalize(expected)
	switch bv := b.(type) {
	case []any:
		av, ok := a.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range bv {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		av, ok := a.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range bv {
			if !valuesEqual(av[k], v) {
				return false
			}
		}
		return true
	default:
		return value.Equal(a, b)
	}
}

func describe(v any) string {
	data, err := value.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result and
// returns a message per failure. final_state assertions need actx.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
