// Package harness runs conformance scenarios against refset models.
//
// A scenario loads one or more models, calls methods on them in order, and
// checks each outcome, the resulting trace and the final records.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: country_finders
//	description: "Dynamic finders over the country table"
//	models:
//	  - type: Country
//	    data: countries.yml        # relative to the scenario file
//	    scopes:
//	      - name: big
//	        expr: population > 100
//	        engine: cel
//	  - type: Currency
//	    rows:
//	      - {id: USD, name: US Dollar}
//	flow:
//	  - invoke: Country.find_by_name
//	    args: [Peru]
//	    expect:
//	      case: record
//	      ids: [3]
//	assertions:
//	  - type: trace_contains
//	    invoke: Country.find_by_name
//	    args: [Peru]
//	  - type: final_state
//	    model: Country
//	    where: {name: Peru}
//	    expect: {code: PE}
//
// # Invocations
//
// "Type.method" calls a model method. A handful of methods map onto the
// Go API directly (create, create_or_fail, find, where, order, count,
// pluck, first, last, delete_all, reload); every other name goes through
// Model.Call, so scopes and dynamic finders work as they do for callers.
//
// Each call produces one TraceEvent whose Case names the outcome:
// record, records, relation, none, value or ok, or one of the error cases
// not_found, no_method, id_error, unknown_attribute and error.
//
// # Assertion Types
//
//   - trace_contains: a call with the given invoke (and leading args) happened
//   - trace_order: calls happened in the given order
//   - trace_count: a call happened exactly N times
//   - final_state: exactly one record of a model matches where, and has
//     the expected values
//
// final_state is checked through SQLite: the harness writes every model's
// records to an in-memory database and queries it, so scenarios also cover
// the store round trip.
//
// # Golden Traces
//
// RunWithGolden compares the trace with testdata/golden/<name>.golden
// (regenerate with go test ./internal/harness -update).
package harness
