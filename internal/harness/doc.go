// Package harness runs resolution scenarios: lists of call sites compiled
// against a catalog built from CUE declarations, with the binding each call
// is expected to produce.
//
// # Scenario Format
//
//	name: defaults
//	description: "Named-only defaults fill in missing arguments"
//	schema:
//	  - ../schema/std.cue
//	module_aliases: { m: math }
//	calls:
//	  - call: "f(1)"
//	    expect:
//	      function: "std::f@@std|int64@std|str"
//	      return_type: std::str
//	      defaults_mask: "01"
//	      args: ["b'\\x01'", "<std::str>{}", "1"]
//	  - call: "abs('x')"
//	    expect: { error: NO_MATCHING_VARIANT }
//	assertions:
//	  - type: trace_order
//	    functions: [f, abs]
//	  - type: journal
//	    failed: true
//	    count: 1
//
// # Assertion Types
//
//   - trace_contains: some resolution matches the function
//   - trace_order: functions were first resolved in the given order
//   - trace_count: the function was resolved exactly N times
//   - journal: the session's journal holds exactly N matching records
//
// # Deterministic Testing
//
// Every resolution is stamped by testutil.DeterministicClock and written
// to an in-memory journal, so traces are identical across runs and can be
// compared with golden files (see RunWithGolden).
package harness
