// Package harness runs persistence scenarios against a fresh in-memory store.
//
// A scenario is a YAML file that drives real article and blog article
// operations, checks each step's outcome and asserts on the recorded trace
// and the final table contents. Blog articles are dated from a step clock,
// so a scenario produces the same trace on every run and the trace can be
// compared against a golden file.
//
// # Scenario Format
//
//	name: blog_update_resets_key
//	description: "An updated blog article must be saved again as a new row"
//	start: 2024-05-01T09:00:00Z
//	flow:
//	  - do: save
//	    kind: blog
//	    as: post
//	    title: Release notes
//	    context: first draft
//	    expect: { pk: 1 }
//	  - do: save
//	    ref: post
//	    context: final
//	    expect: { pk: null }
//	  - do: get
//	    kind: blog
//	    pk: 1
//	    expect: { found: true, context: final }
//	assertions:
//	  - type: row_count
//	    table: blog_article
//	    count: 1
//	  - type: trace_order
//	    actions: [blog.save, blog.get]
//
// # Flow Steps
//
// Each step names an operation with "do":
//   - save: insert a new entity of "kind", or save the entity bound to "ref"
//   - get: load the row stored under "pk"; "as" binds the loaded entity
//   - delete: delete the entity bound to "ref"
//   - all: load every row of "kind"
//   - exec: run raw "sql" against the store, e.g. to break a table
//
// Every step yields a result map. "expect" is a subset match against it:
// save yields pk, get yields found plus the stored fields, delete yields
// deleted and pk, all yields count. A failed operation yields error set to
// "statement" for statement failures and "failed" otherwise.
//
// # Assertion Types
//
//   - trace_contains: an action with matching args was performed
//   - trace_order: actions were performed in the given order
//   - trace_count: an action was performed exactly N times
//   - row_count: a table holds exactly N rows
//   - final_state: exactly one row matches "where" and has the "expect" values
//
// # Golden Files
//
// RunWithGolden compares a scenario's trace snapshot against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
