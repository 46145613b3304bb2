// Package harness runs decision engine conformance scenarios.
//
// A scenario names an opportunity, scripts the synthesis reply for each
// stage and lists assertions over the audit trail and final run state. The
// harness drives the real engine against the scripted completion service and
// an in-memory run store, so every assertion checks behaviour the engine
// actually produced.
//
// # Scenario Format
//
//	name: killed_by_ethics
//	description: "An ethics fail at challenge kills the run"
//	run_id: run-ethics
//	opportunity:
//	  title: Community repair cafe network
//	  description: Volunteer-run repair cafes
//	stages:
//	  propose:   { scores: [8, 8, 7, 8, 7, 6] }
//	  challenge: { positions: [fail, pass] }
//	resume:
//	  challenge: { positions: [pass, pass] }
//	assertions:
//	  - type: audit_order
//	    actions: [stage_recorded, advanced, gate_failed, killed]
//	  - type: final_state
//	    expect: { status: killed, current_stage: challenge }
//
// A stage without a script answers with an artefact that clears its gate.
// A script holds exactly one of:
//
//   - scores: six propose dimension scores
//   - positions: the ethics guardian and investor final positions
//   - readiness: four execute readiness statuses
//   - reply: any YAML value, sent as JSON
//   - raw: a reply sent verbatim
//   - error: the synthesis call fails with an overloaded API error
//
// When the first attempt aborts and the scenario has a resume block, the
// stored run is loaded and resumed with the resume scripts laid over the
// stage scripts.
//
// # Assertion Types
//
//   - audit_contains: an entry with the action, optional stage and detail substring
//   - audit_order: actions appear in this order
//   - audit_count: action appears exactly count times
//   - final_state: stored run fields match expect
//   - gate: the stage's gate result matches expect
//   - run_error: the final attempt failed, optionally with detail in the message
//
// Every run uses a deterministic clock and a fixed run id, so the audit
// trail is identical across runs and can be compared against golden files.
package harness
