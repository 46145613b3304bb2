package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorycross/persona-x-sub000/internal/decision"
)

var killedTrace = []AuditEvent{
	{Seq: 1, Stage: "propose", Action: "stage_recorded", Detail: "stage_1 gate passed: proceed"},
	{Seq: 2, Stage: "propose", Action: "advanced", Detail: "Advanced from propose to challenge"},
	{Seq: 3, Stage: "challenge", Action: "gate_failed", Detail: "stage_2 gate failed (kill): Ethical Boundary Guardian final position is fail"},
	{Seq: 4, Stage: "challenge", Action: "killed", Detail: "Ethical Boundary Guardian final position is fail: ethics reviewed"},
}

func TestAssertAuditContains(t *testing.T) {
	assert.NoError(t, assertAuditContains(killedTrace, Assertion{Action: "killed"}))
	assert.NoError(t, assertAuditContains(killedTrace, Assertion{Action: "gate_failed", Stage: decision.StageChallenge, Detail: "(kill)"}))

	err := assertAuditContains(killedTrace, Assertion{Action: "gate_failed", Stage: decision.StagePropose})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: action gate_failed at propose")
	assert.Contains(t, err.Error(), "[4] challenge killed")

	assert.Error(t, assertAuditContains(killedTrace, Assertion{Action: "killed", Detail: "extractive"}))
}

func TestAssertAuditOrder(t *testing.T) {
	tests := []struct {
		name    string
		actions []string
		wantErr bool
	}{
		{"full order", []string{"stage_recorded", "advanced", "gate_failed", "killed"}, false},
		{"gaps allowed", []string{"stage_recorded", "killed"}, false},
		{"out of order", []string{"killed", "advanced"}, true},
		{"repeat needs a second occurrence", []string{"advanced", "advanced"}, true},
		{"missing", []string{"completed"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertAuditOrder(killedTrace, Assertion{Actions: tt.actions})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAssertAuditCount(t *testing.T) {
	assert.NoError(t, assertAuditCount(killedTrace, Assertion{Action: "advanced", Count: 1}))
	assert.NoError(t, assertAuditCount(killedTrace, Assertion{Action: "completed", Count: 0}))

	err := assertAuditCount(killedTrace, Assertion{Action: "advanced", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func TestAssertGate(t *testing.T) {
	s := decision.New("run-1")
	s.Gates[0] = &decision.GateResult{
		Stage:    decision.StagePropose,
		Passed:   false,
		Failures: []string{"Composite score 4.7 is below the 7.0 threshold"},
		Decision: decision.Defer,
	}

	assert.NoError(t, assertGate(s, Assertion{Stage: decision.StagePropose, Expect: map[string]any{
		"passed":   false,
		"decision": "defer",
		"failures": []any{"Composite score 4.7 is below the 7.0 threshold"},
	}}))
	assert.Error(t, assertGate(s, Assertion{Stage: decision.StagePropose, Expect: map[string]any{"decision": "kill"}}))
	assert.Error(t, assertGate(s, Assertion{Stage: decision.StagePropose, Expect: map[string]any{"failures": []any{}}}))
	assert.Error(t, assertGate(s, Assertion{Stage: decision.StagePropose, Expect: map[string]any{"verdict": "defer"}}))
	assert.Error(t, assertGate(s, Assertion{Stage: decision.StageChallenge, Expect: map[string]any{"passed": true}}))
}

func TestAssertRunError(t *testing.T) {
	failed := &Result{RunError: "SYNTHESIS: synthesise delivery_plan (stage=execute): bad json"}
	assert.NoError(t, assertRunError(failed, Assertion{}))
	assert.NoError(t, assertRunError(failed, Assertion{Detail: "(stage=execute)"}))
	assert.Error(t, assertRunError(failed, Assertion{Detail: "GENERATION"}))
	assert.Error(t, assertRunError(&Result{}, Assertion{}))
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(3, 3))
	assert.True(t, stateValuesEqual(3.0, 3))
	assert.False(t, stateValuesEqual(3, int64(3)))
	assert.True(t, stateValuesEqual("killed", "killed"))
	assert.True(t, stateValuesEqual(false, false))
	assert.True(t, stateValuesEqual([]any{"a", 1}, []any{"a", 1}))
	assert.False(t, stateValuesEqual([]any{"a"}, []any{"a", "b"}))
	assert.True(t, stateValuesEqual(nil, nil))
	assert.False(t, stateValuesEqual(nil, ""))
}

func TestEvaluateAssertionsNeedsStoreForFinalState(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertFinalState, Expect: map[string]any{"status": "passed"}}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires database context")
}
