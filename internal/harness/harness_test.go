package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/engine"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 7)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			result, err := Run(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestGoldenScenarios(t *testing.T) {
	for _, name := range []string{"all_gates_pass", "deferred_low_composite", "killed_by_ethics"} {
		t.Run(name, func(t *testing.T) {
			sc, err := LoadScenario(filepath.Join("testdata/scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRunResumesFromStore(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/resumed_after_overload.yaml")
	require.NoError(t, err)

	result, err := Run(t, sc)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempts)
	assert.Empty(t, result.RunError)
	assert.Equal(t, decision.StatusPassed, result.State.Status)
	for i, e := range result.Trace {
		assert.Equal(t, i+1, e.Seq, "no duplicated or skipped entries")
	}
}

func TestRunResumeBeforeFirstSave(t *testing.T) {
	sc := &Scenario{
		Name:        "propose_overload",
		Description: "overloaded at propose, resumed",
		RunID:       "run-early",
		Opportunity: engine.Input{Title: "Tool library"},
		Stages:      map[decision.Stage]StageScript{decision.StagePropose: {Error: "overloaded"}},
		Resume:      map[decision.Stage]StageScript{decision.StagePropose: {}},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"status": "passed"}},
		},
	}

	result, err := Run(t, sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, 2, result.Attempts)
}

func TestRunReportsUnexpectedError(t *testing.T) {
	sc := &Scenario{
		Name:        "unexpected",
		Description: "abort without a run_error assertion",
		Opportunity: engine.Input{Title: "Tool library"},
		Stages:      map[decision.Stage]StageScript{decision.StagePropose: {Error: "overloaded"}},
		Assertions: []Assertion{
			{Type: AssertAuditCount, Action: decision.ActionStageRecorded, Count: 0},
		},
	}

	result, err := Run(t, sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected run error: SYNTHESIS")
	assert.Equal(t, "test-run-default", result.State.ID)
}

func TestRunFailingAssertions(t *testing.T) {
	sc := &Scenario{
		Name:        "wrong_expectations",
		Description: "assertions that do not hold",
		Opportunity: engine.Input{Title: "Tool library"},
		Stages:      map[decision.Stage]StageScript{decision.StagePropose: {Scores: []int{3, 5, 3, 6, 7, 6}}},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"status": "passed"}},
			{Type: AssertGate, Stage: decision.StageChallenge, Expect: map[string]any{"passed": true}},
			{Type: AssertRunError},
		},
	}

	result, err := Run(t, sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 3)
}
