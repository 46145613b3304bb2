package decision

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func dims(scores ...int) artefact.DimensionScores {
	ds := func(i int) artefact.DimensionScore {
		return artefact.DimensionScore{Score: scores[i], Rationale: "panel consensus"}
	}
	return artefact.DimensionScores{
		ProblemSeverity:     ds(0),
		SocietalBenefit:     ds(1),
		MarketViability:     ds(2),
		PersonaXFit:         ds(3),
		Defensibility:       ds(4),
		ExecutionComplexity: ds(5),
	}
}

func brief(scores ...int) artefact.OpportunityBrief {
	d := dims(scores...)
	return artefact.OpportunityBrief{
		Title:            "Community repair cafe network",
		Summary:          "s",
		ProblemStatement: "p",
		TargetUsers:      "u",
		ProposedSolution: "x",
		DimensionScores:  d,
		CompositeScore:   artefact.CalculateCompositeScore(d),
		KeyAssumptions:   []string{"volunteers stay engaged"},
	}
}

func passingBrief() artefact.OpportunityBrief { return brief(8, 8, 7, 8, 7, 6) }

func report(ebg, investor artefact.Position, risks ...artefact.Risk) artefact.ChallengeReport {
	return artefact.ChallengeReport{
		Title:   "Challenge",
		Summary: "s",
		Risks:   risks,
		FinalPositions: map[string]artefact.FinalPosition{
			artefact.EthicalBoundaryGuardian: {Position: ebg, Rationale: "reviewed"},
			artefact.ScepticalInvestor:       {Position: investor, Rationale: "reviewed"},
			"red_team_strategist":            {Position: artefact.PositionConditional, Rationale: "reviewed"},
		},
	}
}

func plan(statuses ...artefact.ReadinessStatus) artefact.DeliveryPlan {
	r := func(i int) artefact.Readiness { return artefact.Readiness{Status: statuses[i], Rationale: "assessed"} }
	return artefact.DeliveryPlan{
		Title:      "Launch",
		Summary:    "s",
		Milestones: []artefact.Milestone{{Name: "pilot", Description: "d", TargetWeek: 4}},
		Readiness: artefact.ReadinessAssessments{
			DeliveryRealist:       r(0),
			RiskSentinel:          r(1),
			MarketEntryStrategist: r(2),
			OperationsScaler:      r(3),
		},
		LaunchCriteria: []string{"ten cafes"},
	}
}

func spec() artefact.PrototypeSpec {
	return artefact.PrototypeSpec{
		Title:          "Pilot",
		Summary:        "s",
		Hypothesis:     "h",
		CoreFeatures:   []artefact.Feature{{Name: "booking", Description: "d", Priority: "must"}},
		SuccessMetrics: []artefact.SuccessMetric{{Metric: "repairs", Target: "100"}},
		TimeboxWeeks:   6,
	}
}

func TestStage1Gate(t *testing.T) {
	t.Run("passes", func(t *testing.T) {
		b := brief(8, 8, 8, 8, 6, 5) // 7.5
		require.Equal(t, 7.5, b.CompositeScore)
		g := CheckStage1Gate(b)
		assert.True(t, g.Passed)
		assert.Empty(t, g.Failures)
		assert.Equal(t, Proceed, g.Decision)
	})
	t.Run("composite", func(t *testing.T) {
		b := brief(8, 8, 8, 8, 6, 5)
		b.CompositeScore = 5.5
		g := CheckStage1Gate(b)
		assert.False(t, g.Passed)
		assert.Equal(t, Defer, g.Decision)
		require.Len(t, g.Failures, 1)
		assert.Contains(t, g.Failures[0], "Composite score")
	})
	t.Run("composite just below threshold", func(t *testing.T) {
		for _, c := range []float64{6.95, 6.96, 6.99} {
			b := brief(8, 8, 8, 8, 6, 5)
			b.CompositeScore = c
			g := CheckStage1Gate(b)
			assert.False(t, g.Passed, "composite %v", c)
			require.Len(t, g.Failures, 1, "composite %v", c)
			assert.Equal(t, fmt.Sprintf("Composite score %v is below the 7.0 threshold", c), g.Failures[0])
		}
	})
	t.Run("composite exactly at threshold", func(t *testing.T) {
		b := brief(8, 8, 8, 8, 6, 5)
		b.CompositeScore = 7.0
		assert.True(t, CheckStage1Gate(b).Passed)
	})
	t.Run("societal benefit", func(t *testing.T) {
		g := CheckStage1Gate(brief(9, 3, 9, 9, 9, 9))
		require.Len(t, g.Failures, 1)
		assert.Contains(t, g.Failures[0], "Societal benefit")
	})
	t.Run("persona-x fit", func(t *testing.T) {
		g := CheckStage1Gate(brief(9, 9, 9, 4, 9, 9))
		require.Len(t, g.Failures, 1)
		assert.Contains(t, g.Failures[0], "Persona-x fit")
	})
	t.Run("any dimension at two", func(t *testing.T) {
		b := brief(9, 9, 9, 9, 2, 9)
		require.GreaterOrEqual(t, b.CompositeScore, 7.0)
		g := CheckStage1Gate(b)
		require.Len(t, g.Failures, 1)
		assert.Contains(t, g.Failures[0], "Defensibility")
	})
}

func TestStage2Gate(t *testing.T) {
	critical := artefact.Risk{Description: "data breach", Severity: artefact.SeverityCritical, Status: artefact.RiskUnresolved}

	g := CheckStage2Gate(report(artefact.PositionPass, artefact.PositionPass))
	assert.True(t, g.Passed)

	g = CheckStage2Gate(report(artefact.PositionFail, artefact.PositionPass))
	assert.False(t, g.Passed)
	assert.Equal(t, Kill, g.Decision)

	g = CheckStage2Gate(report(artefact.PositionPass, artefact.PositionPass, critical))
	assert.False(t, g.Passed)
	assert.Equal(t, Defer, g.Decision)
	assert.Contains(t, g.Failures[0], "critical risk")

	critical.Status = artefact.RiskMitigated
	assert.True(t, CheckStage2Gate(report(artefact.PositionPass, artefact.PositionPass, critical)).Passed)

	g = CheckStage2Gate(report(artefact.PositionConditional, artefact.PositionFail))
	assert.Equal(t, Defer, g.Decision)
	assert.Contains(t, g.Failures[0], "Sceptical Investor")
}

func TestStage3GateAlwaysPasses(t *testing.T) {
	g := CheckStage3Gate(artefact.PrototypeSpec{})
	assert.True(t, g.Passed)
	assert.Equal(t, Proceed, g.Decision)
}

func TestStage4Gate(t *testing.T) {
	assert.True(t, CheckStage4Gate(plan(artefact.Ready, artefact.ReadyConditional, artefact.Ready, artefact.Ready)).Passed)

	g := CheckStage4Gate(plan(artefact.Ready, artefact.NotReady, artefact.Ready, artefact.NotReady))
	assert.False(t, g.Passed)
	assert.Equal(t, Defer, g.Decision)
	assert.Equal(t, []string{
		"risk_sentinel reports not_ready: assessed",
		"operations_scaler reports not_ready: assessed",
	}, g.Failures)
}

func TestFullPassThroughAllStages(t *testing.T) {
	s := New("run-1", CreatedAt(t0))
	s = RecordStageResult(s, StagePropose, passingBrief(), At(t0))
	s = AdvanceToNextStage(s, At(t0))
	s = RecordStageResult(s, StageChallenge, report(artefact.PositionPass, artefact.PositionConditional), At(t0))
	s = AdvanceToNextStage(s, At(t0))
	s = RecordStageResult(s, StagePrototype, spec(), At(t0))
	s = AdvanceToNextStage(s, At(t0))
	s = RecordStageResult(s, StageExecute, plan(artefact.Ready, artefact.Ready, artefact.Ready, artefact.Ready), At(t0))
	s = AdvanceToNextStage(s, At(t0))

	assert.Equal(t, StatusPassed, s.Status)
	assert.True(t, IsDone(s))
	assert.Equal(t, "Community repair cafe network", s.Title)

	var actions []string
	for i, e := range s.Audit {
		assert.Equal(t, i+1, e.Seq)
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		ActionStageRecorded, ActionAdvanced,
		ActionStageRecorded, ActionAdvanced,
		ActionStageRecorded, ActionAdvanced,
		ActionStageRecorded, ActionCompleted,
	}, actions)
	assert.NotEmpty(t, s.Audit[0].ArtefactDigest)
}

func TestDeferredAfterFailedProposeGate(t *testing.T) {
	s := New("run-2")
	s = RecordStageResult(s, StagePropose, brief(5, 5, 5, 4, 5, 4))
	require.Equal(t, 4.7, s.Artefacts.Brief.CompositeScore)
	s = AdvanceToNextStage(s)

	assert.Equal(t, StatusDeferred, s.Status)
	assert.Equal(t, StagePropose, s.CurrentStage)
	require.Len(t, s.Audit, 1)
	assert.Equal(t, ActionGateFailed, s.Audit[0].Action)
}

func TestStatusIsMonotone(t *testing.T) {
	s := New("run-3")
	s = RecordStageResult(s, StagePropose, brief(5, 5, 5, 4, 5, 4))
	s = AdvanceToNextStage(s)
	require.Equal(t, StatusDeferred, s.Status)

	after := RecordStageResult(s, StagePropose, passingBrief())
	after = AdvanceToNextStage(after)
	after = RecordStageResult(after, StageChallenge, report(artefact.PositionPass, artefact.PositionPass))
	after = AdvanceToNextStage(after)

	if diff := cmp.Diff(s, after); diff != "" {
		t.Errorf("state changed after pipeline finished (-want +got):\n%s", diff)
	}
}

func TestRecordStageResultIgnoresInvalidCalls(t *testing.T) {
	s := New("run-4")

	assert.Equal(t, s, RecordStageResult(s, StageChallenge, report(artefact.PositionPass, artefact.PositionPass)), "not the current stage")
	assert.Equal(t, s, RecordStageResult(s, StagePropose, spec()), "kind mismatch")
	assert.Equal(t, s, RecordStageResult(s, StagePropose, nil), "nil artefact")

	once := RecordStageResult(s, StagePropose, passingBrief())
	twice := RecordStageResult(once, StagePropose, brief(1, 1, 1, 1, 1, 1))
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second record changed state:\n%s", diff)
	}
}

func TestRecordStageResultAcceptsPointers(t *testing.T) {
	b := passingBrief()
	s := RecordStageResult(New("run-5"), StagePropose, &b)
	require.NotNil(t, s.Artefacts.Brief)
	require.NotNil(t, s.Gate(StagePropose))
	assert.True(t, s.Gate(StagePropose).Passed)
}

func TestOperationsDoNotAliasAudit(t *testing.T) {
	base := RecordStageResult(New("run-6"), StagePropose, passingBrief())
	a := ForceKill(base, "first")
	b := AdvanceToNextStage(base)

	require.Len(t, base.Audit, 1)
	assert.Equal(t, ActionKilled, a.Audit[1].Action)
	assert.Equal(t, ActionAdvanced, b.Audit[1].Action)
	assert.Nil(t, base.Gates[1])
}

func TestChallengeKill(t *testing.T) {
	s := New("run-7")
	s = RecordStageResult(s, StagePropose, passingBrief())
	s = AdvanceToNextStage(s)
	s = RecordStageResult(s, StageChallenge, report(artefact.PositionFail, artefact.PositionPass))

	reason, kill := CheckKillCriteria(s)
	require.True(t, kill)
	assert.Contains(t, reason, "Ethical Boundary Guardian")

	s = ForceKill(s, reason)
	assert.Equal(t, StatusKilled, s.Status)
	assert.Equal(t, 1, s.StageIndex)
	assert.Equal(t, ActionKilled, s.Audit[len(s.Audit)-1].Action)
	assert.Equal(t, s, ForceKill(s, "again"))

	// Advancing a killed pipeline is a no-op.
	assert.Equal(t, s, AdvanceToNextStage(s))
}

func TestAdvanceOnKillGateSetsKilled(t *testing.T) {
	s := New("run-8")
	s = RecordStageResult(s, StagePropose, passingBrief())
	s = AdvanceToNextStage(s)
	s = RecordStageResult(s, StageChallenge, report(artefact.PositionFail, artefact.PositionPass))
	s = AdvanceToNextStage(s)

	assert.Equal(t, StatusKilled, s.Status)
	assert.Contains(t, s.KillReason, "Ethical Boundary Guardian")
	assert.Equal(t, StageChallenge, s.CurrentStage)
}

func TestCheckKillCriteria(t *testing.T) {
	s := New("k")
	_, kill := CheckKillCriteria(s)
	assert.False(t, kill)

	// Societal benefit floor fires regardless of composite.
	b := brief(10, 2, 10, 10, 10, 10)
	s.Artefacts.Brief = &b
	reason, kill := CheckKillCriteria(s)
	require.True(t, kill)
	assert.Contains(t, reason, "extractive")

	b = brief(9, 9, 9, 3, 9, 9)
	reason, kill = CheckKillCriteria(State{Artefacts: Artefacts{Brief: &b}})
	require.True(t, kill)
	assert.Contains(t, reason, "Persona-x fit")

	b = brief(9, 9, 9, 4, 9, 9)
	_, kill = CheckKillCriteria(State{Artefacts: Artefacts{Brief: &b}})
	assert.False(t, kill)
}

func TestAdvanceWithoutGateIsNoop(t *testing.T) {
	s := New("n")
	assert.Equal(t, s, AdvanceToNextStage(s))
}

func TestAdvanceWithStageIndexOutOfRangeIsNoop(t *testing.T) {
	for _, idx := range []int{-1, 4, 17} {
		s := New("corrupt")
		s.StageIndex = idx
		assert.NotPanics(t, func() {
			assert.Equal(t, s, AdvanceToNextStage(s), "stage_index %d", idx)
		})
	}
}

func TestStageTables(t *testing.T) {
	seen := map[string]bool{}
	rounds := []int{}
	for _, st := range Stages() {
		ids := StagePersonas(st)
		assert.Len(t, ids, 4)
		for _, id := range ids {
			assert.False(t, seen[id], "persona %s on two stages", id)
			seen[id] = true
		}
		rounds = append(rounds, StageRounds(st))
	}
	assert.Len(t, seen, 16)
	assert.Equal(t, []int{2, 3, 2, 3}, rounds)
	assert.Equal(t, "stage_2", StageChallenge.GateKey())
	_, ok := StageExecute.Next()
	assert.False(t, ok)
}
