package testutil

import (
	"encoding/json"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
)

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Brief builds an opportunity brief from six dimension scores in
// problem_severity, societal_benefit, market_viability, persona_x_fit,
// defensibility, execution_complexity order.
func Brief(scores ...int) artefact.OpportunityBrief {
	if len(scores) != 6 {
		panic("testutil.Brief needs six scores")
	}
	ds := func(i int) artefact.DimensionScore {
		return artefact.DimensionScore{Score: scores[i], Rationale: "panel consensus"}
	}
	return artefact.OpportunityBrief{
		Title:            "Community repair cafe network",
		Summary:          "Volunteer-run repair cafes with shared booking.",
		ProblemStatement: "Repairable goods are discarded.",
		TargetUsers:      "Households and local volunteers",
		ProposedSolution: "A booking and parts-sharing platform",
		DimensionScores: artefact.DimensionScores{
			ProblemSeverity:     ds(0),
			SocietalBenefit:     ds(1),
			MarketViability:     ds(2),
			PersonaXFit:         ds(3),
			Defensibility:       ds(4),
			ExecutionComplexity: ds(5),
		},
		// Deliberately wrong; validators recompute it.
		CompositeScore: 9.9,
		KeyAssumptions: []string{"Volunteers stay engaged"},
	}
}

// BriefJSON is Brief rendered as a completion reply.
func BriefJSON(scores ...int) string {
	return mustJSON(Brief(scores...))
}

// PassingBriefJSON clears every propose gate floor (composite 7.5).
func PassingBriefJSON() string {
	return BriefJSON(8, 8, 7, 8, 7, 6)
}

// ChallengeJSON builds a challenge report with the two gate positions.
func ChallengeJSON(ebg, investor artefact.Position, risks ...artefact.Risk) string {
	if risks == nil {
		risks = []artefact.Risk{}
	}
	return mustJSON(artefact.ChallengeReport{
		Title:   "Repair cafe challenge review",
		Summary: "Risks and positions from the challenge panel.",
		Risks:   risks,
		FinalPositions: map[string]artefact.FinalPosition{
			artefact.EthicalBoundaryGuardian: {Position: ebg, Rationale: "ethics reviewed"},
			artefact.ScepticalInvestor:       {Position: investor, Rationale: "economics reviewed"},
		},
	})
}

// PrototypeJSON is a valid prototype spec.
func PrototypeJSON() string {
	return mustJSON(artefact.PrototypeSpec{
		Title:             "Repair cafe pilot",
		Summary:           "Six week pilot in two neighbourhoods.",
		Hypothesis:        "Booking raises repair throughput",
		CoreFeatures:      []artefact.Feature{{Name: "Booking", Description: "Reserve a repair slot", Priority: "must"}},
		SuccessMetrics:    []artefact.SuccessMetric{{Metric: "Repairs per week", Target: "40"}},
		AssumptionsToTest: []string{"Residents will book ahead"},
		TimeboxWeeks:      6,
	})
}

// DeliveryJSON builds a delivery plan with readiness statuses for
// delivery_realist, risk_sentinel, market_entry_strategist and
// operations_scaler, in that order.
func DeliveryJSON(statuses ...artefact.ReadinessStatus) string {
	if len(statuses) != 4 {
		panic("testutil.DeliveryJSON needs four statuses")
	}
	r := func(i int) artefact.Readiness { return artefact.Readiness{Status: statuses[i], Rationale: "assessed"} }
	return mustJSON(artefact.DeliveryPlan{
		Title:      "Repair cafe launch",
		Summary:    "City-wide rollout plan.",
		Milestones: []artefact.Milestone{{Name: "Pilot review", Description: "Go or no-go", TargetWeek: 8}},
		Readiness: artefact.ReadinessAssessments{
			DeliveryRealist:       r(0),
			RiskSentinel:          r(1),
			MarketEntryStrategist: r(2),
			OperationsScaler:      r(3),
		},
		LaunchCriteria: []string{"Ten active cafes"},
	})
}

// OnArtefact scripts the synthesis reply for an artefact kind.
func (s *Scripted) OnArtefact(kind artefact.Kind, reply ...string) *Scripted {
	return s.OnSystem(string(kind), reply...)
}
