package engine

import (
	"fmt"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
	"github.com/victorycross/persona-x-sub000/internal/canon"
	"github.com/victorycross/persona-x-sub000/internal/decision"
)

var stageFraming = map[decision.Stage]string{
	decision.StagePropose: "Stage 1 of 4: Propose. Frame the problem, who it hurts and who would benefit. " +
		"Score problem severity, societal benefit, market viability, persona-x fit, defensibility and execution complexity.",
	decision.StageChallenge: "Stage 2 of 4: Challenge. Attack the opportunity brief. Name risks with a severity, " +
		"say which are unresolved, and state a final pass, conditional or fail position.",
	decision.StagePrototype: "Stage 3 of 4: Prototype. Design the smallest experiment that tests the riskiest assumptions. " +
		"Agree the core features, success metrics and a timebox.",
	decision.StageExecute: "Stage 4 of 4: Execute. Plan the launch. Each of you states whether your area is ready, " +
		"conditionally ready or not ready, and why.",
}

// shapes lists the fields each artefact must carry.
var shapes = map[artefact.Kind]string{
	artefact.KindOpportunityBrief: `{"title", "summary", "problem_statement", "target_users", "proposed_solution",
 "dimension_scores": {"problem_severity"|"societal_benefit"|"market_viability"|"persona_x_fit"|"defensibility"|"execution_complexity": {"score": 1-10, "rationale"}},
 "composite_score", "key_assumptions": [string], "recommendation"?}`,
	artefact.KindChallengeReport: `{"title", "summary",
 "risks": [{"id"?, "description", "category"?, "severity": "low"|"medium"|"high"|"critical", "status": "unresolved"|"mitigated"|"accepted", "mitigation"?, "raised_by"?}],
 "final_positions": {"ethical_boundary_guardian"|"sceptical_investor"|<persona id>: {"position": "pass"|"conditional"|"fail", "rationale"}},
 "open_questions"?: [string]}`,
	artefact.KindPrototypeSpec: `{"title", "summary", "hypothesis",
 "core_features": [{"name", "description", "priority": "must"|"should"|"could"}],
 "success_metrics": [{"metric", "target"}], "assumptions_to_test": [string], "out_of_scope"?: [string], "timebox_weeks": integer}`,
	artefact.KindDeliveryPlan: `{"title", "summary", "milestones": [{"name", "description", "target_week": integer}],
 "readiness": {"delivery_realist"|"risk_sentinel"|"market_entry_strategist"|"operations_scaler": {"status": "ready"|"conditional"|"not_ready", "rationale"}},
 "launch_criteria": [string], "accepted_risks"?: [string]}`,
}

func synthesisSystemPrompt(kind artefact.Kind) string {
	return fmt.Sprintf("You turn a panel discussion into a %s JSON document. "+
		"Use only what the panel said. Reply with one JSON object of this shape and nothing else:\n%s",
		kind, shapes[kind])
}

func synthesisPrompt(transcript string) string {
	return "Panel transcript:\n\n" + transcript + "\n\nReturn the JSON document."
}

// stageTopic is the opportunity title for propose and the previous
// stage's artefact heading afterwards.
func stageTopic(s decision.State, in Input) string {
	if s.StageIndex > 0 {
		prev := decision.Stages()[s.StageIndex-1]
		if a := s.Artefacts.For(prev); a != nil && a.Heading() != "" {
			return a.Heading()
		}
	}
	if in.Title != "" {
		return in.Title
	}
	return s.Title
}

// stageContext combines the stage framing, the opportunity and every
// artefact recorded so far.
func stageContext(s decision.State, in Input) string {
	var b strings.Builder
	b.WriteString(stageFraming[s.CurrentStage])
	if in.Description != "" {
		fmt.Fprintf(&b, "\n\nOpportunity:\n%s", in.Description)
	}
	if in.Context != "" {
		fmt.Fprintf(&b, "\n\nBackground:\n%s", in.Context)
	}
	for _, stage := range decision.Stages()[:s.StageIndex] {
		a := s.Artefacts.For(stage)
		if a == nil {
			continue
		}
		data, err := canon.Marshal(a)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n\n%s:\n%s", a.Kind(), data)
	}
	return b.String()
}
