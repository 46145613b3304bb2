package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
)

// Gate thresholds.
const (
	MinComposite       = 7.0
	MinSocietalBenefit = 5
	MinPersonaXFit     = 6
	// Any dimension at or below this floor fails the propose gate.
	DimensionFloor = 2

	// Kill floors, checked across stages.
	KillSocietalBenefit = 2
	KillPersonaXFit     = 3
)

func gate(stage Stage, failures []string, onFail Outcome) GateResult {
	if len(failures) == 0 {
		return GateResult{Stage: stage, Passed: true, Failures: []string{}, Decision: Proceed}
	}
	return GateResult{Stage: stage, Passed: false, Failures: failures, Decision: onFail}
}

// CheckStage1Gate evaluates an opportunity brief.
func CheckStage1Gate(b artefact.OpportunityBrief) GateResult {
	var failures []string
	d := b.DimensionScores

	// Composites from CalculateCompositeScore are exact tenths, so 7.0 compares
	// exactly and anything short of it, 6.99 included, fails.
	if b.CompositeScore < MinComposite {
		failures = append(failures, fmt.Sprintf("Composite score %s is below the %.1f threshold", formatComposite(b.CompositeScore), MinComposite))
	}
	if d.SocietalBenefit.Score < MinSocietalBenefit {
		failures = append(failures, fmt.Sprintf(
			"Societal benefit score %d is below the minimum of %d: extractive solutions are not permitted",
			d.SocietalBenefit.Score, MinSocietalBenefit))
	}
	if d.PersonaXFit.Score < MinPersonaXFit {
		failures = append(failures, fmt.Sprintf("Persona-x fit score %d is below the minimum of %d", d.PersonaXFit.Score, MinPersonaXFit))
	}
	for _, ns := range d.Named() {
		if ns.Score <= DimensionFloor {
			failures = append(failures, fmt.Sprintf(
				"%s (%s) score %d is at or below %d and needs explicit justification",
				ns.Label, ns.Key, ns.Score, DimensionFloor))
		}
	}
	return gate(StagePropose, failures, Defer)
}

// formatComposite prints at least one decimal and never rounds a near miss
// such as 6.95 up to the threshold.
func formatComposite(c float64) string {
	out := strconv.FormatFloat(c, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

// CheckStage2Gate evaluates a challenge report. An Ethical Boundary
// Guardian fail is the only condition that kills here.
func CheckStage2Gate(r artefact.ChallengeReport) GateResult {
	var failures []string
	for _, risk := range r.Risks {
		if risk.Severity == artefact.SeverityCritical && risk.Status == artefact.RiskUnresolved {
			failures = append(failures, "Unresolved critical risk: "+risk.Description)
		}
	}
	onFail := Defer
	if r.PositionOf(artefact.EthicalBoundaryGuardian) == artefact.PositionFail {
		failures = append(failures, "Ethical Boundary Guardian final position is fail")
		onFail = Kill
	}
	if r.PositionOf(artefact.ScepticalInvestor) == artefact.PositionFail {
		failures = append(failures, "Sceptical Investor final position is fail")
	}
	return gate(StageChallenge, failures, onFail)
}

// CheckStage3Gate always passes. The prototype stage has no quantified
// criteria.
func CheckStage3Gate(artefact.PrototypeSpec) GateResult {
	return gate(StagePrototype, nil, Defer)
}

// CheckStage4Gate defers when any readiness role reports not_ready.
func CheckStage4Gate(p artefact.DeliveryPlan) GateResult {
	var failures []string
	for _, rr := range p.Readiness.Roles() {
		if rr.Readiness.Status == artefact.NotReady {
			failures = append(failures, fmt.Sprintf("%s reports not_ready: %s", rr.Role, rr.Readiness.Rationale))
		}
	}
	return gate(StageExecute, failures, Defer)
}

// CheckGate dispatches on the artefact's kind. ok is false for an
// artefact that does not belong to stage.
func CheckGate(stage Stage, a artefact.Artefact) (GateResult, bool) {
	switch v := deref(a).(type) {
	case artefact.OpportunityBrief:
		return CheckStage1Gate(v), stage == StagePropose
	case artefact.ChallengeReport:
		return CheckStage2Gate(v), stage == StageChallenge
	case artefact.PrototypeSpec:
		return CheckStage3Gate(v), stage == StagePrototype
	case artefact.DeliveryPlan:
		return CheckStage4Gate(v), stage == StageExecute
	}
	return GateResult{}, false
}

// deref accepts artefacts passed by pointer.
func deref(a artefact.Artefact) artefact.Artefact {
	switch v := a.(type) {
	case *artefact.OpportunityBrief:
		if v != nil {
			return *v
		}
	case *artefact.ChallengeReport:
		if v != nil {
			return *v
		}
	case *artefact.PrototypeSpec:
		if v != nil {
			return *v
		}
	case *artefact.DeliveryPlan:
		if v != nil {
			return *v
		}
	default:
		return a
	}
	return nil
}
