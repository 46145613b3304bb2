package decision

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
)

type entryConfig struct {
	at         time.Time
	transcript string
}

// EntryOption sets optional fields on the audit entry an operation appends.
type EntryOption func(*entryConfig)

// At stamps the entry with t.
func At(t time.Time) EntryOption {
	return func(c *entryConfig) { c.at = t }
}

// WithTranscript attaches the panel transcript to the entry.
func WithTranscript(transcript string) EntryOption {
	return func(c *entryConfig) { c.transcript = transcript }
}

func (s State) appendEntry(stage Stage, action, detail, digest string, opts []EntryOption) State {
	var cfg entryConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	// Clip so the new entry never lands in a backing array shared with s.
	s.Audit = append(slices.Clip(s.Audit), AuditEntry{
		Seq:            len(s.Audit) + 1,
		Stage:          stage,
		Timestamp:      cfg.at,
		Action:         action,
		Detail:         detail,
		Transcript:     cfg.transcript,
		ArtefactDigest: digest,
	})
	return s
}

// RecordStageResult stores a for stage, evaluates the stage gate and appends
// one audit entry. The call is ignored, returning s unchanged, when the
// pipeline is not active, stage is not the current stage, the artefact kind
// does not match, or the slot is already filled.
func RecordStageResult(s State, stage Stage, a artefact.Artefact, opts ...EntryOption) State {
	if s.Status != StatusActive || stage != s.CurrentStage {
		return s
	}
	a = deref(a)
	if a == nil || s.Artefacts.For(stage) != nil {
		return s
	}
	result, ok := CheckGate(stage, a)
	if !ok {
		return s
	}

	out := s
	switch v := a.(type) {
	case artefact.OpportunityBrief:
		out.Artefacts.Brief = &v
		if out.Title == "" {
			out.Title = v.Title
		}
	case artefact.ChallengeReport:
		out.Artefacts.Challenge = &v
	case artefact.PrototypeSpec:
		out.Artefacts.Prototype = &v
	case artefact.DeliveryPlan:
		out.Artefacts.Delivery = &v
	}
	out.Gates[stage.Index()] = &result

	// A digest failure leaves the field empty; it never blocks recording.
	digest, _ := artefact.Digest(a)
	action := ActionStageRecorded
	detail := fmt.Sprintf("%s gate passed: %s", stage.GateKey(), result.Decision)
	if !result.Passed {
		action = ActionGateFailed
		detail = fmt.Sprintf("%s gate failed (%s): %s", stage.GateKey(), result.Decision, strings.Join(result.Failures, "; "))
	}
	return out.appendEntry(stage, action, detail, digest, opts)
}

// AdvanceToNextStage applies the current stage's gate. A failed gate sets
// status to killed or deferred without moving the stage. A passed gate moves
// to the next stage, or sets passed after execute. Without a recorded gate,
// with a stage index outside the four stages, or once the pipeline is done,
// s is returned unchanged.
func AdvanceToNextStage(s State, opts ...EntryOption) State {
	if s.Status != StatusActive || s.StageIndex < 0 || s.StageIndex >= len(s.Gates) {
		return s
	}
	g := s.Gates[s.StageIndex]
	if g == nil {
		return s
	}

	out := s
	if !g.Passed {
		if g.Decision == Kill {
			out.Status = StatusKilled
			out.KillReason = strings.Join(g.Failures, "; ")
		} else {
			out.Status = StatusDeferred
		}
		return out
	}

	next, ok := s.CurrentStage.Next()
	if !ok {
		out.Status = StatusPassed
		return out.appendEntry(s.CurrentStage, ActionCompleted, "All four gates passed", "", opts)
	}
	out.CurrentStage = next
	out.StageIndex = next.Index()
	return out.appendEntry(s.CurrentStage, ActionAdvanced, fmt.Sprintf("Advanced from %s to %s", s.CurrentStage, next), "", opts)
}

// ForceKill sets status to killed with reason and appends a killed entry.
// An already killed pipeline is returned unchanged.
func ForceKill(s State, reason string, opts ...EntryOption) State {
	if s.Status == StatusKilled {
		return s
	}
	out := s
	out.Status = StatusKilled
	out.KillReason = reason
	return out.appendEntry(s.CurrentStage, ActionKilled, reason, "", opts)
}

// CheckKillCriteria evaluates the cross-stage kill conditions against every
// artefact recorded so far.
func CheckKillCriteria(s State) (string, bool) {
	if r := s.Artefacts.Challenge; r != nil && r.PositionOf(artefact.EthicalBoundaryGuardian) == artefact.PositionFail {
		reason := "Ethical Boundary Guardian final position is fail"
		if why := r.FinalPositions[artefact.EthicalBoundaryGuardian].Rationale; why != "" {
			reason += ": " + why
		}
		return reason, true
	}
	if b := s.Artefacts.Brief; b != nil {
		if sb := b.DimensionScores.SocietalBenefit.Score; sb <= KillSocietalBenefit {
			return fmt.Sprintf("Societal benefit score %d is at or below %d: extractive solutions are not permitted", sb, KillSocietalBenefit), true
		}
		if fit := b.DimensionScores.PersonaXFit.Score; fit <= KillPersonaXFit {
			return fmt.Sprintf("Persona-x fit score %d is at or below %d: the opportunity is outside persona-x's remit", fit, KillPersonaXFit), true
		}
	}
	return "", false
}
