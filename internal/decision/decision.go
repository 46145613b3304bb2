// Package decision is the four-stage Decision Engine state machine.
//
// Every operation takes a State and returns a new State; nothing here does
// I/O, returns an error, or panics. Gate failures and kills are outcomes
// recorded on the state, not errors. Status is monotone: once a pipeline
// leaves active it never returns.
package decision

import (
	"strconv"
	"time"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
)

// Stage is one of the four decision stages.
type Stage string

const (
	StagePropose   Stage = "propose"
	StageChallenge Stage = "challenge"
	StagePrototype Stage = "prototype"
	StageExecute   Stage = "execute"
)

// Stages returns the fixed stage order.
func Stages() []Stage {
	return []Stage{StagePropose, StageChallenge, StagePrototype, StageExecute}
}

// Index returns the stage's position in the fixed order, or -1.
func (s Stage) Index() int {
	for i, st := range Stages() {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage, or false for execute.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(Stages()) {
		return "", false
	}
	return Stages()[i+1], true
}

// GateKey is the gate label used in audit text, e.g. "stage_1".
func (s Stage) GateKey() string {
	return "stage_" + strconv.Itoa(s.Index()+1)
}

// Status is the overall pipeline status.
type Status string

const (
	StatusActive   Status = "active"
	StatusPassed   Status = "passed"
	StatusDeferred Status = "deferred"
	StatusKilled   Status = "killed"
)

// Outcome is a gate's decision.
type Outcome string

const (
	Proceed Outcome = "proceed"
	Defer   Outcome = "defer"
	Kill    Outcome = "kill"
)

// Audit actions.
const (
	ActionStageRecorded = "stage_recorded"
	ActionGateFailed    = "gate_failed"
	ActionAdvanced      = "advanced"
	ActionCompleted     = "completed"
	ActionKilled        = "killed"
)

// GateResult is the immutable verdict on one stage artefact.
type GateResult struct {
	Stage    Stage    `json:"stage" yaml:"stage"`
	Passed   bool     `json:"passed" yaml:"passed"`
	Failures []string `json:"failures" yaml:"failures"`
	Decision Outcome  `json:"decision" yaml:"decision"`
}

// Artefacts holds the artefact slot for each stage. A slot is set at most once.
type Artefacts struct {
	Brief     *artefact.OpportunityBrief `json:"opportunity_brief,omitempty" yaml:"opportunity_brief,omitempty"`
	Challenge *artefact.ChallengeReport  `json:"challenge_report,omitempty" yaml:"challenge_report,omitempty"`
	Prototype *artefact.PrototypeSpec    `json:"prototype_spec,omitempty" yaml:"prototype_spec,omitempty"`
	Delivery  *artefact.DeliveryPlan     `json:"delivery_plan,omitempty" yaml:"delivery_plan,omitempty"`
}

// For returns the artefact recorded for stage, or nil.
func (a Artefacts) For(stage Stage) artefact.Artefact {
	switch stage {
	case StagePropose:
		if a.Brief != nil {
			return *a.Brief
		}
	case StageChallenge:
		if a.Challenge != nil {
			return *a.Challenge
		}
	case StagePrototype:
		if a.Prototype != nil {
			return *a.Prototype
		}
	case StageExecute:
		if a.Delivery != nil {
			return *a.Delivery
		}
	}
	return nil
}

// AuditEntry is one append-only audit record.
type AuditEntry struct {
	Seq            int       `json:"seq" yaml:"seq"`
	Stage          Stage     `json:"stage" yaml:"stage"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Action         string    `json:"action" yaml:"action"`
	Detail         string    `json:"detail" yaml:"detail"`
	Transcript     string    `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	ArtefactDigest string    `json:"artefact_digest,omitempty" yaml:"artefact_digest,omitempty"`
}

// State is a decision pipeline instance.
type State struct {
	ID           string         `json:"id" yaml:"id"`
	Title        string         `json:"title" yaml:"title"`
	CurrentStage Stage          `json:"current_stage" yaml:"current_stage"`
	StageIndex   int            `json:"stage_index" yaml:"stage_index"`
	Artefacts    Artefacts      `json:"artefacts" yaml:"artefacts"`
	Gates        [4]*GateResult `json:"gates" yaml:"gates"`
	Status       Status         `json:"status" yaml:"status"`
	KillReason   string         `json:"kill_reason,omitempty" yaml:"kill_reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	Audit        []AuditEntry   `json:"audit" yaml:"audit"`
}

// Option configures New.
type Option func(*State)

// WithTitle sets the opportunity title.
func WithTitle(title string) Option {
	return func(s *State) { s.Title = title }
}

// CreatedAt sets the creation time.
func CreatedAt(t time.Time) Option {
	return func(s *State) { s.CreatedAt = t }
}

// New returns an active pipeline at the propose stage.
func New(id string, opts ...Option) State {
	s := State{
		ID:           id,
		CurrentStage: StagePropose,
		StageIndex:   0,
		Status:       StatusActive,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// IsDone reports whether the pipeline has left the active status.
func IsDone(s State) bool {
	return s.Status != StatusActive
}

// Gate returns the gate result for stage, or nil.
func (s State) Gate(stage Stage) *GateResult {
	i := stage.Index()
	if i < 0 {
		return nil
	}
	return s.Gates[i]
}

// KindFor is the artefact kind each stage produces.
func KindFor(stage Stage) artefact.Kind {
	switch stage {
	case StagePropose:
		return artefact.KindOpportunityBrief
	case StageChallenge:
		return artefact.KindChallengeReport
	case StagePrototype:
		return artefact.KindPrototypeSpec
	case StageExecute:
		return artefact.KindDeliveryPlan
	}
	return ""
}

var stagePersonas = map[Stage][]string{
	StagePropose:   {"problem_framer", "societal_impact_advocate", "market_analyst", "opportunity_scout"},
	StageChallenge: {artefact.EthicalBoundaryGuardian, artefact.ScepticalInvestor, "red_team_strategist", "regulatory_analyst"},
	StagePrototype: {"product_designer", "technical_architect", "user_researcher", "experiment_designer"},
	StageExecute:   {"delivery_realist", "risk_sentinel", "market_entry_strategist", "operations_scaler"},
}

// StagePersonas returns the four persona ids that sit on stage's panel.
func StagePersonas(stage Stage) []string {
	return append([]string(nil), stagePersonas[stage]...)
}

// StageRounds is the number of panel rounds for stage.
func StageRounds(stage Stage) int {
	switch stage {
	case StageChallenge, StageExecute:
		return 3
	case StagePropose, StagePrototype:
		return 2
	}
	return 0
}
