// Package discovery accumulates behavioural signals about a persona-to-be
// from a short question and answer exchange, and decides when enough has
// been learned to start population.
//
// State is a value. RecordAnswer and Complete return new states and never
// modify their argument.
package discovery

import "slices"

// PrioritySignal is one of the five behavioural dimensions discovery probes.
type PrioritySignal string

const (
	RiskPosture           PrioritySignal = "risk_posture"
	EvidenceStandards     PrioritySignal = "evidence_standards"
	DiscomfortTriggers    PrioritySignal = "discomfort_triggers"
	DeferralPreferences   PrioritySignal = "deferral_preferences"
	CommunicationRegister PrioritySignal = "communication_register"
)

// PrioritySignals returns the five signals in canonical order.
func PrioritySignals() []PrioritySignal {
	return []PrioritySignal{
		RiskPosture,
		EvidenceStandards,
		DiscomfortTriggers,
		DeferralPreferences,
		CommunicationRegister,
	}
}

// Confidence grades how clearly an answer expressed a signal.
type Confidence string

const (
	High   Confidence = "high"
	Medium Confidence = "medium"
	Low    Confidence = "low"
)

func (c Confidence) rank() int {
	switch c {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	}
	return 0
}

// AtLeast reports whether c is as strong as other.
func (c Confidence) AtLeast(other Confidence) bool {
	return c.rank() >= other.rank()
}

// ExtractedSignal is one observation drawn from an answer.
type ExtractedSignal struct {
	Signal           PrioritySignal `json:"signal" yaml:"signal"`
	Value            string         `json:"value" yaml:"value"`
	Confidence       Confidence     `json:"confidence" yaml:"confidence"`
	SourceQuestionID string         `json:"source_question_id" yaml:"source_question_id"`
}

// Phase is the discovery lifecycle position.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseGathering  Phase = "gathering"
	PhaseSufficient Phase = "sufficient"
	PhaseComplete   Phase = "complete"
)

// MinCoveredSignals is how many signals must reach medium confidence.
const MinCoveredSignals = 3

// minQuestionsBeforeFallback bounds discovery when the bank runs dry.
const minQuestionsBeforeFallback = 3

// State is the accumulated discovery record.
type State struct {
	Phase          Phase             `json:"phase" yaml:"phase"`
	Purpose        string            `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	Signals        []ExtractedSignal `json:"signals" yaml:"signals"`
	AskedQuestions []string          `json:"asked_questions" yaml:"asked_questions"`
}

// NewState returns an empty, not-started state.
func NewState() State {
	return State{Phase: PhaseNotStarted}
}

// BestConfidence returns the strongest confidence seen per signal.
// A later weaker observation never lowers an entry.
func BestConfidence(s State) map[PrioritySignal]Confidence {
	best := make(map[PrioritySignal]Confidence)
	for _, sig := range s.Signals {
		if sig.Confidence.rank() > best[sig.Signal].rank() {
			best[sig.Signal] = sig.Confidence
		}
	}
	return best
}

// HasSignalSufficiency holds when the purpose is set and at least three
// distinct signals have medium or high confidence.
func HasSignalSufficiency(s State) bool {
	if s.Purpose == "" {
		return false
	}
	covered := 0
	for _, c := range BestConfidence(s) {
		if c.AtLeast(Medium) {
			covered++
		}
	}
	return covered >= MinCoveredSignals
}

// GetMissingSignals lists, in canonical order, the signals whose best
// confidence is low or absent.
func GetMissingSignals(s State) []PrioritySignal {
	best := BestConfidence(s)
	var missing []PrioritySignal
	for _, sig := range PrioritySignals() {
		if !best[sig].AtLeast(Medium) {
			missing = append(missing, sig)
		}
	}
	return missing
}

// RecordAnswer folds one answered question into the state using the
// default bank.
func RecordAnswer(s State, questionID, purpose string, signals []ExtractedSignal) State {
	return DefaultBank().RecordAnswer(s, questionID, purpose, signals)
}

// NextQuestion picks the next question from the default bank.
func NextQuestion(s State) Question {
	return DefaultBank().Next(s)
}

// Complete marks discovery finished.
func Complete(s State) State {
	out := s.clone()
	out.Phase = PhaseComplete
	return out
}

func (s State) clone() State {
	out := s
	out.Signals = slices.Clone(s.Signals)
	out.AskedQuestions = slices.Clone(s.AskedQuestions)
	return out
}
