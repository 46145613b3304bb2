package discovery

import "slices"

// Question is one entry in the question bank.
type Question struct {
	ID      string
	Text    string
	Targets []PrioritySignal
}

// Question ids with special handling.
const (
	PurposeQuestionID  = "purpose"
	FallbackQuestionID = "open_scenario"
)

// PurposeQuestion establishes what the persona is for.
var PurposeQuestion = Question{
	ID:   PurposeQuestionID,
	Text: "What should this persona help a panel do, and in which situations should it be called in?",
}

// FallbackQuestion is asked when no bank question targets a missing signal.
var FallbackQuestion = Question{
	ID:      FallbackQuestionID,
	Text:    "Walk me through a recent situation where this persona's judgement would have changed the outcome. What did they notice, and what did they say?",
	Targets: PrioritySignals(),
}

// Bank is an ordered set of targeted questions.
type Bank []Question

// DefaultBank returns the built-in question bank.
func DefaultBank() Bank {
	return Bank{
		{
			ID:      "risk_tradeoff",
			Text:    "When a promising idea carries real downside, how should this persona weigh moving quickly against waiting for more certainty?",
			Targets: []PrioritySignal{RiskPosture, EvidenceStandards},
		},
		{
			ID:      "evidence_bar",
			Text:    "What would this persona need to see before accepting a claim as true enough to act on?",
			Targets: []PrioritySignal{EvidenceStandards},
		},
		{
			ID:      "discomfort",
			Text:    "What kinds of proposals or behaviour should make this persona uneasy enough to speak up?",
			Targets: []PrioritySignal{DiscomfortTriggers},
		},
		{
			ID:      "deferral",
			Text:    "Which questions should this persona hand to someone else rather than answer itself?",
			Targets: []PrioritySignal{DeferralPreferences, DiscomfortTriggers},
		},
		{
			ID:      "register",
			Text:    "How should this persona sound in a discussion: blunt, measured, Socratic, something else?",
			Targets: []PrioritySignal{CommunicationRegister},
		},
	}
}

// Next returns the purpose question until a purpose is set, then the first
// unasked question targeting a missing signal, else FallbackQuestion.
func (b Bank) Next(s State) Question {
	if s.Purpose == "" && !slices.Contains(s.AskedQuestions, PurposeQuestionID) {
		return PurposeQuestion
	}
	if q, ok := b.nextTargeted(s); ok {
		return q
	}
	return FallbackQuestion
}

func (b Bank) nextTargeted(s State) (Question, bool) {
	missing := GetMissingSignals(s)
	for _, q := range b {
		if slices.Contains(s.AskedQuestions, q.ID) {
			continue
		}
		for _, t := range q.Targets {
			if slices.Contains(missing, t) {
				return q, true
			}
		}
	}
	return Question{}, false
}

// RecordAnswer appends the answer's signals, records the question as asked
// and recomputes the phase. A completed state is returned unchanged.
func (b Bank) RecordAnswer(s State, questionID, purpose string, signals []ExtractedSignal) State {
	if s.Phase == PhaseComplete {
		return s
	}
	out := s.clone()
	out.AskedQuestions = append(out.AskedQuestions, questionID)
	if purpose != "" {
		out.Purpose = purpose
	}
	for _, sig := range signals {
		if sig.SourceQuestionID == "" {
			sig.SourceQuestionID = questionID
		}
		out.Signals = append(out.Signals, sig)
	}

	out.Phase = PhaseGathering
	if HasSignalSufficiency(out) {
		out.Phase = PhaseSufficient
	} else if out.Purpose != "" && len(out.AskedQuestions) >= minQuestionsBeforeFallback {
		if _, ok := b.nextTargeted(out); !ok {
			out.Phase = PhaseSufficient
		}
	}
	return out
}
