package persona

import (
	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// Section names one of the seven population sections.
type Section string

const (
	SectionPurpose     Section = "purpose"
	SectionPanelRole   Section = "panel_role"
	SectionRubric      Section = "rubric"
	SectionReasoning   Section = "reasoning"
	SectionInteraction Section = "interaction"
	SectionBoundaries  Section = "boundaries"
	SectionOptional    Section = "optional"
)

// Sections returns the fixed population order.
func Sections() []Section {
	return []Section{
		SectionPurpose,
		SectionPanelRole,
		SectionRubric,
		SectionReasoning,
		SectionInteraction,
		SectionBoundaries,
		SectionOptional,
	}
}

// RequiredSections is Sections without the optional tail.
func RequiredSections() []Section {
	return Sections()[:6]
}

// Purpose says what the persona is for and when to call on it.
type Purpose struct {
	Description     string   `json:"description" yaml:"description"`
	InvokeWhen      []string `json:"invoke_when" yaml:"invoke_when"`
	DoNotInvokeWhen []string `json:"do_not_invoke_when" yaml:"do_not_invoke_when"`
}

// PanelRole describes what the persona contributes to a panel.
type PanelRole struct {
	Contribution         string   `json:"contribution" yaml:"contribution"`
	ExpectedValue        string   `json:"expected_value" yaml:"expected_value"`
	FailureModesSurfaced []string `json:"failure_modes_surfaced" yaml:"failure_modes_surfaced"`
}

// Reasoning captures the persona's habitual lines of thought.
type Reasoning struct {
	DefaultAssumptions      []string `json:"default_assumptions" yaml:"default_assumptions"`
	SystematicallyQuestions []string `json:"systematically_questions" yaml:"systematically_questions"`
	Tendencies              []string `json:"tendencies,omitempty" yaml:"tendencies,omitempty"`
}

// Mode is how a persona primarily engages.
type Mode string

const (
	ModeQuestionsOnly Mode = "questions_only"
	ModeMixed         Mode = "mixed"
	ModeAssertions    Mode = "assertions"
)

// Strength is how hard a persona pushes back.
type Strength string

const (
	StrengthGentle   Strength = "gentle"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
	StrengthForceful Strength = "forceful"
)

// Interaction describes conversational posture.
type Interaction struct {
	PrimaryMode       Mode     `json:"primary_mode" yaml:"primary_mode"`
	ChallengeStrength Strength `json:"challenge_strength" yaml:"challenge_strength"`
	Tone              string   `json:"tone" yaml:"tone"`
}

// Boundaries lists what the persona refuses, disclaims or defers.
type Boundaries struct {
	WillNotEngage  []string `json:"will_not_engage" yaml:"will_not_engage"`
	WillNotClaim   []string `json:"will_not_claim" yaml:"will_not_claim"`
	DefersByDesign []string `json:"defers_by_design" yaml:"defers_by_design"`
}

// CommunicationStyle is optional voice guidance.
type CommunicationStyle struct {
	Register   string   `json:"register,omitempty" yaml:"register,omitempty"`
	Verbosity  string   `json:"verbosity,omitempty" yaml:"verbosity,omitempty"`
	Signatures []string `json:"signatures,omitempty" yaml:"signatures,omitempty"`
}

// HistoryEntry is one provenance note.
type HistoryEntry struct {
	Date   string `json:"date" yaml:"date"`
	Change string `json:"change" yaml:"change"`
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
}

// Persona is a complete persona definition.
type Persona struct {
	ID                 string              `json:"id" yaml:"id"`
	Name               string              `json:"name" yaml:"name"`
	Purpose            Purpose             `json:"purpose" yaml:"purpose"`
	PanelRole          PanelRole           `json:"panel_role" yaml:"panel_role"`
	Rubric             rubric.Profile      `json:"rubric" yaml:"rubric"`
	Reasoning          Reasoning           `json:"reasoning" yaml:"reasoning"`
	Interaction        Interaction         `json:"interaction" yaml:"interaction"`
	Boundaries         Boundaries          `json:"boundaries" yaml:"boundaries"`
	InvocationCues     []string            `json:"invocation_cues,omitempty" yaml:"invocation_cues,omitempty"`
	CommunicationStyle *CommunicationStyle `json:"communication_style,omitempty" yaml:"communication_style,omitempty"`
	History            []HistoryEntry      `json:"history,omitempty" yaml:"history,omitempty"`
}

// DisplayName returns Name, falling back to ID.
func (p Persona) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// InterventionFrequency is the score that drives speaking order.
func (p Persona) InterventionFrequency() int {
	return p.Rubric.InterventionFrequency.Score
}
