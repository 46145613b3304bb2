package population

import (
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// Payload is the content for exactly one section. The set of
// implementations is closed; each writes only its own slot.
type Payload interface {
	Section() persona.Section
	apply(p *persona.Persona)
}

// PurposePayload fills the purpose section.
type PurposePayload struct {
	Purpose persona.Purpose `json:"purpose"`
}

// PanelRolePayload fills the panel_role section.
type PanelRolePayload struct {
	PanelRole persona.PanelRole `json:"panel_role"`
}

// RubricPayload fills the rubric section.
type RubricPayload struct {
	Rubric rubric.Profile `json:"rubric"`
}

// ReasoningPayload fills the reasoning section.
type ReasoningPayload struct {
	Reasoning persona.Reasoning `json:"reasoning"`
}

// InteractionPayload fills the interaction section.
type InteractionPayload struct {
	Interaction persona.Interaction `json:"interaction"`
}

// BoundariesPayload fills the boundaries section.
type BoundariesPayload struct {
	Boundaries persona.Boundaries `json:"boundaries"`
}

// OptionalPayload fills invocation cues and communication style.
type OptionalPayload struct {
	InvocationCues     []string                    `json:"invocation_cues,omitempty"`
	CommunicationStyle *persona.CommunicationStyle `json:"communication_style,omitempty"`
}

func (PurposePayload) Section() persona.Section     { return persona.SectionPurpose }
func (PanelRolePayload) Section() persona.Section   { return persona.SectionPanelRole }
func (RubricPayload) Section() persona.Section      { return persona.SectionRubric }
func (ReasoningPayload) Section() persona.Section   { return persona.SectionReasoning }
func (InteractionPayload) Section() persona.Section { return persona.SectionInteraction }
func (BoundariesPayload) Section() persona.Section  { return persona.SectionBoundaries }
func (OptionalPayload) Section() persona.Section    { return persona.SectionOptional }

func (x PurposePayload) apply(p *persona.Persona)     { p.Purpose = x.Purpose }
func (x PanelRolePayload) apply(p *persona.Persona)   { p.PanelRole = x.PanelRole }
func (x RubricPayload) apply(p *persona.Persona)      { p.Rubric = x.Rubric }
func (x ReasoningPayload) apply(p *persona.Persona)   { p.Reasoning = x.Reasoning }
func (x InteractionPayload) apply(p *persona.Persona) { p.Interaction = x.Interaction }
func (x BoundariesPayload) apply(p *persona.Persona)  { p.Boundaries = x.Boundaries }

func (x OptionalPayload) apply(p *persona.Persona) {
	p.InvocationCues = x.InvocationCues
	p.CommunicationStyle = x.CommunicationStyle
}

// EmptyPayload returns the zero payload for section, or nil for an unknown
// section. Generators decode into it.
func EmptyPayload(section persona.Section) Payload {
	switch section {
	case persona.SectionPurpose:
		return &PurposePayload{}
	case persona.SectionPanelRole:
		return &PanelRolePayload{}
	case persona.SectionRubric:
		return &RubricPayload{}
	case persona.SectionReasoning:
		return &ReasoningPayload{}
	case persona.SectionInteraction:
		return &InteractionPayload{}
	case persona.SectionBoundaries:
		return &BoundariesPayload{}
	case persona.SectionOptional:
		return &OptionalPayload{}
	}
	return nil
}
