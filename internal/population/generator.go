package population

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/persona"
)

// LLMGenerator drafts sections with the completion service.
type LLMGenerator struct {
	Completer   llm.Completer
	MaxTokens   int
	Temperature float64
}

var sectionShapes = map[persona.Section]string{
	persona.SectionPurpose:     `{"purpose": {"description": string, "invoke_when": [string], "do_not_invoke_when": [string]}}`,
	persona.SectionPanelRole:   `{"panel_role": {"contribution": string, "expected_value": string, "failure_modes_surfaced": [string]}}`,
	persona.SectionRubric:      `{"rubric": {"<dimension>": {"score": 1-10, "note": string of at least 10 characters}}} for risk_appetite, evidence_threshold, tolerance_for_ambiguity, intervention_frequency, escalation_bias, delivery_vs_rigour_bias`,
	persona.SectionReasoning:   `{"reasoning": {"default_assumptions": [string], "systematically_questions": [string], "tendencies": [string]}}`,
	persona.SectionInteraction: `{"interaction": {"primary_mode": "questions_only"|"mixed"|"assertions", "challenge_strength": "gentle"|"moderate"|"strong"|"forceful", "tone": string}}`,
	persona.SectionBoundaries:  `{"boundaries": {"will_not_engage": [string], "will_not_claim": [string], "defers_by_design": [string]}}`,
	persona.SectionOptional:    `{"invocation_cues": [string], "communication_style": {"register": string, "verbosity": string, "signatures": [string]}}`,
}

// Generate implements SectionGenerator.
func (g LLMGenerator) Generate(ctx context.Context, req GenerationRequest) (Payload, error) {
	shape, ok := sectionShapes[req.Section]
	if !ok {
		return nil, fmt.Errorf("unknown section %q", req.Section)
	}
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	system := fmt.Sprintf("You draft the %s section of a panel persona definition. Return only JSON of the form %s.", req.Section, shape)
	validate := func(data []byte) (Payload, error) {
		return DecodePayload(req.Section, data)
	}
	return llm.CompleteStructured(ctx, g.Completer, llm.UserPrompt(system, generationPrompt(req), maxTokens, g.Temperature), validate)
}

func generationPrompt(req GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Persona: %s\n", req.Persona.DisplayName())
	if req.Discovery.Purpose != "" {
		fmt.Fprintf(&b, "Established purpose: %s\n", req.Discovery.Purpose)
	}
	if draft, err := json.Marshal(req.Persona); err == nil {
		fmt.Fprintf(&b, "\nSections drafted so far:\n%s\n", draft)
	}

	switch req.Mode {
	case ModeInfer:
		b.WriteString("\nInfer this section from these interview signals:\n")
		for _, s := range req.Decision.SupportingSignals {
			fmt.Fprintf(&b, "- %s (%s): %s\n", s.Signal, s.Confidence, s.Value)
		}
	default:
		fmt.Fprintf(&b, "\nThe operator was asked: %s\nThey answered: %s\n", Question(req.Section), req.Answer)
	}
	return b.String()
}
