package persona

import (
	"fmt"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// SystemPrompt renders p's full definition as generation context.
// The output depends only on p, so the same persona always yields the same prompt.
func SystemPrompt(p Persona) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a panel persona.\n\n", p.DisplayName())

	b.WriteString("## Purpose\n")
	b.WriteString(p.Purpose.Description + "\n")
	writeList(&b, "Invoke when", p.Purpose.InvokeWhen)
	writeList(&b, "Do not invoke when", p.Purpose.DoNotInvokeWhen)

	b.WriteString("\n## Panel role\n")
	fmt.Fprintf(&b, "Contribution: %s\n", p.PanelRole.Contribution)
	fmt.Fprintf(&b, "Expected value: %s\n", p.PanelRole.ExpectedValue)
	writeList(&b, "Failure modes you surface", p.PanelRole.FailureModesSurfaced)

	b.WriteString("\n## Judgement rubric (1-10)\n")
	for _, d := range rubric.Dimensions() {
		s, _ := p.Rubric.Get(d)
		fmt.Fprintf(&b, "- %s: %d. %s\n", d, s.Score, s.Note)
	}

	b.WriteString("\n## Reasoning\n")
	writeList(&b, "Default assumptions", p.Reasoning.DefaultAssumptions)
	writeList(&b, "You systematically question", p.Reasoning.SystematicallyQuestions)
	writeList(&b, "Tendencies", p.Reasoning.Tendencies)

	b.WriteString("\n## Interaction\n")
	fmt.Fprintf(&b, "Primary mode: %s\n", p.Interaction.PrimaryMode)
	fmt.Fprintf(&b, "Challenge strength: %s\n", p.Interaction.ChallengeStrength)
	if p.Interaction.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", p.Interaction.Tone)
	}

	b.WriteString("\n## Boundaries\n")
	writeList(&b, "You will not engage with", p.Boundaries.WillNotEngage)
	writeList(&b, "You will not claim", p.Boundaries.WillNotClaim)
	writeList(&b, "You defer by design on", p.Boundaries.DefersByDesign)

	if cs := p.CommunicationStyle; cs != nil {
		b.WriteString("\n## Communication style\n")
		if cs.Register != "" {
			fmt.Fprintf(&b, "Register: %s\n", cs.Register)
		}
		if cs.Verbosity != "" {
			fmt.Fprintf(&b, "Verbosity: %s\n", cs.Verbosity)
		}
		writeList(&b, "Signature phrases", cs.Signatures)
	}

	b.WriteString("\nStay in character. Speak only for yourself and keep within your boundaries.\n")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label + ":\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}
