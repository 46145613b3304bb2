// Package inference decides, per persona section, whether discovery signals
// are strong and consistent enough to populate the section without asking.
package inference

import (
	"fmt"
	"slices"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/discovery"
	"github.com/victorycross/persona-x-sub000/internal/persona"
)

// Conflict records a signal that was observed with more than one value.
type Conflict struct {
	Signal discovery.PrioritySignal `json:"signal" yaml:"signal"`
	Values []string                 `json:"values" yaml:"values"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s", c.Signal, strings.Join(c.Values, " vs "))
}

// Decision is the ask-vs-infer verdict for one section.
type Decision struct {
	CanInfer          bool                        `json:"can_infer" yaml:"can_infer"`
	Confidence        discovery.Confidence        `json:"confidence" yaml:"confidence"`
	Justification     string                      `json:"justification" yaml:"justification"`
	SupportingSignals []discovery.ExtractedSignal `json:"supporting_signals,omitempty" yaml:"supporting_signals,omitempty"`
	Conflicts         []Conflict                  `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

var sectionSignals = map[persona.Section][]discovery.PrioritySignal{
	persona.SectionPanelRole: {discovery.DiscomfortTriggers, discovery.DeferralPreferences},
	persona.SectionRubric:    discovery.PrioritySignals(),
	persona.SectionReasoning: {discovery.EvidenceStandards, discovery.RiskPosture},
	persona.SectionInteraction: {
		discovery.CommunicationRegister,
		discovery.DiscomfortTriggers,
	},
	persona.SectionOptional: {discovery.CommunicationRegister},
}

// SignalsFor returns the signals that inform section. Purpose and
// boundaries have none.
func SignalsFor(section persona.Section) []discovery.PrioritySignal {
	return slices.Clone(sectionSignals[section])
}

// Inferable reports whether section may ever be inferred.
func Inferable(section persona.Section) bool {
	return section != persona.SectionPurpose && section != persona.SectionBoundaries
}

// EvaluateInference applies the ask-vs-infer rules to section.
func EvaluateInference(section persona.Section, state discovery.State) Decision {
	if !Inferable(section) {
		return Decision{
			Confidence:    discovery.Low,
			Justification: fmt.Sprintf("%s is always populated from direct input", section),
		}
	}

	wanted := sectionSignals[section]
	var relevant []discovery.ExtractedSignal
	for _, s := range state.Signals {
		if slices.Contains(wanted, s.Signal) {
			relevant = append(relevant, s)
		}
	}

	if conflicts := findConflicts(relevant); len(conflicts) > 0 {
		parts := make([]string, len(conflicts))
		for i, c := range conflicts {
			parts[i] = c.String()
		}
		return Decision{
			Confidence:        discovery.Low,
			Justification:     "conflicting signals must be resolved by the user: " + strings.Join(parts, "; "),
			SupportingSignals: relevant,
			Conflicts:         conflicts,
		}
	}

	var high, medium int
	for _, s := range relevant {
		switch s.Confidence {
		case discovery.High:
			high++
		case discovery.Medium:
			medium++
		}
	}

	switch {
	case high >= 2:
		return Decision{
			CanInfer:          true,
			Confidence:        discovery.High,
			Justification:     fmt.Sprintf("%d high-confidence signals agree", high),
			SupportingSignals: relevant,
		}
	case high >= 1 && medium >= 1:
		return Decision{
			CanInfer:          true,
			Confidence:        discovery.Medium,
			Justification:     fmt.Sprintf("%d high- and %d medium-confidence signals agree", high, medium),
			SupportingSignals: relevant,
		}
	default:
		return Decision{
			Confidence:        discovery.Low,
			Justification:     "insufficient signal strength",
			SupportingSignals: relevant,
		}
	}
}

// findConflicts groups signals by name and reports names seen with two or
// more distinct values, in canonical signal order.
func findConflicts(signals []discovery.ExtractedSignal) []Conflict {
	values := make(map[discovery.PrioritySignal][]string)
	for _, s := range signals {
		v := strings.TrimSpace(s.Value)
		if !slices.Contains(values[s.Signal], v) {
			values[s.Signal] = append(values[s.Signal], v)
		}
	}
	var out []Conflict
	for _, name := range discovery.PrioritySignals() {
		if vs := values[name]; len(vs) >= 2 {
			out = append(out, Conflict{Signal: name, Values: vs})
		}
	}
	return out
}
