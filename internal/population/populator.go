package population

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/discovery"
	"github.com/victorycross/persona-x-sub000/internal/inference"
	"github.com/victorycross/persona-x-sub000/internal/persona"
)

// Mode says whether a section is generated from inference or from an answer.
type Mode string

const (
	ModeInfer Mode = "infer"
	ModeAsk   Mode = "ask"
)

// GenerationRequest is everything a generator needs for one section.
type GenerationRequest struct {
	Section   persona.Section
	Mode      Mode
	Answer    string
	Discovery discovery.State
	Decision  inference.Decision
	Persona   persona.Persona
}

// SectionGenerator produces the payload for one section.
type SectionGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (Payload, error)
}

// Result is the outcome of a population run.
type Result struct {
	State    State
	Warnings []string
}

// Populator walks the pipeline, asking or inferring each section.
type Populator struct {
	Asker     discovery.Asker
	Generator SectionGenerator
	Logger    *slog.Logger
}

var sectionQuestions = map[persona.Section]string{
	persona.SectionPurpose:     "In a sentence or two, what is this persona for, and when should a panel call on it?",
	persona.SectionPanelRole:   "What does this persona contribute to a panel, and which failure modes should it catch?",
	persona.SectionRubric:      "How bold or cautious is this persona, how much evidence does it need, and how often does it speak up?",
	persona.SectionReasoning:   "What does this persona assume by default, and what does it always question?",
	persona.SectionInteraction: "How does this persona engage: mostly questions, mostly assertions, or a mix? How hard does it push?",
	persona.SectionBoundaries:  "What will this persona refuse to engage with, what will it never claim, and what does it defer to others?",
	persona.SectionOptional:    "Any invocation cues or notes on voice? Leave blank to skip.",
}

// Question returns the operator prompt for section.
func Question(section persona.Section) string {
	return sectionQuestions[section]
}

// Run populates every remaining section of s. Generation failures are
// logged, the section is flagged in NeedsRefinement, and the pipeline
// advances anyway. Asker failures abort the run.
func (p Populator) Run(ctx context.Context, s State, d discovery.State) (Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var warnings []string

	for {
		section, ok := GetCurrentSection(s)
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{State: s, Warnings: warnings}, err
		}

		decision := inference.EvaluateInference(section, d)
		req := GenerationRequest{
			Section:   section,
			Mode:      ModeAsk,
			Discovery: d,
			Decision:  decision,
			Persona:   s.Persona,
		}
		rec := Record{Section: section, Method: MethodDirectInput, Confidence: discovery.High}
		if decision.CanInfer {
			req.Mode = ModeInfer
			rec = Record{
				Section:       section,
				Method:        MethodInferred,
				Confidence:    decision.Confidence,
				SourceSignals: decision.SupportingSignals,
				Justification: decision.Justification,
			}
		} else {
			answer, err := p.Asker.Ask(ctx, Question(section))
			if err != nil {
				return Result{State: s, Warnings: warnings}, fmt.Errorf("ask %s: %w", section, err)
			}
			req.Answer = strings.TrimSpace(answer)
			if req.Answer == "" && section == persona.SectionOptional {
				s = AdvanceSection(s)
				continue
			}
		}

		payload, err := p.Generator.Generate(ctx, req)
		if err == nil {
			s, err = RecordPopulation(s, payload, rec)
		}
		if err != nil {
			if ctx.Err() != nil {
				return Result{State: s, Warnings: warnings}, ctx.Err()
			}
			logger.Warn("section generation failed, flagged for refinement",
				"section", section,
				"mode", req.Mode,
				"error", err)
			s = s.clone()
			s.NeedsRefinement = append(s.NeedsRefinement, section)
			s = AdvanceSection(s)
			continue
		}

		for _, w := range CheckCrossSectionConsistency(s, section) {
			logger.Info("consistency warning", "section", section, "warning", w)
			warnings = append(warnings, w)
		}
		logger.Debug("section populated", "section", section, "method", rec.Method, "confidence", rec.Confidence)
		s = AdvanceSection(s)
	}
	return Result{State: s, Warnings: warnings}, nil
}

// DecodePayload decodes JSON into the payload type for section and checks
// the section's required fields.
func DecodePayload(section persona.Section, data []byte) (Payload, error) {
	payload := EmptyPayload(section)
	if payload == nil {
		return nil, fmt.Errorf("unknown section %q", section)
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return nil, err
	}
	if errs := sectionErrors(payload); len(errs) > 0 {
		return nil, fmt.Errorf("invalid %s: %s", section, strings.Join(errs, "; "))
	}
	return payload, nil
}

// sectionErrors validates a payload in isolation by applying it to an
// empty persona and keeping the violations under its own section.
func sectionErrors(payload Payload) []string {
	var probe persona.Persona
	payload.apply(&probe)
	prefix := string(payload.Section()) + "."
	var out []string
	for _, fe := range persona.Validate(probe) {
		if strings.HasPrefix(fe.Path, prefix) {
			out = append(out, fe.String())
		}
	}
	return out
}
