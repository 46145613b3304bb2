// Package population builds a persona section by section in a fixed order,
// recording for each section whether it came from the operator or was
// inferred from discovery signals.
//
// State is a value; every operation returns a new State.
package population

import (
	"errors"
	"fmt"
	"slices"

	"github.com/victorycross/persona-x-sub000/internal/discovery"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// Method is how a section was populated.
type Method string

const (
	MethodDirectInput Method = "direct_input"
	MethodInferred    Method = "inferred"
)

// Record describes how one section was populated.
type Record struct {
	Section       persona.Section             `json:"section" yaml:"section"`
	Method        Method                      `json:"method" yaml:"method"`
	Confidence    discovery.Confidence        `json:"confidence" yaml:"confidence"`
	SourceSignals []discovery.ExtractedSignal `json:"source_signals,omitempty" yaml:"source_signals,omitempty"`
	Justification string                      `json:"justification,omitempty" yaml:"justification,omitempty"`
}

// State is the population pipeline position and the partial persona.
type State struct {
	Index           int               `json:"index" yaml:"index"`
	Completed       []persona.Section `json:"completed" yaml:"completed"`
	Records         []Record          `json:"records" yaml:"records"`
	Persona         persona.Persona   `json:"persona" yaml:"persona"`
	NeedsRefinement []persona.Section `json:"needs_refinement,omitempty" yaml:"needs_refinement,omitempty"`
}

// Errors returned by RecordPopulation.
var (
	ErrPipelineFinished = errors.New("population pipeline has no current section")
	ErrWrongSection     = errors.New("payload does not match the current section")
	ErrNotInferable     = errors.New("section must be populated from direct input")
	ErrAlreadyRecorded  = errors.New("section already recorded")
)

// NewState starts a pipeline for a persona with the given id and name.
func NewState(id, name string) State {
	return State{Persona: persona.Persona{ID: id, Name: name}}
}

// Order returns the fixed section order.
func Order() []persona.Section {
	return persona.Sections()
}

// GetCurrentSection returns the section at the current index, or false past the end.
func GetCurrentSection(s State) (persona.Section, bool) {
	order := Order()
	if s.Index < 0 || s.Index >= len(order) {
		return "", false
	}
	return order[s.Index], true
}

// AdvanceSection marks the current section completed and moves on. Past
// the end it returns s unchanged.
func AdvanceSection(s State) State {
	section, ok := GetCurrentSection(s)
	if !ok {
		return s
	}
	out := s.clone()
	out.Completed = append(out.Completed, section)
	out.Index++
	return out
}

// RecordPopulation writes payload into the current section's slot and
// appends rec. It does not advance. On error s is returned unchanged.
func RecordPopulation(s State, payload Payload, rec Record) (State, error) {
	current, ok := GetCurrentSection(s)
	if !ok {
		return s, ErrPipelineFinished
	}
	if payload == nil || payload.Section() != current {
		return s, fmt.Errorf("%w: current %s", ErrWrongSection, current)
	}
	if rec.Section != "" && rec.Section != current {
		return s, fmt.Errorf("%w: record names %s, current %s", ErrWrongSection, rec.Section, current)
	}
	if rec.Method == MethodInferred && (current == persona.SectionPurpose || current == persona.SectionBoundaries) {
		return s, fmt.Errorf("%w: %s", ErrNotInferable, current)
	}
	for _, r := range s.Records {
		if r.Section == current {
			return s, fmt.Errorf("%w: %s", ErrAlreadyRecorded, current)
		}
	}

	out := s.clone()
	payload.apply(&out.Persona)
	rec.Section = current
	if rec.Method == "" {
		rec.Method = MethodDirectInput
	}
	out.Records = append(out.Records, rec)
	return out, nil
}

// IsPipelineComplete holds once every required section has been advanced
// through, whether or not the optional section was reached.
func IsPipelineComplete(s State) bool {
	for _, section := range persona.RequiredSections() {
		if !slices.Contains(s.Completed, section) {
			return false
		}
	}
	return true
}

// RecordFor returns the population record for section, if any.
func RecordFor(s State, section persona.Section) (Record, bool) {
	for _, r := range s.Records {
		if r.Section == section {
			return r, true
		}
	}
	return Record{}, false
}

// CheckCrossSectionConsistency returns advisory warnings for section
// against what has already been populated. Reasoning and interaction are
// checked against the rubric; the rubric reports its own coherence.
func CheckCrossSectionConsistency(s State, section persona.Section) []string {
	p := s.Persona
	var warnings []string
	switch section {
	case persona.SectionReasoning:
		if p.Rubric.EvidenceThreshold.Score >= 7 && len(p.Reasoning.SystematicallyQuestions) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"rubric evidence_threshold is %d but reasoning lists nothing the persona systematically questions",
				p.Rubric.EvidenceThreshold.Score))
		}
	case persona.SectionInteraction:
		if p.Rubric.InterventionFrequency.Score >= 7 &&
			p.Interaction.ChallengeStrength == persona.StrengthGentle &&
			p.Interaction.PrimaryMode == persona.ModeQuestionsOnly {
			warnings = append(warnings, fmt.Sprintf(
				"rubric intervention_frequency is %d but interaction is gentle and questions-only",
				p.Rubric.InterventionFrequency.Score))
		}
	case persona.SectionRubric:
		warnings = append(warnings, rubric.CoherenceWarnings(p.Rubric)...)
	}
	return warnings
}

// Finalize returns the built persona once the pipeline is complete and the
// persona validates.
func Finalize(s State) (persona.Persona, error) {
	if !IsPipelineComplete(s) {
		return persona.Persona{}, errors.New("population pipeline is not complete")
	}
	if errs := persona.Validate(s.Persona); len(errs) > 0 {
		return persona.Persona{}, &persona.LoadError{Path: s.Persona.ID, Err: errors.New("validation failed"), Fields: errs}
	}
	return s.Persona, nil
}

func (s State) clone() State {
	out := s
	out.Completed = slices.Clone(s.Completed)
	out.Records = slices.Clone(s.Records)
	out.NeedsRefinement = slices.Clone(s.NeedsRefinement)
	return out
}
