package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorycross/persona-x-sub000/internal/discovery"
	"github.com/victorycross/persona-x-sub000/internal/persona"
)

func state(signals ...discovery.ExtractedSignal) discovery.State {
	return discovery.State{Purpose: "guard ethics", Signals: signals}
}

func sig(name discovery.PrioritySignal, value string, c discovery.Confidence) discovery.ExtractedSignal {
	return discovery.ExtractedSignal{Signal: name, Value: value, Confidence: c, SourceQuestionID: "q"}
}

func TestTwoHighSignalsInfer(t *testing.T) {
	s := state(
		sig(discovery.DiscomfortTriggers, "coercion", discovery.High),
		sig(discovery.DeferralPreferences, "legal to counsel", discovery.High),
	)
	d := EvaluateInference(persona.SectionPanelRole, s)
	assert.True(t, d.CanInfer)
	assert.Equal(t, discovery.High, d.Confidence)
	assert.Len(t, d.SupportingSignals, 2)
}

func TestHighPlusMediumInfersWithMediumConfidence(t *testing.T) {
	s := state(
		sig(discovery.EvidenceStandards, "trials", discovery.High),
		sig(discovery.RiskPosture, "cautious", discovery.Medium),
	)
	d := EvaluateInference(persona.SectionReasoning, s)
	assert.True(t, d.CanInfer)
	assert.Equal(t, discovery.Medium, d.Confidence)
}

func TestWeakSignalsAreInsufficient(t *testing.T) {
	s := state(
		sig(discovery.EvidenceStandards, "trials", discovery.High),
		sig(discovery.RiskPosture, "cautious", discovery.Low),
		// Irrelevant to reasoning.
		sig(discovery.CommunicationRegister, "blunt", discovery.High),
	)
	d := EvaluateInference(persona.SectionReasoning, s)
	assert.False(t, d.CanInfer)
	assert.Equal(t, discovery.Low, d.Confidence)
	assert.Equal(t, "insufficient signal strength", d.Justification)
	assert.Len(t, d.SupportingSignals, 2)
}

func TestConflictsBlockInference(t *testing.T) {
	s := state(
		sig(discovery.RiskPosture, "cautious", discovery.High),
		sig(discovery.RiskPosture, "bold", discovery.High),
		sig(discovery.EvidenceStandards, "trials", discovery.High),
	)
	d := EvaluateInference(persona.SectionRubric, s)
	assert.False(t, d.CanInfer)
	assert.Equal(t, discovery.Low, d.Confidence)
	require.Len(t, d.Conflicts, 1)
	assert.Equal(t, discovery.RiskPosture, d.Conflicts[0].Signal)
	assert.Equal(t, []string{"cautious", "bold"}, d.Conflicts[0].Values)
}

func TestRepeatedIdenticalValueIsNotAConflict(t *testing.T) {
	s := state(
		sig(discovery.CommunicationRegister, "blunt", discovery.High),
		sig(discovery.CommunicationRegister, "blunt ", discovery.High),
	)
	d := EvaluateInference(persona.SectionOptional, s)
	assert.True(t, d.CanInfer)
	assert.Empty(t, d.Conflicts)
}

func TestPurposeAndBoundariesNeverInferred(t *testing.T) {
	var strong []discovery.ExtractedSignal
	for _, name := range discovery.PrioritySignals() {
		strong = append(strong, sig(name, "same", discovery.High), sig(name, "same", discovery.High))
	}
	for _, section := range []persona.Section{persona.SectionPurpose, persona.SectionBoundaries} {
		d := EvaluateInference(section, state(strong...))
		assert.False(t, d.CanInfer, section)
		assert.False(t, Inferable(section))
		assert.Empty(t, SignalsFor(section))
	}
}

func TestEveryInferableSectionHasSignals(t *testing.T) {
	for _, section := range persona.Sections() {
		if Inferable(section) {
			assert.NotEmpty(t, SignalsFor(section), section)
		}
	}
	assert.Len(t, SignalsFor(persona.SectionRubric), 5)
}
