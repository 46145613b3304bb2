package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

var titleCaser = cases.Title(language.English)

// DisplayName turns a snake_case id into a title-cased name.
func DisplayName(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

// Persona returns a valid persona with the given intervention frequency.
func Persona(id string, intervention int) persona.Persona {
	note := func(d rubric.Dimension) string { return "fixture note for " + string(d) }
	score := func(d rubric.Dimension, v int) rubric.Score { return rubric.Score{Score: v, Note: note(d)} }
	name := DisplayName(id)
	return persona.Persona{
		ID:   id,
		Name: name,
		Purpose: persona.Purpose{
			Description: name + " reviews opportunities from its own angle.",
			InvokeWhen:  []string{"An opportunity needs a " + name + " view"},
		},
		PanelRole: persona.PanelRole{
			Contribution:         "Perspective of the " + name,
			ExpectedValue:        "Earlier detection of blind spots",
			FailureModesSurfaced: []string{"Unchallenged assumptions"},
		},
		Rubric: rubric.Profile{
			RiskAppetite:          score(rubric.RiskAppetite, 5),
			EvidenceThreshold:     score(rubric.EvidenceThreshold, 6),
			ToleranceForAmbiguity: score(rubric.ToleranceForAmbiguity, 5),
			InterventionFrequency: score(rubric.InterventionFrequency, intervention),
			EscalationBias:        score(rubric.EscalationBias, 5),
			DeliveryVsRigourBias:  score(rubric.DeliveryVsRigourBias, 5),
		},
		Reasoning: persona.Reasoning{
			DefaultAssumptions:      []string{"Claims need support"},
			SystematicallyQuestions: []string{"What would change our mind"},
		},
		Interaction: persona.Interaction{
			PrimaryMode:       persona.ModeMixed,
			ChallengeStrength: persona.StrengthModerate,
			Tone:              "direct",
		},
		Boundaries: persona.Boundaries{
			WillNotEngage: []string{"Personal attacks"},
			WillNotClaim:  []string{"Certainty about the future"},
		},
	}
}

// stageInterventions gives each stage panel a spread of speaking behaviour.
var stageInterventions = []int{9, 6, 5, 2}

// StagePersonas returns the four fixture personas for stage.
func StagePersonas(stage decision.Stage) []persona.Persona {
	ids := decision.StagePersonas(stage)
	out := make([]persona.Persona, len(ids))
	for i, id := range ids {
		out[i] = Persona(id, stageInterventions[i])
	}
	return out
}

// WriteStagePersonas writes all sixteen stage personas as YAML under dir.
func WriteStagePersonas(t testing.TB, dir string) string {
	t.Helper()
	for _, stage := range decision.Stages() {
		for _, p := range StagePersonas(stage) {
			if err := persona.WriteFile(filepath.Join(dir, p.ID+".yaml"), p); err != nil {
				t.Fatalf("write persona %s: %v", p.ID, err)
			}
		}
	}
	return dir
}
