package rubric

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorycross/persona-x-sub000/internal/schema"
)

func validProfile() Profile {
	note := "calibrated against prior panels"
	return Profile{
		RiskAppetite:          Score{Score: 4, Note: note},
		EvidenceThreshold:     Score{Score: 8, Note: note},
		ToleranceForAmbiguity: Score{Score: 5, Note: note},
		InterventionFrequency: Score{Score: 7, Note: note},
		EscalationBias:        Score{Score: 6, Note: note},
		DeliveryVsRigourBias:  Score{Score: 3, Note: note},
	}
}

func profileMap(t *testing.T, p Profile) map[string]any {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestValidateAcceptsCompleteProfile(t *testing.T) {
	assert.Empty(t, Validate(validProfile()))
}

func TestValidateRejectsOutOfRangeAndShortNotes(t *testing.T) {
	p := validProfile()
	p.RiskAppetite.Score = 0
	p.EscalationBias.Score = 11
	p.DeliveryVsRigourBias.Note = "   short  "

	errs := Validate(p)
	require.Len(t, errs, 3)
	assert.Equal(t, "risk_appetite.score", errs[0].Path)
	assert.Equal(t, "escalation_bias.score", errs[1].Path)
	assert.Equal(t, "delivery_vs_rigour_bias.note", errs[2].Path)
}

func TestParseMapRoundTrip(t *testing.T) {
	p, err := ParseMap(profileMap(t, validProfile()))
	require.NoError(t, err)
	assert.Equal(t, validProfile(), p)
}

func TestParseMapRejectsEachMissingDimension(t *testing.T) {
	for _, d := range Dimensions() {
		t.Run(string(d), func(t *testing.T) {
			m := profileMap(t, validProfile())
			delete(m, string(d))

			_, err := ParseMap(m)
			require.Error(t, err)

			var ve *schema.ValidationError
			require.ErrorAs(t, err, &ve)
			found := false
			for _, fe := range ve.Errors {
				if strings.HasPrefix(fe.Path, string(d)) {
					found = true
				}
			}
			assert.True(t, found, "expected an error under %s, got %v", d, ve.Errors)
		})
	}
}

func TestParseRejectsNonIntegerScore(t *testing.T) {
	m := profileMap(t, validProfile())
	m["risk_appetite"] = map[string]any{"score": 4.5, "note": "calibrated against prior panels"}

	_, err := ParseMap(m)
	require.Error(t, err)
}

func TestParseRejectsShortNote(t *testing.T) {
	m := profileMap(t, validProfile())
	m["evidence_threshold"] = map[string]any{"score": 8, "note": "too short"}

	_, err := ParseMap(m)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Errors)
	assert.True(t, strings.HasPrefix(ve.Errors[0].Path, "evidence_threshold"))
}

func TestCoherenceWarningsAreAdvisory(t *testing.T) {
	p := validProfile()
	p.RiskAppetite.Score = 9
	p.EvidenceThreshold.Score = 9

	assert.Empty(t, Validate(p), "unusual combinations still validate")
	warnings := CoherenceWarnings(p)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "risk_appetite")
}

func TestDominant(t *testing.T) {
	p := validProfile()
	p.RiskAppetite.Score = 1
	p.InterventionFrequency.Score = 10

	assert.Equal(t, []Dimension{RiskAppetite, InterventionFrequency}, Dominant(p, 2))
	assert.Len(t, Dominant(p, 99), 6)
	assert.Empty(t, Dominant(p, 0))
}
